/*
Package navigator is the interactive browser over an application's UI tree.

A Navigator is a state machine driven one textual command at a time:

	Idle --open--> Browsing <--> Loading
	  any --quit--> Terminated

While browsing, the user addresses nodes by number in a flat index list
built from the selection: the root, the selection's siblings and, unless the
selection is collapsed, its children. The list is rebuilt on every selection
change, so numbers stay small and stable while the user looks at them.

No command failure terminates the navigator. Every Response carries the
rendered list and a status line; failures also carry a recovery hint.
*/
package navigator
