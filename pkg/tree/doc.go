/*
Package tree is the in-memory model of a target application's UI.

Nodes own their children exclusively and keep a non-owning back-reference to
their parent. Children are materialized lazily through a Fetcher; whether a
node's children were loaded is tracked separately from whether the list is
empty, and once loaded a node never reverts to unloaded. Refreshing replaces
node instances instead of resetting them.
*/
package tree
