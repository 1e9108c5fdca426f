/*
Package fixture is an in-memory accessibility provider built from a YAML or
JSON description of running applications and their UI trees.

It backs tests, demos and offline use of the CLI. Elements can be made slow
(latency), stuck (hang), flaky (fail_children) or unusable (disabled,
hidden) to exercise the executor and governor. Latency and hangs ignore the
caller's context on purpose: real accessibility calls cannot be interrupted
either.

	applications:
	  - pid: 101
	    name: TextEdit
	    focused: true
	    root:
	      role: AXApplication
	      title: TextEdit
	      children:
	        - role: AXWindow
	          title: Untitled
	          window: {main: true}
	          children:
	            - role: AXButton
	              title: OK
	              actions: [AXPress]
*/
package fixture
