/*
Package axnav inspects and drives the UI object graph of another running
application through an accessibility provider.

Accessibility providers are slow, occasionally hang, and cannot be
interrupted. An Inspector puts every provider call behind a governor (which
refuses calls when the tool is busy or the CPU is saturated) and an executor
(which bounds each call with a deadline and retries transient failures). It
materializes the UI lazily into a tree.Node graph and remembers what it saw
in a snapshot store, so a refused call can still be answered from cache.

# Usage

	provider, _ := fixture.Open("apps.yaml")
	insp, err := axnav.New(provider,
		axnav.WithGovernor(governor.New(governor.WithSensor(sensor.NewProcess()))),
		axnav.WithLogger(logging.New(slog.LevelInfo)),
	)
	if err != nil {
		log.Fatal(err)
	}

	root, err := insp.Application(ctx, pid)
	if err != nil {
		log.Fatal(err)
	}
	ok, err := insp.Resolve(ctx, root, "AXWindow[Main]/AXButton[OK]")
	if err != nil {
		log.Fatal(domain.HintFor(err))
	}
	_ = insp.Perform(ctx, ok, "AXPress")

The interactive navigator (pkg/navigator), the HTTP API and the MCP server
are all thin layers over an Inspector.
*/
package axnav
