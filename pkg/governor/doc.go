/*
Package governor keeps the tool from hanging or saturating the CPU while it
polls a slow accessibility provider.

A Governor is a circuit breaker with two inputs: how many provider calls are
in flight, and the latest CPU sample of the current process. When either is
over its limit, or the governor has entered degraded mode, new calls are
refused immediately instead of queued, and callers serve cached or
synthetic data.

	g := governor.New(governor.WithSensor(sensor.NewProcess()))
	go g.Run(ctx)

	children, degraded, err := governor.Guard(ctx, g, ex, "children", fetch, fromCache)
*/
package governor
