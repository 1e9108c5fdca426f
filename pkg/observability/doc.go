/*
Package observability exports the inspector's behaviour as Prometheus
metrics and structured audit logs.

Both are wired through domain.LifecycleHooks, so the inspector itself does
not depend on either:

	m := observability.NewMetrics(nil)
	in, _ := axnav.New(provider,
		axnav.WithLifecycleHooks(domain.Combine(m.Hooks(), observability.LogHooks(logger))),
		axnav.WithGovernor(governor.New(governor.OnChange(m.ObserveGovernor))),
	)
	http.Handle("/metrics", m.Handler())
*/
package observability
