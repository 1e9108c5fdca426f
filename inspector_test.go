package axnav_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/pkg/adapters/fixture"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/executor"
	"github.com/aretw0/axnav/pkg/governor"
	"github.com/aretw0/axnav/pkg/sensor"
	"github.com/aretw0/axnav/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textEdit = `
applications:
  - pid: 101
    name: TextEdit
    focused: true
    root:
      role: AXApplication
      title: TextEdit
      children:
        - role: AXWindow
          title: Main
          actions: [AXRaise]
          attributes:
            AXModal: false
          children:
            - role: AXButton
              title: OK
              actions: [AXPress]
            - role: AXTextField
              title: Name
            - role: AXGroup
              children:
                - role: AXButton
                  title: Deep
                  actions: [AXPress]
        - role: AXWindow
          title: Stuck
          hang: true
        - role: AXWindow
          title: Flaky
          fail_children: 2
          children:
            - role: AXStaticText
              title: Loaded
`

func newFixture(t *testing.T) *fixture.Provider {
	t.Helper()
	fx, err := fixture.Parse([]byte(textEdit))
	require.NoError(t, err)
	p := fixture.New(fx)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func fastExecutor() *executor.Executor {
	ex := executor.New()
	ex.Timeout = 100 * time.Millisecond
	ex.MaxAttempts = 3
	ex.RetryDelay = 0
	return ex
}

func newInspector(t *testing.T, p *fixture.Provider, opts ...axnav.Option) *axnav.Inspector {
	t.Helper()
	opts = append([]axnav.Option{axnav.WithExecutor(fastExecutor())}, opts...)
	in, err := axnav.New(p, opts...)
	require.NoError(t, err)
	t.Cleanup(in.Close)
	return in
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := axnav.New(nil)
	assert.Error(t, err)
}

func TestApplication_OpensOnceAndReopenReleases(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()

	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, domain.KindApplication, root.Kind())
	assert.Equal(t, "TextEdit", root.App().Name)
	assert.False(t, root.Synthetic())

	again, err := in.Application(ctx, 101)
	require.NoError(t, err)
	assert.Same(t, root, again)
	assert.Equal(t, 1, p.Calls("ApplicationElement"))

	_, err = in.Expand(ctx, root)
	require.NoError(t, err)
	win := root.Children()[0]

	fresh, err := in.Reopen(ctx, 101)
	require.NoError(t, err)
	assert.NotSame(t, root, fresh)
	assert.True(t, root.Released())
	assert.Nil(t, win.Parent())
}

func TestApplication_UnknownPID(t *testing.T) {
	in := newInspector(t, newFixture(t))

	_, err := in.Application(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = in.Application(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestResolve_MaterializesOnDemand(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()

	root, err := in.Application(ctx, 101)
	require.NoError(t, err)

	ok, err := in.Resolve(ctx, root, "Window[Main]/Button[OK]")
	require.NoError(t, err)
	assert.Equal(t, "OK", ok.Title())
	assert.Equal(t, "AXApplication[TextEdit]/AXWindow[Main]/AXButton[OK]", tree.PathOf(ok))

	deep, err := in.Resolve(ctx, root, "AXWindow[Main]/AXButton[Deep]")
	require.NoError(t, err)
	assert.Equal(t, "Deep", deep.Title())

	_, err = in.Resolve(ctx, root, "Window[Main]/Button[Cancel]")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "element may have been removed — refresh", domain.HintFor(err))
}

func TestResolve_MalformedPathTouchesNothing(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	before := p.Calls("Children")

	_, err = in.Resolve(ctx, root, "AXWindow[Main")
	assert.ErrorIs(t, err, domain.ErrMalformedPath)
	assert.Equal(t, before, p.Calls("Children"))
}

func TestMaterialize_RejectsDepthPastLimit(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p, axnav.WithMaxResolveDepth(3))
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	before := p.Calls("Children")

	err = in.Materialize(ctx, root, 1<<20)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, before, p.Calls("Children"))
	assert.False(t, root.ChildrenLoaded())

	require.NoError(t, in.Materialize(ctx, root, 1))
	assert.True(t, root.ChildrenLoaded())
}

func TestFind_AcrossLevels(t *testing.T) {
	in := newInspector(t, newFixture(t))
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)

	buttons, err := in.Find(ctx, root, "button", "", 0)
	require.NoError(t, err)
	var titles []string
	for _, b := range buttons {
		titles = append(titles, b.Title())
	}
	assert.Equal(t, []string{"OK", "Deep"}, titles)

	_, err = in.Find(ctx, root, "", "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExpand_HangingChildTimesOutAndTreeStaysUsable(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	_, err = in.Expand(ctx, root)
	require.NoError(t, err)

	stuck := root.Children()[1]
	require.Equal(t, "Stuck", stuck.Title())

	start := time.Now()
	_, err = in.Expand(ctx, stuck)
	assert.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, stuck.ChildrenLoaded())

	// The abandoned calls do not hold the governor.
	assert.True(t, in.Governor().CanStartOperation())
	ok, err := in.Resolve(ctx, root, "AXWindow[Main]/AXButton[OK]")
	require.NoError(t, err)
	assert.Equal(t, "OK", ok.Title())
}

func TestExpand_RetriesTransientFailures(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)

	flaky, err := in.Resolve(ctx, root, "AXWindow[Flaky]")
	require.NoError(t, err)

	// Preloading may already have consumed some failures.
	if !flaky.ChildrenLoaded() {
		_, err = in.Expand(ctx, flaky)
		require.NoError(t, err)
	}
	require.Len(t, flaky.Children(), 1)
	assert.Equal(t, "Loaded", flaky.Children()[0].Title())
}

func TestActionsAndPerform(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	ok, err := in.Resolve(ctx, root, "AXWindow[Main]/AXButton[OK]")
	require.NoError(t, err)

	actions, degraded, err := in.Actions(ctx, ok)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, []string{"AXPress"}, actions)

	_, _, err = in.Actions(ctx, ok)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Calls("ActionNames"), "actions are cached on the node")

	require.NoError(t, in.Perform(ctx, ok, "AXPress"))
	require.Len(t, p.Performed(), 1)
	assert.Equal(t, "AXPress", p.Performed()[0].Action)

	err = in.Perform(ctx, ok, "AXShowMenu")
	assert.ErrorIs(t, err, domain.ErrUnsupportedAction)
	assert.Equal(t, 2, p.Calls("PerformAction"), "unsupported actions are not retried")

	assert.ErrorIs(t, in.Perform(ctx, ok, ""), domain.ErrInvalidArgument)
}

func TestAttributes(t *testing.T) {
	in := newInspector(t, newFixture(t))
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	win, err := in.Resolve(ctx, root, "AXWindow[Main]")
	require.NoError(t, err)

	attrs, degraded, err := in.Attributes(ctx, win)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, domain.StringValue("Main"), attrs["AXTitle"])
	assert.Equal(t, domain.BoolValue(false), attrs["AXModal"])
	assert.Equal(t, domain.ValueNodeRef, attrs["AXParent"].Kind())
}

func TestRefresh_SwapsFreshNode(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	win, err := in.Resolve(ctx, root, "AXWindow[Main]")
	require.NoError(t, err)
	oldChildren := win.Children()

	p.Rename(p.Find(101, "AXWindow", "Main"), "Renamed")

	fresh, err := in.Refresh(ctx, win)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Title())
	assert.Same(t, root, fresh.Parent())
	assert.Same(t, fresh, root.Children()[0])
	assert.True(t, fresh.ChildrenLoaded())
	assert.True(t, win.Released())
	assert.Nil(t, oldChildren[0].Parent())
}

func TestRefresh_RemovedElement(t *testing.T) {
	p := newFixture(t)
	in := newInspector(t, p)
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	ok, err := in.Resolve(ctx, root, "AXWindow[Main]/AXButton[OK]")
	require.NoError(t, err)

	p.Remove(p.Find(101, "AXButton", "OK"))

	_, err = in.Refresh(ctx, ok)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotEmpty(t, domain.HintFor(err))
}

func TestRefresh_Root(t *testing.T) {
	in := newInspector(t, newFixture(t))
	ctx := context.Background()
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)

	fresh, err := in.Refresh(ctx, root)
	require.NoError(t, err)
	assert.True(t, root.Released())

	current, err := in.Application(ctx, 101)
	require.NoError(t, err)
	assert.Same(t, fresh, current)
}

func TestDegraded_ServesCachedTree(t *testing.T) {
	p := newFixture(t)
	g := governor.New(governor.WithSensor(sensor.Static(100)))
	in := newInspector(t, p, axnav.WithGovernor(g))
	ctx := context.Background()

	// Warm the cache with a live walk.
	apps, err := in.Applications(ctx)
	require.NoError(t, err)
	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	ok, err := in.Resolve(ctx, root, "AXWindow[Main]/AXButton[OK]")
	require.NoError(t, err)
	_, _, err = in.Actions(ctx, ok)
	require.NoError(t, err)

	_, err = g.Sample(ctx)
	require.NoError(t, err)
	require.True(t, g.Degraded())
	calls := p.Calls("ApplicationElement") + p.Calls("Children")

	cachedApps, err := in.Applications(ctx)
	require.NoError(t, err)
	assert.Equal(t, apps, cachedApps)

	cachedRoot, err := in.Reopen(ctx, 101)
	require.NoError(t, err)
	assert.True(t, cachedRoot.Synthetic())
	assert.Equal(t, "TextEdit", cachedRoot.Title())

	cachedOK, err := in.Resolve(ctx, cachedRoot, "AXWindow[Main]/AXButton[OK]")
	require.NoError(t, err)
	assert.True(t, cachedOK.Synthetic())

	actions, degraded, err := in.Actions(ctx, cachedOK)
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.Equal(t, []string{"AXPress"}, actions)

	assert.Equal(t, calls, p.Calls("ApplicationElement")+p.Calls("Children"), "provider untouched while degraded")

	err = in.Perform(ctx, cachedOK, "AXPress")
	assert.ErrorIs(t, err, domain.ErrDegraded)
	assert.Empty(t, p.Performed())
}

func TestDegraded_NothingCached(t *testing.T) {
	g := governor.New(governor.WithSensor(sensor.Static(100)))
	in := newInspector(t, newFixture(t), axnav.WithGovernor(g))
	ctx := context.Background()
	_, _ = g.Sample(ctx)

	_, err := in.Application(ctx, 101)
	assert.ErrorIs(t, err, domain.ErrDegraded)
	assert.NotEmpty(t, domain.HintFor(err))
}

func TestLifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var starts, ends int
	var roots []domain.AppInfo
	hooks := domain.LifecycleHooks{
		OnOperationStart: func(ctx context.Context, e *domain.OperationEvent) {
			mu.Lock()
			starts++
			mu.Unlock()
		},
		OnOperationEnd: func(ctx context.Context, e *domain.OperationEvent) {
			mu.Lock()
			ends++
			mu.Unlock()
			assert.GreaterOrEqual(t, e.Attempts, 1)
		},
		OnRootSelected: func(ctx context.Context, e *domain.RootEvent) {
			mu.Lock()
			roots = append(roots, e.App)
			mu.Unlock()
		},
	}
	in := newInspector(t, newFixture(t), axnav.WithLifecycleHooks(hooks))
	ctx := context.Background()

	root, err := in.Application(ctx, 101)
	require.NoError(t, err)
	_, err = in.Expand(ctx, root)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, starts, ends)
	assert.GreaterOrEqual(t, starts, 2)
	require.Len(t, roots, 1)
	assert.Equal(t, 101, roots[0].PID)
}

func TestFocusedApplication(t *testing.T) {
	in := newInspector(t, newFixture(t))
	app, err := in.FocusedApplication(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TextEdit", app.Name)
}
