package navigator_test

import (
	"context"
	"testing"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/pkg/adapters/fixture"
	"github.com/aretw0/axnav/pkg/navigator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_IndependentUntilQuit(t *testing.T) {
	fx, err := fixture.Parse([]byte(desktop))
	require.NoError(t, err)
	p := fixture.New(fx)
	t.Cleanup(func() { _ = p.Close() })
	in, err := axnav.New(p)
	require.NoError(t, err)
	t.Cleanup(in.Close)

	s := navigator.NewSessions(in, nil)
	ctx := context.Background()

	assert.Equal(t, navigator.Browsing, s.Execute(ctx, "a", "open 101").State)
	assert.Equal(t, navigator.Idle, s.Execute(ctx, "b", "apps").State)
	assert.Equal(t, 2, s.Len())

	r := s.Execute(ctx, "a", "goto AXWindow[Prefs]")
	require.NoError(t, r.Err)
	assert.Equal(t, "AXApplication[TextEdit]/AXWindow[Prefs]", r.Selection)

	assert.Equal(t, navigator.Terminated, s.Execute(ctx, "a", "quit").State)
	assert.Equal(t, 1, s.Len())

	r = s.Execute(ctx, "a", "expand")
	assert.Error(t, r.Err, "a new session has nothing open")
	assert.Equal(t, navigator.Idle, r.State)
}
