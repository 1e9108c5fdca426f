package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/axnav"
	"github.com/aretw0/axnav/pkg/adapters/fixture"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/executor"
	"github.com/aretw0/axnav/pkg/navigator"
	"github.com/aretw0/axnav/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("os/signal.loop"))
}

const desktop = `
applications:
  - pid: 101
    name: TextEdit
    root:
      role: AXApplication
      title: TextEdit
      children:
        - role: AXWindow
          title: Main
          children:
            - role: AXButton
              title: OK
              actions: [AXPress]
        - role: AXWindow
          title: Stuck
          hang: true
`

func setup(t *testing.T) (*fixture.Provider, *navigator.Navigator) {
	t.Helper()
	fx, err := fixture.Parse([]byte(desktop))
	require.NoError(t, err)
	p := fixture.New(fx)
	t.Cleanup(func() { _ = p.Close() })

	ex := executor.New()
	ex.Timeout = 30 * time.Second
	ex.RetryDelay = 0
	in, err := axnav.New(p, axnav.WithExecutor(ex))
	require.NoError(t, err)
	t.Cleanup(in.Close)

	return p, navigator.New(in)
}

func TestRun_TextSession(t *testing.T) {
	_, nav := setup(t)
	var out bytes.Buffer
	input := strings.NewReader("open 101\n1\nexpand\nbogus\nquit\napps\n")

	r := runner.New(nav, runner.WithInputHandler(runner.NewTextHandler(input, &out)))
	require.NoError(t, r.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, `opened AXApplication("TextEdit")`)
	assert.Contains(t, text, `*  1   AXWindow("Main")`)
	assert.Contains(t, text, `AXButton("OK")`)
	assert.Contains(t, text, "error: ")
	assert.Contains(t, text, "hint: type help to list the commands")
	assert.Contains(t, text, "bye")
	assert.NotContains(t, text, "applications", "nothing runs after quit")
	assert.Equal(t, navigator.Terminated, nav.State())
}

func TestRun_EndOfInputEndsSession(t *testing.T) {
	_, nav := setup(t)
	var out bytes.Buffer

	r := runner.New(nav, runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("apps"), &out)))
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "TextEdit")
	assert.Equal(t, navigator.Idle, nav.State())
}

func TestRun_InitialPID(t *testing.T) {
	_, nav := setup(t)
	var out bytes.Buffer

	r := runner.New(nav,
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), &out, runner.WithPrompt(""))),
		runner.WithInitialPID(101))
	require.NoError(t, r.Run(context.Background()))

	assert.True(t, strings.HasPrefix(out.String(), "*  0 AXApplication"), out.String())
	assert.Equal(t, navigator.Browsing, nav.State())
}

func TestRun_HelpUsesRenderer(t *testing.T) {
	_, nav := setup(t)
	var out bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader("help\n"), &out,
		runner.WithHelpRenderer(func(md string) (string, error) { return "RENDERED HELP", nil }))

	require.NoError(t, runner.New(nav, runner.WithInputHandler(h)).Run(context.Background()))
	assert.Contains(t, out.String(), "RENDERED HELP")
}

func TestRun_InterruptAtPromptEndsSession(t *testing.T) {
	_, nav := setup(t)
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	var out bytes.Buffer
	interrupts := make(chan struct{})
	r := runner.New(nav,
		runner.WithInputHandler(runner.NewTextHandler(pr, &syncWriter{w: &out})),
		runner.WithInterruptSource(interrupts))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	interrupts <- struct{}{}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop on interrupt")
	}
	assert.Contains(t, out.String(), "[system] interrupted")
}

func TestRun_InterruptCancelsOnlyTheRunningCommand(t *testing.T) {
	p, nav := setup(t)
	out := &syncWriter{w: &bytes.Buffer{}}
	interrupts := make(chan struct{})

	// Entry 2 is the hanging window; expanding it blocks in the provider.
	input := strings.NewReader("open 101\n2\nexpand\nquit\n")
	r := runner.New(nav,
		runner.WithInputHandler(runner.NewTextHandler(input, out)),
		runner.WithInterruptSource(interrupts))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	require.Eventually(t, func() bool { return p.Calls("Children") >= 2 }, 5*time.Second, 5*time.Millisecond)
	interrupts <- struct{}{}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not finish")
	}
	text := out.String()
	assert.Contains(t, text, "[system] command interrupted")
	assert.Contains(t, text, "bye", "the session continues after the interrupt")
}

func TestRun_CommandTimeout(t *testing.T) {
	_, nav := setup(t)
	var out bytes.Buffer
	input := strings.NewReader("open 101\n2\nexpand\nquit\n")

	r := runner.New(nav,
		runner.WithInputHandler(runner.NewTextHandler(input, &out)),
		runner.WithCommandTimeout(50*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("command timeout did not bound the hanging expand")
	}

	text := out.String()
	assert.Contains(t, text, "error: ")
	assert.Contains(t, text, "bye")
}

func TestRun_ParentCancellation(t *testing.T) {
	_, nav := setup(t)
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	r := runner.New(nav, runner.WithInputHandler(runner.NewTextHandler(pr, io.Discard)))

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner ignored cancellation")
	}
}

func TestRun_JSONSession(t *testing.T) {
	_, nav := setup(t)
	var out bytes.Buffer
	input := strings.NewReader(`"open 101"` + "\n" + `{"command": "goto AXWindow[Main]/AXButton"}` + "\n" + "execute 7\n" + "help\n")

	r := runner.New(nav, runner.WithInputHandler(runner.NewJSONHandler(input, &out)))
	require.NoError(t, r.Run(context.Background()))

	var replies []map[string]any
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		replies = append(replies, m)
	}
	require.Len(t, replies, 4)

	assert.Equal(t, "browsing", replies[0]["state"])
	assert.Equal(t, "AXApplication[TextEdit]/AXWindow[Main]/AXButton[OK]", replies[1]["selection"])

	failure, ok := replies[2]["error"].(map[string]any)
	require.True(t, ok, "execute out of range fails")
	assert.Equal(t, string(domain.KindInvalidArgument), failure["kind"])
	assert.Equal(t, string(domain.CategoryValidation), failure["category"])
	assert.NotEmpty(t, replies[2]["hint"])

	assert.Contains(t, replies[3]["help"], "# Commands")
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.String()
}
