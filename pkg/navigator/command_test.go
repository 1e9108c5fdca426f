package navigator_test

import (
	"testing"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/navigator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want navigator.Command
	}{
		{"3", navigator.Command{Verb: navigator.VerbSelect, N: 3}},
		{"select 2", navigator.Command{Verb: navigator.VerbSelect, N: 2}},
		{"s 0", navigator.Command{Verb: navigator.VerbSelect, N: 0}},
		{"  UP ", navigator.Command{Verb: navigator.VerbParent}},
		{"..", navigator.Command{Verb: navigator.VerbParent}},
		{"e", navigator.Command{Verb: navigator.VerbExpand}},
		{"collapse", navigator.Command{Verb: navigator.VerbCollapse}},
		{"actions", navigator.Command{Verb: navigator.VerbActions}},
		{"x 1", navigator.Command{Verb: navigator.VerbExecute, N: 1}},
		{"refresh", navigator.Command{Verb: navigator.VerbRefresh}},
		{"attrs", navigator.Command{Verb: navigator.VerbAttrs}},
		{"exit", navigator.Command{Verb: navigator.VerbQuit}},
		{"q", navigator.Command{Verb: navigator.VerbQuit}},
		{"apps", navigator.Command{Verb: navigator.VerbApps}},
		{"open 4242", navigator.Command{Verb: navigator.VerbOpen, N: 4242}},
		{"?", navigator.Command{Verb: navigator.VerbHelp}},
		{"goto AXWindow[Untitled 2]/AXButton[OK]", navigator.Command{Verb: navigator.VerbGoto, Arg: "AXWindow[Untitled 2]/AXButton[OK]"}},
		{"find title Save As", navigator.Command{Verb: navigator.VerbFind, Field: navigator.FieldTitle, Arg: "Save As"}},
		{"find ROLE button", navigator.Command{Verb: navigator.VerbFind, Field: navigator.FieldRole, Arg: "button"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := navigator.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"dance",
		"select",
		"select two",
		"open 1 2",
		"expand now",
		"goto",
		"find button",
		"find label OK",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := navigator.Parse(line)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Contains(t, domain.HintFor(err), "help")
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", navigator.Idle.String())
	assert.Equal(t, "browsing", navigator.Browsing.String())
	assert.Equal(t, "loading", navigator.Loading.String())
	assert.Equal(t, "terminated", navigator.Terminated.String())
	assert.Equal(t, "unknown", navigator.State(42).String())
}
