package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/axnav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Accessors(t *testing.T) {
	s := domain.StringValue("hello")
	got, err := s.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = s.AsNumber()
	assert.ErrorIs(t, err, domain.ErrValueType)

	n := domain.FromAny(42)
	f, err := n.AsNumber()
	require.NoError(t, err)
	assert.Equal(t, 42.0, f)

	b := domain.FromAny(true)
	ok, err := b.AsBool()
	require.NoError(t, err)
	assert.True(t, ok)

	ref := domain.FromAny(domain.ElementInfo{Role: "AXButton", Title: "OK"})
	info, err := ref.AsNodeRef()
	require.NoError(t, err)
	assert.Equal(t, "OK", info.Title)
	assert.Equal(t, `<AXButton("OK")>`, ref.String())

	var zero domain.Value
	assert.Equal(t, domain.ValueUnknown, zero.Kind())
	assert.Equal(t, domain.ValueUnknown, domain.FromAny(struct{}{}).Kind())
}

func TestValue_JSON(t *testing.T) {
	in := map[string]domain.Value{
		"title":   domain.StringValue("Main"),
		"count":   domain.NumberValue(3),
		"focused": domain.BoolValue(false),
		"parent":  domain.NodeRefValue(domain.ElementInfo{Role: "AXWindow", Title: "Main"}),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out map[string]domain.Value
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, in["title"], out["title"])
	assert.Equal(t, in["count"], out["count"])
	assert.Equal(t, in["focused"], out["focused"])
	assert.Equal(t, domain.ValueUnknown, out["parent"].Kind())
	assert.Equal(t, `<AXWindow("Main")>`, out["parent"].String())
}

func TestSnapshot_MergeReplacesWholesale(t *testing.T) {
	base := &domain.Snapshot{
		Actions:    []string{"AXPress", "AXShowMenu"},
		Attributes: map[string]domain.Value{"a": domain.StringValue("1")},
	}
	next := base.Merge(&domain.Snapshot{Actions: []string{"AXRaise"}})

	assert.Equal(t, []string{"AXRaise"}, next.Actions)
	assert.Equal(t, base.Attributes, next.Attributes)
	assert.Equal(t, []string{"AXPress", "AXShowMenu"}, base.Actions)
}
