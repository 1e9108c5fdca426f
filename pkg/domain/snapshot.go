package domain

import "time"

// Snapshot is cached provider data for a single node.
// Stores persist it after successful live calls; the inspector serves it
// when the governor refuses a live call.
type Snapshot struct {
	// Element is the node's own description, kept for roots so a degraded
	// inspector can still show which application it is looking at.
	Element    *ElementInfo     `json:"element,omitempty"`
	Children   []ElementInfo    `json:"children,omitempty"`
	Actions    []string         `json:"actions,omitempty"`
	Attributes map[string]Value `json:"attributes,omitempty"`
	CapturedAt time.Time        `json:"captured_at"`
}

// Merge returns a copy of s with every non-nil section of next replacing the
// corresponding section. Sections are replaced wholesale, never merged.
func (s *Snapshot) Merge(next *Snapshot) *Snapshot {
	out := &Snapshot{}
	if s != nil {
		*out = *s
	}
	if next == nil {
		return out
	}
	if next.Element != nil {
		out.Element = next.Element
	}
	if next.Children != nil {
		out.Children = next.Children
	}
	if next.Actions != nil {
		out.Actions = next.Actions
	}
	if next.Attributes != nil {
		out.Attributes = next.Attributes
	}
	if !next.CapturedAt.IsZero() {
		out.CapturedAt = next.CapturedAt
	}
	return out
}
