package navigator

import (
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
)

// Relation says why an entry is in the flat list.
type Relation string

const (
	RelationRoot    Relation = "root"
	RelationSibling Relation = "sibling"
	RelationChild   Relation = "child"
	RelationMatch   Relation = "match"
)

// Entry is one numbered line of the flat index list. Its number is its
// position in Response.Entries.
type Entry struct {
	node *tree.Node

	Label       string   `json:"label"`
	Path        string   `json:"path"`
	Relation    Relation `json:"relation"`
	Selected    bool     `json:"selected,omitempty"`
	HasChildren bool     `json:"has_children,omitempty"`
	Loaded      bool     `json:"loaded,omitempty"`
	// Synthetic entries come from the snapshot cache.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Node returns the live node behind the entry.
func (e Entry) Node() *tree.Node { return e.node }

// Attribute is one name/value pair shown by attrs.
type Attribute struct {
	Name  string       `json:"name"`
	Value domain.Value `json:"value"`
}

// Response is the outcome of one command.
type Response struct {
	State      State            `json:"state"`
	Selection  string           `json:"selection,omitempty"`
	Entries    []Entry          `json:"entries"`
	Status     string           `json:"status"`
	Actions    []string         `json:"actions,omitempty"`
	Attributes []Attribute      `json:"attributes,omitempty"`
	Apps       []domain.AppInfo `json:"apps,omitempty"`
	// Degraded is set when the answer came from cache.
	Degraded bool `json:"degraded,omitempty"`
	// Help asks the presentation layer to show the command reference.
	Help bool   `json:"help,omitempty"`
	Err  error  `json:"-"`
	Hint string `json:"hint,omitempty"`
}

// Failed reports whether the command failed.
func (r Response) Failed() bool { return r.Err != nil }
