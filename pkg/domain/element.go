package domain

import "fmt"

// Handle is an opaque reference to the provider's live object.
// It is only meaningful to the provider that produced it and is nil for
// synthetic or mock elements.
type Handle any

// Kind distinguishes the specializations of a UI object.
type Kind string

const (
	KindApplication Kind = "application"
	KindWindow      Kind = "window"
	KindElement     Kind = "element"
)

// AppInfo describes a running application that can be selected as a root.
type AppInfo struct {
	PID      int    `json:"pid" yaml:"pid"`
	Name     string `json:"name" yaml:"name"`
	BundleID string `json:"bundle_id,omitempty" yaml:"bundle_id,omitempty"`
	Focused  bool   `json:"focused,omitempty" yaml:"focused,omitempty"`
}

func (a AppInfo) String() string {
	if a.BundleID != "" {
		return fmt.Sprintf("%s (%s, pid %d)", a.Name, a.BundleID, a.PID)
	}
	return fmt.Sprintf("%s (pid %d)", a.Name, a.PID)
}

// WindowInfo carries the extra fields providers report for windows.
type WindowInfo struct {
	Main      bool `json:"main,omitempty" yaml:"main,omitempty"`
	Minimized bool `json:"minimized,omitempty" yaml:"minimized,omitempty"`
	Focused   bool `json:"focused,omitempty" yaml:"focused,omitempty"`
}

// ElementInfo is the provider's description of one UI object.
type ElementInfo struct {
	// Handle is process-local and never serialized.
	Handle Handle `json:"-" yaml:"-"`

	Kind            Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Role            string `json:"role" yaml:"role"`
	SubRole         string `json:"subrole,omitempty" yaml:"subrole,omitempty"`
	Title           string `json:"title,omitempty" yaml:"title,omitempty"`
	RoleDescription string `json:"role_description,omitempty" yaml:"role_description,omitempty"`

	// HasChildren is the provider's hint that children exist, independent of
	// whether they have been fetched.
	HasChildren bool `json:"has_children,omitempty" yaml:"has_children,omitempty"`

	App    *AppInfo    `json:"app,omitempty" yaml:"app,omitempty"`
	Window *WindowInfo `json:"window,omitempty" yaml:"window,omitempty"`
}

// KindOf returns the declared kind, inferring it from the role when unset.
func (e ElementInfo) KindOf() Kind {
	if e.Kind != "" {
		return e.Kind
	}
	switch {
	case e.App != nil || e.Role == "AXApplication" || e.Role == "Application":
		return KindApplication
	case e.Window != nil || e.Role == "AXWindow" || e.Role == "Window":
		return KindWindow
	default:
		return KindElement
	}
}

// Label renders the element as role("title").
func (e ElementInfo) Label() string {
	if e.Title == "" {
		return e.Role
	}
	return fmt.Sprintf("%s(%q)", e.Role, e.Title)
}
