package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/axnav/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Fixture is the document format.
type Fixture struct {
	// Latency is added to every provider call.
	Latency time.Duration `yaml:"latency" json:"latency"`
	// PermissionDenied makes every call fail as if the tool were not trusted.
	PermissionDenied bool  `yaml:"permission_denied" json:"permission_denied"`
	Applications     []App `yaml:"applications" json:"applications"`
}

// App is one running application.
type App struct {
	PID      int      `yaml:"pid" json:"pid"`
	Name     string   `yaml:"name" json:"name"`
	BundleID string   `yaml:"bundle_id" json:"bundle_id"`
	Focused  bool     `yaml:"focused" json:"focused"`
	Root     *Element `yaml:"root" json:"root"`
}

func (a App) info() domain.AppInfo {
	return domain.AppInfo{PID: a.PID, Name: a.Name, BundleID: a.BundleID, Focused: a.Focused}
}

// Element is one node of an application's UI tree. A pointer to it is the
// handle the provider hands out.
type Element struct {
	Role            string             `yaml:"role" json:"role"`
	SubRole         string             `yaml:"subrole" json:"subrole"`
	Title           string             `yaml:"title" json:"title"`
	RoleDescription string             `yaml:"role_description" json:"role_description"`
	Window          *domain.WindowInfo `yaml:"window" json:"window"`
	Attributes      map[string]any     `yaml:"attributes" json:"attributes"`
	Actions         []string           `yaml:"actions" json:"actions"`
	Children        []*Element         `yaml:"children" json:"children"`

	Disabled bool `yaml:"disabled" json:"disabled"`
	Hidden   bool `yaml:"hidden" json:"hidden"`
	// Latency is added to calls on this element, on top of the global latency.
	Latency time.Duration `yaml:"latency" json:"latency"`
	// Hang blocks calls on this element until the provider is closed.
	Hang bool `yaml:"hang" json:"hang"`
	// FailChildren makes the first N Children calls fail transiently.
	FailChildren int `yaml:"fail_children" json:"fail_children"`

	parent *Element
	app    *App
	gone   bool
}

// Load reads a fixture file. Files ending in .json are parsed as JSON,
// anything else as YAML.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var fx Fixture
		if err := json.Unmarshal(data, &fx); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return &fx, fx.validate()
	}
	return Parse(data)
}

// Parse decodes a YAML fixture.
func Parse(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fx, fx.validate()
}

func (f *Fixture) validate() error {
	seen := make(map[int]bool)
	for _, app := range f.Applications {
		if app.PID <= 0 {
			return fmt.Errorf("application %q: pid must be positive", app.Name)
		}
		if seen[app.PID] {
			return fmt.Errorf("duplicate pid %d", app.PID)
		}
		seen[app.PID] = true
	}
	return nil
}
