package fixture

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/axnav/pkg/domain"
)

// Provider serves a Fixture through the ports.Provider interface.
// Safe for concurrent use.
type Provider struct {
	mu      sync.Mutex
	fx      *Fixture
	apps    map[int]*App
	calls   map[string]int
	actions []Performed

	closeOnce sync.Once
	closed    chan struct{}
}

// Performed records one successful PerformAction call.
type Performed struct {
	PID    int
	Path   string
	Action string
}

// New builds a provider over fx. The fixture is owned by the provider from
// then on.
func New(fx *Fixture) *Provider {
	if fx == nil {
		fx = &Fixture{}
	}
	p := &Provider{
		fx:     fx,
		apps:   make(map[int]*App),
		calls:  make(map[string]int),
		closed: make(chan struct{}),
	}
	for i := range fx.Applications {
		app := &fx.Applications[i]
		if app.Root == nil {
			app.Root = &Element{Role: "AXApplication", Title: app.Name}
		}
		link(app.Root, nil, app)
		p.apps[app.PID] = app
	}
	return p
}

// Open loads a fixture file and builds a provider over it.
func Open(path string) (*Provider, error) {
	fx, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(fx), nil
}

func link(e, parent *Element, app *App) {
	e.parent = parent
	e.app = app
	for _, c := range e.Children {
		link(c, e, app)
	}
}

// Close unblocks every hanging call.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// Calls reports how many times a provider method was invoked.
func (p *Provider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

// Performed lists the actions executed so far.
func (p *Provider) Performed() []Performed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.actions)
}

// enter counts the call, checks permission and applies latency. It
// deliberately ignores ctx.
func (p *Provider) enter(method string, e *Element) error {
	p.mu.Lock()
	p.calls[method]++
	denied := p.fx.PermissionDenied
	delay := p.fx.Latency
	hang := false
	if e != nil {
		delay += e.Latency
		hang = e.Hang
	}
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-p.closed:
		}
	}
	if hang {
		<-p.closed
	}
	if denied {
		return domain.NewError(domain.KindPermissionDenied, method, "")
	}
	return nil
}

func (p *Provider) element(method string, h domain.Handle) (*Element, error) {
	e, ok := h.(*Element)
	if !ok || e == nil {
		return nil, domain.NewError(domain.KindAPIMisuse, method, fmt.Sprintf("foreign handle %T", h))
	}
	if err := p.enter(method, e); err != nil {
		return nil, err
	}
	p.mu.Lock()
	gone := e.gone
	p.mu.Unlock()
	if gone {
		return nil, domain.NewError(domain.KindNotFound, method, e.label())
	}
	return e, nil
}

func (e *Element) label() string {
	return domain.ElementInfo{Role: e.Role, Title: e.Title}.Label()
}

// describe must be called with p.mu held.
func (e *Element) describe() domain.ElementInfo {
	info := domain.ElementInfo{
		Handle:          e,
		Role:            e.Role,
		SubRole:         e.SubRole,
		Title:           e.Title,
		RoleDescription: e.RoleDescription,
		HasChildren:     len(e.Children) > 0,
	}
	if e.Window != nil {
		w := *e.Window
		info.Window = &w
	}
	if e.parent == nil && e.app != nil {
		app := e.app.info()
		info.App = &app
		info.Kind = domain.KindApplication
	}
	info.Kind = info.KindOf()
	return info
}

func (p *Provider) Applications(ctx context.Context) ([]domain.AppInfo, error) {
	if err := p.enter("Applications", nil); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.AppInfo, 0, len(p.fx.Applications))
	for _, app := range p.fx.Applications {
		out = append(out, app.info())
	}
	return out, nil
}

func (p *Provider) FocusedApplication(ctx context.Context) (domain.AppInfo, error) {
	if err := p.enter("FocusedApplication", nil); err != nil {
		return domain.AppInfo{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, app := range p.fx.Applications {
		if app.Focused {
			return app.info(), nil
		}
	}
	if len(p.fx.Applications) > 0 {
		return p.fx.Applications[0].info(), nil
	}
	return domain.AppInfo{}, domain.NewError(domain.KindNotFound, "FocusedApplication", "no applications running")
}

func (p *Provider) ApplicationElement(ctx context.Context, pid int) (domain.ElementInfo, error) {
	p.mu.Lock()
	app, ok := p.apps[pid]
	p.mu.Unlock()
	if !ok {
		if err := p.enter("ApplicationElement", nil); err != nil {
			return domain.ElementInfo{}, err
		}
		return domain.ElementInfo{}, domain.NewError(domain.KindNotFound, "ApplicationElement", fmt.Sprintf("pid %d", pid))
	}
	if err := p.enter("ApplicationElement", app.Root); err != nil {
		return domain.ElementInfo{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return app.Root.describe(), nil
}

func (p *Provider) Describe(ctx context.Context, h domain.Handle) (domain.ElementInfo, error) {
	e, err := p.element("Describe", h)
	if err != nil {
		return domain.ElementInfo{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.describe(), nil
}

func (p *Provider) Children(ctx context.Context, h domain.Handle) ([]domain.ElementInfo, error) {
	e, err := p.element("Children", h)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if e.FailChildren > 0 {
		e.FailChildren--
		return nil, fmt.Errorf("children of %s: provider busy", e.label())
	}
	out := make([]domain.ElementInfo, 0, len(e.Children))
	for _, c := range e.Children {
		out = append(out, c.describe())
	}
	return out, nil
}

var builtinAttributes = []string{"AXRole", "AXSubrole", "AXTitle", "AXRoleDescription", "AXEnabled", "AXParent"}

func (p *Provider) AttributeNames(ctx context.Context, h domain.Handle) ([]string, error) {
	e, err := p.element("AttributeNames", h)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	names := slices.Clone(builtinAttributes)
	for _, k := range slices.Sorted(maps.Keys(e.Attributes)) {
		if !slices.Contains(names, k) {
			names = append(names, k)
		}
	}
	return names, nil
}

func (p *Provider) AttributeValue(ctx context.Context, h domain.Handle, name string) (domain.Value, error) {
	e, err := p.element("AttributeValue", h)
	if err != nil {
		return domain.Value{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := e.Attributes[name]; ok {
		return domain.FromAny(v), nil
	}
	switch name {
	case "AXRole":
		return domain.StringValue(e.Role), nil
	case "AXSubrole":
		return domain.StringValue(e.SubRole), nil
	case "AXTitle":
		return domain.StringValue(e.Title), nil
	case "AXRoleDescription":
		return domain.StringValue(e.RoleDescription), nil
	case "AXEnabled":
		return domain.BoolValue(!e.Disabled), nil
	case "AXParent":
		if e.parent == nil {
			return domain.UnknownValue(""), nil
		}
		return domain.NodeRefValue(e.parent.describe()), nil
	}
	return domain.Value{}, domain.NewError(domain.KindAPIMisuse, "AttributeValue", fmt.Sprintf("%s has no attribute %s", e.label(), name))
}

func (p *Provider) ActionNames(ctx context.Context, h domain.Handle) ([]string, error) {
	e, err := p.element("ActionNames", h)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(e.Actions), nil
}

func (p *Provider) PerformAction(ctx context.Context, h domain.Handle, action string) error {
	e, err := p.element("PerformAction", h)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	op := "perform " + action
	switch {
	case !slices.Contains(e.Actions, action):
		return domain.NewError(domain.KindUnsupportedAction, op, e.label())
	case e.Disabled:
		return domain.NewError(domain.KindNotEnabled, op, e.label())
	case e.Hidden:
		return domain.NewError(domain.KindNotVisible, op, e.label())
	}
	p.actions = append(p.actions, Performed{PID: e.app.PID, Path: e.path(), Action: action})
	return nil
}

// path must be called with p.mu held.
func (e *Element) path() string {
	var segs []string
	for cur := e; cur != nil; cur = cur.parent {
		segs = append(segs, cur.Role+"["+cur.Title+"]")
	}
	slices.Reverse(segs)
	out := segs[0]
	for _, s := range segs[1:] {
		out += "/" + s
	}
	return out
}
