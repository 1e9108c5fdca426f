package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/axnav/internal/logging"
	"github.com/aretw0/axnav/pkg/domain"
	"github.com/aretw0/axnav/pkg/tree"
)

// Inspector is the part of axnav.Inspector the navigator drives.
type Inspector interface {
	Applications(ctx context.Context) ([]domain.AppInfo, error)
	Application(ctx context.Context, pid int) (*tree.Node, error)
	Reopen(ctx context.Context, pid int) (*tree.Node, error)
	CloseApplication(pid int)
	Expand(ctx context.Context, n *tree.Node) (bool, error)
	Actions(ctx context.Context, n *tree.Node) ([]string, bool, error)
	Attributes(ctx context.Context, n *tree.Node) (map[string]domain.Value, bool, error)
	Perform(ctx context.Context, n *tree.Node, action string) error
	Refresh(ctx context.Context, n *tree.Node) (*tree.Node, error)
	Resolve(ctx context.Context, root *tree.Node, path string) (*tree.Node, error)
	Find(ctx context.Context, root *tree.Node, role, title string, depth int) ([]*tree.Node, error)
}

// Navigator holds one browsing session. Commands are serialized; it is safe
// to share between goroutines, but it is meant to be driven by one user.
type Navigator struct {
	insp   Inspector
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	pid       int
	root      *tree.Node
	selection *tree.Node
	collapsed map[*tree.Node]bool
	entries   []Entry
	// matches replaces the flat list after find until the next selection.
	matches []*tree.Node

	onTransition func(from, to State)
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}

// OnTransition registers fn to observe every state change. fn runs while
// the navigator is locked and must not call back into it.
func OnTransition(fn func(from, to State)) Option {
	return func(n *Navigator) {
		n.onTransition = fn
	}
}

// New returns an Idle navigator.
func New(insp Inspector, opts ...Option) *Navigator {
	n := &Navigator{
		insp:      insp,
		logger:    logging.NewNop(),
		state:     Idle,
		collapsed: make(map[*tree.Node]bool),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// State returns the current mode.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Selection returns the selected node, or nil while Idle.
func (n *Navigator) Selection() *tree.Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.selection
}

// Execute parses and runs one command line.
func (n *Navigator) Execute(ctx context.Context, line string) Response {
	cmd, err := Parse(line)
	if err != nil {
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.fail(err)
	}
	return n.Do(ctx, cmd)
}

// Do runs one parsed command.
func (n *Navigator) Do(ctx context.Context, cmd Command) Response {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == Terminated {
		return n.fail(&domain.Error{Kind: domain.KindInvalidArgument, Op: string(cmd.Verb),
			Detail: "navigator terminated", Hint: "start a new session"})
	}

	switch cmd.Verb {
	case VerbQuit:
		n.setState(Terminated)
		n.logger.Debug("navigator terminated")
		return n.ok("bye")
	case VerbHelp:
		r := n.ok("commands")
		r.Help = true
		return r
	case VerbApps:
		return n.apps(ctx)
	case VerbOpen:
		return n.open(ctx, cmd.N)
	}

	if n.state == Idle || n.root == nil {
		return n.fail(&domain.Error{Kind: domain.KindInvalidArgument, Op: string(cmd.Verb),
			Detail: "no application open", Hint: "list applications with apps, then open <pid>"})
	}

	switch cmd.Verb {
	case VerbSelect:
		return n.selectIndex(cmd.N)
	case VerbParent:
		return n.parent()
	case VerbExpand:
		return n.expand(ctx)
	case VerbCollapse:
		n.collapsed[n.selection] = true
		n.rebuild()
		return n.ok("collapsed " + n.selection.Label())
	case VerbActions:
		return n.actions(ctx)
	case VerbExecute:
		return n.execute(ctx, cmd.N)
	case VerbRefresh:
		return n.refresh(ctx)
	case VerbAttrs:
		return n.attrs(ctx)
	case VerbGoto:
		return n.gotoPath(ctx, cmd.Arg)
	case VerbFind:
		return n.find(ctx, cmd.Field, cmd.Arg)
	}
	return n.fail(invalid("unknown command %q", cmd.Verb))
}

// Open selects pid as the target application. It is the programmatic form
// of the open command; pid 0 fails like any invalid pid.
func (n *Navigator) Open(ctx context.Context, pid int) Response {
	return n.Do(ctx, Command{Verb: VerbOpen, N: pid})
}

func (n *Navigator) apps(ctx context.Context) Response {
	apps, err := n.insp.Applications(ctx)
	if err != nil {
		return n.fail(err)
	}
	r := n.ok(fmt.Sprintf("%d applications", len(apps)))
	r.Apps = apps
	return r
}

// open loads a fresh root for pid and expands it. Reselecting, even the
// same pid, discards the previous tree.
func (n *Navigator) open(ctx context.Context, pid int) Response {
	prevState := n.state
	n.setState(Loading)
	root, err := n.insp.Reopen(ctx, pid)
	if err == nil {
		_, err = n.insp.Expand(ctx, root)
	}
	if err != nil {
		n.setState(prevState)
		if pid == n.pid {
			// Reopen already discarded the tree we were browsing.
			n.reset()
		}
		return n.fail(err)
	}

	if n.pid != 0 && n.pid != pid {
		n.insp.CloseApplication(n.pid)
	}
	n.pid = pid
	n.root = root
	n.collapsed = make(map[*tree.Node]bool)
	n.setState(Browsing)
	n.setSelection(root)

	r := n.ok("opened " + root.Label())
	r.Degraded = root.Synthetic()
	return r
}

func (n *Navigator) setState(to State) {
	from := n.state
	if from == to {
		return
	}
	n.state = to
	if n.onTransition != nil {
		n.onTransition(from, to)
	}
}

func (n *Navigator) reset() {
	n.setState(Idle)
	n.pid = 0
	n.root = nil
	n.selection = nil
	n.matches = nil
	n.entries = nil
	n.collapsed = make(map[*tree.Node]bool)
}

func (n *Navigator) selectIndex(i int) Response {
	if i < 0 || i >= len(n.entries) {
		return n.fail(&domain.Error{Kind: domain.KindInvalidArgument, Op: "select",
			Detail: fmt.Sprintf("index %d out of range 0..%d", i, len(n.entries)-1),
			Hint:   "pick a number from the list"})
	}
	n.setSelection(n.entries[i].node)
	return n.ok("selected " + n.selection.Label())
}

func (n *Navigator) parent() Response {
	p := n.selection.Parent()
	if p == nil {
		return n.ok("already at the root")
	}
	n.setSelection(p)
	return n.ok("selected " + p.Label())
}

func (n *Navigator) expand(ctx context.Context) Response {
	sel := n.selection
	delete(n.collapsed, sel)

	degraded := false
	if !sel.ChildrenLoaded() {
		n.setState(Loading)
		var err error
		degraded, err = n.insp.Expand(ctx, sel)
		n.setState(Browsing)
		n.rebuild()
		if err != nil {
			return n.fail(err)
		}
	}
	n.rebuild()

	status := fmt.Sprintf("%s has %d children", sel.Label(), sel.ChildCount())
	if sel.Truncated() {
		status += " (truncated)"
	}
	r := n.ok(status)
	r.Degraded = degraded
	return r
}

func (n *Navigator) actions(ctx context.Context) Response {
	actions, degraded, err := n.insp.Actions(ctx, n.selection)
	if err != nil {
		return n.fail(err)
	}
	r := n.ok(fmt.Sprintf("%d actions", len(actions)))
	r.Actions = actions
	r.Degraded = degraded
	return r
}

func (n *Navigator) execute(ctx context.Context, i int) Response {
	actions, _, err := n.insp.Actions(ctx, n.selection)
	if err != nil {
		return n.fail(err)
	}
	if i < 0 || i >= len(actions) {
		return n.fail(&domain.Error{Kind: domain.KindInvalidArgument, Op: "execute",
			Detail: fmt.Sprintf("action %d out of range (%d available)", i, len(actions)),
			Hint:   "list them with actions"})
	}
	action := actions[i]
	if err := n.insp.Perform(ctx, n.selection, action); err != nil {
		r := n.fail(err)
		r.Actions = actions
		return r
	}
	r := n.ok(fmt.Sprintf("performed %s on %s", action, n.selection.Label()))
	r.Actions = actions
	return r
}

func (n *Navigator) refresh(ctx context.Context) Response {
	old := n.selection
	fresh, err := n.insp.Refresh(ctx, old)
	if fresh == nil {
		return n.fail(err)
	}
	delete(n.collapsed, old)
	if old == n.root {
		n.root = fresh
	}
	n.setSelection(fresh)
	if err != nil {
		return n.fail(err)
	}
	return n.ok("refreshed " + fresh.Label())
}

func (n *Navigator) attrs(ctx context.Context) Response {
	attrs, degraded, err := n.insp.Attributes(ctx, n.selection)
	if err != nil {
		return n.fail(err)
	}
	r := n.ok(fmt.Sprintf("%d attributes", len(attrs)))
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		r.Attributes = append(r.Attributes, Attribute{Name: name, Value: attrs[name]})
	}
	r.Degraded = degraded
	return r
}

func (n *Navigator) gotoPath(ctx context.Context, path string) Response {
	target, err := n.insp.Resolve(ctx, n.root, path)
	if err != nil {
		return n.fail(err)
	}
	n.setSelection(target)
	return n.ok("selected " + tree.PathOf(target))
}

func (n *Navigator) find(ctx context.Context, field, text string) Response {
	role, title := text, ""
	if field == FieldTitle {
		role, title = "", text
	}
	found, err := n.insp.Find(ctx, n.root, role, title, 0)
	if err != nil {
		return n.fail(err)
	}
	if len(found) == 0 {
		return n.fail(domain.NewError(domain.KindNotFound, "find", fmt.Sprintf("no %s matches %q", field, text)))
	}
	n.matches = found
	n.rebuild()
	return n.ok(fmt.Sprintf("%d matches; select one by number", len(found)))
}

func (n *Navigator) setSelection(sel *tree.Node) {
	n.selection = sel
	n.matches = nil
	n.rebuild()
}

// rebuild recomputes the flat index list from the selection.
func (n *Navigator) rebuild() {
	if n.matches != nil {
		n.entries = make([]Entry, len(n.matches))
		for i, m := range n.matches {
			n.entries[i] = n.entry(m, RelationMatch)
		}
		return
	}
	nodes, rels := FlatList(n.root, n.selection, n.collapsed[n.selection])
	n.entries = make([]Entry, len(nodes))
	for i, node := range nodes {
		n.entries[i] = n.entry(node, rels[i])
	}
}

func (n *Navigator) entry(node *tree.Node, rel Relation) Entry {
	return Entry{
		node:        node,
		Label:       node.Label(),
		Path:        tree.PathOf(node),
		Relation:    rel,
		Selected:    node == n.selection,
		HasChildren: node.DeclaredHasChildren(),
		Loaded:      node.ChildrenLoaded(),
		Synthetic:   node.Synthetic(),
	}
}

// FlatList returns [root] ∪ siblings(selection) ∪ children(selection), in
// that order, deduplicated by identity. Children are omitted when collapsed.
func FlatList(root, selection *tree.Node, collapsed bool) ([]*tree.Node, []Relation) {
	var nodes []*tree.Node
	var rels []Relation
	seen := make(map[*tree.Node]bool)
	add := func(node *tree.Node, rel Relation) {
		if node == nil || seen[node] {
			return
		}
		seen[node] = true
		nodes = append(nodes, node)
		rels = append(rels, rel)
	}

	add(root, RelationRoot)
	if selection == nil {
		return nodes, rels
	}
	for _, s := range tree.Siblings(selection) {
		add(s, RelationSibling)
	}
	if !collapsed {
		for _, c := range selection.Children() {
			add(c, RelationChild)
		}
	}
	return nodes, rels
}

func (n *Navigator) base() Response {
	r := Response{
		State:   n.state,
		Entries: slices.Clone(n.entries),
	}
	if n.selection != nil {
		r.Selection = tree.PathOf(n.selection)
	}
	return r
}

func (n *Navigator) ok(status string) Response {
	r := n.base()
	r.Status = status
	return r
}

func (n *Navigator) fail(err error) Response {
	r := n.base()
	r.Status = err.Error()
	r.Err = err
	r.Hint = domain.HintFor(err)
	return r
}
