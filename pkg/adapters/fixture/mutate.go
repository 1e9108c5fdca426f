package fixture

import "slices"

// Find returns the first element of pid's tree, in pre-order, with the given
// role and title.
func (p *Provider) Find(pid int, role, title string) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	app, ok := p.apps[pid]
	if !ok {
		return nil
	}
	var found *Element
	var walk func(e *Element)
	walk = func(e *Element) {
		if found != nil {
			return
		}
		if e.Role == role && e.Title == title {
			found = e
			return
		}
		for _, c := range e.Children {
			walk(c)
		}
	}
	walk(app.Root)
	return found
}

// Remove detaches e from its parent. Handles to e or its descendants fail
// with not-found afterwards, as they do when a real window closes.
func (p *Provider) Remove(e *Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e.parent != nil {
		e.parent.Children = slices.DeleteFunc(e.parent.Children, func(c *Element) bool { return c == e })
	}
	var bury func(e *Element)
	bury = func(e *Element) {
		e.gone = true
		for _, c := range e.Children {
			bury(c)
		}
	}
	bury(e)
}

// Append adds child under parent.
func (p *Provider) Append(parent, child *Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	link(child, parent, parent.app)
	parent.Children = append(parent.Children, child)
}

// Rename changes an element's title.
func (p *Provider) Rename(e *Element, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.Title = title
}
