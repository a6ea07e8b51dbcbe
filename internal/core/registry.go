package core

import (
	"strconv"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"golang.org/x/net/html"
)

// Registry tracks the diagrams that already received an export control.
//
// Nodes are identity handles into the host tree. A node stays registered
// until a cleanup pass finds it detached. The registry is not safe for
// concurrent use: it belongs to the goroutine running the Watcher.
type Registry struct {
	lastID  int
	entries map[*html.Node]*registration
	byID    map[string]*html.Node
	order   []*html.Node // registration order, for reproducible passes
}

type registration struct {
	id      string
	control *html.Node
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[*html.Node]*registration),
		byID:    make(map[string]*html.Node),
	}
}

func (r *Registry) IsRegistered(node *html.Node) bool {
	_, ok := r.entries[node]
	return ok
}

// Covers reports whether the node is registered or nested inside a registered diagram.
func (r *Registry) Covers(node *html.Node) bool {
	if r.IsRegistered(node) {
		return true
	}
	for registered := range r.entries {
		if dom.Contains(registered, node) {
			return true
		}
	}
	return false
}

// Len returns the number of registered diagrams.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Nodes returns the registered diagrams in registration order.
func (r *Registry) Nodes() []*html.Node {
	return append([]*html.Node{}, r.order...)
}

// Control returns the control attached for the diagram.
func (r *Registry) Control(node *html.Node) *html.Node {
	if entry, ok := r.entries[node]; ok {
		return entry.control
	}
	return nil
}

// Register marks the diagram as processed and tags the control with its id.
// Registering twice keeps the first control.
func (r *Registry) Register(node, control *html.Node) {
	if r.IsRegistered(node) {
		return
	}
	r.lastID++
	id := strconv.Itoa(r.lastID)
	dom.SetAttr(control, ControlIDAttr, id)
	r.entries[node] = &registration{id: id, control: control}
	r.byID[id] = node
	r.order = append(r.order, node)
}

// Owner returns the diagram a control was attached for, or nil.
func (r *Registry) Owner(control *html.Node) *html.Node {
	id, ok := dom.Attr(control, ControlIDAttr)
	if !ok {
		return nil
	}
	node := r.byID[id]
	if node == nil || r.entries[node].control != control {
		return nil
	}
	return node
}

// UnregisterIfDetached forgets the diagram when it or its control is no
// longer reachable, and removes its control.
// A host re-rendering inside a stable wrapper drops the control only:
// the diagram must be registered again by the next scan.
func (r *Registry) UnregisterIfDetached(tx *dom.Tx, node *html.Node) bool {
	entry, ok := r.entries[node]
	if !ok {
		return false
	}
	if dom.IsReachable(tx.Root(), node) && dom.IsReachable(tx.Root(), entry.control) {
		return false
	}
	delete(r.entries, node)
	delete(r.byID, entry.id)
	for i, n := range r.order {
		if n == node {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if entry.control.Parent != nil && !r.controlShared(entry.control) {
		removeControl(tx, entry.control)
	}
	return true
}

func (r *Registry) controlShared(control *html.Node) bool {
	for _, entry := range r.entries {
		if entry.control == control {
			return true
		}
	}
	return false
}

// Cleanup unregisters every detached diagram then removes the controls
// left without a live owner. Only the wrappers and anchors of the
// registered diagrams are searched. It returns the number of unregistered diagrams.
func (r *Registry) Cleanup(tx *dom.Tx) int {
	var scopes []*html.Node
	count := 0
	for _, node := range r.Nodes() {
		scopes = append(scopes, BlockWrapper(node), r.entries[node].control.Parent)
		if r.UnregisterIfDetached(tx, node) {
			count++
		}
	}

	for _, scope := range scopes {
		if scope == nil || !dom.IsReachable(tx.Root(), scope) {
			continue
		}
		for _, control := range dom.FindAll(scope, isControl) {
			if r.Owner(control) == nil {
				removeControl(tx, control)
			}
		}
	}
	return count
}

// removeControl detaches the control and the synthesized anchor it leaves empty.
func removeControl(tx *dom.Tx, control *html.Node) {
	anchor := control.Parent
	tx.Remove(control)
	if anchor != nil && isAnchor(anchor) && anchor.FirstChild == nil {
		tx.Remove(anchor)
	}
}
