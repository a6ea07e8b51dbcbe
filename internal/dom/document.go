package dom

import (
	"errors"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Batch groups the nodes added and removed by one transaction.
type Batch struct {
	Added   []*html.Node
	Removed []*html.Node
}

func (b Batch) Empty() bool {
	return len(b.Added) == 0 && len(b.Removed) == 0
}

type EventType string

const (
	EventHover EventType = "mouseover"
	EventClick EventType = "click"
)

// Event is a pointer event delivered by the host.
type Event struct {
	Type   EventType
	Target *html.Node
}

// Document is a live tree shared between the host and this program.
//
// Reads go through View, writes through Update. Every write performed by an
// Update is reported to observers as a single Batch once the transaction ends.
type Document struct {
	mu   sync.RWMutex
	root *html.Node

	subscribersMu sync.Mutex
	observers     []*Queue[Batch]
	listeners     []*Queue[Event]
}

func NewDocument(root *html.Node) *Document {
	return &Document{root: root}
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(root), nil
}

// ParseString is Parse on a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Observe registers a new mutation observer.
func (d *Document) Observe() *Queue[Batch] {
	q := NewQueue[Batch]()
	d.subscribersMu.Lock()
	d.observers = append(d.observers, q)
	d.subscribersMu.Unlock()
	return q
}

// Listen registers a new pointer-event listener.
func (d *Document) Listen() *Queue[Event] {
	q := NewQueue[Event]()
	d.subscribersMu.Lock()
	d.listeners = append(d.listeners, q)
	d.subscribersMu.Unlock()
	return q
}

// Dispatch delivers a pointer event to all listeners.
func (d *Document) Dispatch(e Event) {
	d.subscribersMu.Lock()
	listeners := append([]*Queue[Event]{}, d.listeners...)
	d.subscribersMu.Unlock()
	for _, l := range listeners {
		l.Push(e)
	}
}

// View runs fn with shared access to the tree. fn must not modify it.
func (d *Document) View(fn func(root *html.Node) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.root)
}

// Update runs fn with exclusive access to the tree.
// Mutations are published even when fn fails halfway.
func (d *Document) Update(fn func(tx *Tx) error) error {
	tx := &Tx{root: d.root}
	d.mu.Lock()
	err := fn(tx)
	d.mu.Unlock()

	if !tx.batch.Empty() {
		d.subscribersMu.Lock()
		observers := append([]*Queue[Batch]{}, d.observers...)
		d.subscribersMu.Unlock()
		for _, o := range observers {
			o.Push(tx.batch)
		}
	}
	return err
}

// Render serializes the current tree.
func (d *Document) Render(w io.Writer) error {
	return d.View(func(root *html.Node) error {
		return html.Render(w, root)
	})
}

// ErrNoBody is returned when the tree has no <body>.
var ErrNoBody = errors.New("document has no body")

// Tx records the mutations of one Update.
type Tx struct {
	root  *html.Node
	batch Batch
}

func (tx *Tx) Root() *html.Node {
	return tx.root
}

// Body returns the <body> element or nil.
func (tx *Tx) Body() *html.Node {
	return Body(tx.root)
}

// Body returns the <body> element under root or nil.
func Body(root *html.Node) *html.Node {
	return Find(root, Tag("body"))
}

// AppendChild attaches child as the last child of parent.
func (tx *Tx) AppendChild(parent, child *html.Node) {
	tx.InsertBefore(parent, child, nil)
}

// InsertBefore attaches child before ref (or last when ref is nil).
// A child still attached elsewhere is moved.
func (tx *Tx) InsertBefore(parent, child, ref *html.Node) {
	if child.Parent != nil {
		tx.Remove(child)
	}
	if ref != nil && ref.Parent != parent {
		ref = nil
	}
	parent.InsertBefore(child, ref)
	tx.batch.Added = append(tx.batch.Added, child)
}

// InsertAfter attaches child right after ref.
func (tx *Tx) InsertAfter(parent, child, ref *html.Node) {
	if ref == nil || ref.Parent != parent {
		tx.InsertBefore(parent, child, parent.FirstChild)
		return
	}
	tx.InsertBefore(parent, child, ref.NextSibling)
}

// Prepend attaches child as the first child of parent.
func (tx *Tx) Prepend(parent, child *html.Node) {
	tx.InsertBefore(parent, child, parent.FirstChild)
}

// Remove detaches n. Detached nodes are ignored.
func (tx *Tx) Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
	tx.batch.Removed = append(tx.batch.Removed, n)
}

// ReplaceChildren removes all children of parent then appends the new ones.
func (tx *Tx) ReplaceChildren(parent *html.Node, children ...*html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		tx.Remove(c)
		c = next
	}
	for _, child := range children {
		tx.AppendChild(parent, child)
	}
}

// ParseFragment parses markup in the context of the given element.
func ParseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(markup), context)
}
