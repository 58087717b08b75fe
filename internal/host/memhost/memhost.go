// Package memhost is an in-memory host.Adapter that retains a plain node
// tree. It backs the CLI and the test suites.
package memhost

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/roach88/reconcile/internal/element"
	"github.com/roach88/reconcile/internal/host"
)

// ErrInjected is the default cause of failures armed with FailNext.
var ErrInjected = errors.New("injected failure")

// Node is a retained host node. Text nodes have an empty Tag.
type Node struct {
	ID       int64
	Tag      string
	Text     string
	Attrs    map[string]any
	Children []*Node
	Parent   *Node
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n.Tag == ""
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(name string) (any, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Host implements host.Adapter over Node values.
//
// Host is not safe for concurrent use; like the engine, it belongs to one
// goroutine.
type Host struct {
	nextID int64
	counts map[string]int
	faults map[string]error
}

var _ host.Adapter = (*Host)(nil)

// New creates an empty Host.
func New() *Host {
	return &Host{
		counts: make(map[string]int),
		faults: make(map[string]error),
	}
}

// NewContainer returns a detached element node used as a render container.
func (h *Host) NewContainer(tag string) *Node {
	return h.newNode(tag, "")
}

// FailNext arms a one-shot failure for the next call of op (one of the
// host.Op constants). A nil err uses ErrInjected.
func (h *Host) FailNext(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	h.faults[op] = err
}

// Count returns how many times op succeeded.
func (h *Host) Count(op string) int {
	return h.counts[op]
}

// Counts returns a copy of all operation counters.
func (h *Host) Counts() map[string]int {
	out := make(map[string]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}

// ResetCounts zeroes the operation counters.
func (h *Host) ResetCounts() {
	clear(h.counts)
}

func (h *Host) newNode(tag, text string) *Node {
	h.nextID++
	return &Node{ID: h.nextID, Tag: tag, Text: text, Attrs: make(map[string]any)}
}

func (h *Host) begin(op string) error {
	if err, ok := h.faults[op]; ok {
		delete(h.faults, op)
		return &host.AdapterError{Op: op, Err: err}
	}
	return nil
}

func (h *Host) done(op string) {
	h.counts[op]++
}

// CreateNode implements host.Adapter.
func (h *Host) CreateNode(tag string) (host.Node, error) {
	if err := h.begin(host.OpCreateNode); err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, &host.AdapterError{Op: host.OpCreateNode, Err: errors.New("empty tag")}
	}
	h.done(host.OpCreateNode)
	return h.newNode(tag, ""), nil
}

// CreateText implements host.Adapter.
func (h *Host) CreateText(text string) (host.Node, error) {
	if err := h.begin(host.OpCreateText); err != nil {
		return nil, err
	}
	h.done(host.OpCreateText)
	return h.newNode("", text), nil
}

// ApplyProps implements host.Adapter. Keys only in oldProps are deleted;
// keys whose value is unchanged are left alone.
func (h *Host) ApplyProps(node host.Node, oldProps, newProps element.Props) error {
	if err := h.begin(host.OpApplyProps); err != nil {
		return err
	}
	n, err := asNode(host.OpApplyProps, node)
	if err != nil {
		return err
	}
	if n.IsText() {
		return &host.AdapterError{Op: host.OpApplyProps, Err: errors.New("text nodes have no attributes")}
	}

	oldKeys := mapset.NewThreadUnsafeSet[string](oldProps.SortedKeys()...)
	newKeys := mapset.NewThreadUnsafeSet[string](newProps.SortedKeys()...)
	for _, k := range oldKeys.Difference(newKeys).ToSlice() {
		delete(n.Attrs, k)
	}
	for _, k := range newProps.SortedKeys() {
		v := newProps[k]
		if cur, ok := n.Attrs[k]; ok && sameValue(cur, v) {
			continue
		}
		n.Attrs[k] = v
	}
	h.done(host.OpApplyProps)
	return nil
}

// SetText implements host.Adapter.
func (h *Host) SetText(node host.Node, text string) error {
	if err := h.begin(host.OpSetText); err != nil {
		return err
	}
	n, err := asNode(host.OpSetText, node)
	if err != nil {
		return err
	}
	if !n.IsText() {
		return &host.AdapterError{Op: host.OpSetText, Err: fmt.Errorf("<%s> is not a text node", n.Tag)}
	}
	n.Text = text
	h.done(host.OpSetText)
	return nil
}

// AppendChild implements host.Adapter. A child attached elsewhere is moved.
func (h *Host) AppendChild(parent, child host.Node) error {
	if err := h.begin(host.OpAppendChild); err != nil {
		return err
	}
	p, err := asNode(host.OpAppendChild, parent)
	if err != nil {
		return err
	}
	c, err := asNode(host.OpAppendChild, child)
	if err != nil {
		return err
	}
	if p.IsText() {
		return &host.AdapterError{Op: host.OpAppendChild, Err: errors.New("text nodes cannot have children")}
	}
	if c.Parent != nil {
		c.Parent.detach(c)
	}
	p.Children = append(p.Children, c)
	c.Parent = p
	h.done(host.OpAppendChild)
	return nil
}

// RemoveChild implements host.Adapter.
func (h *Host) RemoveChild(parent, child host.Node) error {
	if err := h.begin(host.OpRemoveChild); err != nil {
		return err
	}
	p, err := asNode(host.OpRemoveChild, parent)
	if err != nil {
		return err
	}
	c, err := asNode(host.OpRemoveChild, child)
	if err != nil {
		return err
	}
	if c.Parent != p || !p.detach(c) {
		return &host.AdapterError{Op: host.OpRemoveChild, Err: fmt.Errorf("node %d is not a child of node %d", c.ID, p.ID)}
	}
	h.done(host.OpRemoveChild)
	return nil
}

func (n *Node) detach(c *Node) bool {
	i := slices.Index(n.Children, c)
	if i < 0 {
		return false
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	c.Parent = nil
	return true
}

func asNode(op string, v host.Node) (*Node, error) {
	n, ok := v.(*Node)
	if !ok || n == nil {
		return nil, &host.AdapterError{Op: op, Err: fmt.Errorf("unexpected node handle %T", v)}
	}
	return n, nil
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// sortedAttrNames returns attribute names in ascending order.
func (n *Node) sortedAttrNames() []string {
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
