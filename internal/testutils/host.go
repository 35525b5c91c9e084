package testutils

import (
	"fmt"
	"strings"

	"github.com/typhoon/typhoon-go"
)

// FakeNode is the node handle created by RecordingHost
type FakeNode struct {
	Tag       string
	Seq       int
	Text      string
	Class     string
	Style     string
	Attrs     map[string]string
	Children  []interface{}
	Listeners map[typhoon.EventKind][]func(typhoon.Event)
}

// RecordingHost is a typhoon.Host that records every primitive call in order
type RecordingHost struct {
	Calls []string

	// RefuseTag makes CreateElement fail for the named tag
	RefuseTag string
	// RefuseAttr makes SetAttribute fail for the named attribute
	RefuseAttr string

	seq int
}

// NewRecordingHost creates an empty recording host
func NewRecordingHost() *RecordingHost {
	return &RecordingHost{}
}

func (h *RecordingHost) record(format string, args ...interface{}) {
	h.Calls = append(h.Calls, fmt.Sprintf(format, args...))
}

func name(n typhoon.Node) string {
	if fn, ok := n.(*FakeNode); ok {
		return fmt.Sprintf("%s#%d", fn.Tag, fn.Seq)
	}
	return fmt.Sprintf("%v", n)
}

// CreateElement implements typhoon.Host
func (h *RecordingHost) CreateElement(tag string) (typhoon.Node, error) {
	h.record("create %s", tag)
	if tag == h.RefuseTag {
		return nil, &typhoon.ConstructionError{Op: "create", Target: tag, Err: typhoon.ErrInvalidTag}
	}
	h.seq++
	return &FakeNode{
		Tag:       tag,
		Seq:       h.seq,
		Attrs:     map[string]string{},
		Listeners: map[typhoon.EventKind][]func(typhoon.Event){},
	}, nil
}

// SetText implements typhoon.Host
func (h *RecordingHost) SetText(n typhoon.Node, text string) {
	h.record("text %s %q", name(n), text)
	n.(*FakeNode).Text = text
}

// SetClass implements typhoon.Host
func (h *RecordingHost) SetClass(n typhoon.Node, class string) {
	h.record("class %s %q", name(n), class)
	n.(*FakeNode).Class = class
}

// SetStyle implements typhoon.Host
func (h *RecordingHost) SetStyle(n typhoon.Node, style string) {
	h.record("style %s %q", name(n), style)
	n.(*FakeNode).Style = style
}

// SetAttribute implements typhoon.Host
func (h *RecordingHost) SetAttribute(n typhoon.Node, attr, value string) error {
	h.record("attr %s %s=%q", name(n), attr, value)
	if attr == h.RefuseAttr {
		return typhoon.ErrInvalidAttribute
	}
	n.(*FakeNode).Attrs[attr] = value
	return nil
}

// AppendChild implements typhoon.Host
func (h *RecordingHost) AppendChild(parent, child typhoon.Node) error {
	h.record("append %s %s", name(parent), name(child))
	p := parent.(*FakeNode)
	p.Children = append(p.Children, child)
	return nil
}

// AppendText implements typhoon.Host
func (h *RecordingHost) AppendText(parent typhoon.Node, text string) {
	h.record("append-text %s %q", name(parent), text)
	p := parent.(*FakeNode)
	p.Children = append(p.Children, text)
}

// AddEventListener implements typhoon.Host
func (h *RecordingHost) AddEventListener(n typhoon.Node, kind typhoon.EventKind, fn func(typhoon.Event)) {
	h.record("listen %s %s", name(n), kind)
	node := n.(*FakeNode)
	node.Listeners[kind] = append(node.Listeners[kind], fn)
}

// ClearChildren implements typhoon.Container
func (h *RecordingHost) ClearChildren(n typhoon.Node) error {
	h.record("clear %s", name(n))
	n.(*FakeNode).Children = nil
	return nil
}

// Fire invokes the listeners of kind attached to n
func (h *RecordingHost) Fire(n typhoon.Node, kind typhoon.EventKind, value string) {
	for _, fn := range n.(*FakeNode).Listeners[kind] {
		fn(typhoon.Event{Kind: kind, Value: value})
	}
}

// CallsWithPrefix returns the recorded calls starting with prefix
func (h *RecordingHost) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range h.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log
func (h *RecordingHost) Reset() {
	h.Calls = nil
}
