// Package typhoon holds the contracts shared by the template compiler, the
// reactive store and their collaborators: the construction primitives a host
// tree must provide, the event model, and the error taxonomy.
package typhoon

// Node is an opaque handle to an element created by a Host.
type Node interface{}

// EventKind identifies the events a compiled template can listen to.
type EventKind int

const (
	// Click fires with an empty payload
	Click EventKind = iota
	// Input fires with the control's current text
	Input
	// Keydown fires with the pressed key's name
	Keydown
)

// String returns the DOM event name for the kind.
func (k EventKind) String() string {
	switch k {
	case Click:
		return "click"
	case Input:
		return "input"
	case Keydown:
		return "keydown"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners attached through AddEventListener.
type Event struct {
	Kind  EventKind
	Value string
}

// Host is the set of construction primitives compiled templates call.
// Implementations report refusals as *ConstructionError.
type Host interface {
	// CreateElement creates a detached element for tag
	CreateElement(tag string) (Node, error)

	// SetText replaces the text content of n
	SetText(n Node, text string)

	// SetClass replaces the class list of n
	SetClass(n Node, class string)

	// SetStyle sets the inline style of n
	SetStyle(n Node, style string)

	// SetAttribute sets an arbitrary attribute
	SetAttribute(n Node, name, value string) error

	// AppendChild appends an element to parent
	AppendChild(parent, child Node) error

	// AppendText appends a text node to parent
	AppendText(parent Node, text string)

	// AddEventListener attaches fn for events of kind on n
	AddEventListener(n Node, kind EventKind, fn func(Event))
}

// Container is implemented by hosts that can empty an element, which the
// router needs to swap pages.
type Container interface {
	ClearChildren(n Node) error
}
