package compiler

// Action is the primitive a directive resolves to
type Action int

const (
	// ActionAttr sets a generic attribute; the fallback for unknown names
	ActionAttr Action = iota
	ActionText
	ActionClass
	ActionStyle
	ActionClick
	ActionInput
	ActionKeydown
)

func (a Action) String() string {
	switch a {
	case ActionText:
		return "set-text"
	case ActionClass:
		return "set-class"
	case ActionStyle:
		return "set-style"
	case ActionClick:
		return "attach-click-handler"
	case ActionInput:
		return "attach-input-handler"
	case ActionKeydown:
		return "attach-keydown-handler"
	default:
		return "set-attribute"
	}
}

// IsHandler reports whether the action attaches an event listener.
func (a Action) IsHandler() bool {
	return a == ActionClick || a == ActionInput || a == ActionKeydown
}

// Resolution is the outcome of resolving a directive name
type Resolution struct {
	Action Action
	// Attr is the attribute name for ActionAttr
	Attr string
	// Known is false when the name fell back to a generic attribute
	Known bool
}

var directives = map[string]Resolution{
	"text":        {Action: ActionText, Known: true},
	"class":       {Action: ActionClass, Known: true},
	"style":       {Action: ActionStyle, Known: true},
	"id":          {Action: ActionAttr, Attr: "id", Known: true},
	"placeholder": {Action: ActionAttr, Attr: "placeholder", Known: true},
	"value":       {Action: ActionAttr, Attr: "value", Known: true},
	"onclick":     {Action: ActionClick, Known: true},
	"oninput":     {Action: ActionInput, Known: true},
	"onkeydown":   {Action: ActionKeydown, Known: true},
}

// Resolve maps a directive name to its action. Names are case-sensitive and
// unknown names resolve to a generic attribute of the same name.
func Resolve(name string) Resolution {
	if r, ok := directives[name]; ok {
		return r
	}
	return Resolution{Action: ActionAttr, Attr: name}
}

// Directives returns the names with a dedicated action.
func Directives() []string {
	return []string{"text", "class", "style", "id", "placeholder", "value", "onclick", "oninput", "onkeydown"}
}
