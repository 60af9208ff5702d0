package patch

import "github.com/fieldpatch/fieldpatch/internal/attr"

// Action identifies one of the four mutation kinds. The set is closed:
// adding a kind is a compile-time change, not a new map key.
type Action int

const (
	ActionAssign Action = iota
	ActionRemove
	ActionIncrement
	ActionAppend
)

// Actions lists all action kinds in validation order. Validation and
// compilation both iterate this slice so their ordering never drifts.
var Actions = []Action{ActionAssign, ActionRemove, ActionIncrement, ActionAppend}

// String returns the action's wire name.
func (a Action) String() string {
	switch a {
	case ActionAssign:
		return "assign"
	case ActionRemove:
		return "remove"
	case ActionIncrement:
		return "increment"
	case ActionAppend:
		return "append"
	default:
		return "unknown"
	}
}

// ParseAction maps a wire name to its Action. The second result is false
// for unknown names.
func ParseAction(name string) (Action, bool) {
	switch name {
	case "assign":
		return ActionAssign, true
	case "remove":
		return ActionRemove, true
	case "increment":
		return ActionIncrement, true
	case "append":
		return ActionAppend, true
	default:
		return 0, false
	}
}

// Key is the structural key of one record: a partition identifier plus a
// sort identifier. Both parts are required.
type Key struct {
	Partition string `json:"pk" yaml:"pk"`
	Sort      string `json:"sk" yaml:"sk"`
}

// Valid reports whether both key parts are non-empty.
func (k Key) Valid() bool {
	return k.Partition != "" && k.Sort != ""
}

// Request describes the mutations to apply to a single record. Buckets are
// optional; an omitted bucket mutates nothing. The same field name must not
// appear in more than one bucket (enforced by the validator, not here).
type Request struct {
	Key       Key      `json:"key" yaml:"key"`
	Assign    attr.Map `json:"assign,omitempty" yaml:"assign,omitempty"`
	Remove    []string `json:"remove,omitempty" yaml:"remove,omitempty"`
	Increment attr.Map `json:"increment,omitempty" yaml:"increment,omitempty"`
	Append    attr.Map `json:"append,omitempty" yaml:"append,omitempty"`
}

// ClearField deletes the named field from every bucket. Auto-field
// injection calls this before inserting its own entry so a caller-supplied
// value of the same name never survives alongside it.
func (r *Request) ClearField(name string) {
	delete(r.Assign, name)
	delete(r.Increment, name)
	delete(r.Append, name)
	if len(r.Remove) == 0 {
		return
	}
	kept := r.Remove[:0]
	for _, f := range r.Remove {
		if f != name {
			kept = append(kept, f)
		}
	}
	r.Remove = kept
}
