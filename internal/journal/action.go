package journal

import "fmt"

// Action is the kind of change a SyncEntry carries. The set is closed:
// consumers switch over ActionAdd, ActionChange and ActionDelete and treat
// anything else as a programming error.
type Action uint8

const (
	ActionAdd Action = iota + 1
	ActionChange
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "ADD"
	case ActionChange:
		return "CHANGE"
	case ActionDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionChange, ActionDelete:
		return true
	default:
		return false
	}
}

// ParseAction is the inverse of String.
func ParseAction(s string) (Action, error) {
	switch s {
	case "ADD":
		return ActionAdd, nil
	case "CHANGE":
		return ActionChange, nil
	case "DELETE":
		return ActionDelete, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}
