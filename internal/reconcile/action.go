package reconcile

import "fmt"

// Kind tags an Action.
type Kind string

const (
	KindCopy   Kind = "copy"
	KindMove   Kind = "move"
	KindDelete Kind = "delete"
)

// Action is one step of a reconciliation plan. Paths are relative and
// slash separated; roots are supplied by whoever applies the action.
//
//	copy:   Src is a name under the source root, Dst a name under the destination root
//	move:   Src and Dst are both names under the destination root
//	delete: Dst is a name under the destination root
type Action struct {
	Kind Kind   `yaml:"op" json:"op"`
	Src  string `yaml:"src,omitempty" json:"src,omitempty"`
	Dst  string `yaml:"dst" json:"dst"`
}

// Copy returns an action copying src from the source root to dst in the
// destination root.
func Copy(src, dst string) Action {
	return Action{Kind: KindCopy, Src: src, Dst: dst}
}

// Move returns an action renaming oldName to newName inside the
// destination root.
func Move(oldName, newName string) Action {
	return Action{Kind: KindMove, Src: oldName, Dst: newName}
}

// Delete returns an action removing name from the destination root.
func Delete(name string) Action {
	return Action{Kind: KindDelete, Dst: name}
}

func (a Action) String() string {
	switch a.Kind {
	case KindCopy:
		return fmt.Sprintf("copy %s -> %s", a.Src, a.Dst)
	case KindMove:
		return fmt.Sprintf("move %s -> %s", a.Src, a.Dst)
	case KindDelete:
		return fmt.Sprintf("delete %s", a.Dst)
	default:
		return fmt.Sprintf("%s %s %s", a.Kind, a.Src, a.Dst)
	}
}

// Summary counts actions per kind.
type Summary struct {
	Copies  int
	Moves   int
	Deletes int
}

// Total returns the number of actions.
func (s Summary) Total() int {
	return s.Copies + s.Moves + s.Deletes
}

// Summarize counts the actions in a plan.
func Summarize(actions []Action) Summary {
	var s Summary
	for _, a := range actions {
		switch a.Kind {
		case KindCopy:
			s.Copies++
		case KindMove:
			s.Moves++
		case KindDelete:
			s.Deletes++
		}
	}
	return s
}
