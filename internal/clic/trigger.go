package clic

import "fmt"

// Trigger is the condition under which an interrupt line counts as
// asserted, stored in attr[2:1].
type Trigger uint8

const (
	LevelPositive Trigger = 0
	EdgePositive  Trigger = 1
	LevelNegative Trigger = 2
	EdgeNegative  Trigger = 3
)

// IsEdge reports whether the trigger latches on a transition.
func (t Trigger) IsEdge() bool { return t&1 != 0 }

// IsNegative reports whether the line is active low.
func (t Trigger) IsNegative() bool { return t&2 != 0 }

func (t Trigger) String() string {
	switch t & 3 {
	case LevelPositive:
		return "level-positive"
	case EdgePositive:
		return "edge-positive"
	case LevelNegative:
		return "level-negative"
	default:
		return "edge-negative"
	}
}

// ParseTrigger maps a trigger name as printed by String back to its value.
func ParseTrigger(s string) (Trigger, error) {
	for t := LevelPositive; t <= EdgeNegative; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("clic: unknown trigger %q", s)
}
