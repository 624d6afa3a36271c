package model

import "math"

// Label is the three-way supervised target: -1 down, 0 flat, +1 up.
type Label int8

const (
	LabelDown Label = -1
	LabelFlat Label = 0
	LabelUp   Label = 1

	// LabelUndefined marks bars whose forward window runs past the series end.
	LabelUndefined Label = math.MinInt8
)

// Defined reports whether l is one of the three classes.
func (l Label) Defined() bool {
	return l == LabelDown || l == LabelFlat || l == LabelUp
}

func (l Label) String() string {
	switch l {
	case LabelDown:
		return "-1"
	case LabelFlat:
		return "0"
	case LabelUp:
		return "1"
	default:
		return "undefined"
	}
}

// Classes lists the defined labels in ascending order.
var Classes = [3]Label{LabelDown, LabelFlat, LabelUp}

// ClassIndex maps a defined label to 0..2, or -1.
func ClassIndex(l Label) int {
	switch l {
	case LabelDown:
		return 0
	case LabelFlat:
		return 1
	case LabelUp:
		return 2
	}
	return -1
}
