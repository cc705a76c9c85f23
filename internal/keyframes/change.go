package keyframes

import "fmt"

// ChangeKind describes the structural effect of a mutation on the rows.
type ChangeKind int

const (
	Inserted ChangeKind = iota
	Removed
	Updated
	Reset
)

func (k ChangeKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	case Updated:
		return "updated"
	case Reset:
		return "reset"
	}
	return fmt.Sprintf("changekind(%d)", int(k))
}

// Role names a column of a keyframe row.
type Role int

const (
	RolePosition Role = iota
	RoleFrame
	RoleType
	RoleValue
	RoleNormalizedValue
)

var valueRoles = []Role{RoleValue, RoleNormalizedValue, RoleType}

// Change is a contiguous row range affected by a mutation. Rows are the
// positions of keyframes in ascending time order; Last is inclusive.
type Change struct {
	Kind  ChangeKind
	First int
	Last  int
	Roles []Role
}

func (c Change) String() string {
	return fmt.Sprintf("%s[%d..%d]", c.Kind, c.First, c.Last)
}
