package nav

import "strconv"

// Cursor is either unset or at an index. The zero value is unset.
type Cursor struct {
	index int
	set   bool
}

// Unset returns the empty cursor.
func Unset() Cursor { return Cursor{} }

// At returns a cursor positioned at i.
func At(i int) Cursor { return Cursor{index: i, set: true} }

// Index returns the position and whether the cursor is set.
func (c Cursor) Index() (int, bool) { return c.index, c.set }

// IsSet reports whether the cursor points somewhere.
func (c Cursor) IsSet() bool { return c.set }

// Is reports whether the cursor is set at i.
func (c Cursor) Is(i int) bool { return c.set && c.index == i }

func (c Cursor) String() string {
	if !c.set {
		return "unset"
	}
	return strconv.Itoa(c.index)
}
