package value

// Array is a dense script array.
type Array struct {
	elems []Value
}

func NewArray(elems ...Value) *Array {
	out := make([]Value, len(elems))
	copy(out, elems)
	return &Array{elems: out}
}

func (a *Array) Len() int { return len(a.elems) }

// At returns element i or Undefined when out of range.
func (a *Array) At(i int) Value {
	if i < 0 || i >= len(a.elems) {
		return Undefined
	}
	return a.elems[i]
}

// SetAt writes element i, growing the array with Undefined holes.
func (a *Array) SetAt(j *Journal, i int, v Value) {
	if i < 0 {
		return
	}
	prevLen := len(a.elems)
	var old Value = Undefined
	if i < prevLen {
		old = a.elems[i]
	}
	for len(a.elems) <= i {
		a.elems = append(a.elems, Undefined)
	}
	a.elems[i] = v
	j.OnRollback(func() {
		if i < prevLen {
			a.elems[i] = old
		}
		a.elems = a.elems[:prevLen]
	})
}

// Push appends v and returns the new length.
func (a *Array) Push(j *Journal, v Value) int {
	a.SetAt(j, len(a.elems), v)
	return len(a.elems)
}
