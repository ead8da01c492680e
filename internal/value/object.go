package value

// Object is a script object: a shape, the slots it describes, and a
// prototype link. Objects are not safe for concurrent mutation; the runtime
// confines each invocation's writes to one goroutine.
type Object struct {
	shape *Shape
	slots []Value
	proto *Object
	class string
	// layout flips whenever this object's own property set or prototype
	// changes.
	layout *SwitchPoint
}

// NewObject creates an empty object with the given prototype (may be nil).
func NewObject(proto *Object) *Object {
	return &Object{
		shape:  emptyShape,
		proto:  proto,
		class:  "Object",
		layout: NewSwitchPoint(),
	}
}

// NewObjectFrom builds an object with properties in the given order.
func NewObjectFrom(proto *Object, names []string, vals []Value) *Object {
	o := NewObject(proto)
	for i, n := range names {
		o.Put(nil, n, vals[i])
	}
	return o
}

func (o *Object) Shape() *Shape { return o.shape }

func (o *Object) Proto() *Object { return o.proto }

// Layout returns the switch point guarding the current layout.
func (o *Object) Layout() *SwitchPoint { return o.layout }

func (o *Object) ClassName() string {
	if o.class == "" {
		return "Object"
	}
	return o.class
}

func (o *Object) SetClassName(name string) { o.class = name }

// Slot returns the value stored in slot i.
func (o *Object) Slot(i int) Value { return o.slots[i] }

// GetOwn reads an own property.
func (o *Object) GetOwn(name string) (Value, bool) {
	if i, ok := o.shape.Lookup(name); ok {
		return o.slots[i], true
	}
	return Undefined, false
}

// Find walks the prototype chain and returns the object holding name.
func (o *Object) Find(name string) (*Object, int, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if i, ok := cur.shape.Lookup(name); ok {
			return cur, i, true
		}
	}
	return nil, 0, false
}

// Get reads name through the prototype chain; missing names are Undefined.
func (o *Object) Get(name string) Value {
	if holder, i, ok := o.Find(name); ok {
		return holder.slots[i]
	}
	return Undefined
}

// Has reports whether name exists on o or its prototypes.
func (o *Object) Has(name string) bool {
	_, _, ok := o.Find(name)
	return ok
}

// SetSlot overwrites an existing slot.
func (o *Object) SetSlot(j *Journal, i int, v Value) {
	old := o.slots[i]
	o.slots[i] = v
	j.OnRollback(func() { o.slots[i] = old })
}

// Put writes an own property, adding it when missing.
func (o *Object) Put(j *Journal, name string, v Value) {
	if i, ok := o.shape.Lookup(name); ok {
		o.SetSlot(j, i, v)
		return
	}
	o.record(j)
	o.shape = o.shape.With(name)
	o.slots = append(o.slots, v)
	o.relayout()
}

// Delete removes an own property. It reports whether the property is gone.
func (o *Object) Delete(j *Journal, name string) bool {
	i, ok := o.shape.Lookup(name)
	if !ok {
		return true
	}
	o.record(j)
	slots := make([]Value, 0, len(o.slots)-1)
	slots = append(slots, o.slots[:i]...)
	slots = append(slots, o.slots[i+1:]...)
	o.shape = o.shape.Without(name)
	o.slots = slots
	o.relayout()
	return true
}

// SetProto replaces the prototype link.
func (o *Object) SetProto(j *Journal, p *Object) {
	if o.proto == p {
		return
	}
	o.record(j)
	o.proto = p
	o.relayout()
}

// Keys returns own property names in insertion order.
func (o *Object) Keys() []string {
	return o.shape.Names()
}

// record snapshots the layout so a rollback can restore it.
func (o *Object) record(j *Journal) {
	if j == nil {
		return
	}
	shape, proto := o.shape, o.proto
	slots := make([]Value, len(o.slots))
	copy(slots, o.slots)
	j.OnRollback(func() {
		o.shape, o.proto, o.slots = shape, proto, slots
		o.relayout()
	})
}

func (o *Object) relayout() {
	o.layout.Invalidate()
	o.layout = NewSwitchPoint()
}
