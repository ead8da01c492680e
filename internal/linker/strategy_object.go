package linker

import "tachyon/internal/value"

type shapeKey struct {
	op    Op
	name  string
	shape *value.Shape
	proto *value.Object
}

type elementKey struct {
	op   Op
	kind string
}

// objectStrategy links property access on script objects (functions
// included). Named access guards on the receiver's shape and prototype;
// anything found or missed further up the prototype chain also depends on
// the layout switch points of the objects walked.
type objectStrategy struct{}

func (objectStrategy) Name() string { return "object" }

func (objectStrategy) CanLink(recv value.Value) bool {
	_, ok := value.AsObject(recv)
	return ok
}

func (objectStrategy) Link(req *Request) (*GuardedImplementation, error) {
	o, _ := value.AsObject(req.Receiver)
	d := req.Desc
	if !d.Named {
		return objectElement(d.Op), nil
	}
	shape, proto := o.Shape(), o.Proto()
	g := &GuardedImplementation{
		Guard: func(recv value.Value, _ []value.Value) bool {
			x, ok := value.AsObject(recv)
			return ok && x.Shape() == shape && x.Proto() == proto
		},
		Key: shapeKey{op: d.Op, name: d.Name, shape: shape, proto: proto},
	}
	name := d.Name
	switch d.Op {
	case OpGet:
		holder, slot, found := o.Find(name)
		switch {
		case found && holder == o:
			g.Label = "object.own"
			g.Invoke = func(_ *value.Journal, recv value.Value, _ []value.Value) (value.Value, error) {
				x, _ := value.AsObject(recv)
				return x.Slot(slot), nil
			}
		case found:
			g.Label = "object.proto"
			g.SwitchPoints = layouts(proto, holder)
			g.Invoke = func(*value.Journal, value.Value, []value.Value) (value.Value, error) {
				return holder.Slot(slot), nil
			}
		default:
			g.Label = "object.missing"
			g.SwitchPoints = layouts(proto, nil)
			g.Invoke = func(*value.Journal, value.Value, []value.Value) (value.Value, error) {
				return value.Undefined, nil
			}
		}
	case OpSet:
		if slot, ok := shape.Lookup(name); ok {
			g.Label = "object.store"
			g.Invoke = func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
				x, _ := value.AsObject(recv)
				v := value.Arg(args, 0)
				x.SetSlot(j, slot, v)
				return v, nil
			}
		} else {
			g.Label = "object.add"
			g.Invoke = func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
				x, _ := value.AsObject(recv)
				v := value.Arg(args, 0)
				x.Put(j, name, v)
				return v, nil
			}
		}
	case OpDelete:
		g.Label = "object.delete"
		g.Invoke = func(j *value.Journal, recv value.Value, _ []value.Value) (value.Value, error) {
			x, _ := value.AsObject(recv)
			return x.Delete(j, name), nil
		}
	default:
		return nil, nil
	}
	return g, nil
}

// layouts collects the layout switch points from start up the prototype
// chain, stopping after stop (or at the end of the chain when stop is nil).
func layouts(start, stop *value.Object) []*value.SwitchPoint {
	var out []*value.SwitchPoint
	for cur := start; cur != nil; cur = cur.Proto() {
		out = append(out, cur.Layout())
		if cur == stop {
			break
		}
	}
	return out
}

// objectElement handles computed keys generically: the key is converted
// and looked up at call time.
func objectElement(op Op) *GuardedImplementation {
	g := &GuardedImplementation{
		Guard: func(recv value.Value, _ []value.Value) bool {
			_, ok := value.AsObject(recv)
			return ok
		},
		Key:   elementKey{op: op, kind: "object"},
		Label: "object.element",
	}
	switch op {
	case OpGet:
		g.Invoke = func(_ *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			x, _ := value.AsObject(recv)
			return x.Get(value.ToPropertyKey(value.Arg(args, 0))), nil
		}
	case OpSet:
		g.Invoke = func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			x, _ := value.AsObject(recv)
			v := value.Arg(args, 1)
			x.Put(j, value.ToPropertyKey(value.Arg(args, 0)), v)
			return v, nil
		}
	case OpDelete:
		g.Invoke = func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			x, _ := value.AsObject(recv)
			return x.Delete(j, value.ToPropertyKey(value.Arg(args, 0))), nil
		}
	default:
		return nil
	}
	return g
}
