package linker

import "tachyon/internal/value"

type identityKey struct {
	op     Op
	target any
}

// functionStrategy links CALL and CONSTRUCT on function values with an
// identity guard. Property access on functions falls through to the object
// strategy.
type functionStrategy struct{}

func (functionStrategy) Name() string { return "function" }

func (functionStrategy) CanLink(recv value.Value) bool {
	_, ok := recv.(*value.Function)
	return ok
}

func (functionStrategy) Link(req *Request) (*GuardedImplementation, error) {
	fn := req.Receiver.(*value.Function)
	g := &GuardedImplementation{
		Guard: func(recv value.Value, _ []value.Value) bool {
			f, ok := recv.(*value.Function)
			return ok && f == fn
		},
		Key: identityKey{op: req.Desc.Op, target: fn},
	}
	switch req.Desc.Op {
	case OpCall:
		g.Label = "call " + fn.Name
		g.Invoke = func(j *value.Journal, _ value.Value, args []value.Value) (value.Value, error) {
			this := value.Arg(args, 0)
			if len(args) > 0 {
				args = args[1:]
			}
			return fn.Call(j, this, args)
		}
	case OpConstruct:
		g.Label = "new " + fn.Name
		g.Invoke = func(j *value.Journal, _ value.Value, args []value.Value) (value.Value, error) {
			obj := value.NewObject(fn.PrototypeObject())
			if fn.Name != "" {
				obj.SetClassName(fn.Name)
			}
			res, err := fn.Call(j, obj, args)
			if err != nil {
				return nil, err
			}
			switch res.(type) {
			case *value.Object, *value.Function, *value.Array:
				return res, nil
			}
			return obj, nil
		}
	default:
		return nil, nil
	}
	return g, nil
}

// hostClassStrategy constructs host objects. The overrides come from the
// request and are fixed into the implementation at link time.
type hostClassStrategy struct{}

func (hostClassStrategy) Name() string { return "hostclass" }

func (hostClassStrategy) CanLink(recv value.Value) bool {
	_, ok := recv.(*value.HostClass)
	return ok
}

func (hostClassStrategy) Link(req *Request) (*GuardedImplementation, error) {
	if req.Desc.Op != OpConstruct {
		return nil, nil
	}
	cls := req.Receiver.(*value.HostClass)
	overrides := req.Overrides
	return &GuardedImplementation{
		Guard: func(recv value.Value, _ []value.Value) bool {
			c, ok := recv.(*value.HostClass)
			return ok && c == cls
		},
		Invoke: func(_ *value.Journal, _ value.Value, args []value.Value) (value.Value, error) {
			return cls.New(overrides, args)
		},
		Key:   identityKey{op: OpConstruct, target: cls},
		Label: "new " + cls.Name,
	}, nil
}
