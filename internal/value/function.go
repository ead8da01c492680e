package value

// Callable is anything a CALL or CONSTRUCT can invoke. The journal is the
// caller's; implementations that run script code open a child of it.
type Callable interface {
	Call(j *Journal, this Value, args []Value) (Value, error)
}

// NativeFunc adapts a Go function to Callable.
type NativeFunc func(j *Journal, this Value, args []Value) (Value, error)

func (f NativeFunc) Call(j *Journal, this Value, args []Value) (Value, error) {
	return f(j, this, args)
}

// Function is a callable script value. It is also an object: `prototype`
// and any user properties live in the embedded Object.
type Function struct {
	Object
	Name  string
	Arity int
	impl  Callable
}

// NewFunction creates a function value with a fresh `prototype` object.
func NewFunction(name string, arity int, impl Callable) *Function {
	f := &Function{Name: name, Arity: arity, impl: impl}
	f.Object = *NewObject(nil)
	f.Object.class = "Function"
	f.Object.Put(nil, "prototype", NewObject(nil))
	return f
}

// NewNative is NewFunction for Go implementations.
func NewNative(name string, arity int, fn NativeFunc) *Function {
	return NewFunction(name, arity, fn)
}

func (f *Function) Call(j *Journal, this Value, args []Value) (Value, error) {
	return f.impl.Call(j, this, args)
}

// Impl exposes the underlying callable; the engine uses it to recognise its
// own script functions.
func (f *Function) Impl() Callable { return f.impl }

// PrototypeObject returns the object new instances inherit from.
func (f *Function) PrototypeObject() *Object {
	if p, ok := f.Object.Get("prototype").(*Object); ok {
		return p
	}
	return nil
}

// AsObject returns the script object behind v, if any.
func AsObject(v Value) (*Object, bool) {
	switch x := v.(type) {
	case *Object:
		return x, true
	case *Function:
		return &x.Object, true
	}
	return nil, false
}

// Arg returns args[i] or Undefined.
func Arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
