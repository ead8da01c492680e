package value

// HostClass is a constructor for host (Go) objects. CONSTRUCT on a HostClass
// calls New with the construct-time overrides the call site was linked with;
// the overrides are an explicit argument, never ambient state.
type HostClass struct {
	Name string
	New  func(overrides map[string]Value, args []Value) (Value, error)
}

func (c *HostClass) String() string { return "class " + c.Name }
