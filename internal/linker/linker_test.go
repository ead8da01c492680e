package linker

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"tachyon/internal/diag"
	"tachyon/internal/source"
	"tachyon/internal/value"
)

func point(x, y int32) *value.Object {
	return value.NewObjectFrom(nil, []string{"x", "y"}, []value.Value{x, y})
}

func mustInvoke(t *testing.T, s *CallSite, j *value.Journal, recv value.Value, args ...value.Value) value.Value {
	t.Helper()
	v, err := s.Invoke(j, recv, args)
	if err != nil {
		t.Fatalf("%s: %v", s.Descriptor(), err)
	}
	return v
}

func TestMonomorphicHitsDoNotRelink(t *testing.T) {
	l := New(Options{})
	s := l.NewSite(Get("x"))
	if s.State() != Unlinked {
		t.Fatalf("fresh site is %s", s.State())
	}
	for i := range 10 {
		if got := mustInvoke(t, s, nil, point(int32(i), 0)); got != int32(i) {
			t.Fatalf("got %v, want %d", got, i)
		}
	}
	st := s.Stats()
	if st.State != Monomorphic || st.Chain != 1 || st.Misses != 1 || st.Hits != 9 || st.Relinks != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestPolymorphicThenMegamorphic(t *testing.T) {
	bag := diag.NewBag(8)
	l := New(Options{ChainBound: 4, Reporter: &diag.BagReporter{Bag: bag}})
	sp := source.Span{Start: 3, End: 6}
	s := l.NewSite(Get("x"), WithSpan(sp))
	shapes := make([]*value.Object, 5)
	for i := range shapes {
		o := value.NewObject(nil)
		// A distinct leading property gives each object its own shape.
		o.Put(nil, fmt.Sprintf("pad%d", i), int32(i))
		o.Put(nil, "x", int32(i*10))
		shapes[i] = o
	}
	for i, o := range shapes[:4] {
		mustInvoke(t, s, nil, o)
		want := Polymorphic
		if i == 0 {
			want = Monomorphic
		}
		if s.State() != want {
			t.Fatalf("after %d shapes: %s, want %s", i+1, s.State(), want)
		}
	}
	if got := s.Labels(); len(got) != 4 {
		t.Fatalf("chain %v", got)
	}
	if bag.Len() != 0 {
		t.Fatalf("reported before collapsing: %v", bag.Items())
	}
	mustInvoke(t, s, nil, shapes[4])
	if s.State() != Megamorphic {
		t.Fatalf("fifth shape left the site %s", s.State())
	}
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.LinkMegamorphic || items[0].Primary != sp {
		t.Fatalf("collapse diagnostics %v", items)
	}
	before := s.Stats().Misses
	for i, o := range shapes {
		if got := mustInvoke(t, s, nil, o); got != int32(i*10) {
			t.Fatalf("megamorphic read %v, want %d", got, i*10)
		}
	}
	if s.Stats().Misses-before != 5 {
		t.Fatal("megamorphic site must resolve every call")
	}
}

func TestConcurrentFirstLinksInstallOnce(t *testing.T) {
	l := New(Options{})
	s := l.NewSite(Get("y"))
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Invoke(nil, point(1, int32(i)), nil); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if st := s.Stats(); st.State != Monomorphic || st.Chain != 1 {
		t.Fatalf("racing links produced %+v", st)
	}
}

func TestPrototypeChangeInvalidates(t *testing.T) {
	l := New(Options{})
	proto := value.NewObjectFrom(nil, []string{"greet"}, []value.Value{"hi"})
	obj := value.NewObject(proto)
	s := l.NewSite(Get("greet"))
	if got := mustInvoke(t, s, nil, obj); got != "hi" {
		t.Fatalf("got %v", got)
	}
	// Same slot, new value: no relayout, the cached entry reads through.
	slot, _ := proto.Shape().Lookup("greet")
	proto.SetSlot(nil, slot, "hello")
	if got := mustInvoke(t, s, nil, obj); got != "hello" {
		t.Fatalf("got %v", got)
	}
	// Shadowing on an intermediate prototype flips its layout.
	mid := value.NewObject(proto)
	obj2 := value.NewObject(mid)
	mustInvoke(t, s, nil, obj2)
	mid.Put(nil, "greet", "hey")
	if got := mustInvoke(t, s, nil, obj2); got != "hey" {
		t.Fatalf("stale prototype read %v", got)
	}
}

func TestMissingPropertyWatchesWholeChain(t *testing.T) {
	l := New(Options{})
	root := value.NewObject(nil)
	obj := value.NewObject(value.NewObject(root))
	s := l.NewSite(Get("late"))
	if got := mustInvoke(t, s, nil, obj); !value.IsUndefined(got) {
		t.Fatalf("got %v", got)
	}
	root.Put(nil, "late", int32(7))
	if got := mustInvoke(t, s, nil, obj); got != int32(7) {
		t.Fatalf("got %v after adding to the root prototype", got)
	}
}

func TestSetAndRollback(t *testing.T) {
	l := New(Options{})
	o := point(1, 2)
	j := value.NewJournal()
	mustInvoke(t, l.NewSite(Set("x")), j, o, int32(5))
	mustInvoke(t, l.NewSite(Set("z")), j, o, "new")
	if o.Get("x") != int32(5) || o.Get("z") != "new" {
		t.Fatal("writes not applied")
	}
	j.Rollback()
	if o.Get("x") != int32(1) || o.Has("z") {
		t.Fatalf("rollback left x=%v z=%v", o.Get("x"), o.Get("z"))
	}
}

func TestCallAndConstruct(t *testing.T) {
	l := New(Options{})
	add := value.NewNative("add", 2, func(_ *value.Journal, _ value.Value, args []value.Value) (value.Value, error) {
		return value.Add(value.Arg(args, 0), value.Arg(args, 1)), nil
	})
	call := l.NewSite(Call(2))
	if got := mustInvoke(t, call, nil, add, value.Undefined, int32(2), int32(3)); got != int32(5) {
		t.Fatalf("got %v", got)
	}
	ctor := value.NewNative("Point", 1, func(j *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
		this.(*value.Object).Put(j, "x", value.Arg(args, 0))
		return value.Undefined, nil
	})
	ctor.PrototypeObject().Put(nil, "kind", "point")
	obj := mustInvoke(t, l.NewSite(Construct(1)), nil, ctor, int32(9)).(*value.Object)
	if obj.Get("x") != int32(9) || obj.Get("kind") != "point" || obj.ClassName() != "Point" {
		t.Fatalf("constructed %v", value.Describe(obj))
	}
}

func TestResolutionFailure(t *testing.T) {
	l := New(Options{})
	_, err := l.NewSite(Call(0)).Invoke(nil, int32(3), []value.Value{value.Undefined})
	var re *ResolutionError
	if !errors.As(err, &re) || !errors.Is(err, ErrNoResolver) {
		t.Fatalf("got %v", err)
	}
	if re.Desc.Op != OpCall || re.Receiver != "number" {
		t.Fatalf("unexpected error %+v", re)
	}
	if _, err := l.NewSite(Get("x")).Invoke(nil, value.Undefined, nil); !errors.Is(err, ErrNoResolver) {
		t.Fatalf("reading from undefined: %v", err)
	}
}

func TestPrimitives(t *testing.T) {
	l := New(Options{})
	length := l.NewSite(Get("length"))
	if got := mustInvoke(t, length, nil, "h\u00e9llo"); got != int32(5) {
		t.Fatalf("length %v", got)
	}
	norm := mustInvoke(t, l.NewSite(Get("normalize")), nil, "e\u0301")
	got := mustInvoke(t, l.NewSite(Call(1)), nil, norm, "e\u0301", "NFC")
	if got != "\u00e9" {
		t.Fatalf("normalize gave %q", got)
	}
	if got := mustInvoke(t, l.NewSite(Element(OpGet)), nil, "abc", int32(1)); got != "b" {
		t.Fatalf("index gave %v", got)
	}
	fixed := mustInvoke(t, l.NewSite(Get("toFixed")), nil, 3.14159)
	if got := mustInvoke(t, l.NewSite(Call(1)), nil, fixed, 3.14159, int32(2)); got != "3.14" {
		t.Fatalf("toFixed gave %v", got)
	}
}

func TestArrays(t *testing.T) {
	l := New(Options{})
	a := value.NewArray(int32(1), int32(2))
	j := value.NewJournal()
	push := mustInvoke(t, l.NewSite(Get("push")), j, a)
	mustInvoke(t, l.NewSite(Call(1)), j, push, a, int32(3))
	mustInvoke(t, l.NewSite(Element(OpSet)), j, a, int32(0), "zero")
	if a.Len() != 3 || a.At(0) != "zero" {
		t.Fatalf("array is %s", value.ToString(a))
	}
	j.Rollback()
	if value.ToString(a) != "1,2" {
		t.Fatalf("rollback left %s", value.ToString(a))
	}
}

type account struct {
	Owner   string
	Balance float64
	Tags    map[string]string
}

func (a *account) Deposit(n float64) float64 {
	a.Balance += n
	return a.Balance
}

func TestHostReflection(t *testing.T) {
	l := New(Options{})
	acct := &account{Owner: "ada", Balance: 10, Tags: map[string]string{}}
	if got := mustInvoke(t, l.NewSite(Get("owner")), nil, acct); got != "ada" {
		t.Fatalf("owner %v", got)
	}
	dep := mustInvoke(t, l.NewSite(Get("deposit")), nil, acct)
	if dep != mustInvoke(t, l.NewSite(Get("Deposit")), nil, &account{}) {
		t.Fatal("host methods must be shared per type")
	}
	if got := mustInvoke(t, l.NewSite(Call(1)), nil, dep, acct, int32(5)); got != int32(15) {
		t.Fatalf("deposit returned %v", got)
	}
	j := value.NewJournal()
	mustInvoke(t, l.NewSite(Set("balance")), j, acct, 1.5)
	mustInvoke(t, l.NewSite(Set("env")), j, acct.Tags, "prod")
	if acct.Balance != 1.5 || acct.Tags["env"] != "prod" {
		t.Fatalf("writes not applied: %+v", acct)
	}
	j.Rollback()
	if acct.Balance != 15 || len(acct.Tags) != 0 {
		t.Fatalf("rollback left %+v", acct)
	}
}

func TestHostCallsAreIrreversible(t *testing.T) {
	l := New(Options{})
	acct := &account{}
	dep := mustInvoke(t, l.NewSite(Get("deposit")), nil, acct)

	j := value.NewJournal()
	mustInvoke(t, l.NewSite(Set("balance")), j, acct, 2.0)
	if j.Irreversible() {
		t.Fatal("a field write can be undone")
	}
	mustInvoke(t, l.NewSite(Call(1)), j, dep, acct, int32(5))
	if !j.Irreversible() {
		t.Fatal("host method call left the journal reversible")
	}

	calls := 0
	bump := func() { calls++ }
	j = value.NewJournal()
	mustInvoke(t, l.NewSite(Call(0)), j, bump, value.Undefined)
	if calls != 1 || !j.Irreversible() {
		t.Fatalf("host func: calls=%d irreversible=%v", calls, j.Irreversible())
	}
}

func TestHostClassOverrides(t *testing.T) {
	l := New(Options{})
	cls := &value.HostClass{Name: "Account", New: func(overrides map[string]value.Value, args []value.Value) (value.Value, error) {
		owner := value.ToString(value.Arg(args, 0))
		if o, ok := overrides["owner"]; ok {
			owner = value.ToString(o)
		}
		return &account{Owner: owner}, nil
	}}
	plain := mustInvoke(t, l.NewSite(Construct(1)), nil, cls, "bob").(*account)
	forced := mustInvoke(t, l.NewSite(Construct(1), WithOverrides(map[string]value.Value{"owner": "root"})), nil, cls, "bob").(*account)
	if plain.Owner != "bob" || forced.Owner != "root" {
		t.Fatalf("got %q and %q", plain.Owner, forced.Owner)
	}
}

func TestFactsBuiltOnceUnderConcurrency(t *testing.T) {
	c := NewFactsCache()
	if _, err := c.Of(reflect.TypeFor[*account]()); !errors.Is(err, ErrFactsStopped) {
		t.Fatalf("stopped cache returned %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := c.Of(reflect.TypeFor[*account]())
			if err != nil {
				t.Error(err)
				return
			}
			if _, ok := f.Lookup("balance"); !ok {
				t.Error("missing field")
			}
		}()
	}
	wg.Wait()
	if c.Builds() != 1 || c.Len() != 1 {
		t.Fatalf("builds=%d len=%d", c.Builds(), c.Len())
	}
	c.Shutdown()
	if c.Len() != 0 || c.Running() {
		t.Fatal("shutdown kept state")
	}
}
