package speculate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"tachyon/internal/ir"
	"tachyon/internal/types"
)

func TestDigestFollowsSource(t *testing.T) {
	mk := func(n float64) *ir.Function {
		return ir.Fn("f", "f", nil, ir.Ret(ir.Bin(ir.OpAdd, ir.Global("x"), ir.Num(n))))
	}
	a, err := DigestOf(mk(1))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := DigestOf(mk(1))
	c, _ := DigestOf(mk(2))
	if a != b || a == c {
		t.Fatalf("digest must depend on the source only: %s %s %s", a, b, c)
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds, err := OpenDiskStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	src := NewStore()
	src.Widen(FunctionKey{"add", "exact"}, 1, types.Number)
	src.Widen(FunctionKey{"add", "over1"}, 0, types.Object)
	src.Widen(FunctionKey{"other", "exact"}, 0, types.Number)
	digest := Digest{1, 2, 3}
	writer := uuid.NewString()
	if err := ds.Save(src, "add", digest, writer); err != nil {
		t.Fatalf("save: %v", err)
	}

	dst := NewStore()
	n, err := ds.Load(dst, "add", digest)
	if err != nil || n != 2 {
		t.Fatalf("load: %d %v", n, err)
	}
	if got, _ := dst.Lookup(FunctionKey{"add", "exact"}, 1); got != types.Number {
		t.Fatalf("restored %s", got)
	}
	if len(dst.KeysOf("other")) != 0 {
		t.Fatal("snapshot must only hold the saved function")
	}

	snaps, err := ds.List()
	if err != nil || len(snaps) != 1 || snaps[0].Writer != writer || snaps[0].PointCount() != 2 {
		t.Fatalf("unexpected listing %+v %v", snaps, err)
	}
	if n, _ := ds.Load(dst, "add", Digest{9}); n != 0 {
		t.Fatal("unknown digest must restore nothing")
	}
}

func TestDiskStoreIgnoresOtherSchemas(t *testing.T) {
	dir := t.TempDir()
	ds, _ := OpenDiskStore(dir)
	digest := Digest{7}
	data, err := msgpack.Marshal(&Snapshot{Schema: snapshotSchema + 1, Function: "f"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, digest.String()+".mp"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := ds.Read(digest); ok || err != nil {
		t.Fatalf("foreign schema must be skipped, got ok=%v err=%v", ok, err)
	}
}
