package speculate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"tachyon/internal/ir"
	"tachyon/internal/types"
)

// snapshotSchema is bumped whenever Snapshot changes shape.
const snapshotSchema uint16 = 1

// Digest identifies a function's source tree. Assumptions learned for one
// digest are never applied to a different body.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// DigestOf hashes the printed form of fn.
func DigestOf(fn *ir.Function) (Digest, error) {
	h := sha256.New()
	if err := ir.Dump(h, fn, ir.DumpOptions{}); err != nil {
		return Digest{}, err
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// PointEntry is one persisted assumption.
type PointEntry struct {
	Point int32  `msgpack:"pp"`
	Type  string `msgpack:"t"`
}

// ContextEntry groups the assumptions of one calling context.
type ContextEntry struct {
	Context string       `msgpack:"ctx"`
	Points  []PointEntry `msgpack:"points"`
}

// Snapshot is the on-disk form of everything learned about one function.
type Snapshot struct {
	Schema   uint16         `msgpack:"schema"`
	Function string         `msgpack:"fn"`
	Digest   string         `msgpack:"digest"`
	Writer   string         `msgpack:"writer"` // runtime instance that wrote it
	Written  time.Time      `msgpack:"written"`
	Contexts []ContextEntry `msgpack:"contexts"`
}

// PointCount is the number of persisted points across contexts.
func (s *Snapshot) PointCount() int {
	n := 0
	for _, c := range s.Contexts {
		n += len(c.Points)
	}
	return n
}

// DiskStore persists snapshots as msgpack files named by digest.
// Safe for concurrent use.
type DiskStore struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskStore uses dir, creating it if needed.
func OpenDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("speculation store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("speculation store: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Dir() string { return d.dir }

func (d *DiskStore) pathFor(digest Digest) string {
	return filepath.Join(d.dir, digest.String()+".mp")
}

// Save snapshots every context of function from store. Writes go to a temp
// file first and are renamed into place.
func (d *DiskStore) Save(store *Store, function string, digest Digest, writer string) error {
	if d == nil {
		return nil
	}
	snap := &Snapshot{
		Schema:   snapshotSchema,
		Function: function,
		Digest:   digest.String(),
		Writer:   writer,
		Written:  time.Now().UTC(),
	}
	for _, key := range store.KeysOf(function) {
		entries := store.Snapshot(key)
		ce := ContextEntry{Context: key.Context, Points: make([]PointEntry, 0, len(entries))}
		for pp, t := range entries {
			ce.Points = append(ce.Points, PointEntry{Point: int32(pp), Type: t.String()})
		}
		sort.Slice(ce.Points, func(i, j int) bool { return ce.Points[i].Point < ce.Points[j].Point })
		snap.Contexts = append(snap.Contexts, ce)
	}
	if len(snap.Contexts) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.pathFor(digest)
	f, err := os.CreateTemp(d.dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // gone after a successful rename

	if err := msgpack.NewEncoder(f).Encode(snap); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Read returns the snapshot stored for digest; ok is false when none exists
// or it was written with another schema.
func (d *DiskStore) Read(digest Digest) (*Snapshot, bool, error) {
	if d == nil {
		return nil, false, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return readSnapshot(d.pathFor(digest))
}

func readSnapshot(path string) (*Snapshot, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck

	var snap Snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if snap.Schema != snapshotSchema {
		return nil, false, nil
	}
	return &snap, true, nil
}

// Load merges the snapshot for digest into store under function. It reports
// how many points were restored.
func (d *DiskStore) Load(store *Store, function string, digest Digest) (int, error) {
	snap, ok, err := d.Read(digest)
	if err != nil || !ok {
		return 0, err
	}
	restored := 0
	for _, ce := range snap.Contexts {
		saved := make(map[ir.ProgramPoint]types.Type, len(ce.Points))
		for _, pe := range ce.Points {
			t, err := types.Parse(pe.Type)
			if err != nil {
				return restored, fmt.Errorf("snapshot %s: %w", digest, err)
			}
			if pe.Point < 0 || ir.ProgramPoint(pe.Point) > ir.MaxProgramPoint {
				return restored, fmt.Errorf("snapshot %s: point %d out of range", digest, pe.Point)
			}
			saved[ir.ProgramPoint(pe.Point)] = t
		}
		store.Restore(FunctionKey{Function: function, Context: ce.Context}, saved)
		restored += len(saved)
	}
	return restored, nil
}

// List returns every readable snapshot in the directory, by function name.
func (d *DiskStore) List() ([]*Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ents, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var out []*Snapshot
	for _, ent := range ents {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".mp") {
			continue
		}
		snap, ok, err := readSnapshot(filepath.Join(d.dir, ent.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Function < out[j].Function })
	return out, nil
}
