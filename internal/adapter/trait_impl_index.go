package adapter

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-set/v3"
	"github.com/vmihailenco/msgpack/v5"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// TraitImplIndex answers whether a concrete type satisfies a set of trait
// bounds and which implementations justify it.
type TraitImplIndex interface {
	// Satisfies returns the ids of the implementations used, or false when
	// any bound is unsatisfiable.
	Satisfies(ty m.Type, bounds []m.Path) (*set.TreeSet[m.ImplID], bool)
}

// ImplEntry is one impl block: impl<Holes...> Trait for For.
type ImplEntry struct {
	ID    m.ImplID
	Trait m.Path
	// For may mention the hole names as Generic types.
	For   m.Type
	Holes []ImplHole
}

// ImplHole is a generic parameter of an impl block with its bounds.
type ImplHole struct {
	Name   string
	Bounds []m.Path
}

type memoEntry struct {
	OK  bool     `msgpack:"ok"`
	IDs []string `msgpack:"ids"`
}

type memoSnapshot struct {
	Fingerprint string               `msgpack:"fingerprint"`
	Entries     map[string]memoEntry `msgpack:"entries"`
}

// MemoryTraitImplIndex is a TraitImplIndex over an in-memory impl table with
// a memo cache of per-bound answers. The memo outlives single queries and is
// meant to be shared by every analysis of a surface.
type MemoryTraitImplIndex struct {
	mu          sync.Mutex
	impls       []ImplEntry
	byTrait     map[string][]int
	memo        map[string]memoEntry
	inProgress  map[string]bool
	fingerprint string
}

// NewMemoryTraitImplIndex indexes impls by trait name. Entry order decides
// which impl justifies a bound when several apply.
func NewMemoryTraitImplIndex(impls []ImplEntry) *MemoryTraitImplIndex {
	idx := &MemoryTraitImplIndex{
		impls:      impls,
		byTrait:    make(map[string][]int),
		memo:       make(map[string]memoEntry),
		inProgress: make(map[string]bool),
	}

	digest := sha256.New()

	for i, impl := range impls {
		name := lastSegment(impl.Trait)
		idx.byTrait[name] = append(idx.byTrait[name], i)
		_, _ = fmt.Fprintf(digest, "%s|%s|%s|%v\n", impl.ID, impl.Trait.String(), m.TypeString(impl.For), impl.Holes)
	}

	idx.fingerprint = hex.EncodeToString(digest.Sum(nil))

	return idx
}

// Satisfies implements TraitImplIndex.
func (x *MemoryTraitImplIndex) Satisfies(ty m.Type, bounds []m.Path) (*set.TreeSet[m.ImplID], bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	return x.satisfies(ty, bounds)
}

// MemoSize returns the number of cached per-bound answers.
func (x *MemoryTraitImplIndex) MemoSize() int {
	x.mu.Lock()
	defer x.mu.Unlock()

	return len(x.memo)
}

func newImplSet() *set.TreeSet[m.ImplID] {
	return set.NewTreeSet[m.ImplID](cmp.Compare[m.ImplID])
}

func (x *MemoryTraitImplIndex) satisfies(ty m.Type, bounds []m.Path) (*set.TreeSet[m.ImplID], bool) {
	used := newImplSet()

	for _, bound := range bounds {
		ids, ok := x.satisfiesBound(ty, bound)
		if !ok {
			return nil, false
		}

		used.InsertSet(ids)
	}

	return used, true
}

func (x *MemoryTraitImplIndex) satisfiesBound(ty m.Type, bound m.Path) (*set.TreeSet[m.ImplID], bool) {
	key := m.TypeString(ty) + ": " + bound.String()

	if entry, ok := x.memo[key]; ok {
		return memoIDs(entry), entry.OK
	}

	// A query that re-enters itself through impl hole bounds has no finite
	// justification.
	if x.inProgress[key] {
		slog.Debug("cyclic trait query", "query", key)
		return nil, false
	}

	x.inProgress[key] = true
	defer delete(x.inProgress, key)

	for _, i := range x.byTrait[lastSegment(bound)] {
		impl := x.impls[i]

		ids, ok := x.tryImpl(impl, ty, bound)
		if !ok {
			continue
		}

		x.memo[key] = memoEntry{OK: true, IDs: idStrings(ids)}
		slog.Debug("trait query satisfied", "query", key, "impl", impl.ID)

		return ids, true
	}

	// A negative answer under an enclosing query may rest on that query's
	// cycle guard. Only the outermost query's negative is final.
	if len(x.inProgress) == 1 {
		x.memo[key] = memoEntry{OK: false}
	}

	slog.Debug("trait query unsatisfied", "query", key)

	return nil, false
}

func (x *MemoryTraitImplIndex) tryImpl(impl ImplEntry, ty m.Type, bound m.Path) (*set.TreeSet[m.ImplID], bool) {
	holes := make(map[string]bool, len(impl.Holes))
	for _, h := range impl.Holes {
		holes[h.Name] = true
	}

	bindings := make(map[string]m.Type)

	if !unify(impl.For, ty, holes, bindings) {
		return nil, false
	}

	if !unifyPath(impl.Trait, bound, holes, bindings) {
		return nil, false
	}

	used := newImplSet()
	used.Insert(impl.ID)

	for _, hole := range impl.Holes {
		if len(hole.Bounds) == 0 {
			continue
		}

		holeType, ok := bindings[hole.Name]
		if !ok {
			return nil, false
		}

		substituted := m.ReplacePaths(hole.Bounds, bindingReplacer(bindings))

		ids, ok := x.satisfies(holeType, substituted)
		if !ok {
			return nil, false
		}

		used.InsertSet(ids)
	}

	return used, true
}

func bindingReplacer(bindings map[string]m.Type) m.ReplaceFunc {
	return func(t m.Type) (m.Type, bool) {
		if g, ok := t.(m.Generic); ok {
			if bound, ok := bindings[g.Name]; ok {
				return bound, true
			}
		}

		return nil, false
	}
}

// unify matches a pattern with holes against a concrete type, extending
// bindings. Lifetimes are ignored.
//
//nolint:cyclop // One case per type variant.
func unify(pattern, ty m.Type, holes map[string]bool, bindings map[string]m.Type) bool {
	if g, ok := pattern.(m.Generic); ok && holes[g.Name] {
		if bound, ok := bindings[g.Name]; ok {
			return m.TypeString(bound) == m.TypeString(ty)
		}

		bindings[g.Name] = ty

		return true
	}

	switch p := pattern.(type) {
	case m.PathType:
		t, ok := ty.(m.PathType)
		return ok && unifyPath(p.Path, t.Path, holes, bindings)
	case m.Tuple:
		t, ok := ty.(m.Tuple)
		return ok && unifyAll(p.Elems, t.Elems, holes, bindings)
	case m.Slice:
		t, ok := ty.(m.Slice)
		return ok && unify(p.Elem, t.Elem, holes, bindings)
	case m.Array:
		t, ok := ty.(m.Array)
		return ok && p.Len == t.Len && unify(p.Elem, t.Elem, holes, bindings)
	case m.RawPointer:
		t, ok := ty.(m.RawPointer)
		return ok && p.Mutable == t.Mutable && unify(p.Elem, t.Elem, holes, bindings)
	case m.BorrowedRef:
		t, ok := ty.(m.BorrowedRef)
		return ok && p.Mutable == t.Mutable && unify(p.Elem, t.Elem, holes, bindings)
	default:
		return m.TypeString(pattern) == m.TypeString(ty)
	}
}

func unifyAll(patterns, types []m.Type, holes map[string]bool, bindings map[string]m.Type) bool {
	if len(patterns) != len(types) {
		return false
	}

	for i := range patterns {
		if !unify(patterns[i], types[i], holes, bindings) {
			return false
		}
	}

	return true
}

func unifyPath(pattern, path m.Path, holes map[string]bool, bindings map[string]m.Type) bool {
	if !sameItem(pattern, path) {
		return false
	}

	want := typeArgs(pattern.LastArgs())
	got := typeArgs(path.LastArgs())

	return unifyAll(want, got, holes, bindings)
}

// sameItem compares by index id when both paths are resolved, otherwise by
// name. A single-segment name matches any path ending in that segment.
func sameItem(a, b m.Path) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}

	if a.Name() == b.Name() {
		return true
	}

	if len(a.Segments) == 1 || len(b.Segments) == 1 {
		return lastSegment(a) == lastSegment(b)
	}

	return false
}

func lastSegment(p m.Path) string {
	if len(p.Segments) == 0 {
		return ""
	}

	return p.Segments[len(p.Segments)-1].Name
}

func typeArgs(args m.GenericArgs) []m.Type {
	if args.Parenthesized {
		out := append([]m.Type{}, args.Inputs...)
		if args.Output != nil {
			out = append(out, args.Output)
		}

		return out
	}

	out := make([]m.Type, 0, len(args.Args))

	for _, arg := range args.Args {
		if arg.Type != nil {
			out = append(out, arg.Type)
		}
	}

	return out
}

func idStrings(ids *set.TreeSet[m.ImplID]) []string {
	out := make([]string, 0, ids.Size())
	for _, id := range ids.Slice() {
		out = append(out, string(id))
	}

	return out
}

func memoIDs(entry memoEntry) *set.TreeSet[m.ImplID] {
	if !entry.OK {
		return nil
	}

	ids := newImplSet()
	for _, id := range entry.IDs {
		ids.Insert(m.ImplID(id))
	}

	return ids
}

// SaveMemo writes the memo cache as msgpack.
func (x *MemoryTraitImplIndex) SaveMemo(w io.Writer) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	snapshot := memoSnapshot{Fingerprint: x.fingerprint, Entries: x.memo}
	if err := msgpack.NewEncoder(w).Encode(&snapshot); err != nil {
		return fmt.Errorf("failed to encode trait memo: %w", err)
	}

	return nil
}

// LoadMemo merges a memo cache written by SaveMemo. A snapshot taken over a
// different impl table is ignored and reported as not loaded.
func (x *MemoryTraitImplIndex) LoadMemo(r io.Reader) (bool, error) {
	var snapshot memoSnapshot
	if err := msgpack.NewDecoder(r).Decode(&snapshot); err != nil {
		return false, fmt.Errorf("failed to decode trait memo: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if snapshot.Fingerprint != x.fingerprint {
		slog.Info("discarding stale trait memo", "want", x.fingerprint, "got", snapshot.Fingerprint)
		return false, nil
	}

	for key, entry := range snapshot.Entries {
		x.memo[key] = entry
	}

	return true, nil
}

// LoadMemoFile loads a memo snapshot from path. A missing file is not an
// error.
func (x *MemoryTraitImplIndex) LoadMemoFile(path m.FilePath) (bool, error) {
	file, err := os.Open(filepath.Clean(string(path)))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("open trait memo: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	return x.LoadMemo(file)
}

// SaveMemoFile writes a memo snapshot to path.
func (x *MemoryTraitImplIndex) SaveMemoFile(path m.FilePath) error {
	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return fmt.Errorf("create trait memo directory: %w", err)
	}

	file, err := os.Create(filepath.Clean(string(path)))
	if err != nil {
		return fmt.Errorf("create trait memo: %w", err)
	}

	if err := x.SaveMemo(file); err != nil {
		_ = file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close trait memo: %w", err)
	}

	slog.Debug("saved trait memo", "path", path, "entries", x.MemoSize())

	return nil
}
