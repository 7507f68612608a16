// Package cache stores repair outcomes on disk, keyed by everything that
// can change the outcome.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"bracefix/internal/repair"
)

// Current schema version - increment when Entry format changes
const schemaVersion uint16 = 1

// Digest is the SHA-256 cache key.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// KeyParts lists every input that can change a repair outcome.
type KeyParts struct {
	Expr     string
	Pairs    string
	Oracle   string
	MinDepth int
	MaxDepth int
	Staged   bool
}

// Key hashes parts into a Digest. Fields are length-prefixed so no two
// distinct KeyParts share an encoding.
func Key(parts KeyParts) Digest {
	h := sha256.New()
	writeString := func(s string) {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	writeString(parts.Expr)
	writeString(parts.Pairs)
	writeString(parts.Oracle)
	var nums [17]byte
	binary.LittleEndian.PutUint64(nums[0:8], uint64(int64(parts.MinDepth)))
	binary.LittleEndian.PutUint64(nums[8:16], uint64(int64(parts.MaxDepth)))
	if parts.Staged {
		nums[16] = 1
	}
	h.Write(nums[:])

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Insertion mirrors repair.Insertion with msgpack-stable field types.
type Insertion struct {
	Offset int
	Source int
	Char   int32
}

// Entry is one cached outcome. Fixed=false records an unrecoverable input.
type Entry struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Input      string
	Output     string
	Fixed      bool
	Depth      int
	MaxDepth   int
	Insertions []Insertion

	Created int64 // unix seconds
}

// EntryFor builds an entry for a successful repair.
func EntryFor(res *repair.Result) *Entry {
	e := &Entry{
		Schema:     schemaVersion,
		Input:      res.Input,
		Output:     res.Output,
		Fixed:      true,
		Depth:      res.Depth,
		Insertions: make([]Insertion, len(res.Insertions)),
		Created:    time.Now().Unix(),
	}
	for i, ins := range res.Insertions {
		e.Insertions[i] = Insertion{Offset: ins.Offset, Source: ins.Source, Char: ins.Char}
	}
	return e
}

// EntryForFailure records that input could not be fixed within maxDepth.
func EntryForFailure(input string, maxDepth int) *Entry {
	return &Entry{
		Schema:   schemaVersion,
		Input:    input,
		MaxDepth: maxDepth,
		Created:  time.Now().Unix(),
	}
}

// Outcome converts the entry back into what repair.Repair returned.
// Stats are not cached and come back zero.
func (e *Entry) Outcome() (*repair.Result, error) {
	if !e.Fixed {
		return nil, &repair.SyntaxUnrecoverableError{Input: e.Input, MaxDepth: e.MaxDepth}
	}
	res := &repair.Result{
		Input:      e.Input,
		Output:     e.Output,
		Depth:      e.Depth,
		Insertions: make([]repair.Insertion, len(e.Insertions)),
	}
	for i, ins := range e.Insertions {
		res.Insertions[i] = repair.Insertion{Offset: ins.Offset, Source: ins.Source, Char: ins.Char}
	}
	return res, nil
}

// DiskCache хранит результаты починки по Digest на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a cache rooted at dir, creating it if needed.
func Open(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// подкаталог по первому байту, чтобы не держать всё в одной папке
	return filepath.Join(c.dir, "repairs", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes an entry to the disk cache.
func (c *DiskCache) Put(key Digest, entry *Entry) error {
	if c == nil || entry == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(entry); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get reads an entry. Entries from another schema version are misses.
func (c *DiskCache) Get(key Digest) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	if entry.Schema != schemaVersion {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Clear drops every cached entry.
func (c *DiskCache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	root := filepath.Join(c.dir, "repairs")
	old := root + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(root, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
