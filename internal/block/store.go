package block

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Mode sets a diagram's overall storage mode (spec.md §4.3). ForceMemory
// exempts the diagram's blocks from LRU eviction. ForceDisk is recorded
// but not acted on: such a diagram's blocks stay in memory and are
// evicted under the ordinary LRU policy like Auto ones.
type Mode int

const (
	Auto Mode = iota
	ForceMemory
	ForceDisk
)

// Store is the process-wide block dictionary: per-diagram maps from
// Key to *Block, a shared memory budget, an LRU eviction policy and
// on-disk spill files. The key order of Enumerate is deterministic so
// that serialisation is byte-identical across runs on the same input
// (spec.md §4.3).
type Store struct {
	dir        string
	budget     int64
	used       int64
	diagrams   map[string]*diagramBlocks
	lruHead    *Block // most-recently-used sentinel-adjacent node
	lruTail    *Block // least-recently-used
	forceModes map[string]Mode
}

type diagramBlocks struct {
	order []Key // insertion order, for deterministic enumeration
	blobs map[Key]*Block
	file  *os.File
	path  string
}

// NewStore creates a Store rooted at dir (used for on-disk spill
// files) with the given memory budget in bytes.
func NewStore(dir string, budgetBytes int64) *Store {
	return &Store{
		dir:        dir,
		budget:     budgetBytes,
		diagrams:   make(map[string]*diagramBlocks),
		forceModes: make(map[string]Mode),
	}
}

// SetMode forces the storage mode of a diagram.
func (s *Store) SetMode(diagram string, m Mode) { s.forceModes[diagram] = m }

func (s *Store) modeOf(diagram string) Mode {
	if m, ok := s.forceModes[diagram]; ok {
		return m
	}
	return Auto
}

// CreateDiagram registers an (initially empty) block map for a
// diagram name. It is a no-op if the diagram already exists.
func (s *Store) CreateDiagram(name string) {
	if _, ok := s.diagrams[name]; ok {
		return
	}
	s.diagrams[name] = &diagramBlocks{blobs: make(map[Key]*Block)}
}

// DropDiagram removes all blocks and backing storage for a diagram.
func (s *Store) DropDiagram(name string) error {
	d, ok := s.diagrams[name]
	if !ok {
		return nil
	}
	for _, k := range d.order {
		b := d.blobs[k]
		if b.Residency == InMemory {
			s.used -= b.Bytes()
		}
		s.unlink(b)
	}
	if d.file != nil {
		d.file.Close()
		os.Remove(d.path)
	}
	delete(s.diagrams, name)
	return nil
}

// Put creates or replaces the block at key within diagram.
func (s *Store) Put(diagram string, key Key, b *Block) {
	s.CreateDiagram(diagram)
	d := s.diagrams[diagram]
	if old, exists := d.blobs[key]; exists {
		if old.Residency == InMemory {
			s.used -= old.Bytes()
		}
		s.unlink(old)
	} else {
		d.order = append(d.order, key)
	}
	b.owner = diagram
	b.key = key
	d.blobs[key] = b
	if b.Residency == InMemory {
		s.used += b.Bytes()
		s.pushMRU(b)
		s.evictIfNeeded()
	}
}

// Get returns the block at key within diagram, loading it from disk
// if necessary, or (nil, false) if no such block exists.
func (s *Store) Get(diagram string, key Key) (*Block, bool) {
	d, ok := s.diagrams[diagram]
	if !ok {
		return nil, false
	}
	b, ok := d.blobs[key]
	if !ok {
		return nil, false
	}
	if b.Residency == OnDisk {
		if err := s.load(d, b); err != nil {
			panic(fmt.Sprintf("block: failed to load spilled block of %q: %v", diagram, err))
		}
	} else {
		s.touch(b)
	}
	return b, true
}

// Enumerate calls yield for every (Key, *Block) pair of diagram, in
// canonical (insertion) key order, loading on-disk blocks transparently.
func (s *Store) Enumerate(diagram string, yield func(Key, *Block)) {
	d, ok := s.diagrams[diagram]
	if !ok {
		return
	}
	for _, k := range d.order {
		b := d.blobs[k]
		if b.Residency == OnDisk {
			if err := s.load(d, b); err != nil {
				panic(fmt.Sprintf("block: failed to load spilled block of %q: %v", diagram, err))
			}
		}
		yield(k, b)
	}
}

// Keys returns the canonical key order of a diagram.
func (s *Store) Keys(diagram string) []Key {
	d, ok := s.diagrams[diagram]
	if !ok {
		return nil
	}
	return append([]Key(nil), d.order...)
}

// MemoryUsed reports current resident bytes across all diagrams.
func (s *Store) MemoryUsed() int64 { return s.used }

func (s *Store) evictIfNeeded() {
	if s.budget <= 0 {
		return
	}
	for s.used > s.budget && s.lruTail != nil {
		victim := s.lruTail
		if s.modeOf(victim.owner) == ForceMemory {
			// walk up to find an evictable block instead of starving forever
			cur := victim.lruPrev
			found := false
			for cur != nil {
				if s.modeOf(cur.owner) != ForceMemory {
					victim = cur
					found = true
					break
				}
				cur = cur.lruPrev
			}
			if !found {
				return
			}
		}
		s.unloadOne(victim)
	}
}

func (s *Store) unloadOne(b *Block) {
	d := s.diagrams[b.owner]
	if b.dirty {
		if err := s.spill(d, b); err != nil {
			panic(fmt.Sprintf("block: spill of %q failed: %v", b.owner, err))
		}
	}
	s.used -= b.Bytes()
	s.unlink(b)
	b.Data = nil
	b.Residency = OnDisk
}

// Unload forces a specific block out of memory, writing it to the
// diagram's backing file if dirty (spec.md §4.3 load/unload).
func (s *Store) Unload(diagram string, key Key) error {
	d, ok := s.diagrams[diagram]
	if !ok {
		return fmt.Errorf("block: unknown diagram %q", diagram)
	}
	b, ok := d.blobs[key]
	if !ok || b.Residency == OnDisk {
		return nil
	}
	s.unloadOne(b)
	return nil
}

func (s *Store) backingPath(d *diagramBlocks, name string) string {
	if d.path == "" {
		d.path = filepath.Join(s.dir, name+".blocks")
	}
	return d.path
}

func (s *Store) spill(d *diagramBlocks, b *Block) error {
	if d.file == nil {
		path := s.backingPath(d, b.owner)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return err
		}
		d.file = f
	}
	off, err := d.file.Seek(0, os.SEEK_END)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(d.file)
	for _, v := range b.Data {
		if err := binary.Write(w, binary.LittleEndian, math.Float64bits(real(v))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, math.Float64bits(imag(v))); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	b.diskOff = off
	b.diskLen = int64(len(b.Data)) * 16
	b.dirty = false
	return nil
}

func (s *Store) load(d *diagramBlocks, b *Block) error {
	if d.file == nil {
		return fmt.Errorf("block: no backing file for %q", b.owner)
	}
	buf := make([]byte, b.diskLen)
	if _, err := d.file.ReadAt(buf, b.diskOff); err != nil {
		return err
	}
	n := b.Size()
	b.Data = make([]complex128, n)
	for i := 0; i < n; i++ {
		re := math.Float64frombits(binary.LittleEndian.Uint64(buf[16*i:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(buf[16*i+8:]))
		b.Data[i] = complex(re, im)
	}
	b.Residency = InMemory
	s.used += b.Bytes()
	s.pushMRU(b)
	s.evictIfNeeded()
	return nil
}

// --- intrusive LRU list -----------------------------------------------

func (s *Store) unlink(b *Block) {
	if b.lruPrev != nil {
		b.lruPrev.lruNext = b.lruNext
	} else if s.lruHead == b {
		s.lruHead = b.lruNext
	}
	if b.lruNext != nil {
		b.lruNext.lruPrev = b.lruPrev
	} else if s.lruTail == b {
		s.lruTail = b.lruPrev
	}
	b.lruPrev, b.lruNext = nil, nil
}

func (s *Store) pushMRU(b *Block) {
	b.lruPrev, b.lruNext = nil, s.lruHead
	if s.lruHead != nil {
		s.lruHead.lruPrev = b
	}
	s.lruHead = b
	if s.lruTail == nil {
		s.lruTail = b
	}
}

func (s *Store) touch(b *Block) {
	if s.lruHead == b {
		return
	}
	s.unlink(b)
	s.pushMRU(b)
}

// FlushSizes writes, one per line, the element count of every block of
// diagram to path -- a diagnostic histogram dump used by the CLI's
// inspect subcommand (grounded on ccutils.c: flush_block_sizes).
func (s *Store) FlushSizes(diagram, path string) error {
	d, ok := s.diagrams[diagram]
	if !ok {
		return fmt.Errorf("block: unknown diagram %q", diagram)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, k := range d.order {
		if _, err := fmt.Fprintln(w, d.blobs[k].Size()); err != nil {
			return err
		}
	}
	return nil
}
