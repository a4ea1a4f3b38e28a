package imprint

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

// entry is one open-addressed slot. version decouples deletion from
// physical clearing: a slot whose version doesn't match the index's
// current version is treated as empty without being rewritten, giving
// O(1) bulk invalidation (§4.D, §9 design note).
type entry struct {
	hash    uint64
	sid     SID
	tid     xform.ID
	version uint32
	used    bool
}

// Index is an open-addressed hash table over footprint hashes.
type Index struct {
	slots   int
	table   []entry
	version uint32
	count   int
}

// NewIndex builds an empty index sized for the given slot count.
func NewIndex(slots int) *Index {
	return &Index{
		slots: slots,
		table: make([]entry, 64),
	}
}

// Invalidate discards every entry in O(1) by bumping the version: stale
// slots are reclaimed lazily as Add/Lookup probe past them.
func (ix *Index) Invalidate() {
	ix.version++
	ix.count = 0
}

func footprintHash(fp tiny.Footprint) uint64 {
	var buf [8]byte
	h := xxhash.New()
	for _, w := range fp {
		binary.LittleEndian.PutUint64(buf[:], w)
		h.Write(buf[:])
	}
	return h.Sum64()
}

func (ix *Index) live(i int) bool {
	e := ix.table[i]
	return e.used && e.version == ix.version
}

// Add inserts fp->(sid,tid), growing the table if the load factor would
// exceed one half. Reports false without modifying the index if an
// identical footprint is already present (in which case the existing
// entry is kept: Add is called in enumeration order, so the first tid to
// reach a given orientation is also the lowest, per §8's ordering
// guarantee).
func (ix *Index) Add(fp tiny.Footprint, sid SID, tid xform.ID) bool {
	if (ix.count+1)*2 > len(ix.table) {
		ix.grow()
	}

	h := footprintHash(fp)
	mask := uint64(len(ix.table) - 1)
	i := h & mask

	for {
		if !ix.live(int(i)) {
			ix.table[i] = entry{hash: h, sid: sid, tid: tid, version: ix.version, used: true}
			ix.count++
			return true
		}
		if ix.table[i].hash == h {
			return false
		}
		i = (i + 1) & mask
	}
}

// Lookup returns the (sid,tid) stored for fp, if any.
func (ix *Index) Lookup(fp tiny.Footprint) (SID, xform.ID, bool) {
	if ix.count == 0 {
		return InvalidSID, 0, false
	}
	h := footprintHash(fp)
	mask := uint64(len(ix.table) - 1)
	i := h & mask

	for probes := 0; probes < len(ix.table); probes++ {
		if !ix.live(int(i)) {
			return InvalidSID, 0, false
		}
		if ix.table[i].hash == h {
			return ix.table[i].sid, ix.table[i].tid, true
		}
		i = (i + 1) & mask
	}
	return InvalidSID, 0, false
}

func (ix *Index) grow() {
	old := ix.table
	oldVersion := ix.version
	ix.table = make([]entry, len(old)*2)
	ix.version = 0
	ix.count = 0

	mask := uint64(len(ix.table) - 1)
	for _, e := range old {
		if !e.used || e.version != oldVersion {
			continue
		}
		i := e.hash & mask
		for ix.table[i].used {
			i = (i + 1) & mask
		}
		ix.table[i] = entry{hash: e.hash, sid: e.sid, tid: e.tid, version: 0, used: true}
		ix.count++
	}
}
