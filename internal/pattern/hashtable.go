package pattern

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// firstEntry and secondEntry below are open-addressed slots, grounded on
// internal/imprint's Index: a linear-probed table keyed by an xxhash
// digest, storing the full key alongside the hash so two distinct keys
// that happen to share a digest are never confused (imprint's footprint
// index accepts that remote risk for a much larger key; these keys are
// small enough that comparing them outright costs nothing extra).

type firstEntry struct {
	key  FirstKey
	id   uint32
	used bool
}

// firstTable is the `(sidQ, sidT, tidT, Ti) -> firstId` level of §4.G.
type firstTable struct {
	table []firstEntry
	count int
}

func newFirstTable() *firstTable {
	return &firstTable{table: make([]firstEntry, 64)}
}

func (ft *firstTable) grow() {
	old := ft.table
	ft.table = make([]firstEntry, len(old)*2)
	ft.count = 0
	for _, e := range old {
		if e.used {
			ft.insert(e.key, e.id)
		}
	}
}

func (ft *firstTable) insert(key FirstKey, id uint32) {
	mask := uint64(len(ft.table) - 1)
	i := key.hash() & mask
	for {
		if !ft.table[i].used {
			ft.table[i] = firstEntry{key: key, id: id, used: true}
			ft.count++
			return
		}
		if ft.table[i].key == key {
			ft.table[i].id = id
			return
		}
		i = (i + 1) & mask
	}
}

func (ft *firstTable) add(key FirstKey, id uint32) {
	if (ft.count+1)*2 > len(ft.table) {
		ft.grow()
	}
	ft.insert(key, id)
}

func (ft *firstTable) lookup(key FirstKey) (uint32, bool) {
	if ft.count == 0 {
		return 0, false
	}
	mask := uint64(len(ft.table) - 1)
	i := key.hash() & mask
	for probes := 0; probes < len(ft.table); probes++ {
		if !ft.table[i].used {
			return 0, false
		}
		if ft.table[i].key == key {
			return ft.table[i].id, true
		}
		i = (i + 1) & mask
	}
	return 0, false
}

type secondEntry struct {
	key  SecondKey
	rec  SecondRecord
	used bool
}

// secondTable is the `(firstId, sidF, tidF) -> (sidR, tidExtract, power)`
// level of §4.G.
type secondTable struct {
	table []secondEntry
	count int
}

func newSecondTable() *secondTable {
	return &secondTable{table: make([]secondEntry, 64)}
}

func (st *secondTable) grow() {
	old := st.table
	st.table = make([]secondEntry, len(old)*2)
	st.count = 0
	for _, e := range old {
		if e.used {
			st.insert(e.key, e.rec)
		}
	}
}

func (st *secondTable) insert(key SecondKey, rec SecondRecord) {
	mask := uint64(len(st.table) - 1)
	i := key.hash() & mask
	for {
		if !st.table[i].used {
			st.table[i] = secondEntry{key: key, rec: rec, used: true}
			st.count++
			return
		}
		if st.table[i].key == key {
			st.table[i].rec = rec
			return
		}
		i = (i + 1) & mask
	}
}

func (st *secondTable) add(key SecondKey, rec SecondRecord) {
	if (st.count+1)*2 > len(st.table) {
		st.grow()
	}
	st.insert(key, rec)
}

func (st *secondTable) lookup(key SecondKey) (SecondRecord, bool) {
	if st.count == 0 {
		return SecondRecord{}, false
	}
	mask := uint64(len(st.table) - 1)
	i := key.hash() & mask
	for probes := 0; probes < len(st.table); probes++ {
		if !st.table[i].used {
			return SecondRecord{}, false
		}
		if st.table[i].key == key {
			return st.table[i].rec, true
		}
		i = (i + 1) & mask
	}
	return SecondRecord{}, false
}

func hashBytes(b []byte) uint64 { return xxhash.Sum64(b) }

func putUint32(buf []byte, v uint32) { binary.LittleEndian.PutUint32(buf, v) }
func putUint64(buf []byte, v uint64) { binary.LittleEndian.PutUint64(buf, v) }
