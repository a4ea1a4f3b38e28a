package gen

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/btree"
)

// restartPoint is one recorded (sequence, StackWord) pair, ordered by
// sequence so a caller can resume a windowed enumeration from any
// previously recorded checkpoint.
type restartPoint struct {
	seq  uint64
	word StackWord
}

func (a restartPoint) Less(b btree.Item) bool {
	return a.seq < b.(restartPoint).seq
}

// RestartIndex records checkpoints taken during a long enumeration run
// and the sequence numbers already emitted, so a resumed run (or a
// selftest replaying a prior run) can be checked for gaps or duplicates.
type RestartIndex struct {
	points  *btree.BTree
	emitted *roaring.Bitmap
	seq     uint64
}

// NewRestartIndex builds an empty restart index.
func NewRestartIndex() *RestartIndex {
	return &RestartIndex{
		points:  btree.New(32),
		emitted: roaring.New(),
	}
}

// Checkpoint records pos as reachable at the current sequence number and
// advances the sequence counter, returning the sequence number assigned.
func (r *RestartIndex) Checkpoint(pos StackWord) uint64 {
	seq := r.seq
	r.seq++
	r.points.ReplaceOrInsert(restartPoint{seq: seq, word: pos})
	r.emitted.Add(uint32(seq))
	return seq
}

// Duplicate reports whether sequence number seq was already recorded,
// the check a selftest runs to catch a generator emitting the same
// position twice across a resume boundary.
func (r *RestartIndex) Duplicate(seq uint64) bool {
	return r.emitted.Contains(uint32(seq))
}

// Nearest returns the latest recorded checkpoint at or before seq, for
// resuming a windowed enumeration without replaying it from scratch.
func (r *RestartIndex) Nearest(seq uint64) (StackWord, bool) {
	var found restartPoint
	ok := false
	r.points.DescendLessOrEqual(restartPoint{seq: seq}, func(item btree.Item) bool {
		found = item.(restartPoint)
		ok = true
		return false
	})
	return found.word, ok
}

// Count returns the number of checkpoints recorded.
func (r *RestartIndex) Count() int { return r.points.Len() }
