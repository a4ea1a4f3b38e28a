// Package container implements the on-disk container described in
// SPEC_FULL.md §6/§12: a fixed-size header followed by concatenated,
// 8-byte-aligned sections, each independently checksummed so that a
// silent truncation is caught at open time rather than surfacing as a
// confusing downstream decode error.
//
// Sections are fixed-size element arrays (never JSON), matching the
// "owned arrays sized at startup" / "borrowed slices of a memory-mapped
// file" memory model from §5: Writer builds owned byte slices in memory
// and flushes them in one pass; Open borrows every section directly out
// of an mmap rather than copying the file into the process heap.
package container

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Magic identifies a qntf container file. "QNTF" read little-endian.
const Magic uint32 = 0x46544e51

// VersionMajor/VersionMinor are bumped on breaking/compatible header
// changes respectively, per §6 ("breaking changes bump the version").
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
)

const align = 8

func alignUp(n int64) int64 {
	return (n + align - 1) &^ (align - 1)
}

// SectionID enumerates every section §6 names, in the fixed order they
// appear in the header's section table. A section with Count == 0 is
// absent ("indices may be absent... callers rebuild them lazily").
type SectionID int

const (
	SecTransformForwardData SectionID = iota
	SecTransformReverseData
	SecTransformForwardNames
	SecTransformReverseNames
	SecTransformReverseIDs
	SecTransformForwardNameIndex
	SecTransformReverseNameIndex
	SecEvaluators
	SecSignatures
	SecSignatureIndex
	SecSwaps
	SecSwapIndex
	SecImprints
	SecImprintIndex
	SecSidTidPairs
	SecPairIndex
	SecMembers
	SecMemberIndex
	SecPatternFirst
	SecPatternFirstIndex
	SecPatternSecond
	SecPatternSecondIndex
	numSections
)

var sectionNames = [numSections]string{
	SecTransformForwardData:       "transforms.forward-data",
	SecTransformReverseData:       "transforms.reverse-data",
	SecTransformForwardNames:      "transforms.forward-names",
	SecTransformReverseNames:      "transforms.reverse-names",
	SecTransformReverseIDs:        "transforms.reverse-ids",
	SecTransformForwardNameIndex:  "transforms.forward-name-index",
	SecTransformReverseNameIndex:  "transforms.reverse-name-index",
	SecEvaluators:                 "evaluators",
	SecSignatures:                 "signatures",
	SecSignatureIndex:             "signature-index",
	SecSwaps:                      "swaps",
	SecSwapIndex:                  "swap-index",
	SecImprints:                   "imprints",
	SecImprintIndex:               "imprint-index",
	SecSidTidPairs:                "sid-tid-pairs",
	SecPairIndex:                  "pair-index",
	SecMembers:                    "members",
	SecMemberIndex:                "member-index",
	SecPatternFirst:               "pattern-first",
	SecPatternFirstIndex:          "pattern-first-index",
	SecPatternSecond:              "pattern-second",
	SecPatternSecondIndex:         "pattern-second-index",
}

func (id SectionID) String() string {
	if id < 0 || int(id) >= int(numSections) {
		return "unknown-section"
	}
	return sectionNames[id]
}

// sectionDesc is one row of the header's section table.
type sectionDesc struct {
	Count    uint64
	ElemSize uint64
	Offset   uint64
	Checksum uint64 // xxhash.Sum64 over the section's raw bytes
}

const sectionDescSize = 32 // 4 * uint64

// Header is the container's fixed-size preamble, per §6.
type Header struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	Slots        uint32
	Interleave   uint32
	Sections     [numSections]sectionDesc
}

const headerFixedSize = 4 + 2 + 2 + 4 + 4 // magic, ver major/minor, slots, interleave
const headerSize = headerFixedSize + int(numSections)*sectionDescSize

func (h *Header) encode() []byte {
	buf := make([]byte, headerSize)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], h.Magic)
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], h.VersionMajor)
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], h.VersionMinor)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], h.Slots)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.Interleave)
	off += 4
	for _, s := range h.Sections {
		binary.LittleEndian.PutUint64(buf[off:], s.Count)
		off += 8
		binary.LittleEndian.PutUint64(buf[off:], s.ElemSize)
		off += 8
		binary.LittleEndian.PutUint64(buf[off:], s.Offset)
		off += 8
		binary.LittleEndian.PutUint64(buf[off:], s.Checksum)
		off += 8
	}
	return buf
}

func decodeHeader(buf []byte) (Header, bool) {
	var h Header
	if len(buf) < headerSize {
		return h, false
	}
	off := 0
	h.Magic = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.VersionMajor = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	h.VersionMinor = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	h.Slots = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.Interleave = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	for i := range h.Sections {
		h.Sections[i].Count = binary.LittleEndian.Uint64(buf[off:])
		off += 8
		h.Sections[i].ElemSize = binary.LittleEndian.Uint64(buf[off:])
		off += 8
		h.Sections[i].Offset = binary.LittleEndian.Uint64(buf[off:])
		off += 8
		h.Sections[i].Checksum = binary.LittleEndian.Uint64(buf[off:])
		off += 8
	}
	return h, true
}

func checksum(b []byte) uint64 {
	return xxhash.Sum64(b)
}
