package container

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/ternlab/qntf/internal/qerr"
)

// Container is an opened, memory-mapped container. Every section it
// returns is a slice borrowed directly from the mapping (§5: "borrowed
// slices of a memory-mapped file"); callers must not retain those slices
// past Close.
type Container struct {
	path   string
	f      *os.File
	mapped mmap.MMap
	header Header
}

// Open maps path read-only and validates its header: magic, version,
// and slots must match expectedSlots (mismatch is fatal at open per §7).
// expectedSlots <= 0 skips the slots check, for tools that accept any
// catalogue (e.g. a generic dump command).
func Open(path string, expectedSlots int) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, qerr.Wrap(qerr.KindContainerFormat, err, map[string]any{"path": path})
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, qerr.Wrap(qerr.KindContainerFormat, err, map[string]any{"path": path})
	}
	if info.Size() < int64(headerSize) {
		f.Close()
		return nil, qerr.New(qerr.KindContainerFormat, "file too short to hold a container header", map[string]any{"path": path})
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, qerr.Wrap(qerr.KindContainerFormat, err, map[string]any{"path": path})
	}

	h, ok := decodeHeader(m)
	if !ok {
		m.Unmap()
		f.Close()
		return nil, qerr.New(qerr.KindContainerFormat, "could not decode header", map[string]any{"path": path})
	}
	if h.Magic != Magic {
		m.Unmap()
		f.Close()
		return nil, qerr.New(qerr.KindContainerFormat, "bad magic number", map[string]any{"path": path})
	}
	if h.VersionMajor != VersionMajor {
		m.Unmap()
		f.Close()
		return nil, qerr.New(qerr.KindContainerFormat, "incompatible container version", map[string]any{
			"path": path, "found": h.VersionMajor, "want": VersionMajor,
		})
	}
	if expectedSlots > 0 && int(h.Slots) != expectedSlots {
		m.Unmap()
		f.Close()
		return nil, qerr.New(qerr.KindContainerFormat, "slots mismatch", map[string]any{
			"path": path, "found": h.Slots, "want": expectedSlots,
		})
	}

	c := &Container{path: path, f: f, mapped: m, header: h}

	for id := SectionID(0); int(id) < int(numSections); id++ {
		sec := h.Sections[id]
		if sec.Count == 0 {
			continue
		}
		end := sec.Offset + sec.Count*sec.ElemSize
		if end > uint64(len(m)) {
			m.Unmap()
			f.Close()
			return nil, qerr.New(qerr.KindContainerFormat, "section extends past end of file (truncated?)", map[string]any{
				"path": path, "section": id.String(),
			})
		}
		if checksum(m[sec.Offset:end]) != sec.Checksum {
			m.Unmap()
			f.Close()
			return nil, qerr.New(qerr.KindContainerFormat, "section checksum mismatch (truncated or corrupt)", map[string]any{
				"path": path, "section": id.String(),
			})
		}
	}

	return c, nil
}

// Slots reports the slot count this container was built for.
func (c *Container) Slots() int { return int(c.header.Slots) }

// Interleave reports the row×col factorisation setting used to build
// this container's imprint index.
func (c *Container) Interleave() int { return int(c.header.Interleave) }

// Section returns the borrowed bytes of section id and its element
// count, or found=false if the section is absent (§6: "signalled by
// size 0" — callers rebuild it lazily rather than treating this as an
// error, except where the operation in question specifically requires
// it, in which case the caller raises KindMissingSection itself).
func (c *Container) Section(id SectionID) (data []byte, elemSize int, found bool) {
	if id < 0 || int(id) >= int(numSections) {
		return nil, 0, false
	}
	sec := c.header.Sections[id]
	if sec.Count == 0 {
		return nil, 0, false
	}
	end := sec.Offset + sec.Count*sec.ElemSize
	return c.mapped[sec.Offset:end], int(sec.ElemSize), true
}

// RequireSection is like Section but raises a KindMissingSection qerr
// when the section is absent, for operations that cannot proceed
// without it (§7: "Missing section... fatal with the name of the
// missing section").
func (c *Container) RequireSection(id SectionID) ([]byte, int, error) {
	data, elemSize, ok := c.Section(id)
	if !ok {
		return nil, 0, qerr.New(qerr.KindMissingSection, "required section absent", map[string]any{"section": id.String()})
	}
	return data, elemSize, nil
}

// Close unmaps the file and closes the underlying descriptor.
func (c *Container) Close() error {
	if err := c.mapped.Unmap(); err != nil {
		c.f.Close()
		return qerr.Wrap(qerr.KindContainerFormat, err, nil)
	}
	return c.f.Close()
}
