package container

import (
	"os"

	"github.com/gofrs/flock"

	"github.com/ternlab/qntf/internal/qerr"
)

// MaxSectionElems bounds the element count any single section accepts
// before Writer.PutSection treats it as a §7 "section overflow". A build
// asking for more must re-run with larger --max-* values; the container
// format itself does not grow sections after creation (§5).
const MaxSectionElems = 1 << 32

// Writer accumulates sections in memory and flushes them to a single
// output file in one pass, matching §5's "owned arrays sized at startup"
// model: nothing is written incrementally to disk mid-build.
type Writer struct {
	path       string
	slots      int
	interleave int

	sections [numSections][]byte
	elemSize [numSections]int
	present  [numSections]bool

	lock *flock.Flock
}

// Create opens path for writing, guarded by an advisory file lock so two
// builds never clobber the same output concurrently. If the file already
// exists and force is false, Create fails; force mirrors the CLI's
// --force overwrite flag (§6).
func Create(path string, slots, interleave int, force bool) (*Writer, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, qerr.Wrap(qerr.KindContainerFormat, err, map[string]any{"path": path})
	}
	if !locked {
		return nil, qerr.New(qerr.KindContainerFormat, "output container is locked by another writer", map[string]any{"path": path})
	}

	if _, err := os.Stat(path); err == nil && !force {
		lock.Unlock()
		return nil, qerr.New(qerr.KindContainerFormat, "output container already exists (use --force)", map[string]any{"path": path})
	}

	return &Writer{path: path, slots: slots, interleave: interleave, lock: lock}, nil
}

// PutSection records a section's raw element data. data's length must be
// an exact multiple of elemSize. Calling PutSection twice for the same id
// replaces the previous content. A zero-length data leaves the section
// absent, per §6 ("signalled by size 0").
func (w *Writer) PutSection(id SectionID, elemSize int, data []byte) error {
	if id < 0 || int(id) >= int(numSections) {
		return qerr.New(qerr.KindMissingSection, "unknown section id", map[string]any{"id": int(id)})
	}
	if elemSize > 0 && len(data)%elemSize != 0 {
		return qerr.New(qerr.KindContainerFormat, "section data not a multiple of element size", map[string]any{"section": id.String()})
	}
	count := 0
	if elemSize > 0 {
		count = len(data) / elemSize
	}
	if count > MaxSectionElems {
		return qerr.New(qerr.KindSectionOverflow, "section exceeded maximum element count", map[string]any{
			"section": id.String(), "count": count, "max": MaxSectionElems,
		})
	}

	w.sections[id] = data
	w.elemSize[id] = elemSize
	w.present[id] = len(data) > 0
	return nil
}

// Close lays out every recorded section 8-byte-aligned after the header,
// writes the file, releases the write lock, and removes the lock file.
func (w *Writer) Close() error {
	defer func() {
		w.lock.Unlock()
		os.Remove(w.path + ".lock")
	}()

	h := Header{
		Magic:        Magic,
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
		Slots:        uint32(w.slots),
		Interleave:   uint32(w.interleave),
	}

	offset := int64(headerSize)
	offset = alignUp(offset)
	layout := make([][]byte, numSections)
	for i := 0; i < int(numSections); i++ {
		if !w.present[i] {
			continue
		}
		data := w.sections[i]
		offset = alignUp(offset)
		h.Sections[i] = sectionDesc{
			Count:    uint64(len(data) / w.elemSize[i]),
			ElemSize: uint64(w.elemSize[i]),
			Offset:   uint64(offset),
			Checksum: checksum(data),
		}
		layout[i] = data
		offset += int64(len(data))
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return qerr.Wrap(qerr.KindContainerFormat, err, map[string]any{"path": w.path})
	}
	defer f.Close()

	if _, err := f.Write(h.encode()); err != nil {
		return qerr.Wrap(qerr.KindContainerFormat, err, nil)
	}

	pos := int64(headerSize)
	for i := 0; i < int(numSections); i++ {
		if !w.present[i] {
			continue
		}
		want := int64(h.Sections[i].Offset)
		if pad := want - pos; pad > 0 {
			if _, err := f.Write(make([]byte, pad)); err != nil {
				return qerr.Wrap(qerr.KindContainerFormat, err, nil)
			}
			pos += pad
		}
		n, err := f.Write(layout[i])
		if err != nil {
			return qerr.Wrap(qerr.KindContainerFormat, err, nil)
		}
		pos += int64(n)
	}

	return nil
}
