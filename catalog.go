package qntf

import (
	"encoding/binary"

	"github.com/ternlab/qntf/internal/container"
	"github.com/ternlab/qntf/internal/imprint"
	"github.com/ternlab/qntf/internal/ioctx"
	"github.com/ternlab/qntf/internal/normalize"
	"github.com/ternlab/qntf/internal/qerr"
	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

// Save writes the catalogue to path as a container (§6): transform
// table, signatures and their canonical members. The pattern, rewrite
// and index sections are left absent (§6: "Indices may be absent...
// callers rebuild them lazily") since they are pure functions of the
// signature set and this implementation recompiles them on demand
// rather than persisting a second copy; see CompileRewrite.
func (c *Catalog) Save(path string, force bool) error {
	w, err := container.Create(path, c.cfg.Slots, c.cfg.Interleave, force)
	if err != nil {
		return err
	}

	if err := c.writeTransforms(w); err != nil {
		return err
	}
	if err := c.writeSignatures(w); err != nil {
		return err
	}

	return w.Close()
}

func (c *Catalog) writeTransforms(w *container.Writer) error {
	n := c.xforms.Count()
	forward := make([]byte, n*8)
	nameIndex := make([]byte, n*8)
	var names []byte

	for id := 0; id < n; id++ {
		t := c.xforms.ByID(xform.ID(id))
		binary.LittleEndian.PutUint64(forward[id*8:], t.Forward)

		off := uint32(len(names))
		names = append(names, t.Name...)
		binary.LittleEndian.PutUint32(nameIndex[id*8:], off)
		binary.LittleEndian.PutUint32(nameIndex[id*8+4:], uint32(len(t.Name)))
	}

	if err := w.PutSection(container.SecTransformForwardData, 8, forward); err != nil {
		return err
	}
	if err := w.PutSection(container.SecTransformForwardNames, 1, names); err != nil {
		return err
	}
	return w.PutSection(container.SecTransformForwardNameIndex, 8, nameIndex)
}

const flagCount = 3

func signatureRecordSize(slots int) int {
	return tiny.FootprintWords(slots)*8 + 8 // footprint words + one flags word
}

func (c *Catalog) writeSignatures(w *container.Writer) error {
	n := c.cat.Count()
	elemSize := signatureRecordSize(c.cfg.Slots)
	words := tiny.FootprintWords(c.cfg.Slots)

	sigData := make([]byte, n*elemSize)
	memberIndex := make([]byte, n*8)
	var memberNames []byte

	for i := 0; i < n; i++ {
		sid := imprint.SID(i + 1)
		sig, ok := c.cat.Signature(sid)
		if !ok {
			continue
		}

		base := i * elemSize
		for wi, word := range sig.Footprint {
			if wi >= words {
				break
			}
			binary.LittleEndian.PutUint64(sigData[base+wi*8:], word)
		}

		var flags uint64
		if sig.Flags != nil {
			for f := uint(0); f < flagCount; f++ {
				if sig.Flags.Test(f) {
					flags |= 1 << f
				}
			}
		}
		binary.LittleEndian.PutUint64(sigData[base+words*8:], flags)

		name := ""
		if len(sig.Members) > 0 {
			name = sig.Members[0]
		}
		off := uint32(len(memberNames))
		memberNames = append(memberNames, name...)
		binary.LittleEndian.PutUint32(memberIndex[i*8:], off)
		binary.LittleEndian.PutUint32(memberIndex[i*8+4:], uint32(len(name)))
	}

	if err := w.PutSection(container.SecSignatures, elemSize, sigData); err != nil {
		return err
	}
	if err := w.PutSection(container.SecMembers, 1, memberNames); err != nil {
		return err
	}
	return w.PutSection(container.SecMemberIndex, 8, memberIndex)
}

// Open reads a container back into a live Catalog. The transform table
// is rebuilt via xform.Build(slots) rather than decoded from the
// forward-data/forward-names sections: Build is a pure, deterministic
// function of slots (§5's ordering/determinism guarantee), so the
// rebuilt table is byte-identical to what Save wrote. The stored
// sections exist so a container is self-describing to tools that read
// the file directly without linking this package.
//
// The signature table is rebuilt by replaying each signature's lowest-
// node-count member name through normalize.Normalize, in signature-id
// order, which reproduces the same sid assignment Save originally saw
// (§5: "re-running with the same inputs... produces byte-identical
// outputs"); stored flags are then reapplied on top.
func Open(path string, io *ioctx.IOContext) (*Catalog, error) {
	raw, err := container.Open(path, 0)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	cfg := Config{Slots: raw.Slots(), Interleave: raw.Interleave()}
	cat, err := New(cfg, io)
	if err != nil {
		return nil, err
	}

	sigData, sigElemSize, sigFound := raw.Section(container.SecSignatures)
	memberNames, _, _ := raw.Section(container.SecMembers)
	memberIndex, _, idxFound := raw.Section(container.SecMemberIndex)
	if !sigFound || !idxFound {
		return cat, nil
	}

	wantElem := signatureRecordSize(cfg.Slots)
	if sigElemSize != wantElem {
		return nil, qerr.New(qerr.KindContainerFormat, "signature record size mismatch", map[string]any{"path": path})
	}
	words := tiny.FootprintWords(cfg.Slots)
	count := len(sigData) / sigElemSize

	for i := 0; i < count; i++ {
		off := binary.LittleEndian.Uint32(memberIndex[i*8:])
		length := binary.LittleEndian.Uint32(memberIndex[i*8+4:])
		if length == 0 {
			continue
		}
		name := string(memberNames[off : off+length])

		tr := tiny.New(cfg.Slots, cfg.Pure)
		root, derr := tr.DecodeSafe(name, "")
		if derr != nil {
			return nil, qerr.Wrap(qerr.KindParse, derr, map[string]any{"name": name})
		}
		if _, nerr := normalize.Normalize(cat.cat, tr, root); nerr != nil {
			return nil, nerr
		}

		base := i * sigElemSize
		flags := binary.LittleEndian.Uint64(sigData[base+words*8:])
		sid := imprint.SID(i + 1)
		for f := uint(0); f < flagCount; f++ {
			if flags&(1<<f) != 0 {
				cat.cat.SetFlag(sid, f)
			}
		}
	}

	return cat, nil
}
