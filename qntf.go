// Package qntf is the public entry point to the ternary Boolean tree
// catalogue: building, querying and persisting a signature catalogue
// over Components A-H from internal/.
package qntf

import (
	"github.com/ternlab/qntf/internal/deprec"
	"github.com/ternlab/qntf/internal/gen"
	"github.com/ternlab/qntf/internal/imprint"
	"github.com/ternlab/qntf/internal/ioctx"
	"github.com/ternlab/qntf/internal/normalize"
	"github.com/ternlab/qntf/internal/qerr"
	"github.com/ternlab/qntf/internal/rewrite"
	"github.com/ternlab/qntf/internal/tiny"
	"github.com/ternlab/qntf/internal/xform"
)

// Config fixes the parameters a catalogue is built for. Slots and
// Interleave are written into a container's header and read back by
// Open; Pure is not stored, so Open always yields Pure == false.
type Config struct {
	// Slots is the variable count, 1..9 (§3: reference value 9).
	Slots int
	// Interleave is the row×col factorisation setting (§4.D). It is only
	// recorded in a saved container's header: imprint.NewCatalog takes
	// no such parameter and always uses cols = Slots, whatever the value.
	Interleave int
	// Pure forbids the QTF primitive, accepting only QnTF nodes.
	Pure bool
}

// GeneratedTree is one canonical tree the generator produced, already run
// through normalisation and signature lookup.
type GeneratedTree struct {
	Name  string
	SID   imprint.SID
	TID   xform.ID
	IsNew bool
}

// QueryResult is the outcome of normalising a single input tree: its
// canonical name and the catalogued signature/transform it belongs to.
type QueryResult struct {
	Name  string
	SID   imprint.SID
	TID   xform.ID
	IsNew bool
}

// Catalog owns one slot-count's worth of transform table, signature
// table and imprint index, plus the I/O context every operation reports
// progress and diagnostics through.
type Catalog struct {
	cfg    Config
	xforms *xform.Table
	cat    *imprint.Catalog
	io     *ioctx.IOContext
}

// New builds an empty catalogue for cfg. io may be nil, in which case a
// no-op logger and default 1s progress tick are used (§5).
func New(cfg Config, io *ioctx.IOContext) (*Catalog, error) {
	if cfg.Slots < 1 || cfg.Slots > 9 {
		return nil, qerr.New(qerr.KindContainerFormat, "slots out of range", map[string]any{"slots": cfg.Slots})
	}
	if io == nil {
		io = ioctx.New(nil)
	}

	xforms, err := xform.Build(cfg.Slots)
	if err != nil {
		return nil, qerr.Wrap(qerr.KindContainerFormat, err, nil)
	}

	return &Catalog{
		cfg:    cfg,
		xforms: xforms,
		cat:    imprint.NewCatalog(cfg.Slots, xforms),
		io:     io,
	}, nil
}

// Config returns the catalogue's build parameters.
func (c *Catalog) Config() Config { return c.cfg }

// Count reports the number of catalogued signatures.
func (c *Catalog) Count() int { return c.cat.Count() }

// Query decodes name, normalises it against the catalogue (adding a new
// signature if it names a function not already catalogued), and returns
// its canonical form plus the signature/transform it belongs to. This is
// the "input tree -> normalise -> imprint lookup" half of the §2 data
// flow, reachable independent of a build pipeline, per §12's `query`
// subcommand rationale.
func (c *Catalog) Query(name string) (QueryResult, error) {
	tr := tiny.New(c.cfg.Slots, c.cfg.Pure)
	root, err := tr.DecodeSafe(name, "")
	if err != nil {
		return QueryResult{}, qerr.Wrap(qerr.KindParse, err, map[string]any{"name": name})
	}

	res, err := normalize.Normalize(c.cat, tr, root)
	if err != nil {
		return QueryResult{}, err
	}
	if res.IsNew {
		c.io.AddSignature(1)
	}

	out, err := tr.SaveString(res.Root, nil)
	if err != nil {
		return QueryResult{}, err
	}

	return QueryResult{Name: out, SID: res.SID, TID: res.TID, IsNew: res.IsNew}, nil
}

// Generate enumerates every canonical tree with exactly numNodes internal
// nodes (Component E), normalising and cataloguing each one in turn and
// invoking emit with the result. Passing a non-nil resumeFrom continues
// an earlier, early-stopped walk; emit returning false stops the walk and
// the returned StackWord can be saved for a later resume. limit <= 0
// means no limit.
func (c *Catalog) Generate(numNodes int, resumeFrom *gen.StackWord, limit int, emit func(GeneratedTree) bool) (next gen.StackWord, completed bool, err error) {
	g := gen.New(c.cfg.Slots, numNodes)
	count := 0
	var walkErr error

	next, completed = g.Run(resumeFrom, func(tr *tiny.Tree, root tiny.Ref, pos gen.StackWord) bool {
		res, nerr := normalize.Normalize(c.cat, tr, root)
		if nerr != nil {
			walkErr = nerr
			return false
		}
		if res.IsNew {
			c.io.AddSignature(1)
		}

		name, serr := tr.SaveString(res.Root, nil)
		if serr != nil {
			walkErr = serr
			return false
		}

		c.io.SetGeneratorPosition(uint64(pos))
		c.io.Poll()

		count++
		keepGoing := emit(GeneratedTree{Name: name, SID: res.SID, TID: res.TID, IsNew: res.IsNew})
		if limit > 0 && count >= limit {
			return false
		}
		return keepGoing
	})

	if walkErr != nil {
		return next, false, walkErr
	}
	return next, completed, nil
}

// Signature returns the catalogued signature record for sid.
func (c *Catalog) Signature(sid imprint.SID) (imprint.Signature, bool) {
	return c.cat.Signature(sid)
}

// Rows and Cols report the imprint index's row*col factorisation of the
// slots! permutation space (§4.D), and XformCount reports the size of
// the transform table that factorisation is built over. rows*cols
// equalling XformCount() is the basic structural invariant the imprint
// index relies on: every one of a signature's rows*cols permuted
// footprints corresponds to exactly one transform.
func (c *Catalog) Rows() int       { return c.cat.Rows() }
func (c *Catalog) Cols() int       { return c.cat.Cols() }
func (c *Catalog) XformCount() int { return c.xforms.Count() }

// Depreciate builds a deprec.Engine over the catalogue's signatures,
// runs it to completion, and returns the engine together with a lookup
// from each synthesised deprec.MemberID back to its catalogued name.
//
// Catalog.Signature only records, per signature, the list of catalogued
// member names (Signature.Members) without the subtree/head structural
// links deprec.Member.Subtrees/.Heads are meant to carry, since Generate
// normalises trees individually rather than building the cross-member
// dependency graph Component H's full refcounting needs. Depreciate
// therefore maps every catalogued name to a deprec.Member with empty
// Subtrees/Heads: the engine still performs its real job for this
// catalogue's most common case, several alternate expansions recorded
// against one signature, reducing each signature's member list to a
// single survivor. That survivor ends up locked: once it is the last
// live member of its signature, removing it would break coverage, so
// Run's burst-halving reaches a one-member batch and locks it.
func (c *Catalog) Depreciate() (*deprec.Engine, map[deprec.MemberID]string, error) {
	var members []deprec.Member
	names := make(map[deprec.MemberID]string)

	var next deprec.MemberID = 1
	for sid := imprint.SID(1); int(sid) <= c.cat.Count(); sid++ {
		sig, ok := c.cat.Signature(sid)
		if !ok {
			continue
		}
		for _, name := range sig.Members {
			id := next
			next++
			members = append(members, deprec.Member{ID: id, Sig: sid})
			names[id] = name
		}
	}

	eng := deprec.NewEngine(members)
	eng.Run()
	return eng, names, nil
}

// CompileRewrite compiles the rewrite DFA table (Component F) for this
// catalogue's slot count. The table is a pure function of slots, not of
// the catalogued signature set, so it never needs to be rebuilt per
// build and is not persisted in the container (§6: "Indices may be
// absent... callers rebuild them lazily").
func (c *Catalog) CompileRewrite() (*rewrite.Table, error) {
	return rewrite.Compile(c.cfg.Slots, 0)
}
