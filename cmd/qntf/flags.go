package main

import (
	"strconv"
	"strings"

	"github.com/ternlab/qntf/internal/qerr"
)

// windowRange is an inclusive-low, exclusive-high [lo, hi) sequence
// range, per §6's `--window lo[,hi]`. hi < 0 means unbounded.
type windowRange struct {
	lo, hi int
}

func (w windowRange) contains(seq int) bool {
	if seq < w.lo {
		return false
	}
	if w.hi >= 0 && seq >= w.hi {
		return false
	}
	return true
}

func parseWindow(s string) (windowRange, error) {
	if s == "" {
		return windowRange{lo: 0, hi: -1}, nil
	}
	parts := strings.SplitN(s, ",", 2)
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return windowRange{}, qerr.New(qerr.KindParse, "bad --window lo", map[string]any{"window": s})
	}
	if len(parts) == 1 {
		return windowRange{lo: lo, hi: -1}, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return windowRange{}, qerr.New(qerr.KindParse, "bad --window hi", map[string]any{"window": s})
	}
	return windowRange{lo: lo, hi: hi}, nil
}

// taskSplit is §6's `--task id,last`: mine reports whether a sequence
// number belongs to this task (seq % last == id), a static partition of the generator's
// sequence space across `last` independently-run tasks whose outputs a
// caller merges afterward (§5: "run N independent processes... merge
// their outputs sequentially" is out of core scope; the CLI only offers
// the partition predicate, never the merge).
type taskSplit struct {
	id, last int
}

func (t taskSplit) mine(seq int) bool {
	if t.last <= 1 {
		return true
	}
	return seq%t.last == t.id
}

func parseTask(s string) (taskSplit, error) {
	if s == "" {
		return taskSplit{id: 0, last: 1}, nil
	}
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return taskSplit{}, qerr.New(qerr.KindParse, "--task wants id,last", map[string]any{"task": s})
	}
	id, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	last, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || last <= 0 || id < 0 || id >= last {
		return taskSplit{}, qerr.New(qerr.KindParse, "bad --task id,last", map[string]any{"task": s})
	}
	return taskSplit{id: id, last: last}, nil
}
