package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ternlab/qntf/internal/qerr"
)

// exitStatus is the single-line JSON object required on a verbose
// successful run (§6: "summarising input/output filenames, section
// counts, and task/window bounds... the spec requires this line but not
// field ordering").
type exitStatus struct {
	Input       string `json:"input,omitempty"`
	Output      string `json:"output,omitempty"`
	Slots       int    `json:"slots"`
	Interleave  int    `json:"interleave,omitempty"`
	Signatures  int    `json:"signatures,omitempty"`
	Members     int    `json:"members,omitempty"`
	KeptMembers int    `json:"kept_members,omitempty"`
	WindowLo    int    `json:"window_lo,omitempty"`
	WindowHi    int    `json:"window_hi,omitempty"`
	Completed   bool   `json:"completed"`
}

func printStatus(s exitStatus) error {
	if !verbose {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(s)
}

// printTable renders rows as a human table (go-pretty) when --text is
// set to "table", or as JSON when set to "json". Any other value
// (including the default empty string) is silent, matching the
// illustrative `--text[=mode]` flag's multiple verbosity levels (§6).
func printTable(header []string, rows [][]string) error {
	switch textOut {
	case "table":
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		hdr := make(table.Row, len(header))
		for i, h := range header {
			hdr[i] = h
		}
		t.AppendHeader(hdr)
		for _, r := range rows {
			row := make(table.Row, len(r))
			for i, v := range r {
				row[i] = v
			}
			t.AppendRow(row)
		}
		t.Render()
	case "json":
		out := make([]map[string]string, 0, len(rows))
		for _, r := range rows {
			m := make(map[string]string, len(header))
			for i, h := range header {
				if i < len(r) {
					m[h] = r[i]
				}
			}
			out = append(out, m)
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}
	return nil
}

// reportError prints a §7-shaped diagnostic: a selftest assertion gets
// its structured JSON body, everything else gets a plain message.
func reportError(err error) {
	var qe *qerr.Error
	if asQerr(err, &qe) && qe.Kind == qerr.KindSelftest {
		enc := json.NewEncoder(os.Stderr)
		_ = enc.Encode(qe.Fields["diagnostic"])
		return
	}
	fmt.Fprintln(os.Stderr, "qntf:", err)
}

func asQerr(err error, target **qerr.Error) bool {
	for err != nil {
		if qe, ok := err.(*qerr.Error); ok {
			*target = qe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
