package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ternlab/qntf"
	"github.com/ternlab/qntf/internal/qerr"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run a subset of the catalogue's structural invariants against a scratch build",
	Args:  cobra.NoArgs,
	RunE:  runSelftest,
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cat, err := newCatalog()
	if err != nil {
		return err
	}

	if cat.Rows()*cat.Cols() != cat.XformCount() {
		diag := qerr.SelftestDiagnostic{
			Function:    "coset coverage",
			Expected:    itoa(cat.XformCount()),
			Encountered: itoa(cat.Rows() * cat.Cols()),
			Offending:   "rows*cols != transform count",
		}
		return selftestFail(diag)
	}

	if _, _, err := cat.Generate(0, nil, 0, func(qntf.GeneratedTree) bool { return true }); err != nil {
		return err
	}
	if _, completed, err := cat.Generate(1, nil, 0, func(qntf.GeneratedTree) bool { return true }); err != nil {
		return err
	} else if !completed {
		diag := qerr.SelftestDiagnostic{
			Function:  "generate completeness",
			Expected:  "true",
			Encountered: "false",
			Offending: "node-count 1 walk stopped early",
		}
		return selftestFail(diag)
	}

	first, err := cat.Query("a")
	if err != nil {
		return err
	}
	second, err := cat.Query(first.Name)
	if err != nil {
		return err
	}
	if second.SID != first.SID || second.Name != first.Name {
		diag := qerr.SelftestDiagnostic{
			Function:    "normalize idempotence",
			Expected:    first.Name,
			Encountered: second.Name,
			Offending:   "re-querying a canonical name changed it",
		}
		return selftestFail(diag)
	}

	tmp, err := os.CreateTemp("", "qntf-selftest-*.qntf")
	if err != nil {
		return err
	}
	path := tmp.Name()
	tmp.Close()
	os.Remove(path)
	defer os.Remove(path)

	if err := cat.Save(path, true); err != nil {
		return err
	}
	reopened, err := openCatalog(path)
	if err != nil {
		return err
	}
	if reopened.Count() != cat.Count() {
		diag := qerr.SelftestDiagnostic{
			Function:    "container round trip",
			Expected:    itoa(cat.Count()),
			Encountered: itoa(reopened.Count()),
			Offending:   "signature count changed across save/open",
		}
		return selftestFail(diag)
	}

	return printStatus(exitStatus{
		Slots:      cfg.Slots,
		Interleave: cfg.Interleave,
		Signatures: cat.Count(),
		Completed:  true,
	})
}

func selftestFail(d qerr.SelftestDiagnostic) error {
	return qerr.Selftest(d)
}
