package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternlab/qntf/internal/imprint"
)

var dumpCmd = &cobra.Command{
	Use:   "dump INPUT",
	Short: "List every catalogued signature in a container",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	input := args[0]

	cat, err := openCatalog(input)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, cat.Count())
	for sid := imprint.SID(1); int(sid) <= cat.Count(); sid++ {
		sig, ok := cat.Signature(sid)
		if !ok {
			continue
		}
		rows = append(rows, []string{
			itoa(int(sig.ID)),
			itoa(len(sig.Members)),
			strings.Join(sig.Members, " "),
		})
	}

	if err := printTable([]string{"sid", "members", "names"}, rows); err != nil {
		return err
	}

	return printStatus(exitStatus{
		Input:      input,
		Slots:      cfg.Slots,
		Interleave: cfg.Interleave,
		Signatures: cat.Count(),
		Completed:  true,
	})
}
