package main

import (
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query INPUT NAME",
	Short: "Normalise a single tree name and report its catalogued signature",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	input, name := args[0], args[1]

	cat, err := openCatalog(input)
	if err != nil {
		return err
	}

	res, err := cat.Query(name)
	if err != nil {
		return err
	}

	if err := printTable([]string{"name", "sid", "tid", "new"}, [][]string{{
		res.Name,
		itoa(int(res.SID)),
		itoa(int(res.TID)),
		boolstr(res.IsNew),
	}}); err != nil {
		return err
	}

	return printStatus(exitStatus{
		Input:      input,
		Slots:      cfg.Slots,
		Interleave: cfg.Interleave,
		Completed:  true,
	})
}
