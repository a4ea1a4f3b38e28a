package main

import (
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Compile the rewrite DFA table for the configured slot count and report its size",
	Args:  cobra.NoArgs,
	RunE:  runRewrite,
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cat, err := newCatalog()
	if err != nil {
		return err
	}

	tbl, err := cat.CompileRewrite()
	if err != nil {
		return err
	}

	if err := printTable([]string{"label", "cells", "side"}, [][]string{{
		tbl.Label,
		itoa(len(tbl.Cells)),
		itoa(len(tbl.Side)),
	}}); err != nil {
		return err
	}

	return printStatus(exitStatus{
		Slots:      cfg.Slots,
		Interleave: cfg.Interleave,
		Completed:  true,
	})
}
