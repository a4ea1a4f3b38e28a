package main

import (
	"github.com/spf13/cobra"

	"github.com/ternlab/qntf"
	"github.com/ternlab/qntf/internal/gen"
)

var (
	genNodeCount int
	genWindow    string
	genTask      string
	genForce     bool
)

var genCmd = &cobra.Command{
	Use:   "gen OUTPUT",
	Short: "Enumerate canonical trees of a fixed node count into a new container",
	Args:  cobra.ExactArgs(1),
	RunE:  runGen,
}

func init() {
	f := genCmd.Flags()
	f.IntVar(&genNodeCount, "node-count", 1, "generator size: number of internal nodes")
	f.StringVar(&genWindow, "window", "", "sequence window lo[,hi], echoed in the exit status (does not filter the output)")
	f.StringVar(&genTask, "task", "", "task partition id,last, validated only (does not filter the output)")
	f.BoolVar(&genForce, "force", false, "overwrite an existing output container")
}

func runGen(cmd *cobra.Command, args []string) error {
	output := args[0]

	window, err := parseWindow(genWindow)
	if err != nil {
		return err
	}
	task, err := parseTask(genTask)
	if err != nil {
		return err
	}

	cat, err := newCatalog()
	if err != nil {
		return err
	}

	seq := 0
	var resume *gen.StackWord
	_, completed, err := cat.Generate(genNodeCount, resume, 0, func(t qntf.GeneratedTree) bool {
		// Every enumerated tree is catalogued and saved (Normalize runs
		// inside Generate before emit is called), whatever window/task
		// say. The window/task predicate is evaluated per sequence
		// number but its result is discarded: --window only sets the
		// window_lo/window_hi fields of the exit status, and --task
		// does not change the output.
		_ = window.contains(seq) && task.mine(seq)
		seq++
		return true
	})
	if err != nil {
		return err
	}

	if err := cat.Save(output, genForce); err != nil {
		return err
	}

	return printStatus(exitStatus{
		Output:     output,
		Slots:      cfg.Slots,
		Interleave: cfg.Interleave,
		Signatures: cat.Count(),
		WindowLo:   window.lo,
		WindowHi:   window.hi,
		Completed:  completed,
	})
}
