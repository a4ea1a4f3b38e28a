package main

import (
	"github.com/spf13/cobra"

	"github.com/ternlab/qntf"
)

var (
	buildMaxNodes int
	buildForce    bool
)

var buildCmd = &cobra.Command{
	Use:   "build OUTPUT",
	Short: "Build a full catalogue by generating node counts 0..max-nodes and depreciating redundant members",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.IntVar(&buildMaxNodes, "max-nodes", 3, "generate every node count from 0 up to and including this")
	f.BoolVar(&buildForce, "force", false, "overwrite an existing output container")
}

func runBuild(cmd *cobra.Command, args []string) error {
	output := args[0]

	cat, err := newCatalog()
	if err != nil {
		return err
	}

	// §5's ordering guarantee (member/signature/imprint ids assigned in
	// encounter order) requires walking node counts in non-decreasing
	// order across the whole build, which is also what Signature.Members'
	// "lowest node-count first" documented ordering relies on.
	for n := 0; n <= buildMaxNodes; n++ {
		_, completed, err := cat.Generate(n, nil, 0, func(qntf.GeneratedTree) bool { return true })
		if err != nil {
			return err
		}
		if !completed {
			// Generate only returns early if emit itself stops the walk,
			// which this loop's emit never does.
			break
		}
	}

	eng, names, err := cat.Depreciate()
	if err != nil {
		return err
	}
	kept := 0
	for id := range names {
		if !eng.Depreciated(id) {
			kept++
		}
	}

	if err := cat.Save(output, buildForce); err != nil {
		return err
	}

	return printStatus(exitStatus{
		Output:      output,
		Slots:       cfg.Slots,
		Interleave:  cfg.Interleave,
		Signatures:  cat.Count(),
		Members:     len(names),
		KeptMembers: kept,
		Completed:   true,
	})
}
