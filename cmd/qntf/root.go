package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ternlab/qntf/internal/ioctx"
	"github.com/ternlab/qntf/internal/qerr"
)

// buildConfig holds every flag a build-ish subcommand (gen, build,
// rewrite) shares, plus whatever --config FILE layers underneath it,
// per SPEC_FULL.md §10.3. Flags set explicitly on the command line
// always win over the config file.
type buildConfig struct {
	Slots      int  `toml:"slots"`
	Interleave int  `toml:"interleave"`
	Pure       bool `toml:"pure"`
}

var (
	cfgFile string
	cfg     = buildConfig{Slots: 9}
	textOut string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "qntf",
	Short:         "Canonical ternary Boolean tree catalogue",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfigFile(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "layer flag defaults from a TOML config file")
	pf.IntVar(&cfg.Slots, "slots", 9, "variable count (1-9)")
	pf.IntVar(&cfg.Interleave, "interleave", 0, "row x col factorisation setting, recorded in the container header (the imprint index always uses cols = slots)")
	pf.BoolVar(&cfg.Pure, "pure", false, "forbid the QTF primitive, accept only QnTF nodes")
	pf.StringVar(&textOut, "text", "", "emit textual output (table|json), default is machine JSON only")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print the exit-status JSON summary line")

	rootCmd.AddCommand(genCmd, buildCmd, rewriteCmd, queryCmd, dumpCmd, selftestCmd)
}

// loadConfigFile applies cfgFile's TOML values to any flag the caller
// did not explicitly set, per §10.3 ("flags always override a loaded
// config file").
func loadConfigFile(cmd *cobra.Command) error {
	if cfgFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return qerr.Wrap(qerr.KindContainerFormat, err, map[string]any{"config": cfgFile})
	}

	var fileCfg buildConfig
	if err := toml.Unmarshal(data, &fileCfg); err != nil {
		return qerr.Wrap(qerr.KindParse, err, map[string]any{"config": cfgFile})
	}

	flags := cmd.Flags()
	if !flags.Changed("slots") && fileCfg.Slots != 0 {
		cfg.Slots = fileCfg.Slots
	}
	if !flags.Changed("interleave") && fileCfg.Interleave != 0 {
		cfg.Interleave = fileCfg.Interleave
	}
	if !flags.Changed("pure") && fileCfg.Pure {
		cfg.Pure = fileCfg.Pure
	}
	return nil
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newIOContext() *ioctx.IOContext {
	return ioctx.New(newLogger())
}

// Execute runs the root command; errors are reported via §7's error
// taxonomy through reportError before Execute returns a non-nil error
// to main, which maps that to a non-zero exit code (§6).
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		return err
	}
	return nil
}
