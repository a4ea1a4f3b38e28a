// Command qntf is the CLI surface for the ternary Boolean tree catalogue
// (SPEC_FULL.md §6): build/query/inspect an on-disk container via the
// gen, build, rewrite, query, dump and selftest subcommands.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
