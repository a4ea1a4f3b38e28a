package main

import (
	"github.com/ternlab/qntf"
)

// newCatalog builds a fresh, empty catalogue from the root persistent
// flags (--slots, --interleave, --pure, optionally layered from
// --config).
func newCatalog() (*qntf.Catalog, error) {
	return qntf.New(qntf.Config{
		Slots:      cfg.Slots,
		Interleave: cfg.Interleave,
		Pure:       cfg.Pure,
	}, newIOContext())
}

func openCatalog(path string) (*qntf.Catalog, error) {
	return qntf.Open(path, newIOContext())
}
