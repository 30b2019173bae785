package main

import (
	"errors"

	"github.com/pevans/litcrawl/ledger"
)

// openLedger opens the run history configured in ledger.dsn.
func openLedger() (*ledger.Ledger, error) {
	if cfg.Ledger.DSN == "" {
		return nil, errors.New("run history is disabled; set ledger.dsn")
	}
	return ledger.Open(cfg.Ledger.DSN)
}
