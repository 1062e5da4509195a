// Command predictionxd runs the prediction-market trading and settlement
// core described in spec.md: the HTTP/WebSocket API over the wired Ledger,
// OrderBook, MatchingEngine, Oracle, CopyTradingEngine, AutoSettlement, and
// MarketResolver services. Cobra root + "serve" subcommand composition and
// viper config binding are adapted from the teacher's cmd/perpdexd/cmd
// root, trimmed of every chain-node concern (genesis, keys, tendermint)
// this service has none of.
package main

import (
	"fmt"
	"os"

	"github.com/openalpha/predictionx/cmd/predictionxd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
