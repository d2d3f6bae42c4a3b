// Command reservoir plans monthly releases of a multi-purpose reservoir.
//
//	reservoir solve    optimize a scenario
//	reservoir simulate run the greedy priority rule
//	reservoir compare  optimize under several modes side by side
//	reservoir lp       print the model in LP format
//	reservoir init     print the reference scenario
//	reservoir serve    run the HTTP API
//
// Without a scenario argument the bundled twelve-month reference study is used.
package main

import (
	"errors"
	"os"

	"github.com/katalvlaran/reservoir/plan"
)

// Exit codes: 1 for usage and input errors, 2 when a solve ends without an
// optimal plan.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		var se *plan.StatusError
		if errors.As(err, &se) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
