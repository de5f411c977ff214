// Command seed loads receivables into a running bookkeeping API, either from a
// spreadsheet export or as synthetic data.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// a missing .env is fine; flags and the environment still apply
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
