// Command balproc converts change-log spreadsheets into balance_api
// stored-procedure calls.
package main

import (
	"os"

	"github.com/finreport-labs/balproc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
