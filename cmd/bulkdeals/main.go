package main

import (
	"os"

	"bulk-deals/cmd/bulkdeals/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
