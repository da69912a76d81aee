// Package main provides the siteaudit CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/siteaudit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
