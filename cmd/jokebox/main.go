// Package main provides the jokebox binary.
package main

import (
	"os"

	"github.com/leapstack-labs/jokebox/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
