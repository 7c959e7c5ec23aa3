// Package main provides the entry point for the turnstile CLI.
package main

import (
	"os"

	"github.com/moderatehq/turnstile/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
