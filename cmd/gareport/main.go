// Package main is the entry point for the gareport CLI binary.
package main

import (
	"os"

	"github.com/your-username/ga-report-adapter/backend/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
