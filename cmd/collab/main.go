// Package main provides the collab CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/collab/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
