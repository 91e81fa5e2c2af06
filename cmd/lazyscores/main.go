// Package main is the entry point for the lazyscores binary.
package main

import (
	"os"

	"github.com/rebeliceyang/lazyscores/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
