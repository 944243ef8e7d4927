// Package main implements arcanad, the reading backend. It serves the card
// catalog, draws, readings, journals and server-side reading sessions over
// HTTP, and manages the database schema.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
