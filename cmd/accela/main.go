// Package main provides the entry point for the accela Steam library
// cleanup CLI.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
