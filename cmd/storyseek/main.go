// Package main provides the entry point for the storyseek CLI.
package main

import (
	"os"

	"github.com/storyseek/storyseek/cmd/storyseek/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
