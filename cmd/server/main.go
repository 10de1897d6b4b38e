package main

import (
	"os"
)

// main hands off to cobra; wiring lives in app.go and the commands.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
