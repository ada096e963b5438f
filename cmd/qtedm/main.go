// Command qtedm is the headless runtime's entry point: load one or more
// ADL display files, subscribe their widgets' channels, and either run
// silently or drive the terminal watch renderer (§6, SPEC_FULL.md CLI
// surface).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
