// The main package for the feedwatch executable.
package main

import (
	"github.com/mellyssy/feedwatch/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
