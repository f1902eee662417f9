// Package main is the entry point for the buildtrace CLI.
package main

import "buildtrace.dev/pkg/buildtrace/cmd"

func main() {
	cmd.Execute()
}
