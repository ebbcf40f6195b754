// Package main is the entry point for the fuzzplan CLI.
package main

import "fuzzplan.dev/pkg/fuzzplan/cmd"

func main() {
	cmd.Execute()
}
