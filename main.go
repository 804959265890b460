// Package main is the entry point for the soundcheck CLI.
package main

import "github.com/safer-rust/rust-safety-standard/cmd"

func main() {
	cmd.Execute()
}
