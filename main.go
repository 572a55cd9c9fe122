// Package main is the entry point for the hockeymeter CLI, which reduces NHL
// play-by-play into model tables and serves win-probability timelines.
package main

import "github.com/pable/go-hockey-meter/cmd"

func main() {
	cmd.Execute()
}
