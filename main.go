// Package main is the entry point of pagewatch.
package main

import "pagewatch/cmd"

func main() {
	cmd.Execute()
}
