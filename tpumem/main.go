// Package main is the entry of the tpumem command-line tool.
package main

import "github.com/azaharalam/PPT-TPU-MEM/tpumem/cmd"

func main() {
	cmd.Execute()
}
