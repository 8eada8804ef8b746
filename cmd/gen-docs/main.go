package main

import (
	"fmt"
	"os"

	"github.com/stigoleg/awake/internal/cli"
)

// Generates shell completions and a man page from the command tree.
func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := cli.GenerateDocs(cli.NewRootCmd(), dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
