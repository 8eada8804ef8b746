package main

import (
	"os"

	"github.com/stigoleg/awake/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
