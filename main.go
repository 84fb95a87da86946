package main

import (
	"os"

	"github.com/TFMV/solmap/cli"
)

func main() {
	os.Exit(cli.Execute())
}
