package main

import (
	"os"

	"github.com/idilsaglam/itemsubmit/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
