package main

import (
	"os"

	"github.com/readygate/readygate/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
