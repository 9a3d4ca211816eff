package main

import (
	"os"

	"github.com/dshills/redact/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
