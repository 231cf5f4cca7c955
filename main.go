package main

import (
	"os"

	"simple-ledger-go/cli"
)

func main() {
	if err := cli.Run(); err != nil {
		os.Exit(1)
	}
}
