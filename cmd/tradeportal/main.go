package main

import (
	"os"

	"github.com/rustyeddy/tradeportal/cmd/tradeportal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
