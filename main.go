package main

import (
	"os"

	"github.com/schrutebeet/stock-market/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
