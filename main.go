package main

import (
	"os"

	"github.com/ccmeter/ccmeter/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
