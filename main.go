package main

import (
	"os"

	"github.com/tanay/prept/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
