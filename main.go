package main

import (
	"os"

	"github.com/vzahanych/outfit-wizard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
