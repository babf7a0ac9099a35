package main

import (
	"os"

	"github.com/ReberMislem/Exchange-app/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
