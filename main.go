package main

import (
	"os"

	"github.com/bmad-plugin/bmadsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
