package main

import (
	"os"

	"github.com/jettary/vueify-through2/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
