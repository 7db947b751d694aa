package main

import (
	"os"

	"github.com/Nikola31267/food-management/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}
}
