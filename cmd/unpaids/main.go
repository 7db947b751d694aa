// Command unpaids exports the unpaids collection on its own.
package main

import (
	"os"

	"github.com/Nikola31267/food-management/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	root.SetArgs(append([]string{"unpaids"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}
}
