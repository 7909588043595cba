package main

import (
	"fmt"
	"os"

	"github.com/netcontrold/ncd/cmd/ncd/command"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := command.App()
	if err := app.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "ncd: %v\n", err)
		return 1
	}
	return 0
}
