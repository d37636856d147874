// Command stateview stores and queries documents produced by blockchain
// state transitions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stateview/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
