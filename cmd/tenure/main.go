// Command tenure runs and replays authority-succession simulations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tenure/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
