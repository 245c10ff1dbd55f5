// Command mixer resolves, composes and persists mixin compositions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mixer/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
