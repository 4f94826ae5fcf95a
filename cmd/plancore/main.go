// Command plancore compiles plan-tree specs and rewrites their trees with
// declarative rules.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/plancore/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
