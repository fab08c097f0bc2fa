// Command timeline edits a property timeline with persistent undo history.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/timeline/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
