// main is the entry point of the repopulse CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/huangsam/repopulse/cmd"
	"github.com/huangsam/repopulse/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and releases the stores and profiles before exiting.
func run() int {
	defer iocache.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "❌", err)
		}
	}()

	if err := cmd.Execute(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "❌", err)
		return 1
	}
	return 0
}
