// Command edc follows Elite Dangerous journal files and reports on them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/edc/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "edc:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
