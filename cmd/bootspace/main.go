package main

import (
	"fmt"
	"os"

	"github.com/danieljhkim/bootspace/internal/cli"
	"github.com/danieljhkim/bootspace/internal/logging"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	err := cli.Execute()
	_ = logging.Default.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}
