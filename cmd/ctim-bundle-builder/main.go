package main

import (
	"fmt"
	"os"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
