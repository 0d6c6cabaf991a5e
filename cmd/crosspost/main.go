package main

import (
	"fmt"
	"os"

	"github.com/crosspost-dev/go-crosspost/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crosspost:", err)
		os.Exit(1)
	}
}
