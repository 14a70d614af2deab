package main

import (
	"context"
	"fmt"
	"os"

	"github.com/areiqi/sitedb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.OpenFromEnv).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
