// Command rentdesk manages and renders rental contract templates.
package main

import (
	"context"
	"os"

	"github.com/rentdesk/rentdesk/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	if err := cli.ExecuteContext(context.Background()); err != nil {
		os.Exit(cli.HandleError(err))
	}
}
