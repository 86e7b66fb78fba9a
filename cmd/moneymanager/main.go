// Command moneymanager tracks personal expenses from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"moneymanager/internal/cli"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := cli.NewRootCommand(cli.NewApp).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorMessage(err))
		os.Exit(1)
	}
}
