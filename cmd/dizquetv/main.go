package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/five82/dizquetv/cmd/dizquetv/cmds"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmds.NewRootCLI().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dizquetv: %v\n", err)
		return 1
	}
	return 0
}
