package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tickertape/cmd/tickertape/askcmder"
	"github.com/papercomputeco/tickertape/cmd/tickertape/mergecmder"
	"github.com/papercomputeco/tickertape/cmd/tickertape/servecmder"
)

func main() {
	root := &cobra.Command{
		Use:           "tickertape",
		Short:         "Stock lookup assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		servecmder.NewServeCmd(),
		askcmder.NewAskCmd(),
		mergecmder.NewMergeCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
