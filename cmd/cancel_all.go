/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/session"
	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cancelAllCmd represents the cancel-all command
var cancelAllCmd = &cobra.Command{
	Use:   "cancel-all",
	Short: "Cancel every open order of the account",
	Args:  cobra.NoArgs,
	RunE:  runCancelAll,
}

func init() {
	rootCmd.AddCommand(cancelAllCmd)
	cancelAllCmd.Flags().Duration("timeout", 10*time.Second, "time to wait for the exchange")
}

func runCancelAll(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	sigCtx, cancel := signalContext()
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(sigCtx, timeout)
	defer cancelTimeout()

	client := thalex.NewClient(network(cfg), clientOptions(cfg)...)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()

	if err := loginAndAwait(ctx, client, cfg, session.CallIDLogin); err != nil {
		return err
	}

	if err := client.CancelAll(ctx, thalex.WithID(session.CallIDCancelAll)); err != nil {
		return err
	}
	msg, err := awaitResponse(ctx, client, session.CallIDCancelAll)
	if err != nil {
		return fmt.Errorf("cancel all: %w", err)
	}
	if msg.Error != nil {
		return msg.Error
	}

	logrus.Infof("Cancelled all %s orders", msg.Result)
	return nil
}
