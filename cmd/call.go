/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alejoacosta74/thalex-api/internal/session"
	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const callID uint64 = 1000

// callCmd represents the call command
var callCmd = &cobra.Command{
	Use:   "call <method> [params]",
	Short: "Call a single endpoint and print its result",
	Long: `Call a single endpoint and print its result.

params is a JSON object, e.g.

  thalex call public/ticker '{"instrument_name":"BTC-PERPETUAL"}'

private/ methods log in first with the key of the selected network.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().Bool("login", false, "log in before calling a public method")
	callCmd.Flags().Duration("timeout", 10*time.Second, "time to wait for the response")
}

func runCall(cmd *cobra.Command, args []string) error {
	method := args[0]
	params, err := parseParams(args)
	if err != nil {
		return err
	}
	login, _ := cmd.Flags().GetBool("login")
	login = login || strings.HasPrefix(method, "private/")
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

	if login {
		if err := loginAndAwait(ctx, client, cfg, session.CallIDLogin); err != nil {
			return err
		}
	}

	if err := client.Send(ctx, method, params, thalex.WithID(callID)); err != nil {
		return err
	}
	msg, err := awaitResponse(ctx, client, callID)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", method, err)
	}
	if msg.Error != nil {
		return msg.Error
	}

	logrus.WithField("method", method).Debug("Call succeeded")
	return printJSON(cmd.OutOrStdout(), msg.Result)
}

// parseParams decodes the optional params argument. Numbers are kept as
// written so ids above 2^53 survive.
func parseParams(args []string) (map[string]any, error) {
	params := map[string]any{}
	if len(args) < 2 {
		return params, nil
	}
	dec := json.NewDecoder(strings.NewReader(args[1]))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("params must be a JSON object: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("params must be a JSON object: trailing data")
	}
	return params, nil
}
