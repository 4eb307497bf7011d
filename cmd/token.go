/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/spf13/cobra"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a login token for the selected network",
	Long: `Print a login token for the selected network.

The token is a JWT signed with the API key of the network, valid for the
public/login call of any websocket session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keyID, key, err := credentials(cfg)
		if err != nil {
			return err
		}
		token, err := thalex.MakeAuthToken(keyID, key, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
