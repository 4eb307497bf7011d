/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/alejoacosta74/thalex-api/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "thalex",
	Short: "Thalex websocket API client",
	Long: `Command line client of the Thalex derivatives exchange websocket API.

Streams subscriptions to the log, Kafka or Redis, calls single endpoints and
manages API tokens. Settings are read from $HOME/.thalex.yaml (or --config),
THALEX_* environment variables and flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.thalex.yaml)")
	flags.String("log", "info", "log level: trace, debug, info, warn or error")
	flags.String("network", "test", "network: test or prod")
	flags.String("url", "", "websocket endpoint overriding the network's")
	flags.String("account", "", "sub account to log in to")
	flags.String("key-file", "", "YAML file with the API keys of each network")

	viper.BindPFlag("log.level", flags.Lookup("log"))
	viper.BindPFlag("network", flags.Lookup("network"))
	viper.BindPFlag("url", flags.Lookup("url"))
	viper.BindPFlag("account", flags.Lookup("account"))
	viper.BindPFlag("key_file", flags.Lookup("key-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded

	if err := setupLogger(cfg.Log); err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logrus.WithField("file", used).Debug("Using config file")
	}
	return nil
}

func setupLogger(lc config.LogConfig) error {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)

	if lc.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stderr)
	return nil
}
