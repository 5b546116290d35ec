// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ingest-monitor CLI: the
// long-running collection monitor plus its one-shot companions (library
// import, health probe, schema provisioning, stats inspection).
package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ingest-monitor/internal/logging"
	"github.com/pdiddy/ingest-monitor/internal/secrets"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration, loaded before every command runs.
	cfg types.Config

	logger    *log.Logger
	logCloser io.Closer
)

// rootCmd is the base command for the ingest-monitor CLI.
var rootCmd = &cobra.Command{
	Use:   "ingest-monitor",
	Short: "Periodic ingestion of CRISPR guide records into a relational store",
	Long: `ingest-monitor polls a fixed set of upstream sources on a schedule and
writes the candidate guide records they yield into a relational store,
skipping records whose content hash is already present.

Between cycles it logs a heartbeat, probes the store's health, and keeps a
JSON stats snapshot on disk. SIGINT and SIGTERM stop it after the step in
progress completes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bootstrap := log.New()
		bootstrap.SetOutput(os.Stderr)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, bootstrap)
		if err != nil {
			return err
		}

		loaded, err := loadConfig(s)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, logCloser, err = logging.New(cfg.Log, os.Stdout)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			logger.WithField("keys", secrets.Keys(s)).Debug("loaded secrets")
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.WithField("file", used).Debug("using config file")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ingest-monitor.yaml or ~/.config/ingest-monitor/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of secret files (store-dsn, github-token)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ingest-monitor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ingest-monitor"))
		}
	}

	bindEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = err
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
