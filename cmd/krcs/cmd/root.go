// Package cmd implements the krcs command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jackwharrison/krcs-bitrix/internal/config"
	"github.com/jackwharrison/krcs-bitrix/internal/i18n"
	"github.com/jackwharrison/krcs-bitrix/internal/tasks"
	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

var (
	configFile string
	langFlag   string
	dryRun     bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "krcs",
	Short: "Beneficiary record reconciliation for Bitrix24",
	Long: `krcs reconciles beneficiary records held in a Bitrix24 CRM for a
humanitarian assistance program: it detects duplicate households,
duplicate national-ID registrations and duplicate payments, matches
beneficiaries against project eligibility criteria, and writes the
results back to the CRM.

Each run fetches a fresh snapshot, computes its decisions in memory and
applies them record by record; the CRM stays the sole source of truth.`,
}

// Execute runs the root command with signal-aware context.
func Execute(version, commit string) {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "en", "language for progress messages (en, ru, ky)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compute and report decisions without writing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newDedupeCommand())
	rootCmd.AddCommand(newEligibilityCommand())
	rootCmd.AddCommand(newResetCommand())
	rootCmd.AddCommand(newAgesCommand())
}

// initConfig reads .env files, the config file and environment variables.
func initConfig() {
	// .env first, so Viper's env binding can see the values.
	_ = godotenv.Load(".env")

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("KRCS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// newRunner resolves configuration once and wires a task runner from it.
func newRunner(cmd *cobra.Command) (*tasks.Runner, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	return &tasks.Runner{
		Client:  bitrix.New(cfg.WebhookURL),
		Config:  cfg,
		Printer: i18n.New(langFlag),
		Out:     cmd.OutOrStdout(),
		DryRun:  dryRun,
	}, nil
}
