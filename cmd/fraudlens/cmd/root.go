// Package cmd implements the fraudlens CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/secondhand-labs/fraudlens/internal/api/client"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "fraudlens",
		Short: "Second-hand laptop market anomaly detector",
		Long: "fraudlens polls a second-hand marketplace for laptop listings, extracts\n" +
			"hardware specs from their text, scores each against reference market\n" +
			"statistics, and alerts on too-good-to-be-true prices.\n\n" +
			"The serve command runs the server; the remaining commands either talk\n" +
			"to its API or work offline on listing dumps.",
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "config.yaml", "server config file (serve, migrate)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(rebuildCmd())
	rootCmd.AddCommand(rescoreCmd())
	rootCmd.AddCommand(listingsCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(alertsCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(aggregateCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(versionCmd())
}

func initConfig() {
	viper.SetEnvPrefix("FRAUDLENS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
