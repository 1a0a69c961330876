package cmd

import (
	"fmt"
	"os"

	"roomboss-cli/api"
	"roomboss-cli/config"
	"roomboss-cli/logging"
	"roomboss-cli/storage"

	"github.com/spf13/cobra"
)

var (
	outputJSON    bool
	outputCompact bool
	verbose       bool
	showHistory   bool
	cfg           config.Config
	client        = api.NewClient()
)

var rootCmd = &cobra.Command{
	Use:   "roomboss",
	Short: "RoomBoss CLI for hotel availability and bookings",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON && outputCompact {
			return fmt.Errorf("choose either --json or --compact")
		}
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(hotelsCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(bookingsCmd())
	rootCmd.AddCommand(servicesCmd())
	rootCmd.AddCommand(favouritesCmd())
	rootCmd.AddCommand(authCmd())

	err := rootCmd.Execute()
	if showHistory {
		if histErr := printHistory(os.Stderr, client.History()); histErr != nil {
			logging.Log.Warnf("print history: %v", histErr)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVar(&outputCompact, "compact", false, "Output compact text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API requests")
	rootCmd.PersistentFlags().BoolVar(&showHistory, "history", false, "Print the API request history on exit")
}

func initConfig() {
	dir, err := storage.ConfigDir()
	if err != nil {
		dir = ""
	}
	cfg = config.Load(dir)

	logging.Init(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Verbose:    verbose,
	})

	client.BaseURL = cfg.API.BaseURL
	client.Timeout = cfg.API.Timeout
	client.Log = logging.Log
	client.Username = cfg.API.Username
	client.Password = cfg.API.Password
	if client.Username != "" && client.Password != "" {
		return
	}

	creds, err := storage.LoadCredentials()
	if err != nil {
		logging.Log.Debugf("load saved credentials: %v", err)
		return
	}
	if creds.Complete() {
		client.Username = creds.Username
		client.Password = creds.Password
		if creds.BaseURL != "" && os.Getenv("ROOMBOSS_API_URL") == "" {
			client.BaseURL = creds.BaseURL
		}
	}
}
