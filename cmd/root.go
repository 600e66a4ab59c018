package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/jules/internal/jules"
	"github.com/joescharf/jules/internal/output"
	"github.com/joescharf/jules/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	apiClient *jules.Client
	dataStore store.Store

	verbose bool
	dryRun  bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "jules",
	Short: "Jules - drive Google Jules coding sessions from the terminal",
	Long: `jules is a CLI and MCP server for the Google Jules API.
It launches asynchronous coding sessions against your GitHub repos,
follows their progress, and exposes every operation as MCP tools
for agent integration.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/jules/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "jules")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("JULES")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "jules")

	viper.SetDefault("api_key", "")
	viper.SetDefault("base_url", jules.DefaultBaseURL)
	viper.SetDefault("timeout_seconds", 60)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "jules.db"))
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// API client and launch store initialize lazily so config/version
	// commands run without an API key or database.
}

// rootRun handles `jules` with no subcommand: show active sessions,
// or help when no API key is configured.
func rootRun(cmd *cobra.Command) error {
	if viper.GetString("api_key") == "" {
		return cmd.Help()
	}
	return sessionListRun(true, 0, "", false)
}

// getClient returns the shared API client, initializing it on first call.
func getClient() (*jules.Client, error) {
	if apiClient != nil {
		return apiClient, nil
	}

	c, err := jules.NewClient(jules.Config{
		APIKey:  viper.GetString("api_key"),
		BaseURL: viper.GetString("base_url"),
		Timeout: time.Duration(viper.GetInt("timeout_seconds")) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	apiClient = c
	return apiClient, nil
}

// getStore returns the shared launch store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}
