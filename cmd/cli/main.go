package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zfogg/snapshare/internal/client"
)

var (
	configPath string
	verbose    bool
	output     string

	api    *client.Client
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "snapshare",
	Short: "Snapshare CLI - post, browse and react from the terminal",
	Long: `Snapshare CLI provides command-line access to the snapshare API.
Publish photos, read the feed, comment, like and favorite posts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(configPath); err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}

		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: verbose})
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}

		api = client.New(client.Config{
			BaseURL: viper.GetString("api.base_url"),
			Token:   viper.GetString("api.token"),
			Timeout: time.Duration(viper.GetInt("api.timeout")) * time.Second,
			Logger:  logger,
		})
		return nil
	},
}

// initConfig layers defaults, the TOML config file and SNAPSHARE_* environment variables
func initConfig(path string) error {
	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("api.token", "")

	viper.SetEnvPrefix("snapshare")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "snapshare", "config.toml")
	}

	// A missing config file is fine; flags and env cover everything
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(path)
	return viper.ReadInConfig()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/snapshare/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text or json")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (defaults to SNAPSHARE_API_TOKEN)")
	rootCmd.PersistentFlags().String("api", "", "API server URL")
	_ = viper.BindPFlag("api.token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api"))

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(likeCmd)
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
