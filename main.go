package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jagarlamudisrinath/interview-client/listen"
	"github.com/jagarlamudisrinath/interview-client/mic"
	"github.com/jagarlamudisrinath/interview-client/relay"
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(listen.ListenCmd)
	rootCmd.AddCommand(mic.DevicesCmd)
	rootCmd.AddCommand(relay.ServeCmd)

	rootCmd.PersistentFlags().
		String("credentials", "", "Path to a Google service account JSON file")
	rootCmd.PersistentFlags().
		String("language", "en-US", "Recognition language tag")
	rootCmd.PersistentFlags().
		String("backend-url", "http://localhost:8000/api/v1/interviews/1/start", "Backend endpoint for final transcripts")
	rootCmd.PersistentFlags().
		Duration("session-limit", 5*time.Minute, "Maximum duration of one capture session")
	rootCmd.PersistentFlags().
		Int("max-attempts", 0, "Give up after this many failed sessions in a row (0 retries forever)")
	rootCmd.PersistentFlags().
		Duration("backoff-base", time.Second, "Base delay before retrying a failed session")

	viper.BindPFlag(
		"google_credentials",
		rootCmd.PersistentFlags().Lookup("credentials"),
	)
	viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("language"))
	viper.BindPFlag(
		"backend_url",
		rootCmd.PersistentFlags().Lookup("backend-url"),
	)
	viper.BindPFlag(
		"session_limit",
		rootCmd.PersistentFlags().Lookup("session-limit"),
	)
	viper.BindPFlag(
		"max_attempts",
		rootCmd.PersistentFlags().Lookup("max-attempts"),
	)
	viper.BindPFlag(
		"backoff_base",
		rootCmd.PersistentFlags().Lookup("backoff-base"),
	)
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}

	log.SetDefault(newLogger())
}

func newLogger() *log.Logger {
	logger := log.New(os.Stderr)
	logger.SetLevel(log.InfoLevel)

	styles := log.DefaultStyles()
	styles.Prefix = styles.Prefix.MarginTop(1).
		Bold(false).Transform(func(s string) string {
		return strings.TrimSuffix(s, ":")
	})
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Levels[log.ErrorLevel] = styles.Levels[log.ErrorLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Key = styles.Key.MarginLeft(1).
		Bold(false).
		Foreground(lipgloss.Color("#ff8800"))

	logger.SetStyles(styles)
	return logger
}

var rootCmd = &cobra.Command{
	Use:   "interview-client",
	Short: "Live microphone transcription for interview practice",
	Long: `interview-client streams microphone audio to Google Cloud
Speech-to-Text, prints interim and final transcripts on the console, and
relays each finished question to the interview backend.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
