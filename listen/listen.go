package listen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jagarlamudisrinath/interview-client/mic"
	"github.com/jagarlamudisrinath/interview-client/relay"
	"github.com/jagarlamudisrinath/interview-client/speech"
)

var ListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Capture the microphone and transcribe it live",
	Long: `This command streams microphone audio to the recognizer, prints
interim and final transcripts, and relays each final transcript to the
interview backend. Say "exit" or "quit" to stop.`,
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	logger := log.Default()

	recognizer, err := speech.NewGoogle(ctx, speech.Config{
		CredentialsFile: viper.GetString("google_credentials"),
		Language:        viper.GetString("language"),
		SampleRate:      mic.SampleRate,
	}, logger.WithPrefix("hear"))
	if err != nil {
		return err
	}
	defer recognizer.Close()

	backend := relay.NewClient(
		viper.GetString("backend_url"),
		logger.WithPrefix("send"),
	)
	dispatcher := NewDispatcher(os.Stdout, backend, logger.WithPrefix("chat"))

	limit := viper.GetDuration("session_limit")
	micLogger := logger.WithPrefix("mic")
	sessions := func() (Session, error) {
		session := mic.NewStream(limit, micLogger)
		if err := session.Open(); err != nil {
			return nil, err
		}
		return session, nil
	}

	driver := NewDriver(Config{
		MaxAttempts: viper.GetInt("max_attempts"),
		BackoffBase: viper.GetDuration("backoff_base"),
	}, sessions, recognizer, dispatcher, logger.WithPrefix("main"))

	if err := driver.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted")
			return nil
		}
		return err
	}
	return nil
}
