package listen

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jagarlamudisrinath/interview-client/speech"
)

const maxBackoff = time.Minute

// Session is one bounded capture cycle. Close must be safe on every exit
// path and must end the chunk sequence.
type Session interface {
	Chunks() <-chan []byte
	Close()
}

// Config is the driver's supervision policy.
type Config struct {
	// MaxAttempts bounds consecutive failed sessions. Zero or negative
	// retries forever.
	MaxAttempts int
	// BackoffBase is the delay after the first failure; it doubles per
	// consecutive failure, capped at one minute.
	BackoffBase time.Duration
}

// Driver supervises the session loop: open a capture session, bridge it
// through the recognizer, dispatch the responses, then start over when the
// session expires. A stop phrase ends the loop cleanly; failures back off
// and count against MaxAttempts.
type Driver struct {
	cfg        Config
	sessions   func() (Session, error)
	recognizer speech.Recognizer
	dispatcher *Dispatcher
	logger     *log.Logger
}

func NewDriver(
	cfg Config,
	sessions func() (Session, error),
	recognizer speech.Recognizer,
	dispatcher *Dispatcher,
	logger *log.Logger,
) *Driver {
	return &Driver{
		cfg:        cfg,
		sessions:   sessions,
		recognizer: recognizer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (d *Driver) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		stopped, err := d.runSession(ctx)
		if stopped {
			d.logger.Info("stop phrase received")
			return nil
		}
		if err == nil {
			attempts = 0
			continue
		}

		attempts++
		if d.cfg.MaxAttempts > 0 && attempts >= d.cfg.MaxAttempts {
			return fmt.Errorf(
				"giving up after %d failed sessions: %w", attempts, err,
			)
		}

		delay := d.backoff(attempts)
		d.logger.Warn("session failed",
			"error", err, "attempt", attempts, "retry_in", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Driver) runSession(ctx context.Context) (bool, error) {
	// Per-session context so a stopped dispatcher also unwinds the
	// recognizer's receive goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session, err := d.sessions()
	if err != nil {
		return false, fmt.Errorf("open capture session: %w", err)
	}
	defer session.Close()

	responses, errc, err := d.recognizer.Stream(ctx, session.Chunks())
	if err != nil {
		return false, err
	}

	last, stopped := d.dispatcher.Run(ctx, responses)
	if last != "" {
		d.logger.Debug("session ended", "last", last)
	}

	select {
	case err := <-errc:
		if err != nil {
			return stopped, err
		}
	default:
	}
	return stopped, nil
}

func (d *Driver) backoff(attempts int) time.Duration {
	delay := d.cfg.BackoffBase
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
