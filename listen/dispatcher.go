// Package listen runs the capture-recognize-relay loop.
package listen

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jagarlamudisrinath/interview-client/speech"
)

// stopPhrase matches "exit" or "quit" as whole words, any case.
var stopPhrase = regexp.MustCompile(`(?i)\b(exit|quit)\b`)

// Backend receives final transcripts. Its failures must never stop the
// listening loop.
type Backend interface {
	Ask(ctx context.Context, transcript string) error
}

// Dispatcher turns recognition responses into console output and backend
// calls. Interim transcripts overwrite the current line in place; final ones
// get their own line and are forwarded. The only state carried between
// responses is how many characters the current line holds, so a shorter
// replacement can blank out the leftovers.
type Dispatcher struct {
	out     io.Writer
	backend Backend
	logger  *log.Logger
	printed int
}

func NewDispatcher(
	out io.Writer,
	backend Backend,
	logger *log.Logger,
) *Dispatcher {
	return &Dispatcher{out: out, backend: backend, logger: logger}
}

// Run consumes responses until the channel closes or a final transcript
// contains the stop phrase. It returns the last final transcript and whether
// the stop phrase ended the loop.
func (d *Dispatcher) Run(
	ctx context.Context,
	responses <-chan speech.Response,
) (string, bool) {
	var last string
	for resp := range responses {
		if len(resp.Results) == 0 {
			continue
		}
		result := resp.Results[0]
		if len(result.Alternatives) == 0 {
			continue
		}

		transcript := result.Alternatives[0].Transcript
		overwrite := strings.Repeat(" ", max(0, d.printed-len(transcript)))

		if !result.IsFinal {
			fmt.Fprintf(d.out, "%s%s\r", transcript, overwrite)
			d.printed = len(transcript)
			continue
		}

		fmt.Fprintf(d.out, "%s%s\n", transcript, overwrite)
		last = transcript

		if transcript != "" {
			if err := d.backend.Ask(ctx, transcript); err != nil {
				d.logger.Error("relay transcript", "error", err)
			}
		}

		if stopPhrase.MatchString(transcript) {
			fmt.Fprintln(d.out, "Exiting..")
			return last, true
		}

		d.printed = 0
	}
	return last, false
}
