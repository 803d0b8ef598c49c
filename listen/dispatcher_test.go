package listen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jagarlamudisrinath/interview-client/speech"
)

type mockBackend struct {
	asked []string
	err   error
}

func (m *mockBackend) Ask(ctx context.Context, transcript string) error {
	m.asked = append(m.asked, transcript)
	return m.err
}

func interim(text string) speech.Response {
	return speech.Response{Results: []speech.Result{{
		Alternatives: []speech.Alternative{{Transcript: text}},
	}}}
}

func final(text string) speech.Response {
	return speech.Response{Results: []speech.Result{{
		Alternatives: []speech.Alternative{{Transcript: text}},
		IsFinal:      true,
	}}}
}

func feed(responses ...speech.Response) <-chan speech.Response {
	ch := make(chan speech.Response, len(responses))
	for _, resp := range responses {
		ch <- resp
	}
	close(ch)
	return ch
}

func newTestDispatcher(
	out io.Writer, backend Backend,
) *Dispatcher {
	return NewDispatcher(out, backend, log.New(io.Discard))
}

func TestInterimOverwriteArithmetic(t *testing.T) {
	var out bytes.Buffer
	d := newTestDispatcher(&out, &mockBackend{})

	d.Run(context.Background(), feed(interim("hello world"), interim("hi")))

	want := "hello world\r" + "hi" + strings.Repeat(" ", 9) + "\r"
	if out.String() != want {
		t.Errorf("console output = %q, want %q", out.String(), want)
	}
}

func TestFinalForwardsToBackendExactlyOnce(t *testing.T) {
	var out bytes.Buffer
	backend := &mockBackend{}
	d := newTestDispatcher(&out, backend)

	last, stopped := d.Run(
		context.Background(),
		feed(interim("hello"), final("hello world")),
	)

	if stopped {
		t.Error("stopped = true without a stop phrase")
	}
	if last != "hello world" {
		t.Errorf("last transcript = %q, want %q", last, "hello world")
	}
	if len(backend.asked) != 1 || backend.asked[0] != "hello world" {
		t.Errorf("backend received %v, want exactly [hello world]", backend.asked)
	}
	if !strings.HasSuffix(out.String(), "hello world\n") {
		t.Errorf("final line missing newline: %q", out.String())
	}
}

func TestStopPhraseDetection(t *testing.T) {
	tests := []struct {
		transcript string
		stop       bool
	}{
		{"please exit now", true},
		{"QUIT", true},
		{"exiting", false},
	}

	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			var out bytes.Buffer
			d := newTestDispatcher(&out, &mockBackend{})

			_, stopped := d.Run(
				context.Background(), feed(final(tt.transcript)),
			)
			if stopped != tt.stop {
				t.Errorf("stopped = %v, want %v", stopped, tt.stop)
			}
			if tt.stop && !strings.Contains(out.String(), "Exiting..") {
				t.Error("missing exit notice")
			}
		})
	}
}

func TestBackendFailureDoesNotStopProcessing(t *testing.T) {
	var out bytes.Buffer
	backend := &mockBackend{err: errors.New("connection refused")}
	d := newTestDispatcher(&out, backend)

	last, stopped := d.Run(
		context.Background(), feed(final("please quit")),
	)

	if len(backend.asked) != 1 {
		t.Errorf("backend received %v, want one call", backend.asked)
	}
	if !stopped {
		t.Error("stop phrase not evaluated after backend failure")
	}
	if last != "please quit" {
		t.Errorf("last transcript = %q, want %q", last, "please quit")
	}
	if !strings.Contains(out.String(), "please quit\n") {
		t.Errorf("final line not printed: %q", out.String())
	}
}

func TestEmptyTranscriptNeverReachesBackend(t *testing.T) {
	var out bytes.Buffer
	backend := &mockBackend{}
	d := newTestDispatcher(&out, backend)

	d.Run(context.Background(), feed(final("")))

	if len(backend.asked) != 0 {
		t.Errorf("backend received %v for an empty transcript", backend.asked)
	}
}

func TestEmptyResponsesAreSkipped(t *testing.T) {
	var out bytes.Buffer
	backend := &mockBackend{}
	d := newTestDispatcher(&out, backend)

	d.Run(context.Background(), feed(
		speech.Response{},
		speech.Response{Results: []speech.Result{{IsFinal: true}}},
	))

	if out.Len() != 0 {
		t.Errorf("skipped responses produced output %q", out.String())
	}
	if len(backend.asked) != 0 {
		t.Errorf("skipped responses reached the backend: %v", backend.asked)
	}
}
