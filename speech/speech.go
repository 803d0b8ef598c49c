// Package speech bridges the capture pipeline to a streaming recognizer.
package speech

import "context"

// Alternative is one candidate transcription of an utterance.
type Alternative struct {
	Transcript string
}

// Result carries the alternatives for an utterance and whether the
// recognizer will still revise them.
type Result struct {
	Alternatives []Alternative
	IsFinal      bool
}

// Response is the subset of a streaming recognition response the pipeline
// observes. Everything else the service sends is dropped at the bridge.
type Response struct {
	Results []Result
}

// Recognizer drives one bidirectional streaming call per capture session.
// The response channel closes when the chunk sequence ends or the stream
// fails; a stream failure is reported on the error channel. Neither channel
// is reusable across sessions.
type Recognizer interface {
	Stream(
		ctx context.Context,
		chunks <-chan []byte,
	) (<-chan Response, <-chan error, error)
}
