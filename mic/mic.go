// Package mic owns the microphone: one Stream is one bounded-duration
// capture session, from device open to device close.
package mic

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate is fixed by the recognizer configuration: 16-bit mono
	// LINEAR16 at 16 kHz.
	SampleRate = 16000

	// ChunkFrames is the device buffer size, 100ms of audio per callback.
	ChunkFrames = SampleRate / 10
)

// TimeProvider abstracts the session clock so the duration limit is testable.
type TimeProvider interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now() }

// Stream is a single capture session. The portaudio callback is the sole
// producer on the queue and the goroutine behind Chunks is the sole consumer;
// the queue is the only state shared between the two.
type Stream struct {
	ID string

	rate   int
	chunk  int
	limit  time.Duration
	clock  TimeProvider
	logger *log.Logger

	queue   *Queue
	device  *portaudio.Stream
	started time.Time

	// done unblocks the chunk generator if its consumer goes away; the
	// queue sentinel alone cannot wake a goroutine parked on a channel
	// send.
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewStream prepares a session with the fixed capture format. The device is
// not touched until Open.
func NewStream(limit time.Duration, logger *log.Logger) *Stream {
	return &Stream{
		ID:     uuid.NewString(),
		rate:   SampleRate,
		chunk:  ChunkFrames,
		limit:  limit,
		clock:  systemTime{},
		logger: logger,
		queue:  NewQueue(),
		done:   make(chan struct{}),
	}
}

// Open acquires the default input device and starts the session clock. A
// failure here is fatal to this session; the driver decides whether to retry
// with a fresh one.
func (s *Stream) Open() error {
	device, err := portaudio.OpenDefaultStream(
		1, 0, float64(s.rate), s.chunk, s.capture,
	)
	if err != nil {
		return fmt.Errorf("open input device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Close()
		return fmt.Errorf("start input device: %w", err)
	}
	s.device = device
	s.started = s.clock.Now()
	s.logger.Debug("capture open", "session", s.ID, "rate", s.rate)
	return nil
}

// capture runs on the audio subsystem's callback goroutine. It must not
// block, so it only converts the buffer and enqueues it.
func (s *Stream) capture(in []int16) {
	s.queue.Put(pcmBytes(in))
}

// Chunks returns the session's lazy, finite chunk sequence. Each iteration
// blocks for one chunk, then drains whatever else is already buffered and
// yields the concatenation, so a slow consumer gets fewer, larger chunks
// instead of falling behind. The sequence ends when the queue's sentinel is
// reached or the session duration limit has elapsed; the limit is checked
// only at the top of each pull, so a session may overrun by one drain's
// worth of audio.
func (s *Stream) Chunks() <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			if s.clock.Now().Sub(s.started) > s.limit {
				s.logger.Info("session limit reached",
					"session", s.ID, "limit", s.limit)
				return
			}
			joined, ok := s.queue.Get()
			if !ok {
				return
			}
			for {
				next, ok := s.queue.TryGet()
				if !ok {
					break
				}
				joined = append(joined, next...)
			}
			select {
			case out <- joined:
			case <-s.done:
				return
			}
		}
	}()
	return out
}

// Close stops and releases the device and enqueues the sentinel so an
// in-flight consumer terminates. It is idempotent and safe to defer on every
// exit path.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)

	if s.device != nil {
		if err := s.device.Stop(); err != nil {
			s.logger.Warn("stop input device", "error", err)
		}
		if err := s.device.Close(); err != nil {
			s.logger.Warn("close input device", "error", err)
		}
	}
	s.queue.Close()
	s.logger.Debug("capture closed", "session", s.ID)
}

// pcmBytes converts int16 samples to the little-endian byte layout the
// recognizer expects for LINEAR16.
func pcmBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}
	return buf
}
