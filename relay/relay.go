// Package relay forwards final transcripts to the interview backend and
// renders its streamed answer.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

type question struct {
	Question string `json:"Question"`
}

// Client posts transcripts to a fixed backend endpoint. The answer comes
// back as a plaintext stream; Ask rewrites the accumulated text on a single
// updating console line as it grows.
type Client struct {
	url    string
	http   *http.Client
	out    io.Writer
	logger *log.Logger
}

func NewClient(url string, logger *log.Logger) *Client {
	return &Client{
		url:    url,
		http:   &http.Client{},
		out:    os.Stdout,
		logger: logger,
	}
}

// Ask sends one transcript and streams the backend's answer to the console.
// Transport and status errors are returned to the caller, which logs and
// moves on; a lost answer never stops the listening loop.
func (c *Client) Ask(ctx context.Context, transcript string) error {
	body, err := json.Marshal(question{Question: transcript})
	if err != nil {
		return fmt.Errorf("encode question: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.url, bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("sending transcript", "transcript", transcript)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned %s", resp.Status)
	}

	var answer strings.Builder
	buf := make([]byte, 1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			answer.Write(buf[:n])
			fmt.Fprintf(c.out, "\r%s", answer.String())
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read answer: %w", err)
		}
	}
	if answer.Len() > 0 {
		fmt.Fprintln(c.out)
	}
	return nil
}
