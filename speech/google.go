package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	speechv1 "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
)

// Config fixes the recognition parameters for every session.
type Config struct {
	// CredentialsFile is a service account JSON path. Empty means ambient
	// application default credentials.
	CredentialsFile string
	Language        string
	SampleRate      int
}

// Google streams audio to Google Cloud Speech-to-Text. One client serves
// many sessions; each Stream call opens a fresh bidirectional call.
type Google struct {
	client *speechv1.Client
	cfg    Config
	logger *log.Logger
}

func NewGoogle(
	ctx context.Context,
	cfg Config,
	logger *log.Logger,
) (*Google, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := speechv1.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Google{client: client, cfg: cfg, logger: logger}, nil
}

func (g *Google) Close() error {
	return g.client.Close()
}

// Stream sends the initial recognition config, then one request per chunk
// until the chunk sequence ends, while translating responses onto the
// returned channel. There is no retry here: any stream failure surfaces on
// the error channel and it is the driver's job to start over with a fresh
// session.
func (g *Google) Stream(
	ctx context.Context,
	chunks <-chan []byte,
) (<-chan Response, <-chan error, error) {
	stream, err := g.client.StreamingRecognize(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open recognize stream: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(g.cfg.SampleRate),
					LanguageCode:    g.cfg.Language,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		return nil, nil, fmt.Errorf("send streaming config: %w", err)
	}

	go func() {
		for chunk := range chunks {
			if err := stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
					AudioContent: chunk,
				},
			}); err != nil {
				g.logger.Error("send audio", "error", err)
				return
			}
		}
		if err := stream.CloseSend(); err != nil {
			g.logger.Error("close send", "error", err)
		}
	}()

	out := make(chan Response)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errc <- fmt.Errorf("receive recognition: %w", err)
				return
			}
			if resp.Error != nil {
				errc <- fmt.Errorf(
					"recognize: %s (code %d)",
					resp.Error.Message, resp.Error.Code,
				)
				return
			}
			select {
			case out <- convert(resp):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc, nil
}

func convert(resp *speechpb.StreamingRecognizeResponse) Response {
	out := Response{Results: make([]Result, 0, len(resp.Results))}
	for _, result := range resp.Results {
		converted := Result{IsFinal: result.IsFinal}
		for _, alt := range result.Alternatives {
			converted.Alternatives = append(
				converted.Alternatives,
				Alternative{Transcript: alt.Transcript},
			)
		}
		out.Results = append(out.Results, converted)
	}
	return out
}
