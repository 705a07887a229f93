package voice

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/pkg/logger"
)

// ErrBadAudio marks uploads rejected before transcription
var ErrBadAudio = errors.New("unsupported readback audio")

// ReadbackResult is the outcome of matching a spoken readback against an
// item's expected response
type ReadbackResult struct {
	Transcript string  `json:"transcript"`
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence"`
}

// Service transcribes spoken checklist readbacks and matches them against
// expected responses
type Service struct {
	client  openai.Client
	matcher *Matcher
	config  *config.VoiceConfig
	logger  *logger.Logger
}

// NewService creates a new voice readback service
func NewService(cfg *config.VoiceConfig, log *logger.Logger) *Service {
	return &Service{
		client:  openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
		matcher: NewMatcher(),
		config:  cfg,
		logger:  log.Named("voice-svc"),
	}
}

// Enabled reports whether voice readback is configured
func (s *Service) Enabled() bool {
	return s.config.Enabled
}

// ProcessReadback transcribes the given audio and matches it against the
// expected response text. A match below the configured confidence floor is
// reported as no match.
func (s *Service) ProcessReadback(ctx context.Context, audio io.Reader, expected string) (*ReadbackResult, error) {
	info, stream, err := InspectWAV(audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadAudio, err)
	}
	s.logger.Debug("Readback audio received",
		logger.Int("sample_rate", info.SampleRate),
		logger.Int("channels", info.Channels),
	)

	transcript, err := s.transcribe(ctx, stream)
	if err != nil {
		return nil, err
	}

	matched, confidence := s.matcher.Match(transcript, expected)
	if matched && confidence < s.config.MinConfidence {
		matched = false
	}

	s.logger.Debug("Readback processed",
		logger.String("transcript", transcript),
		logger.Bool("matched", matched),
		logger.Float64("confidence", confidence),
	)

	return &ReadbackResult{
		Transcript: transcript,
		Matched:    matched,
		Confidence: confidence,
	}, nil
}

// transcribe sends the audio to the transcription API
func (s *Service) transcribe(ctx context.Context, audio io.Reader) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, "readback.wav", "audio/wav"),
		Model: openai.AudioModel(s.config.Model),
	}
	if s.config.Language != "" {
		params.Language = openai.String(s.config.Language)
	}

	resp, err := s.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	return resp.Text, nil
}
