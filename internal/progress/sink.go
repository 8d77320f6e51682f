package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// SinkConfig holds configuration for the HTTP progress sink.
type SinkConfig struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// HTTPSink posts reports to a Jellyfin-compatible server's playing
// endpoints.
type HTTPSink struct {
	resty  *resty.Client
	logger *slog.Logger
}

// NewHTTPSink creates a sink for the given server.
func NewHTTPSink(cfg SinkConfig) *HTTPSink {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "halcyon/1.0"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Emby-Token", cfg.Token)

	return &HTTPSink{resty: rc, logger: cfg.Logger}
}

type reportBody struct {
	ItemID        string `json:"ItemId"`
	PlaySessionID string `json:"PlaySessionId"`
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
}

// ReportStart announces the beginning of a play session.
func (s *HTTPSink) ReportStart(ctx context.Context, r Report) error {
	return s.post(ctx, "/Sessions/Playing", r)
}

// ReportProgress sends a position heartbeat.
func (s *HTTPSink) ReportProgress(ctx context.Context, r Report) error {
	return s.post(ctx, "/Sessions/Playing/Progress", r)
}

// ReportStop sends the final report for a play session.
func (s *HTTPSink) ReportStop(ctx context.Context, r Report) error {
	return s.post(ctx, "/Sessions/Playing/Stopped", r)
}

func (s *HTTPSink) post(ctx context.Context, path string, r Report) error {
	resp, err := s.resty.R().
		SetContext(ctx).
		SetBody(reportBody{
			ItemID:        r.ItemID,
			PlaySessionID: r.PlaySessionID,
			PositionTicks: r.PositionTicks,
			IsPaused:      r.IsPaused,
		}).
		Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("POST %s: HTTP %d", path, resp.StatusCode())
	}
	return nil
}
