package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Backend is the streaming-backend contract the playback engine consumes.
type Backend interface {
	ResolvePlaybackInfo(ctx context.Context, itemID string, policy Policy) ([]Candidate, error)
	FetchCaptionDocument(ctx context.Context, itemID string, trackIndex int) (string, error)
}

// ClientConfig holds configuration for the streaming backend client.
type ClientConfig struct {
	BaseURL   string
	Token     string
	UserID    string
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// Client talks to a Jellyfin-compatible server's playback-info and
// subtitle-delivery endpoints.
type Client struct {
	resty   *resty.Client
	baseURL string
	userID  string
	logger  *slog.Logger
}

// NewClient creates a streaming backend client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
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
		SetHeader("Accept", "application/json").
		SetHeader("X-Emby-Token", cfg.Token)

	return &Client{resty: rc, baseURL: cfg.BaseURL, userID: cfg.UserID, logger: cfg.Logger}
}

type playbackInfoResponse struct {
	MediaSources []mediaSourceDTO `json:"MediaSources"`
}

type mediaSourceDTO struct {
	ID                  string           `json:"Id"`
	Container           string           `json:"Container"`
	Bitrate             int64            `json:"Bitrate"`
	SupportsDirectPlay  bool             `json:"SupportsDirectPlay"`
	TranscodingURL      string           `json:"TranscodingUrl"`
	MediaStreams        []mediaStreamDTO `json:"MediaStreams"`
}

type mediaStreamDTO struct {
	Type  string `json:"Type"`
	Codec string `json:"Codec"`
}

// ResolvePlaybackInfo asks the server which media sources can satisfy the
// client constraints and maps them into resolver candidates.
func (c *Client) ResolvePlaybackInfo(ctx context.Context, itemID string, policy Policy) ([]Candidate, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetQueryParam("UserId", c.userID)
	if policy.MaxBitrate > 0 {
		req.SetQueryParam("MaxStreamingBitrate", strconv.FormatInt(policy.MaxBitrate, 10))
	}

	var info playbackInfoResponse
	resp, err := req.SetResult(&info).Post(fmt.Sprintf("/Items/%s/PlaybackInfo", itemID))
	if err != nil {
		return nil, fmt.Errorf("playback info for %s: %w", itemID, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("playback info for %s: HTTP %d", itemID, resp.StatusCode())
	}

	candidates := make([]Candidate, 0, len(info.MediaSources))
	for _, src := range info.MediaSources {
		cand := Candidate{
			SourceID:           src.ID,
			SupportsDirectPlay: src.SupportsDirectPlay,
			Container:          src.Container,
			Bitrate:            src.Bitrate,
		}
		for _, s := range src.MediaStreams {
			switch s.Type {
			case "Video":
				if cand.VideoCodec == "" {
					cand.VideoCodec = s.Codec
				}
			case "Audio":
				if cand.AudioCodec == "" {
					cand.AudioCodec = s.Codec
				}
			}
		}
		if src.SupportsDirectPlay {
			cand.DirectURL = fmt.Sprintf("%s/Videos/%s/stream?static=true&MediaSourceId=%s", c.baseURL, itemID, src.ID)
		}
		if src.TranscodingURL != "" {
			cand.TranscodeURL = c.baseURL + src.TranscodingURL
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// FetchCaptionDocument downloads the caption document for an external
// track. Callers treat failures as best-effort: playback continues without
// captions.
func (c *Client) FetchCaptionDocument(ctx context.Context, itemID string, trackIndex int) (string, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		Get(fmt.Sprintf("/Videos/%s/%s/Subtitles/%d/Stream.vtt", itemID, itemID, trackIndex))
	if err != nil {
		return "", fmt.Errorf("fetch captions for %s track %d: %w", itemID, trackIndex, err)
	}
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("fetch captions for %s track %d: HTTP %d", itemID, trackIndex, resp.StatusCode())
	}
	return resp.String(), nil
}
