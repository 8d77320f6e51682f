package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Service is the catalog contract the playback engine consumes.
type Service interface {
	GetItem(ctx context.Context, id string) (*Item, error)
	GetNextUp(ctx context.Context, seriesID string) (*Item, error)
	GetEpisodesInSeason(ctx context.Context, seriesID string, seasonNumber int) ([]*Item, error)
}

// ClientConfig holds configuration for the catalog client.
type ClientConfig struct {
	BaseURL   string
	Token     string
	UserID    string
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// Client talks to a Jellyfin-compatible server's item endpoints.
type Client struct {
	resty  *resty.Client
	userID string
	logger *slog.Logger
}

// NewClient creates a catalog client for the given server.
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

	return &Client{resty: rc, userID: cfg.UserID, logger: cfg.Logger}
}

// itemDTO mirrors the wire shape of a server item, reduced to the fields
// the engine reads.
type itemDTO struct {
	ID                string          `json:"Id"`
	Name              string          `json:"Name"`
	Type              string          `json:"Type"`
	RunTimeTicks      int64           `json:"RunTimeTicks"`
	SeriesID          string          `json:"SeriesId"`
	SeriesName        string          `json:"SeriesName"`
	ParentIndexNumber int             `json:"ParentIndexNumber"`
	IndexNumber       int             `json:"IndexNumber"`
	UserData          *userDataDTO    `json:"UserData"`
	MediaStreams      []mediaStream   `json:"MediaStreams"`
	MediaSegments     []segmentDTO    `json:"MediaSegments"`
}

type userDataDTO struct {
	PlaybackPositionTicks int64 `json:"PlaybackPositionTicks"`
	Played                bool  `json:"Played"`
}

type mediaStream struct {
	Index      int    `json:"Index"`
	Type       string `json:"Type"`
	Codec      string `json:"Codec"`
	Language   string `json:"Language"`
	Title      string `json:"Title"`
	IsExternal bool   `json:"IsExternal"`
}

type segmentDTO struct {
	ID         string `json:"Id"`
	Type       string `json:"Type"`
	StartTicks int64  `json:"StartTicks"`
	EndTicks   int64  `json:"EndTicks"`
}

type itemsPage struct {
	Items []itemDTO `json:"Items"`
}

type segmentsPage struct {
	Items []segmentDTO `json:"Items"`
}

// GetItem fetches one catalog item, including its caption track list and
// skippable segment windows.
func (c *Client) GetItem(ctx context.Context, id string) (*Item, error) {
	var dto itemDTO
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&dto).
		Get(fmt.Sprintf("/Users/%s/Items/%s", c.userID, id))
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("get item %s: HTTP %d", id, resp.StatusCode())
	}

	item := c.mapItem(dto)

	// Segment windows live on a separate endpoint; their absence is not an
	// error, the session simply has nothing to skip.
	if len(item.Segments) == 0 {
		if segs, err := c.fetchSegments(ctx, id); err != nil {
			c.logger.Warn("media segment lookup failed", "item", id, "error", err)
		} else {
			item.Segments = segs
		}
	}

	return item, nil
}

// GetNextUp resolves the next unwatched episode in a series. Returns
// (nil, nil) when the series has nothing left to offer.
func (c *Client) GetNextUp(ctx context.Context, seriesID string) (*Item, error) {
	var page itemsPage
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"SeriesId": seriesID,
			"UserId":   c.userID,
			"Limit":    "1",
		}).
		SetResult(&page).
		Get("/Shows/NextUp")
	if err != nil {
		return nil, fmt.Errorf("next up for series %s: %w", seriesID, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("next up for series %s: HTTP %d", seriesID, resp.StatusCode())
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return c.mapItem(page.Items[0]), nil
}

// GetEpisodesInSeason lists a season's episodes in episode order.
func (c *Client) GetEpisodesInSeason(ctx context.Context, seriesID string, seasonNumber int) ([]*Item, error) {
	var page itemsPage
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"SeasonNumber": strconv.Itoa(seasonNumber),
			"UserId":       c.userID,
		}).
		SetResult(&page).
		Get(fmt.Sprintf("/Shows/%s/Episodes", seriesID))
	if err != nil {
		return nil, fmt.Errorf("episodes for series %s season %d: %w", seriesID, seasonNumber, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("episodes for series %s season %d: HTTP %d", seriesID, seasonNumber, resp.StatusCode())
	}

	items := make([]*Item, 0, len(page.Items))
	for _, dto := range page.Items {
		items = append(items, c.mapItem(dto))
	}
	return items, nil
}

func (c *Client) fetchSegments(ctx context.Context, itemID string) ([]SegmentWindow, error) {
	var page segmentsPage
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&page).
		Get(fmt.Sprintf("/MediaSegments/%s", itemID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	return mapSegments(page.Items), nil
}

func (c *Client) mapItem(dto itemDTO) *Item {
	item := &Item{
		ID:            dto.ID,
		Kind:          Kind(dto.Type),
		Name:          dto.Name,
		RuntimeTicks:  dto.RunTimeTicks,
		SeriesID:      dto.SeriesID,
		SeriesName:    dto.SeriesName,
		SeasonNumber:  dto.ParentIndexNumber,
		EpisodeNumber: dto.IndexNumber,
		Segments:      mapSegments(dto.MediaSegments),
	}
	if dto.UserData != nil {
		item.PositionTicks = dto.UserData.PlaybackPositionTicks
		item.Played = dto.UserData.Played
	}
	for _, s := range dto.MediaStreams {
		if s.Type != "Subtitle" {
			continue
		}
		item.CaptionTracks = append(item.CaptionTracks, CaptionTrack{
			ID:       fmt.Sprintf("%s/%d", dto.ID, s.Index),
			Index:    s.Index,
			Language: s.Language,
			Title:    s.Title,
			External: s.IsExternal,
		})
	}
	return item
}

func mapSegments(dtos []segmentDTO) []SegmentWindow {
	var windows []SegmentWindow
	for _, s := range dtos {
		if s.StartTicks >= s.EndTicks {
			continue
		}
		windows = append(windows, SegmentWindow{
			Type:       SegmentType(s.Type),
			StartTicks: s.StartTicks,
			EndTicks:   s.EndTicks,
		})
	}
	return windows
}
