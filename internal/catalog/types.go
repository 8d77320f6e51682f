// Package catalog models the media server's item graph and provides the
// read-only catalog client the playback engine consumes. Items are value
// snapshots: the engine copies them into a session and never mutates them.
package catalog

import "github.com/halcyontv/halcyon/pkg/ticks"

// Kind discriminates catalog item types. It is an explicit server-provided
// flag; the engine never infers content kind from library names or paths.
type Kind string

const (
	KindMovie   Kind = "Movie"
	KindEpisode Kind = "Episode"
	KindSeries  Kind = "Series"
	KindVideo   Kind = "Video"
)

// SegmentType names a skippable media segment window.
type SegmentType string

const (
	SegmentIntro   SegmentType = "Intro"
	SegmentCredits SegmentType = "Credits"
	SegmentRecap   SegmentType = "Recap"
	SegmentOther   SegmentType = "Other"
)

// SegmentWindow is a named time window within an item (intro, credits, ...)
// eligible for skipping. StartTicks < EndTicks.
type SegmentWindow struct {
	Type       SegmentType
	StartTicks int64
	EndTicks   int64
}

// Contains reports whether positionTicks falls inside [StartTicks, EndTicks).
func (w SegmentWindow) Contains(positionTicks int64) bool {
	return w.StartTicks <= positionTicks && positionTicks < w.EndTicks
}

// CaptionTrack describes one caption track offered by an item. External
// tracks require a separate fetch of the caption document before parsing;
// embedded tracks are delivered inside the stream and rendered by the
// player itself.
type CaptionTrack struct {
	ID       string
	Index    int
	Language string
	Title    string
	External bool
}

// Item is a catalog item snapshot: the metadata the engine needs to start
// and supervise a playback session. Read-only to the engine.
type Item struct {
	ID   string
	Kind Kind
	Name string

	// RuntimeTicks is the total duration; PositionTicks the prior playback
	// position recorded server-side. Both in server ticks.
	RuntimeTicks  int64
	PositionTicks int64
	Played        bool

	// Series linkage, set for episodes.
	SeriesID      string
	SeriesName    string
	SeasonNumber  int
	EpisodeNumber int

	CaptionTracks []CaptionTrack
	Segments      []SegmentWindow
}

// RuntimeSeconds returns the item duration in seconds.
func (i *Item) RuntimeSeconds() float64 {
	return ticks.ToSeconds(i.RuntimeTicks)
}

// IsEpisode reports whether the item belongs to a series.
func (i *Item) IsEpisode() bool {
	return i.Kind == KindEpisode && i.SeriesID != ""
}
