// Package stream selects a playable stream for a catalog item and talks to
// the server's playback-info endpoints. Selection is pure; the client is
// the only part that touches the network.
package stream

// Descriptor describes one playable stream. Immutable once created: a
// quality change produces a new Descriptor with a new PlaySessionID, never
// a mutation, because the server correlates progress reports and tears down
// stale transcode jobs by that id.
type Descriptor struct {
	SourceID      string
	DirectPlay    bool
	URL           string
	Container     string
	VideoCodec    string
	AudioCodec    string
	Bitrate       int64
	PlaySessionID string
}

// Candidate is one server-offered media source the resolver chooses from.
type Candidate struct {
	SourceID           string
	SupportsDirectPlay bool
	Container          string
	VideoCodec         string
	AudioCodec         string
	Bitrate            int64
	DirectURL          string
	TranscodeURL       string
}

// Policy carries the client-side constraints applied during resolution.
// MaxBitrate of zero means unconstrained.
type Policy struct {
	MaxBitrate      int64
	ForceDirectPlay bool
}
