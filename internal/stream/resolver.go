package stream

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrNoPlayableSource is returned when a catalog item offers no usable
// media source at all. This is fatal for the session: there is nothing to
// retry against.
var ErrNoPlayableSource = errors.New("no playable media source")

// Resolve picks a stream from the server's candidates under the given
// policy and stamps it with a fresh play session id.
//
// ForceDirectPlay selects a direct-play-capable source unconditionally when
// one exists; the bitrate ceiling does not apply to direct play. Otherwise
// the highest-bitrate source within the ceiling wins, preferring direct
// play on ties, and when nothing fits the ceiling the lowest transcoded
// bitrate is used rather than failing outright.
func Resolve(candidates []Candidate, policy Policy) (*Descriptor, error) {
	if len(candidates) == 0 {
		return nil, ErrNoPlayableSource
	}

	if policy.ForceDirectPlay {
		if direct, ok := lo.Find(candidates, func(c Candidate) bool { return c.SupportsDirectPlay }); ok {
			return describe(direct, true), nil
		}
	}

	qualifying := lo.Filter(candidates, func(c Candidate, _ int) bool {
		return policy.MaxBitrate <= 0 || c.Bitrate <= policy.MaxBitrate
	})

	if len(qualifying) > 0 {
		best := lo.MaxBy(qualifying, func(a, b Candidate) bool {
			if a.Bitrate != b.Bitrate {
				return a.Bitrate > b.Bitrate
			}
			return a.SupportsDirectPlay && !b.SupportsDirectPlay
		})
		return describe(best, best.SupportsDirectPlay), nil
	}

	// Nothing fits the ceiling: take the cheapest transcode the server has.
	transcodable := lo.Filter(candidates, func(c Candidate, _ int) bool { return c.TranscodeURL != "" })
	if len(transcodable) == 0 {
		return nil, ErrNoPlayableSource
	}
	lowest := lo.MinBy(transcodable, func(a, b Candidate) bool { return a.Bitrate < b.Bitrate })
	return describe(lowest, false), nil
}

// describe builds the immutable descriptor for a chosen candidate. Each
// resolution mints a new play session id; ids are never reused across
// starts or quality changes.
func describe(c Candidate, direct bool) *Descriptor {
	streamURL := c.TranscodeURL
	if direct {
		streamURL = c.DirectURL
	}
	if streamURL == "" {
		// A direct-capable source without a direct URL still has to play.
		streamURL = c.TranscodeURL
		direct = false
	}

	sessionID := uuid.NewString()
	return &Descriptor{
		SourceID:      c.SourceID,
		DirectPlay:    direct,
		URL:           withPlaySession(streamURL, sessionID),
		Container:     c.Container,
		VideoCodec:    c.VideoCodec,
		AudioCodec:    c.AudioCodec,
		Bitrate:       c.Bitrate,
		PlaySessionID: sessionID,
	}
}

// withPlaySession appends the PlaySessionId query parameter so the server
// can associate the stream with its progress reports.
func withPlaySession(rawURL, sessionID string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Fall back to naive concatenation for URLs the stdlib rejects.
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return fmt.Sprintf("%s%sPlaySessionId=%s", rawURL, sep, sessionID)
	}
	q := u.Query()
	q.Set("PlaySessionId", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}
