package captions

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// timingRe matches a cue timing line: "start --> end" with optional
// positioning tokens after the end timestamp. Timestamps are
// [[HH:]MM:]SS.mmm; a two-field timestamp implies zero hours.
var timingRe = regexp.MustCompile(`^((?:\d{1,2}:)?\d{1,2}:\d{1,2}[.,]\d{1,3})\s*-->\s*((?:\d{1,2}:)?\d{1,2}:\d{1,2}[.,]\d{1,3})(?:\s+\S.*)?$`)

// markupRe matches inline markup tags (<i>, <c.classname>, <00:00:01.000>, ...).
var markupRe = regexp.MustCompile(`<[^>]*>`)

// Parse extracts cues from a caption document. The result is ordered by
// start time and every cue satisfies Start < End. Malformed input degrades
// to fewer cues: an unparseable timing line skips its group and the scanner
// resynchronizes at the next blank line. Parse never fails.
func Parse(doc string) []Cue {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")

	var cues []Cue
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		// Only a timing line opens a cue group. Headers, NOTE blocks and
		// bare cue identifiers fall through until the next candidate.
		if !strings.Contains(line, "-->") {
			i++
			continue
		}

		start, end, ok := parseTiming(line)
		if !ok || start >= end {
			// Bad timing line: resynchronize at the next blank line.
			for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
				i++
			}
			continue
		}

		// Collect the text lines of the group, terminated by a blank line
		// or end of input. Markup is stripped, newlines within the cue kept.
		i++
		var text []string
		for i < len(lines) {
			raw := strings.TrimSpace(lines[i])
			if raw == "" {
				break
			}
			cleaned := strings.TrimSpace(markupRe.ReplaceAllString(raw, ""))
			if cleaned != "" {
				text = append(text, cleaned)
			}
			i++
		}

		// Cues with no non-empty text line are dropped.
		if len(text) > 0 {
			cues = append(cues, Cue{Start: start, End: end, Text: strings.Join(text, "\n")})
		}
	}

	sort.SliceStable(cues, func(a, b int) bool { return cues[a].Start < cues[b].Start })
	return cues
}

// parseTiming parses a timing line into start and end seconds.
func parseTiming(line string) (start, end float64, ok bool) {
	m := timingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	start, ok = parseTimestamp(m[1])
	if !ok {
		return 0, 0, false
	}
	end, ok = parseTimestamp(m[2])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// parseTimestamp parses "[[HH:]MM:]SS.mmm" into seconds. Some tools emit a
// comma as the millisecond separator; both are accepted.
func parseTimestamp(ts string) (float64, bool) {
	ts = strings.ReplaceAll(ts, ",", ".")
	fields := strings.Split(ts, ":")

	var hours, minutes int64
	var err error
	switch len(fields) {
	case 2:
		minutes, err = strconv.ParseInt(fields[0], 10, 64)
	case 3:
		hours, err = strconv.ParseInt(fields[0], 10, 64)
		if err == nil {
			minutes, err = strconv.ParseInt(fields[1], 10, 64)
		}
	default:
		return 0, false
	}
	if err != nil {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil || seconds < 0 || minutes < 0 || hours < 0 {
		return 0, false
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}
