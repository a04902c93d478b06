// Package transcript parses podcast transcripts and maps playback
// positions to lines for synchronized scrolling.
package transcript

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line is a single transcript line, optionally timestamped and
// attributed to a speaker.
type Line struct {
	Time    time.Duration // -1 duration means unsynced
	Speaker string
	Text    string
}

// Transcript contains parsed transcript lines.
type Transcript struct {
	Lines []Line
	// synced is true when every line carried a timestamp.
	synced bool
}

// IsSynced reports whether lines carry usable timestamps.
func (tr *Transcript) IsSynced() bool {
	return tr.synced && len(tr.Lines) > 0
}

// LineAt returns the index of the line active at the given playback
// position, or -1 if no line is active yet or the transcript is
// unsynced.
func (tr *Transcript) LineAt(pos time.Duration) int {
	if !tr.IsSynced() {
		return -1
	}

	// Last line that starts at or before pos
	idx := -1
	for i, line := range tr.Lines {
		if line.Time <= pos {
			idx = i
		} else {
			break
		}
	}
	return idx
}

var (
	// Matches timestamps like [00:12.34] or [00:12] or [1:02:12]
	timestampRe = regexp.MustCompile(`^\[(?:(\d+):)?(\d+):(\d+)(?:\.(\d+))?\]`)

	// Matches a leading speaker label like "HOST:" or "Guest 1:"
	speakerRe = regexp.MustCompile(`^([A-Za-z][\w ]{0,24}):\s+`)
)

// Parse reads a transcript from r. Lines beginning with a [MM:SS]
// timestamp are synced; a transcript with any untimestamped content
// line degrades to unsynced plain text.
func Parse(r io.Reader) (*Transcript, error) {
	tr := &Transcript{synced: true}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		line := Line{Time: -1}
		if m := timestampRe.FindStringSubmatch(raw); m != nil {
			line.Time = parseTimestamp(m)
			raw = strings.TrimSpace(raw[len(m[0]):])
		} else {
			tr.synced = false
		}

		if m := speakerRe.FindStringSubmatch(raw); m != nil {
			line.Speaker = strings.TrimSpace(m[1])
			raw = raw[len(m[0]):]
		}

		line.Text = raw
		tr.Lines = append(tr.Lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if tr.synced {
		sort.SliceStable(tr.Lines, func(i, j int) bool {
			return tr.Lines[i].Time < tr.Lines[j].Time
		})
	}

	return tr, nil
}

// ParseString parses a transcript held in memory, the common case when
// the backend inlines transcript text on the episode.
func ParseString(s string) (*Transcript, error) {
	return Parse(strings.NewReader(s))
}

func parseTimestamp(m []string) time.Duration {
	var d time.Duration
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		d += time.Duration(h) * time.Hour
	}
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	d += time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second

	if m[4] != "" {
		// Fractional seconds, two digits typical
		frac, _ := strconv.Atoi(m[4])
		switch len(m[4]) {
		case 1:
			d += time.Duration(frac) * 100 * time.Millisecond
		case 2:
			d += time.Duration(frac) * 10 * time.Millisecond
		default:
			d += time.Duration(frac) * time.Millisecond
		}
	}
	return d
}
