// Package reader turns a page of text plus tagged word positions into the
// ordered text/highlight segments the reading UI displays.
//
// Offsets are UTF-16 code units end-to-end: the tagging editor computes spans
// with UTF-16 indexing, so the renderer slices page content the same way.
// Rendering is a pure computation with no I/O and no shared state; it is safe
// to run concurrently for any number of pages and users.
package reader

import (
	"errors"
	"log"
	"sort"
	"unicode/utf16"

	"github.com/ketabyar/ketabyar/internal/entities"
)

var (
	ErrInvalidSpan     = errors.New("span start must be before end")
	ErrSpanOutOfBounds = errors.New("span exceeds content bounds")
	ErrSpanOverlap     = errors.New("span overlaps an existing position")
)

type SegmentKind string

const (
	SegmentText      SegmentKind = "text"
	SegmentHighlight SegmentKind = "highlight"
)

// Segment is a contiguous run of page text, either plain or carrying a
// vocabulary reference.
type Segment struct {
	Kind          SegmentKind `json:"kind"`
	Text          string      `json:"text"`
	WordID        uint        `json:"word_id,omitempty"`
	ExplanationID uint        `json:"explanation_id,omitempty"`
}

// Position is a highlightable span as fed to the renderer. Level is the
// difficulty of the linked explanation, used for visibility filtering.
type Position struct {
	StartOffset   int
	EndOffset     int
	WordID        uint
	ExplanationID uint
	Level         entities.Level
}

// EffectiveLevel validates a requester level, falling back to beginner for
// unknown values. The fallback is logged but not an error: a bad profile
// value must never block reading.
func EffectiveLevel(l entities.Level) entities.Level {
	if l.IsValid() {
		return l
	}
	log.Printf("WARNING: unknown reading level %q, falling back to %s", l, entities.LevelBeginner)
	return entities.LevelBeginner
}

// ValidateSpan checks a span against the page content length (in UTF-16 code
// units). Used at ingestion time and again defensively at render time.
func ValidateSpan(start, end, contentLen int) error {
	if start < 0 || start >= end {
		return ErrInvalidSpan
	}
	if end > contentLen {
		return ErrSpanOutOfBounds
	}
	return nil
}

// Render produces the display segments for one page.
//
// Positions whose explanation level is above the requester's visible set are
// left as plain text. Individually invalid spans are dropped (logged) without
// failing the page. Overlapping spans are clipped to start at the current
// cursor; a span fully covered by its predecessor is dropped. Under this
// policy the concatenation of all segment texts always equals content.
func Render(content string, positions []Position, requesterLevel entities.Level) []Segment {
	units := utf16.Encode([]rune(content))
	level := EffectiveLevel(requesterLevel)

	visible := make([]Position, 0, len(positions))
	for _, p := range positions {
		if !level.Covers(p.Level) {
			continue
		}
		if err := ValidateSpan(p.StartOffset, p.EndOffset, len(units)); err != nil {
			log.Printf("WARNING: dropping word position (word=%d explanation=%d span=[%d,%d)): %v",
				p.WordID, p.ExplanationID, p.StartOffset, p.EndOffset, err)
			continue
		}
		visible = append(visible, p)
	}

	// Stable: equal start offsets keep ingestion order, the later span is
	// then clipped against the earlier one.
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].StartOffset < visible[j].StartOffset
	})

	segments := make([]Segment, 0, 2*len(visible)+1)
	cursor := 0
	for _, p := range visible {
		start := p.StartOffset
		if start < cursor {
			start = cursor
		}
		if start >= p.EndOffset {
			// Fully covered by the previous span.
			continue
		}
		if start > cursor {
			segments = append(segments, Segment{
				Kind: SegmentText,
				Text: sliceUTF16(units, cursor, start),
			})
		}
		segments = append(segments, Segment{
			Kind:          SegmentHighlight,
			Text:          sliceUTF16(units, start, p.EndOffset),
			WordID:        p.WordID,
			ExplanationID: p.ExplanationID,
		})
		cursor = p.EndOffset
	}
	if cursor < len(units) {
		segments = append(segments, Segment{
			Kind: SegmentText,
			Text: sliceUTF16(units, cursor, len(units)),
		})
	}
	return segments
}

// ContentLength returns the length of a page in UTF-16 code units, the unit
// word position offsets are expressed in.
func ContentLength(content string) int {
	return len(utf16.Encode([]rune(content)))
}

func sliceUTF16(units []uint16, start, end int) string {
	return string(utf16.Decode(units[start:end]))
}
