package domain

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalResolution is the vertical resolution that marks a release as
// complete enough to notify on. The upstream feed re-emits the same logical
// release as more resolutions become available; anything below this is an
// intermediate emission.
const CanonicalResolution uint16 = 1080

// Episode identifies a single episode release.
//
// Decimal and Version are nil when the wire carried 0, Extra is nil when the
// wire carried an empty string. Whether 0/"" are legitimate values or always
// mean "absent" is an upstream protocol ambiguity; the coercion lives in the
// wire converter, not here.
type Episode struct {
	Number  uint32
	Decimal *uint32
	Version *uint32
	Extra   *string
}

// Download is one downloadable artifact of a release.
type Download struct {
	PublishedDate time.Time
	Resolution    uint16
	Comments      string
	Torrent       string
	FileName      string
}

// ReleaseEvent is the validated, immutable representation of one upstream
// release emission. Values are constructed once by the wire converter and
// never mutated afterwards.
type ReleaseEvent struct {
	Title     string
	Variant   DownloadVariant
	CreatedAt time.Time
	UpdatedAt time.Time
	Downloads []Download
}

// IsComplete reports whether the release carries at least one download at the
// canonical resolution. A false result is a normal outcome (the release will
// be re-emitted later), not an error.
func (e ReleaseEvent) IsComplete() bool {
	for _, d := range e.Downloads {
		if d.Resolution == CanonicalResolution {
			return true
		}
	}
	return false
}

// DownloadVariant is a closed sum: Batch, EpisodeVariant, or Movie.
// The unexported method keeps the set of implementations sealed so type
// switches over variants stay exhaustive.
type DownloadVariant interface {
	fmt.Stringer
	isDownloadVariant()
}

// Batch is an inclusive episode range (Start <= End).
type Batch struct {
	Start uint32
	End   uint32
}

// EpisodeVariant wraps a single-episode release.
type EpisodeVariant struct {
	Episode Episode
}

// Movie carries no payload.
type Movie struct{}

func (Batch) isDownloadVariant()          {}
func (EpisodeVariant) isDownloadVariant() {}
func (Movie) isDownloadVariant()          {}

func (b Batch) String() string {
	return fmt.Sprintf("[Batch (%d-%d)]", b.Start, b.End)
}

func (v EpisodeVariant) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Ep %d", v.Episode.Number)
	if v.Episode.Decimal != nil {
		fmt.Fprintf(&sb, ".%d", *v.Episode.Decimal)
	}
	if v.Episode.Version != nil {
		fmt.Fprintf(&sb, "v%d", *v.Episode.Version)
	}
	if v.Episode.Extra != nil {
		sb.WriteString(*v.Episode.Extra)
	}
	sb.WriteString("]")
	return sb.String()
}

func (Movie) String() string { return "[Movie]" }
