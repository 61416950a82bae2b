package wire

import (
	"errors"
	"fmt"
	"math"
	"time"

	"otakufeed/internal/domain"
)

// Valid range for wire timestamps, matching the well-known protobuf
// Timestamp bounds (0001-01-01T00:00:00Z .. 9999-12-31T23:59:59Z).
const (
	minTimestampSeconds = -62135596800
	maxTimestampSeconds = 253402300799
	maxTimestampNanos   = 999999999
)

// ErrAmbiguousVariant is returned when a message sets more than one arm of
// the variant oneof. Local to one message, like every conversion error.
var ErrAmbiguousVariant = errors.New("more than one variant set")

// MissingFieldError reports a required field absent from the wire message.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

// InvalidTimestampError reports a seconds/nanos pair that does not combine
// into a valid calendar timestamp.
type InvalidTimestampError struct {
	Field   string
	Seconds int64
	Nanos   uint32
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp in %s: seconds=%d nanos=%d", e.Field, e.Seconds, e.Nanos)
}

// OutOfRangeError reports a numeric wire value that does not fit its domain
// field.
type OutOfRangeError struct {
	Field string
	Value uint64
	Max   uint64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s out of range: %d > %d", e.Field, e.Value, e.Max)
}

// InvalidRangeError reports a batch range whose start exceeds its end.
type InvalidRangeError struct {
	Start uint32
	End   uint32
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid batch range: start %d > end %d", e.Start, e.End)
}

// Convert validates a wire message and builds the immutable domain event.
// It has no side effects and is deterministic; a failure discards only the
// one message it describes.
func Convert(msg *ReleaseMessage) (domain.ReleaseEvent, error) {
	variant, err := convertVariant(msg)
	if err != nil {
		return domain.ReleaseEvent{}, err
	}

	if msg.CreatedAt == nil {
		return domain.ReleaseEvent{}, &MissingFieldError{Field: "created_at"}
	}
	createdAt, err := fromTimestamp("created_at", *msg.CreatedAt)
	if err != nil {
		return domain.ReleaseEvent{}, err
	}

	if msg.UpdatedAt == nil {
		return domain.ReleaseEvent{}, &MissingFieldError{Field: "updated_at"}
	}
	updatedAt, err := fromTimestamp("updated_at", *msg.UpdatedAt)
	if err != nil {
		return domain.ReleaseEvent{}, err
	}

	downloads := make([]domain.Download, 0, len(msg.Downloads))
	for _, d := range msg.Downloads {
		dl, err := convertDownload(d)
		if err != nil {
			return domain.ReleaseEvent{}, err
		}
		downloads = append(downloads, dl)
	}

	return domain.ReleaseEvent{
		Title:     msg.Title,
		Variant:   variant,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Downloads: downloads,
	}, nil
}

func convertVariant(msg *ReleaseMessage) (domain.DownloadVariant, error) {
	set := 0
	if msg.Batch != nil {
		set++
	}
	if msg.Episode != nil {
		set++
	}
	if msg.Movie != nil {
		set++
	}
	switch {
	case set == 0:
		return nil, &MissingFieldError{Field: "variant"}
	case set > 1:
		return nil, ErrAmbiguousVariant
	}

	switch {
	case msg.Batch != nil:
		if msg.Batch.Start > msg.Batch.End {
			return nil, &InvalidRangeError{Start: msg.Batch.Start, End: msg.Batch.End}
		}
		return domain.Batch{Start: msg.Batch.Start, End: msg.Batch.End}, nil
	case msg.Episode != nil:
		return domain.EpisodeVariant{Episode: domain.Episode{
			Number:  msg.Episode.Number,
			Decimal: zeroAsAbsent(msg.Episode.Decimal),
			Version: zeroAsAbsent(msg.Episode.Version),
			Extra:   emptyAsAbsent(msg.Episode.Extra),
		}}, nil
	default:
		return domain.Movie{}, nil
	}
}

func convertDownload(d DownloadMessage) (domain.Download, error) {
	if d.PublishedDate == nil {
		return domain.Download{}, &MissingFieldError{Field: "published_date"}
	}
	published, err := fromTimestamp("published_date", *d.PublishedDate)
	if err != nil {
		return domain.Download{}, err
	}
	if d.Resolution > math.MaxUint16 {
		return domain.Download{}, &OutOfRangeError{
			Field: "resolution",
			Value: uint64(d.Resolution),
			Max:   math.MaxUint16,
		}
	}
	return domain.Download{
		PublishedDate: published,
		Resolution:    uint16(d.Resolution),
		Comments:      d.Comments,
		Torrent:       d.Torrent,
		FileName:      d.FileName,
	}, nil
}

func fromTimestamp(field string, ts Timestamp) (time.Time, error) {
	if ts.Nanos > maxTimestampNanos || ts.Seconds < minTimestampSeconds || ts.Seconds > maxTimestampSeconds {
		return time.Time{}, &InvalidTimestampError{Field: field, Seconds: ts.Seconds, Nanos: ts.Nanos}
	}
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC(), nil
}

// zeroAsAbsent maps the wire's 0 to nil. The upstream protocol does not
// distinguish "0" from "not set"; keep the coercion named and in one place.
func zeroAsAbsent(v uint32) *uint32 {
	if v == 0 {
		return nil
	}
	return &v
}

// emptyAsAbsent maps the wire's "" to nil, same ambiguity as zeroAsAbsent.
func emptyAsAbsent(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
