// Package wire holds the upstream feed's message schema and the conversion
// into domain values. Conversion is pure: the same message always yields the
// same ReleaseEvent or the same typed error.
package wire

// Timestamp mirrors the upstream seconds/nanos pair.
type Timestamp struct {
	Seconds int64  `json:"seconds"`
	Nanos   uint32 `json:"nanos"`
}

// BatchMessage is the batch arm of the variant oneof (inclusive range).
type BatchMessage struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// EpisodeMessage is the episode arm of the variant oneof. Zero decimal and
// version and an empty extra mean "absent" on the wire.
type EpisodeMessage struct {
	Number  uint32 `json:"number"`
	Decimal uint32 `json:"decimal"`
	Version uint32 `json:"version"`
	Extra   string `json:"extra"`
}

// MovieMessage is the payload-free movie arm of the variant oneof.
type MovieMessage struct{}

// DownloadMessage is one artifact entry of a release message.
type DownloadMessage struct {
	PublishedDate *Timestamp `json:"published_date"`
	Resolution    uint32     `json:"resolution"`
	Comments      string     `json:"comments"`
	Torrent       string     `json:"torrent"`
	FileName      string     `json:"file_name"`
}

// ReleaseMessage is one pushed feed message. Exactly one of Batch, Episode,
// or Movie must be set (the variant oneof); the JSON stream renders the
// unset arms as absent keys.
type ReleaseMessage struct {
	Title     string            `json:"title"`
	Batch     *BatchMessage     `json:"batch,omitempty"`
	Episode   *EpisodeMessage   `json:"episode,omitempty"`
	Movie     *MovieMessage     `json:"movie,omitempty"`
	CreatedAt *Timestamp        `json:"created_at"`
	UpdatedAt *Timestamp        `json:"updated_at"`
	Downloads []DownloadMessage `json:"downloads"`
}
