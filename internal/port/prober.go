package port

import "context"

// MediaProbe carries what the decode probe reports about a file's
// primary video stream.
type MediaProbe struct {
	Frames   int
	Duration float64
	Codec    string
}

// Prober inspects the primary video stream of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (MediaProbe, error)
}
