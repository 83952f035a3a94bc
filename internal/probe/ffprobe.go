package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

// ErrNoInfo reports that ffprobe ran but the output carried no usable
// video stream information.
var ErrNoInfo = errors.New("no usable video stream info")

// DefaultTimeout bounds a single probe invocation.
const DefaultTimeout = 10 * time.Second

// FFProbe shells out to ffprobe for stream metadata. It requests
// duration, frame rate, frame count and codec in a single call and
// never counts frames, keeping probes fast on large files.
type FFProbe struct {
	Path    string
	Timeout time.Duration
}

// compile-time check
var _ port.Prober = (*FFProbe)(nil)

// NewFFProbe returns a prober using the given binary, or "ffprobe"
// from PATH when empty.
func NewFFProbe(path string) *FFProbe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFProbe{Path: path, Timeout: DefaultTimeout}
}

type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	Duration   string `json:"duration"`
	RFrameRate string `json:"r_frame_rate"`
	NbFrames   string `json:"nb_frames"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

// Probe runs ffprobe against the file's first video stream. Frames are
// taken from nb_frames when reported, else estimated as duration x fps.
// A missing duration is only tolerated for vp9, whose containers often
// omit it while the stream is still decodable.
func (p *FFProbe) Probe(ctx context.Context, path string) (port.MediaProbe, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, p.Path,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=duration,r_frame_rate,nb_frames,codec_name",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return port.MediaProbe{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseStreamInfo(out)
}

func parseStreamInfo(raw []byte) (port.MediaProbe, error) {
	var decoded ffprobeOutput
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return port.MediaProbe{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(decoded.Streams) == 0 {
		return port.MediaProbe{}, ErrNoInfo
	}
	stream := decoded.Streams[0]

	codec := strings.ToLower(stream.CodecName)
	if codec == "" {
		codec = "unknown"
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		if codec == "vp9" {
			return port.MediaProbe{Frames: 0, Duration: 0, Codec: codec}, nil
		}
		return port.MediaProbe{}, ErrNoInfo
	}

	if stream.NbFrames != "" {
		if frames, err := strconv.Atoi(stream.NbFrames); err == nil {
			return port.MediaProbe{Frames: frames, Duration: duration, Codec: codec}, nil
		}
	}

	return port.MediaProbe{
		Frames:   int(duration * parseFrameRate(stream.RFrameRate)),
		Duration: duration,
		Codec:    codec,
	}, nil
}

// parseFrameRate reads ffprobe's fractional frame rate ("30000/1001").
// A zero denominator or unparseable value yields 0.
func parseFrameRate(s string) float64 {
	if s == "" {
		return 0
	}
	num, den, found := strings.Cut(s, "/")
	if !found {
		fps, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return fps
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
