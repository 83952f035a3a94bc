package sniff

import (
	"bytes"
	"io"
	"os"
)

// headerSize is how much of the file is inspected. Every supported
// signature fits well within the first 512 bytes.
const headerSize = 512

// Media kinds as reported by Detect.
const (
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"
)

// Result describes what the leading bytes of a file actually are,
// independent of its filename.
type Result struct {
	Kind   string
	Format string
	Ext    string
}

type signature struct {
	magic []byte
	res   Result
}

// Flat signature table, checked in declared order; first match wins.
// More specific multi-byte magics come before any prefix-colliding
// shorter ones. Container envelopes (RIFF, ISO-BMFF) are handled
// separately because their outer bytes do not identify the inner format.
var signatures = []signature{
	{[]byte{0xff, 0xd8, 0xff}, Result{KindImage, "JPEG", ".jpg"}},
	{[]byte("\x89PNG\r\n\x1a\n"), Result{KindImage, "PNG", ".png"}},
	{[]byte("GIF87a"), Result{KindImage, "GIF", ".gif"}},
	{[]byte("GIF89a"), Result{KindImage, "GIF", ".gif"}},
	{[]byte("BM"), Result{KindImage, "BMP", ".bmp"}},
	{[]byte("II*\x00"), Result{KindImage, "TIFF", ".tiff"}},
	{[]byte("MM\x00*"), Result{KindImage, "TIFF", ".tiff"}},
	{[]byte{0x00, 0x00, 0x01, 0x00}, Result{KindImage, "ICO", ".ico"}},
	{[]byte{0xff, 0xfb}, Result{KindAudio, "MP3", ".mp3"}},
	{[]byte("ID3"), Result{KindAudio, "MP3", ".mp3"}},
	{[]byte{0x1a, 0x45, 0xdf, 0xa3}, Result{KindVideo, "WebM/MKV", ".webm"}},
	{[]byte("ftypisom"), Result{KindVideo, "MP4", ".mp4"}},
	{[]byte("ftypmp42"), Result{KindVideo, "MP4", ".mp4"}},
	{[]byte("ftypqt\x00"), Result{KindVideo, "MOV", ".mov"}},
	{[]byte("fLaC"), Result{KindAudio, "FLAC", ".flac"}},
	{[]byte("OggS"), Result{KindAudio, "OGG", ".ogg"}},
	{[]byte("\x00\x00\x00 ftypheic"), Result{KindImage, "HEIC", ".heic"}},
}

// RIFF container subtypes, identified by the tag at offset 8.
var riffSignatures = map[string]Result{
	"WAVE": {KindAudio, "WAV", ".wav"},
	"AVI ": {KindVideo, "AVI", ".avi"},
	"WEBP": {KindImage, "WebP", ".webp"},
}

// Detect sniffs the leading bytes of the file at path. ok is false when
// the format cannot be determined; callers must treat that as "unknown",
// never as "invalid".
func Detect(path string) (Result, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, false
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Result{}, false
	}

	return DetectBytes(header[:n])
}

// DetectBytes runs the same detection on an in-memory header.
func DetectBytes(header []byte) (Result, bool) {
	if len(header) == 0 {
		return Result{}, false
	}

	if bytes.HasPrefix(header, []byte("RIFF")) && len(header) > 12 {
		if res, ok := riffSignatures[string(header[8:12])]; ok {
			return res, true
		}
	}

	if len(header) > 8 && bytes.Equal(header[4:8], []byte("ftyp")) {
		brand := header[8:]
		if len(brand) > 4 {
			brand = brand[:4]
		}
		switch {
		case bytes.HasPrefix(brand, []byte("isom")), bytes.HasPrefix(brand, []byte("mp4")):
			return Result{KindVideo, "MP4", ".mp4"}, true
		case bytes.HasPrefix(brand, []byte("qt")):
			return Result{KindVideo, "MOV", ".mov"}, true
		case bytes.HasPrefix(brand, []byte("heic")), bytes.HasPrefix(brand, []byte("heix")),
			bytes.HasPrefix(brand, []byte("hevc")):
			return Result{KindImage, "HEIC", ".heic"}, true
		}
	}

	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.res, true
		}
	}

	return Result{}, false
}
