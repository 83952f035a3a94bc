package civitai

import (
	"net/url"
	"path"
	"strings"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

var unsafeFilenameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// SafeFilenameFromURL extracts the last path segment of a URL and
// sanitises it for filesystem use. URLs without a usable segment fall
// back to "file.bin".
func SafeFilenameFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "" || name == "." || name == "/" {
		name = "file.bin"
	}
	return unsafeFilenameChars.Replace(name)
}

// ExtensionFromURL returns the lowercased extension of a URL's path,
// or ".bin" when it has none.
func ExtensionFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return ".bin"
	}
	return ext
}

// MediaTypeForExtension classifies an extension into the per-creator
// subfolder it belongs to.
func MediaTypeForExtension(ext string, imageExts, videoExts []string) model.MediaType {
	ext = strings.ToLower(ext)
	for _, e := range imageExts {
		if ext == strings.ToLower(e) {
			return model.MediaTypeImages
		}
	}
	for _, e := range videoExts {
		if ext == strings.ToLower(e) {
			return model.MediaTypeVideos
		}
	}
	return model.MediaTypeOther
}

// BuildVideoURL rebuilds the original-quality CDN URL for a video
// purely from its filename; the media id is the stem.
func BuildVideoURL(filename string) string {
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	return ImageAPIBase + "/" + CdnID + "/" + stem + "/" + VideoParams + "/" + stem + ext
}

// CanonicalVideoURL rewrites civitai video URLs to request the
// original-quality rendition. Non-video URLs, URLs not served by
// civitai and URLs that already carry original-quality parameters
// pass through unchanged. The API emits both the original-video=true
// and the original=true spelling; either counts as already canonical
// when paired with quality=100.
func CanonicalVideoURL(rawURL string, videoExts []string) string {
	ext := ExtensionFromURL(rawURL)
	if MediaTypeForExtension(ext, nil, videoExts) != model.MediaTypeVideos {
		return rawURL
	}
	if !strings.Contains(rawURL, "civitai.com") {
		return rawURL
	}
	if (strings.Contains(rawURL, "original-video=true") || strings.Contains(rawURL, "original=true")) &&
		strings.Contains(rawURL, "quality=100") {
		return rawURL
	}
	return BuildVideoURL(SafeFilenameFromURL(rawURL))
}
