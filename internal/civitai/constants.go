package civitai

// Civitai endpoints and the fixed pieces of its CDN URL scheme.
const (
	APIBase      = "https://civitai.com/api/v1/images"
	ImageAPIBase = "https://image.civitai.com"

	// CdnID is the shared account segment present in every media URL.
	CdnID = "xG1nkqKTMzGDvpLrqFT7WA"

	// VideoParams requests the original-quality video rendition.
	VideoParams = "original-video=true,quality=100"

	UserAgent = "CivitaiFetcher/2.0"

	// PageLimit is the maximum item count the images endpoint accepts.
	PageLimit = 100
)
