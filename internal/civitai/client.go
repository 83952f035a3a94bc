package civitai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
	"github.com/Mewyk/CivitaiMediaHoarder/internal/port"
)

// Client talks to the civitai images API and walks its cursor-based
// pagination until a creator's gallery is exhausted.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	backoff    time.Duration
	sink       port.ProgressSink
}

var _ port.CreatorFetcher = (*Client)(nil)

func NewClient(httpClient *http.Client, apiKey string, maxRetries int, backoff time.Duration, sink port.ProgressSink) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    APIBase,
		apiKey:     apiKey,
		maxRetries: maxRetries,
		backoff:    backoff,
		sink:       sink,
	}
}

type pageMetadata struct {
	NextCursor any    `json:"nextCursor"`
	NextPage   string `json:"nextPage"`
}

type apiPage struct {
	Items    []model.MediaItem `json:"items"`
	Metadata pageMetadata      `json:"metadata"`
}

// FetchCreatorItems returns every media item the API lists for a
// creator. Pages are followed via metadata.nextCursor; when only a
// nextPage link is present the page counter advances instead. An empty
// items array ends the walk.
func (c *Client) FetchCreatorItems(ctx context.Context, username string, nsfw bool) ([]model.MediaItem, error) {
	var (
		all    []model.MediaItem
		cursor string
		page   = 1
	)
	for {
		pageURL := c.pageURL(username, nsfw, cursor, page)
		logger.Debugf(ctx, "fetching page %d for %s (cursor=%q)", page, username, cursor)

		resp, err := GetWithRetries(ctx, c.httpClient, pageURL, c.headers(), c.maxRetries, c.backoff)
		if err != nil {
			return nil, fmt.Errorf("fetch items for %s: %w", username, err)
		}
		body, err := decodePage(resp)
		if err != nil {
			return nil, fmt.Errorf("fetch items for %s: %w", username, err)
		}
		if len(body.Items) == 0 {
			break
		}
		all = append(all, body.Items...)
		if c.sink != nil {
			c.sink.FetchProgress(page, len(all))
		}

		next := cursorString(body.Metadata.NextCursor)
		switch {
		case next != "":
			cursor = next
			page++
		case body.Metadata.NextPage != "":
			cursor = ""
			page++
		default:
			return all, nil
		}
	}
	return all, nil
}

func (c *Client) pageURL(username string, nsfw bool, cursor string, page int) string {
	q := url.Values{}
	q.Set("username", username)
	q.Set("limit", strconv.Itoa(PageLimit))
	q.Set("nsfw", strconv.FormatBool(nsfw))
	if cursor != "" {
		q.Set("cursor", cursor)
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"User-Agent": UserAgent}
	if c.apiKey != "" {
		h["Authorization"] = "Bearer " + c.apiKey
	}
	return h
}

func decodePage(resp *http.Response) (*apiPage, error) {
	defer resp.Body.Close()
	dec := json.NewDecoder(resp.Body)
	// Cursors can be numeric; UseNumber keeps them byte-exact.
	dec.UseNumber()
	var body apiPage
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &body, nil
}

// cursorString renders the API's nextCursor, which arrives as either a
// string or a number, into query-parameter form.
func cursorString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case json.Number:
		return c.String()
	default:
		return fmt.Sprintf("%v", c)
	}
}
