package mock

import (
	"context"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

// Fetcher implements the creator fetcher interface for tests.
type Fetcher struct {
	// stored values
	FetchOut []model.MediaItem
	// per-username overrides, consulted before FetchOut
	FetchOutByUser map[string][]model.MediaItem

	// captured inputs
	Usernames []string
	NSFW      bool

	// errors
	FetchErr       error
	FetchErrByUser map[string]error

	// call flags
	FetchCalled bool
}

func (m *Fetcher) FetchCreatorItems(ctx context.Context, username string, nsfw bool) ([]model.MediaItem, error) {
	m.FetchCalled = true
	m.Usernames = append(m.Usernames, username)
	m.NSFW = nsfw
	if err, ok := m.FetchErrByUser[username]; ok {
		return nil, err
	}
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if out, ok := m.FetchOutByUser[username]; ok {
		return out, nil
	}
	return m.FetchOut, nil
}
