package port

import (
	"context"

	"github.com/Mewyk/CivitaiMediaHoarder/internal/model"
)

// CreatorFetcher retrieves a creator's full media catalogue from the
// upstream API, following pagination until exhausted.
type CreatorFetcher interface {
	FetchCreatorItems(ctx context.Context, username string, nsfw bool) ([]model.MediaItem, error)
}
