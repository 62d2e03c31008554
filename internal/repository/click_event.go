package repository

import (
	"context"

	"github.com/hoplink/hoplink/internal/apperr"
	"github.com/hoplink/hoplink/internal/model"
)

// InsertClickEvent appends one click event. Click tracking is best-effort:
// callers log failures and never propagate them to the request handler.
func (r *Repository) InsertClickEvent(ctx context.Context, event *model.ClickEvent) error {
	if _, err := r.clickEvents().InsertOne(ctx, event); err != nil {
		return apperr.ErrDatabase.Wrap(err).
			WithContext("shortCode", event.ShortCode).
			WithContext("operation", "InsertClickEvent")
	}
	return nil
}
