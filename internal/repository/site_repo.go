package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/site-auditor/internal/entity"
)

// ErrSiteNotFound is returned when a site id does not exist.
var ErrSiteNotFound = errors.New("site not found")

// SiteRepository is the backlog of sites waiting to be analyzed.
type SiteRepository interface {
	// ClaimPending returns up to limit unanalyzed sites with id > afterID, ordered by id.
	ClaimPending(ctx context.Context, afterID int64, limit int) ([]*entity.Site, error)
	// FindByID returns ErrSiteNotFound when the id is unknown.
	FindByID(ctx context.Context, id int64) (*entity.Site, error)
	// MarkAnalyzed flags a site as processed at the given time.
	MarkAnalyzed(ctx context.Context, id int64, at time.Time) error
	// ResetBacklog deletes every stored result and puts every site back in the
	// backlog, both or neither.
	ResetBacklog(ctx context.Context) error
}
