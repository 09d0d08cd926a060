package listing

import (
	"context"
	"strconv"
	"time"
)

// Repository manages marketplace listing persistence
type Repository interface {
	// Create assigns the ID on the passed listing
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id int64) (*Listing, error)
	LockForUpdate(ctx context.Context, id int64) (*Listing, error)

	// MarkSold transitions active to sold. Returns ErrAlreadySold if the listing is no longer active.
	MarkSold(ctx context.Context, id int64, buyerGameUUID string, soldAt time.Time) error

	// ListActive returns active listings in insertion order
	ListActive(ctx context.Context, limit, offset int) ([]*Listing, error)
}

// ErrListingNotFound indicates missing listing
type ErrListingNotFound struct {
	ID int64
}

func (e ErrListingNotFound) Error() string {
	return "listing not found: " + strconv.FormatInt(e.ID, 10)
}

// Is implements the errors.Is interface for ErrListingNotFound
func (e ErrListingNotFound) Is(target error) bool {
	t, ok := target.(ErrListingNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}

// ErrAlreadySold indicates the listing left the active state before the update
type ErrAlreadySold struct {
	ID int64
}

func (e ErrAlreadySold) Error() string {
	return "listing already sold: " + strconv.FormatInt(e.ID, 10)
}

// Is implements the errors.Is interface for ErrAlreadySold
func (e ErrAlreadySold) Is(target error) bool {
	t, ok := target.(ErrAlreadySold)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
