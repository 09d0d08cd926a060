package delivery

import (
	"context"
	"strconv"
	"time"
)

// Repository manages the pending item queue
type Repository interface {
	// Enqueue assigns the ID on the passed item
	Enqueue(ctx context.Context, item *Item) error
	ListPending(ctx context.Context, gameUUID string) ([]*Item, error)

	// MarkDelivered returns ErrItemNotFound when no pending item has the id
	MarkDelivered(ctx context.Context, id int64, deliveredAt time.Time) (*Item, error)
}

// ErrItemNotFound indicates a missing or already delivered item
type ErrItemNotFound struct {
	ID int64
}

func (e ErrItemNotFound) Error() string {
	return "pending item not found: " + strconv.FormatInt(e.ID, 10)
}

func (e ErrItemNotFound) Is(target error) bool {
	t, ok := target.(ErrItemNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
