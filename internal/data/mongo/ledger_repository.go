package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mc-economy-bridge/internal/domain/ledger"
)

const (
	// EventsCollectionName is the name of the event history collection in MongoDB
	EventsCollectionName = "economy_events"
)

// LedgerRepository implements the ledger.Repository interface for MongoDB
type LedgerRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewLedgerRepository creates a new MongoDB event history repository
func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique event id index and the per-identity lookup indexes
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_event_id"),
		},
		{
			Keys:    bson.D{{Key: "identity_key", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("identity_created_at"),
		},
		{
			Keys:    bson.D{{Key: "counterparty", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("counterparty_created_at").SetSparse(true),
		},
	}

	if _, err := r.db.Collection(EventsCollectionName).Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("Failed to create event history indexes", "error", err)
		return fmt.Errorf("failed to create event history indexes: %w", err)
	}
	return nil
}

// Create stores a new history entry.
// Returns ErrDuplicateEntry if an entry with the same event ID exists.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	collection := r.db.Collection(EventsCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrDuplicateEntry{EventID: entry.EventID}
		}
		r.logger.Error("Failed to create ledger entry",
			"event_id", entry.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByEventID retrieves a history entry by its event ID.
// Returns ErrEntryNotFound if no entry exists for the given event.
func (r *LedgerRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*ledger.Entry, error) {
	collection := r.db.Collection(EventsCollectionName)

	filter := bson.M{"event_id": eventID}
	var entry ledger.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get ledger entry",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return &entry, nil
}

// GetByIdentityKey retrieves paginated entries where the identity acted or was the counterparty.
// Results are sorted by creation time in descending order (newest first).
func (r *LedgerRepository) GetByIdentityKey(ctx context.Context, identityKey string, limit, offset int) ([]*ledger.Entry, error) {
	collection := r.db.Collection(EventsCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, involving(identityKey), opts)
	if err != nil {
		r.logger.Error("Failed to get ledger entries",
			"identity_key", identityKey,
			"error", err)
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*ledger.Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode ledger entries",
			"identity_key", identityKey,
			"error", err)
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}

	return entries, nil
}

// CountByIdentityKey counts the entries an identity is involved in
func (r *LedgerRepository) CountByIdentityKey(ctx context.Context, identityKey string) (int64, error) {
	collection := r.db.Collection(EventsCollectionName)

	count, err := collection.CountDocuments(ctx, involving(identityKey))
	if err != nil {
		r.logger.Error("Failed to count ledger entries",
			"identity_key", identityKey,
			"error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

func involving(identityKey string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"identity_key": identityKey},
		bson.M{"counterparty": identityKey},
	}}
}

var _ ledger.Repository = (*LedgerRepository)(nil)
