package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ScreeningRecord is one archived provider response. The attribute store
// keeps only the latest result per order; the archive keeps every one, for
// replay and audit.
type ScreeningRecord struct {
	OrderID       int64     `bson:"order_id"`
	TransactionID string    `bson:"transaction_id"`
	Status        string    `bson:"status"`
	Score         int       `bson:"score"`
	RawResponse   bson.Raw  `bson:"raw_response"`
	ScreenedAt    time.Time `bson:"screened_at"`
}

// ArchiveRepository appends screening results to MongoDB.
type ArchiveRepository struct {
	collection *mongo.Collection
}

func NewArchiveRepository(db *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{collection: db.Collection("screening_results")}
}

// SaveScreening appends one screening result. The raw JSON payload is stored
// verbatim, converted to BSON for querying.
func (r *ArchiveRepository) SaveScreening(ctx context.Context, orderID int64, transactionID, status string, score int, raw []byte) error {
	var doc bson.Raw
	var asMap bson.M
	if err := bson.UnmarshalExtJSON(raw, true, &asMap); err == nil {
		if encoded, err := bson.Marshal(asMap); err == nil {
			doc = encoded
		}
	}

	record := ScreeningRecord{
		OrderID:       orderID,
		TransactionID: transactionID,
		Status:        status,
		Score:         score,
		RawResponse:   doc,
		ScreenedAt:    time.Now(),
	}
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// History returns the archived screenings for one order, newest first.
func (r *ArchiveRepository) History(ctx context.Context, orderID int64) ([]ScreeningRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "screened_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []ScreeningRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
