package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hardikmodi/salestrack_backend/models"
)

var (
	ErrNotFound          = errors.New("allocation record not found")
	ErrNoEmployeeLine    = errors.New("no allocation line for employee")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
)

// AllocationStore is the document-store surface the controllers depend on.
// Production uses the Mongo implementation below; tests use the in-memory
// one. Both enforce the usage-recording capacity check inside a single
// store operation so concurrent submissions cannot overdraw a line.
type AllocationStore interface {
	Insert(ctx context.Context, rec *models.AllocationRecord) (*models.AllocationRecord, error)
	FindByID(ctx context.Context, id string) (*models.AllocationRecord, error)
	FindAll(ctx context.Context) ([]models.AllocationRecord, error)
	FindByEmployee(ctx context.Context, empCode string) ([]models.AllocationRecord, error)
	FindByEmployeeOrAssigner(ctx context.Context, empCode string) ([]models.AllocationRecord, error)
	FindByChain(ctx context.Context, chainID string) ([]models.AllocationRecord, error)
	FindBaseByRootID(ctx context.Context, rootID string) (*models.AllocationRecord, error)
	FindDispatched(ctx context.Context) ([]models.AllocationRecord, error)
	RecordUsage(ctx context.Context, id, empCode, customerID string, qty float64, at time.Time) (*models.AllocationRecord, error)
	MarkDispatched(ctx context.Context, chainID string, at time.Time) (int64, error)
	SetLRNumber(ctx context.Context, chainField, chainID, lrNo string, at time.Time) (int64, error)
}

type MongoAllocationStore struct {
	collection *mongo.Collection
}

func NewMongoAllocationStore(db *mongo.Database) *MongoAllocationStore {
	return &MongoAllocationStore{collection: db.Collection("assignments")}
}

func (s *MongoAllocationStore) Insert(ctx context.Context, rec *models.AllocationRecord) (*models.AllocationRecord, error) {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *MongoAllocationStore) FindByID(ctx context.Context, id string) (*models.AllocationRecord, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var rec models.AllocationRecord
	err = s.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *MongoAllocationStore) FindAll(ctx context.Context) ([]models.AllocationRecord, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoAllocationStore) FindByEmployee(ctx context.Context, empCode string) ([]models.AllocationRecord, error) {
	return s.find(ctx, bson.M{"employees.empCode": empCode})
}

func (s *MongoAllocationStore) FindByEmployeeOrAssigner(ctx context.Context, empCode string) ([]models.AllocationRecord, error) {
	return s.find(ctx, bson.M{"$or": []bson.M{
		{"employees.empCode": empCode},
		{"assignedBy": empCode},
	}})
}

// FindByChain union-matches the chain id against every level field, so a
// lineage query works no matter which level's id the caller holds.
func (s *MongoAllocationStore) FindByChain(ctx context.Context, chainID string) ([]models.AllocationRecord, error) {
	return s.find(ctx, chainFilter(chainID))
}

// FindBaseByRootID returns the record whose chain fields decide where an
// LR update fans out: the most specific record of the lineage (one carrying
// a bmId, else an rmId, else the root-level record), newest first on ties.
func (s *MongoAllocationStore) FindBaseByRootID(ctx context.Context, rootID string) (*models.AllocationRecord, error) {
	records, err := s.find(ctx, bson.M{"rootId": rootID})
	if err != nil {
		return nil, err
	}
	base := mostSpecificRecord(records)
	if base == nil {
		return nil, ErrNotFound
	}
	return base, nil
}

// mostSpecificRecord expects records sorted newest first.
func mostSpecificRecord(records []models.AllocationRecord) *models.AllocationRecord {
	for i := range records {
		if records[i].BMID != "" {
			return &records[i]
		}
	}
	for i := range records {
		if records[i].RMID != "" {
			return &records[i]
		}
	}
	if len(records) == 0 {
		return nil
	}
	return &records[0]
}

func (s *MongoAllocationStore) FindDispatched(ctx context.Context) ([]models.AllocationRecord, error) {
	return s.find(ctx, bson.M{"toVendor": true})
}

// RecordUsage deducts qty from the employee's line in one conditional
// update: the filter's $expr admits the document only while the line still
// has capacity, and arrayFilters target the increment at that line. Two
// concurrent submissions can therefore never both pass the check.
func (s *MongoAllocationStore) RecordUsage(ctx context.Context, id, empCode, customerID string, qty float64, at time.Time) (*models.AllocationRecord, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	filter := bson.M{
		"_id": objID,
		"$expr": bson.M{"$anyElementTrue": bson.A{bson.M{"$map": bson.M{
			"input": "$employees",
			"as":    "line",
			"in": bson.M{"$and": bson.A{
				bson.M{"$eq": bson.A{"$$line.empCode", empCode}},
				bson.M{"$lte": bson.A{
					bson.M{"$add": bson.A{"$$line.usedQty", qty}},
					"$$line.qty",
				}},
			}},
		}}}},
	}
	update := bson.M{
		"$inc": bson.M{"employees.$[line].usedQty": qty},
		"$push": bson.M{"employees.$[line].usedSamples": models.UsedSample{
			CustomerID: customerID,
			Qty:        models.Quantity(qty),
			UsedAt:     at,
		}},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"line.empCode": empCode}},
	})

	res, err := s.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing record or line from an exhausted line.
		rec, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec.EmployeeLineFor(empCode) == nil {
			return nil, ErrNoEmployeeLine
		}
		return nil, ErrInsufficientStock
	}
	return s.FindByID(ctx, id)
}

// MarkDispatched flips toVendor across the lineage. $min keeps the first
// dispatch timestamp on repeat runs, so re-dispatch is idempotent.
func (s *MongoAllocationStore) MarkDispatched(ctx context.Context, chainID string, at time.Time) (int64, error) {
	update := bson.M{
		"$set": bson.M{"toVendor": true},
		"$min": bson.M{"dispatchedAt": at},
	}
	res, err := s.collection.UpdateMany(ctx, chainFilter(chainID), update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *MongoAllocationStore) SetLRNumber(ctx context.Context, chainField, chainID, lrNo string, at time.Time) (int64, error) {
	update := bson.M{"$set": bson.M{"lrNo": lrNo, "lrUpdatedAt": at}}
	res, err := s.collection.UpdateMany(ctx, bson.M{chainField: chainID}, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *MongoAllocationStore) find(ctx context.Context, filter bson.M) ([]models.AllocationRecord, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.AllocationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func chainFilter(chainID string) bson.M {
	return bson.M{"$or": []bson.M{
		{"rootId": chainID},
		{"rmId": chainID},
		{"bmId": chainID},
	}}
}
