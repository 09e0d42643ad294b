package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hardikmodi/salestrack_backend/models"
)

// MemoryAllocationStore keeps records in process. Handler tests use it in
// place of Mongo; the mutex around RecordUsage gives the same
// check-and-increment atomicity the Mongo store gets from its conditional
// update.
type MemoryAllocationStore struct {
	mu      sync.Mutex
	records []*models.AllocationRecord
}

func NewMemoryAllocationStore() *MemoryAllocationStore {
	return &MemoryAllocationStore{}
}

func (s *MemoryAllocationStore) Insert(ctx context.Context, rec *models.AllocationRecord) (*models.AllocationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	stored := cloneRecord(rec)
	s.records = append(s.records, stored)
	return cloneRecord(stored), nil
}

func (s *MemoryAllocationStore) FindByID(ctx context.Context, id string) (*models.AllocationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.byID(id)
	if rec == nil {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryAllocationStore) FindAll(ctx context.Context) ([]models.AllocationRecord, error) {
	return s.filter(func(*models.AllocationRecord) bool { return true }), nil
}

func (s *MemoryAllocationStore) FindByEmployee(ctx context.Context, empCode string) ([]models.AllocationRecord, error) {
	return s.filter(func(r *models.AllocationRecord) bool {
		return r.EmployeeLineFor(empCode) != nil
	}), nil
}

func (s *MemoryAllocationStore) FindByEmployeeOrAssigner(ctx context.Context, empCode string) ([]models.AllocationRecord, error) {
	return s.filter(func(r *models.AllocationRecord) bool {
		return r.EmployeeLineFor(empCode) != nil || r.AssignedBy == empCode
	}), nil
}

func (s *MemoryAllocationStore) FindByChain(ctx context.Context, chainID string) ([]models.AllocationRecord, error) {
	return s.filter(func(r *models.AllocationRecord) bool {
		return r.InChain(chainID)
	}), nil
}

func (s *MemoryAllocationStore) FindBaseByRootID(ctx context.Context, rootID string) (*models.AllocationRecord, error) {
	lineage := s.filter(func(r *models.AllocationRecord) bool {
		return r.RootID == rootID
	})
	base := mostSpecificRecord(lineage)
	if base == nil {
		return nil, ErrNotFound
	}
	return cloneRecord(base), nil
}

func (s *MemoryAllocationStore) FindDispatched(ctx context.Context) ([]models.AllocationRecord, error) {
	return s.filter(func(r *models.AllocationRecord) bool { return r.ToVendor }), nil
}

func (s *MemoryAllocationStore) RecordUsage(ctx context.Context, id, empCode, customerID string, qty float64, at time.Time) (*models.AllocationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.byID(id)
	if rec == nil {
		return nil, ErrNotFound
	}
	line := rec.EmployeeLineFor(empCode)
	if line == nil {
		return nil, ErrNoEmployeeLine
	}
	available := line.Available()
	if available <= 0 || qty > available {
		return nil, ErrInsufficientStock
	}

	line.UsedQty = models.Quantity(line.UsedQty.Value() + qty)
	line.UsedSamples = append(line.UsedSamples, models.UsedSample{
		CustomerID: customerID,
		Qty:        models.Quantity(qty),
		UsedAt:     at,
	})
	return cloneRecord(rec), nil
}

func (s *MemoryAllocationStore) MarkDispatched(ctx context.Context, chainID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched int64
	for _, rec := range s.records {
		if !rec.InChain(chainID) {
			continue
		}
		matched++
		rec.ToVendor = true
		if rec.DispatchedAt == nil {
			t := at
			rec.DispatchedAt = &t
		}
	}
	return matched, nil
}

func (s *MemoryAllocationStore) SetLRNumber(ctx context.Context, chainField, chainID, lrNo string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched int64
	for _, rec := range s.records {
		var value string
		switch chainField {
		case "rootId":
			value = rec.RootID
		case "rmId":
			value = rec.RMID
		case "bmId":
			value = rec.BMID
		}
		if value != chainID {
			continue
		}
		matched++
		rec.LRNo = lrNo
		t := at
		rec.LRUpdatedAt = &t
	}
	return matched, nil
}

// byID must be called with the lock held.
func (s *MemoryAllocationStore) byID(id string) *models.AllocationRecord {
	for _, rec := range s.records {
		if rec.ID.Hex() == id {
			return rec
		}
	}
	return nil
}

func (s *MemoryAllocationStore) filter(keep func(*models.AllocationRecord) bool) []models.AllocationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AllocationRecord, 0)
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, *cloneRecord(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneRecord(rec *models.AllocationRecord) *models.AllocationRecord {
	clone := *rec
	clone.Employees = make([]models.EmployeeLine, len(rec.Employees))
	for i, line := range rec.Employees {
		copied := line
		copied.UsedSamples = append([]models.UsedSample(nil), line.UsedSamples...)
		clone.Employees[i] = copied
	}
	if rec.LRUpdatedAt != nil {
		t := *rec.LRUpdatedAt
		clone.LRUpdatedAt = &t
	}
	if rec.DispatchedAt != nil {
		t := *rec.DispatchedAt
		clone.DispatchedAt = &t
	}
	return &clone
}
