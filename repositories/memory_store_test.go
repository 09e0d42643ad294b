package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hardikmodi/salestrack_backend/models"
)

func seedRecord(t *testing.T, store *MemoryAllocationStore, rec models.AllocationRecord) *models.AllocationRecord {
	t.Helper()
	created, err := store.Insert(context.Background(), &rec)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return created
}

func TestRecordUsage_DeductsAndAppendsAudit(t *testing.T) {
	store := NewMemoryAllocationStore()
	rec := seedRecord(t, store, models.AllocationRecord{
		RootID: "RT-1",
		Item:   "Sample Board",
		Employees: []models.EmployeeLine{
			{EmpCode: "E1", Qty: 15},
		},
		CreatedAt: time.Now(),
	})

	updated, err := store.RecordUsage(context.Background(), rec.ID.Hex(), "E1", "C100", 5, time.Now())
	if err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}

	line := updated.EmployeeLineFor("E1")
	if line.UsedQty.Value() != 5 {
		t.Errorf("usedQty = %v, want 5", line.UsedQty.Value())
	}
	if len(line.UsedSamples) != 1 || line.UsedSamples[0].CustomerID != "C100" || line.UsedSamples[0].Qty.Value() != 5 {
		t.Errorf("unexpected usedSamples: %+v", line.UsedSamples)
	}
	if line.Available() != 10 {
		t.Errorf("available = %v, want 10", line.Available())
	}
}

func TestRecordUsage_RejectsOverdraw(t *testing.T) {
	store := NewMemoryAllocationStore()
	rec := seedRecord(t, store, models.AllocationRecord{
		RootID:    "RT-1",
		Item:      "Sample Board",
		Employees: []models.EmployeeLine{{EmpCode: "E1", Qty: 10, UsedQty: 8}},
		CreatedAt: time.Now(),
	})

	if _, err := store.RecordUsage(context.Background(), rec.ID.Hex(), "E1", "C1", 3, time.Now()); err != ErrInsufficientStock {
		t.Errorf("overdraw returned %v, want ErrInsufficientStock", err)
	}
	if _, err := store.RecordUsage(context.Background(), rec.ID.Hex(), "E2", "C1", 1, time.Now()); err != ErrNoEmployeeLine {
		t.Errorf("unknown line returned %v, want ErrNoEmployeeLine", err)
	}
	if _, err := store.RecordUsage(context.Background(), "deadbeefdeadbeefdeadbeef", "E1", "C1", 1, time.Now()); err != ErrNotFound {
		t.Errorf("unknown record returned %v, want ErrNotFound", err)
	}

	// The failed attempts must not have mutated the line.
	after, err := store.FindByID(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if after.EmployeeLineFor("E1").UsedQty.Value() != 8 {
		t.Errorf("usedQty changed on rejected usage: %v", after.EmployeeLineFor("E1").UsedQty.Value())
	}
}

// Two concurrent submissions each requesting the full remaining
// availability: exactly one may succeed, and usedQty never exceeds qty.
func TestRecordUsage_ConcurrentSubmissionsCannotOverdraw(t *testing.T) {
	store := NewMemoryAllocationStore()
	rec := seedRecord(t, store, models.AllocationRecord{
		RootID:    "RT-1",
		Item:      "Sample Board",
		Employees: []models.EmployeeLine{{EmpCode: "E1", Qty: 10}},
		CreatedAt: time.Now(),
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.RecordUsage(context.Background(), rec.ID.Hex(), "E1", "C1", 10, time.Now())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if err != ErrInsufficientStock {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}

	after, err := store.FindByID(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if used := after.EmployeeLineFor("E1").UsedQty.Value(); used != 10 {
		t.Errorf("usedQty = %v, want 10", used)
	}
}

func TestFindByChain_UnionMatchesEveryLevel(t *testing.T) {
	store := NewMemoryAllocationStore()
	now := time.Now()
	seedRecord(t, store, models.AllocationRecord{RootID: "RT-1", CreatedAt: now})
	seedRecord(t, store, models.AllocationRecord{RootID: "RT-1", RMID: "RM-1", CreatedAt: now.Add(time.Second)})
	seedRecord(t, store, models.AllocationRecord{RootID: "RT-1", RMID: "RM-1", BMID: "BM-1", CreatedAt: now.Add(2 * time.Second)})
	seedRecord(t, store, models.AllocationRecord{RootID: "RT-2", CreatedAt: now})

	for _, tc := range []struct {
		chainID string
		want    int
	}{
		{"RT-1", 3},
		{"RM-1", 2},
		{"BM-1", 1},
		{"RT-2", 1},
		{"RT-3", 0},
	} {
		records, err := store.FindByChain(context.Background(), tc.chainID)
		if err != nil {
			t.Fatalf("FindByChain(%s): %v", tc.chainID, err)
		}
		if len(records) != tc.want {
			t.Errorf("FindByChain(%s) matched %d records, want %d", tc.chainID, len(records), tc.want)
		}
	}
}

func TestSetLRNumber_ScopedToMostSpecificKey(t *testing.T) {
	store := NewMemoryAllocationStore()
	now := time.Now()
	root := seedRecord(t, store, models.AllocationRecord{RootID: "RT-1", CreatedAt: now})
	sibling := seedRecord(t, store, models.AllocationRecord{RootID: "RT-1", RMID: "RM-1", BMID: "BM-1", CreatedAt: now.Add(time.Second)})
	target := seedRecord(t, store, models.AllocationRecord{RootID: "RT-1", RMID: "RM-1", BMID: "BM-2", CreatedAt: now.Add(2 * time.Second)})

	base, err := store.FindBaseByRootID(context.Background(), "RT-1")
	if err != nil {
		t.Fatalf("FindBaseByRootID: %v", err)
	}
	field, value := base.MostSpecificChainKey()
	if field != "bmId" || value != "BM-2" {
		t.Fatalf("base key = %s=%s, want bmId=BM-2", field, value)
	}

	matched, err := store.SetLRNumber(context.Background(), field, value, "LR-77", time.Now())
	if err != nil {
		t.Fatalf("SetLRNumber: %v", err)
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}

	check := func(id string, wantLR string) {
		rec, err := store.FindByID(context.Background(), id)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if rec.LRNo != wantLR {
			t.Errorf("record %s lrNo = %q, want %q", id, rec.LRNo, wantLR)
		}
	}
	check(target.ID.Hex(), "LR-77")
	check(sibling.ID.Hex(), "")
	check(root.ID.Hex(), "")

	// Re-running the same update is idempotent.
	if _, err := store.SetLRNumber(context.Background(), field, value, "LR-77", time.Now()); err != nil {
		t.Fatalf("second SetLRNumber: %v", err)
	}
	check(target.ID.Hex(), "LR-77")
}

func TestMarkDispatched_IsMonotonicAndKeepsFirstTimestamp(t *testing.T) {
	store := NewMemoryAllocationStore()
	now := time.Now()
	rec := seedRecord(t, store, models.AllocationRecord{RootID: "RT-1", Purpose: "Project X", CreatedAt: now})

	first := now.Add(time.Minute)
	if _, err := store.MarkDispatched(context.Background(), "RT-1", first); err != nil {
		t.Fatalf("MarkDispatched: %v", err)
	}
	if _, err := store.MarkDispatched(context.Background(), "RT-1", first.Add(time.Hour)); err != nil {
		t.Fatalf("second MarkDispatched: %v", err)
	}

	after, err := store.FindByID(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !after.ToVendor {
		t.Error("toVendor = false after dispatch")
	}
	if after.DispatchedAt == nil || !after.DispatchedAt.Equal(first) {
		t.Errorf("dispatchedAt = %v, want first dispatch time %v", after.DispatchedAt, first)
	}
}
