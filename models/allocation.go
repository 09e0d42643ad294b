package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PurposeTag is the read-time classification of a record's free-text purpose.
type PurposeTag string

const (
	PurposeGeneral   PurposeTag = "general"
	PurposeProject   PurposeTag = "project"
	PurposeMarketing PurposeTag = "marketing"
)

// ClassifyPurpose maps free text to a tag by case-insensitive substring
// match. The stored purpose stays free text; only the classification is
// closed. Substring semantics are intentional ("Non-Project" classifies
// as project, matching historic records).
func ClassifyPurpose(purpose string) PurposeTag {
	p := strings.ToLower(purpose)
	switch {
	case strings.Contains(p, "project"):
		return PurposeProject
	case strings.Contains(p, "marketing"):
		return PurposeMarketing
	default:
		return PurposeGeneral
	}
}

// VendorEligible reports whether a record's purpose qualifies its lineage
// for vendor dispatch.
func VendorEligible(purpose string) bool {
	tag := ClassifyPurpose(purpose)
	return tag == PurposeProject || tag == PurposeMarketing
}

// UsedSample is one consumption event against an employee line.
type UsedSample struct {
	CustomerID string    `json:"customerId" bson:"customerId"`
	Qty        Quantity  `json:"qty" bson:"qty"`
	UsedAt     time.Time `json:"usedAt" bson:"usedAt"`
}

// EmployeeLine is a per-recipient quantity line inside an allocation record.
// UsedSamples is append-only; usedQty never exceeds qty.
type EmployeeLine struct {
	EmpCode     string       `json:"empCode" bson:"empCode"`
	Name        string       `json:"name" bson:"name"`
	Qty         Quantity     `json:"qty" bson:"qty"`
	UsedQty     Quantity     `json:"usedQty" bson:"usedQty"`
	UsedSamples []UsedSample `json:"usedSamples,omitempty" bson:"usedSamples,omitempty"`
}

// Available is the remaining stock on this line, never negative.
func (l *EmployeeLine) Available() float64 {
	available := l.Qty.Value() - l.UsedQty.Value()
	if available < 0 {
		return 0
	}
	return available
}

// AllocationRecord is one allocation document. Each hierarchy level
// (admin, RM, BM, manager) inserts its own record; a lineage is the set of
// records sharing chain ids, not a tree of embedded children. Records are
// never deleted in normal operation.
type AllocationRecord struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	RootID       string             `json:"rootId" bson:"rootId"`
	RMID         string             `json:"rmId,omitempty" bson:"rmId,omitempty"`
	BMID         string             `json:"bmId,omitempty" bson:"bmId,omitempty"`
	ManagerID    string             `json:"managerId,omitempty" bson:"managerId,omitempty"`
	Item         string             `json:"item" bson:"item"`
	Employees    []EmployeeLine     `json:"employees" bson:"employees"`
	Purpose      string             `json:"purpose" bson:"purpose"`
	AssignedBy   string             `json:"assignedBy" bson:"assignedBy"`
	Role         string             `json:"role" bson:"role"`
	Region       string             `json:"region,omitempty" bson:"region,omitempty"`
	Branch       string             `json:"branch,omitempty" bson:"branch,omitempty"`
	ToVendor     bool               `json:"toVendor" bson:"toVendor"`
	LRNo         string             `json:"lrNo,omitempty" bson:"lrNo,omitempty"`
	LRUpdatedAt  *time.Time         `json:"lrUpdatedAt,omitempty" bson:"lrUpdatedAt,omitempty"`
	DispatchedAt *time.Time         `json:"dispatchedAt,omitempty" bson:"dispatchedAt,omitempty"`
	Date         string             `json:"date" bson:"date"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// EmployeeLineFor returns the line addressed to empCode, or nil.
func (r *AllocationRecord) EmployeeLineFor(empCode string) *EmployeeLine {
	for i := range r.Employees {
		if r.Employees[i].EmpCode == empCode {
			return &r.Employees[i]
		}
	}
	return nil
}

// InChain reports whether the record belongs to the lineage identified by
// chainID at any level.
func (r *AllocationRecord) InChain(chainID string) bool {
	return r.RootID == chainID || r.RMID == chainID || r.BMID == chainID
}

// MostSpecificChainKey picks the chain field an LR update fans out on:
// bmId when set, else rmId, else rootId. LR numbers land on the
// finest-grained lineage level that exists.
func (r *AllocationRecord) MostSpecificChainKey() (field, value string) {
	switch {
	case r.BMID != "":
		return "bmId", r.BMID
	case r.RMID != "":
		return "rmId", r.RMID
	default:
		return "rootId", r.RootID
	}
}

// StockItem is one row of a per-item ledger summary.
type StockItem struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Used  float64 `json:"used"`
	Stock float64 `json:"stock"`
}

// StockSummary folds every employee line addressed to empCode into per-item
// totals. An employee topped up by several records for the same item gets
// merged totals, not the last record's numbers.
func StockSummary(records []AllocationRecord, empCode string) []StockItem {
	totals := make(map[string]*StockItem)
	for i := range records {
		line := records[i].EmployeeLineFor(empCode)
		if line == nil {
			continue
		}
		item := totals[records[i].Item]
		if item == nil {
			item = &StockItem{Name: records[i].Item}
			totals[records[i].Item] = item
		}
		item.Total += line.Qty.Value()
		item.Used += line.UsedQty.Value()
	}

	summary := make([]StockItem, 0, len(totals))
	for _, item := range totals {
		item.Stock = item.Total - item.Used
		summary = append(summary, *item)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Name < summary[j].Name })
	return summary
}
