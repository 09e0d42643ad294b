package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hardikmodi/salestrack_backend/models"
)

// Full allocation chain: admin allocates 100 to RM1, RM1 re-allocates 40
// to BM1, BM1 re-allocates 15 to E1, E1 records usage of 5 against C100.
// E1's ledger must report total 15, used 5, stock 10.
func TestAllocationChain_StockRollsUpCorrectly(t *testing.T) {
	e, _ := newTestServer(t)

	adminToken := bearerToken(t, "ADM1", "admin")
	rmToken := bearerToken(t, "RM1", "rm")
	bmToken := bearerToken(t, "BM1", "bm")
	employeeToken := bearerToken(t, "E1", "employee")

	// Admin → RM1: 100 units, new lineage.
	rec := doJSON(t, e, http.MethodPost, "/api/samples/admin", adminToken, models.AdminAllocationRequest{
		Item:      "Sample Board",
		Employees: []models.EmployeeLineRequest{{EmpCode: "RM1", Name: "Regional One", Qty: 100}},
		Purpose:   "General",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin allocation status = %d (body: %s)", rec.Code, rec.Body.String())
	}
	rootRec := decodeRecord(t, rec)
	if rootRec.RootID == "" {
		t.Fatal("admin allocation minted no rootId")
	}
	if rootRec.AssignedBy != "ADM1" || rootRec.Role != "admin" {
		t.Errorf("provenance not taken from token: %+v", rootRec)
	}

	// RM1 → BM1: 40 units, rootId carried forward from the request body.
	rec = doJSON(t, e, http.MethodPost, "/api/samples/allocate/rm", rmToken, models.RMAllocationRequest{
		RootID:    rootRec.RootID,
		Item:      "Sample Board",
		Employees: []models.EmployeeLineRequest{{EmpCode: "BM1", Name: "Branch One", Qty: 40}},
		Region:    "West",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("rm allocation status = %d (body: %s)", rec.Code, rec.Body.String())
	}
	rmRec := decodeRecord(t, rec)
	if rmRec.RootID != rootRec.RootID {
		t.Errorf("rm record rootId = %q, want %q", rmRec.RootID, rootRec.RootID)
	}
	if rmRec.RMID == "" {
		t.Error("rm allocation minted no rmId")
	}

	// BM1 → E1: 15 units.
	rec = doJSON(t, e, http.MethodPost, "/api/samples/allocate/bm", bmToken, models.BMAllocationRequest{
		RootID:    rootRec.RootID,
		RMID:      rmRec.RMID,
		Item:      "Sample Board",
		Employees: []models.EmployeeLineRequest{{EmpCode: "E1", Name: "Emp One", Qty: 15}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("bm allocation status = %d (body: %s)", rec.Code, rec.Body.String())
	}
	bmRec := decodeRecord(t, rec)
	if bmRec.BMID == "" {
		t.Error("bm allocation minted no bmId")
	}

	// E1 uses 5 units against customer C100.
	rec = doJSON(t, e, http.MethodPost, "/api/samples/assignments/used-sample", employeeToken, models.UsedSampleRequest{
		AssignmentID: bmRec.ID.Hex(),
		EmpCode:      "E1",
		CustomerID:   "C100",
		Qty:          5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("used-sample status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	// E1's ledger: total 15, used 5, stock 10.
	rec = doJSON(t, e, http.MethodGet, "/api/samples/employee/E1", employeeToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("employee stock status = %d", rec.Code)
	}
	stock := decodeStock(t, rec)
	if len(stock.Stock) != 1 {
		t.Fatalf("expected 1 stock row, got %+v", stock.Stock)
	}
	row := stock.Stock[0]
	if row.Name != "Sample Board" || row.Total != 15 || row.Used != 5 || row.Stock != 10 {
		t.Errorf("stock row = %+v, want {Sample Board 15 5 10}", row)
	}
	if len(stock.Assignments) != 1 {
		t.Errorf("expected 1 assignment for E1, got %d", len(stock.Assignments))
	}
}

func TestUsedSample_OverdrawRejectedWithoutMutation(t *testing.T) {
	e, _ := newTestServer(t)

	adminToken := bearerToken(t, "ADM1", "admin")
	employeeToken := bearerToken(t, "E1", "employee")

	created := decodeRecord(t, doJSON(t, e, http.MethodPost, "/api/samples/admin", adminToken, models.AdminAllocationRequest{
		Item:      "Catalogue",
		Employees: []models.EmployeeLineRequest{{EmpCode: "E1", Qty: 10}},
	}))

	rec := doJSON(t, e, http.MethodPost, "/api/samples/assignments/used-sample", employeeToken, models.UsedSampleRequest{
		AssignmentID: created.ID.Hex(),
		EmpCode:      "E1",
		CustomerID:   "C1",
		Qty:          11,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("overdraw status = %d, want 400 (body: %s)", rec.Code, rec.Body.String())
	}

	stock := decodeStock(t, doJSON(t, e, http.MethodGet, "/api/samples/employee/E1", employeeToken, nil))
	if stock.Stock[0].Used != 0 || stock.Stock[0].Stock != 10 {
		t.Errorf("rejected usage mutated the ledger: %+v", stock.Stock[0])
	}
}

func TestCreateAllocation_ValidationAndRoleGates(t *testing.T) {
	e, _ := newTestServer(t)

	adminToken := bearerToken(t, "ADM1", "admin")
	rmToken := bearerToken(t, "RM1", "rm")

	// Missing item.
	rec := doJSON(t, e, http.MethodPost, "/api/samples/admin", adminToken, models.AdminAllocationRequest{
		Employees: []models.EmployeeLineRequest{{EmpCode: "RM1", Qty: 10}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing item status = %d, want 400", rec.Code)
	}

	// Zero quantity line.
	rec = doJSON(t, e, http.MethodPost, "/api/samples/admin", adminToken, models.AdminAllocationRequest{
		Item:      "Sample Board",
		Employees: []models.EmployeeLineRequest{{EmpCode: "RM1", Qty: 0}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero qty status = %d, want 400", rec.Code)
	}

	// RM allocation without the carried rootId.
	rec = doJSON(t, e, http.MethodPost, "/api/samples/allocate/rm", rmToken, models.RMAllocationRequest{
		Item:      "Sample Board",
		Employees: []models.EmployeeLineRequest{{EmpCode: "BM1", Qty: 10}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing rootId status = %d, want 400", rec.Code)
	}

	// Role gate: an RM cannot hit the admin route.
	rec = doJSON(t, e, http.MethodPost, "/api/samples/admin", rmToken, models.AdminAllocationRequest{
		Item:      "Sample Board",
		Employees: []models.EmployeeLineRequest{{EmpCode: "RM1", Qty: 10}},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("role gate status = %d, want 403", rec.Code)
	}

	// No token at all.
	rec = doJSON(t, e, http.MethodPost, "/api/samples/admin", "", models.AdminAllocationRequest{
		Item:      "Sample Board",
		Employees: []models.EmployeeLineRequest{{EmpCode: "RM1", Qty: 10}},
	})
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 400/401", rec.Code)
	}
}

func TestAdminHistory_NewestFirstWithItemFilter(t *testing.T) {
	e, _ := newTestServer(t)

	adminToken := bearerToken(t, "ADM1", "admin")
	for _, item := range []string{"Sample Board", "Catalogue", "Sample Board"} {
		rec := doJSON(t, e, http.MethodPost, "/api/samples/admin", adminToken, models.AdminAllocationRequest{
			Item:      item,
			Employees: []models.EmployeeLineRequest{{EmpCode: "RM1", Qty: 10}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("allocation status = %d", rec.Code)
		}
	}

	rec := doJSON(t, e, http.MethodGet, "/api/samples/history/admin?item=Sample+Board", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var resp struct {
		Data []models.AllocationRecord `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("filtered history returned %d records, want 2", len(resp.Data))
	}
	for _, r := range resp.Data {
		if r.Item != "Sample Board" {
			t.Errorf("filter leaked item %q", r.Item)
		}
	}
}
