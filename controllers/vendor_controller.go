package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hardikmodi/salestrack_backend/models"
	"github.com/hardikmodi/salestrack_backend/repositories"
	"github.com/hardikmodi/salestrack_backend/utils"
)

// VendorController owns the vendor-facing lineage operations: the one-way
// dispatch transition, LR annotation and the vendor list.
type VendorController struct {
	store repositories.AllocationStore
}

func NewVendorController(store repositories.AllocationStore) *VendorController {
	return &VendorController{store: store}
}

// DispatchLineage marks every record in the lineage as sent to the vendor.
// The gate is all-or-nothing: at least one record in the lineage must carry
// a project or marketing purpose, otherwise nothing is mutated.
func (vc *VendorController) DispatchLineage(c echo.Context) error {
	chainID := c.Param("rootId")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := vc.store.FindByChain(ctx, chainID)
	if err != nil {
		log.Printf("Failed to resolve lineage %s: %v", chainID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve lineage",
		})
	}
	if len(records) == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No allocation records found for lineage",
		})
	}

	eligible := false
	for _, rec := range records {
		if models.VendorEligible(rec.Purpose) {
			eligible = true
			break
		}
	}
	if !eligible {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Lineage has no project or marketing purpose record",
		})
	}

	updated, err := vc.store.MarkDispatched(ctx, chainID, time.Now())
	if err != nil {
		log.Printf("Failed to dispatch lineage %s: %v", chainID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to dispatch lineage",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Lineage dispatched to vendor",
		Data:    map[string]interface{}{"updated": updated},
	})
}

// UpdateLRNumber bulk-sets the lorry-receipt number on the lineage. The
// base record found by rootId decides the fan-out key: LR numbers land on
// the finest-grained lineage level that exists, never on sibling lineages
// that only share the root.
func (vc *VendorController) UpdateLRNumber(c echo.Context) error {
	rootID := c.Param("rootId")

	var req models.LRUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "lrNo is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	base, err := vc.store.FindBaseByRootID(ctx, rootID)
	if err == repositories.ErrNotFound {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No allocation records found for lineage",
		})
	}
	if err != nil {
		log.Printf("Failed to resolve lineage %s: %v", rootID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve lineage",
		})
	}

	field, value := base.MostSpecificChainKey()
	updated, err := vc.store.SetLRNumber(ctx, field, value, utils.SanitizeInput(req.LRNo), time.Now())
	if err != nil {
		log.Printf("Failed to set LR number on lineage %s: %v", rootID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update LR number",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "LR number updated successfully",
		Data:    map[string]interface{}{"updated": updated, "chainKey": field},
	})
}

// GetVendorList returns dispatched records whose purpose classifies as
// project or marketing.
func (vc *VendorController) GetVendorList(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := vc.store.FindDispatched(ctx)
	if err != nil {
		log.Printf("Failed to fetch vendor list: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch vendor list",
		})
	}

	eligible := make([]models.AllocationRecord, 0, len(records))
	for _, rec := range records {
		if models.VendorEligible(rec.Purpose) {
			eligible = append(eligible, rec)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Vendor list fetched successfully",
		Data:    eligible,
	})
}
