package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/hardikmodi/salestrack_backend/models"
	"github.com/hardikmodi/salestrack_backend/repositories"
)

// UsageController records sample consumption against allocation lines.
// This is the only operation that mutates a quantity after creation; the
// store performs the availability check and the deduction as one
// conditional update, so two concurrent submissions against the same line
// cannot both pass.
type UsageController struct {
	store repositories.AllocationStore
	cache *stockCache
}

func NewUsageController(store repositories.AllocationStore, redisClient *redis.Client) *UsageController {
	return &UsageController{store: store, cache: newStockCache(redisClient)}
}

// RecordUsedSample deducts the reported quantity from the employee's line
// and appends the consumption event to its audit list.
func (uc *UsageController) RecordUsedSample(c echo.Context) error {
	var req models.UsedSampleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "assignmentId, empCode, customerId and a positive qty are required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := uc.store.RecordUsage(ctx, req.AssignmentID, req.EmpCode, req.CustomerID, req.Qty, time.Now())
	switch err {
	case nil:
	case repositories.ErrNotFound:
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Allocation record not found",
		})
	case repositories.ErrNoEmployeeLine:
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No allocation line for employee",
		})
	case repositories.ErrInsufficientStock:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Requested quantity exceeds available stock",
		})
	default:
		log.Printf("Failed to record used sample: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to record used sample",
		})
	}

	uc.cache.invalidate(ctx, req.EmpCode)

	// Return the fresh summary alongside the record so the caller can
	// refresh its view without a second round trip.
	records, err := uc.store.FindByEmployee(ctx, req.EmpCode)
	if err != nil {
		log.Printf("Failed to refresh stock summary for %s: %v", req.EmpCode, err)
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Used sample recorded successfully",
			Data:    map[string]interface{}{"record": rec},
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Used sample recorded successfully",
		Data: map[string]interface{}{
			"record": rec,
			"stock":  models.StockSummary(records, req.EmpCode),
		},
	})
}
