package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/hardikmodi/salestrack_backend/middleware"
	"github.com/hardikmodi/salestrack_backend/models"
	"github.com/hardikmodi/salestrack_backend/repositories"
)

// StockController serves the per-identity ledger views: every record
// addressed to the identity, folded into per-item totals.
type StockController struct {
	store repositories.AllocationStore
	cache *stockCache
}

func NewStockController(store repositories.AllocationStore, redisClient *redis.Client) *StockController {
	return &StockController{store: store, cache: newStockCache(redisClient)}
}

// GetRegionalStock returns the stock view for the RM identified by the token.
func (sc *StockController) GetRegionalStock(c echo.Context) error {
	return sc.respondForEmployee(c, middleware.ExtractEmpCode(c), false)
}

// GetBranchStock returns the stock view for the BM identified by the token.
// BMs see records they received as well as records they created themselves.
func (sc *StockController) GetBranchStock(c echo.Context) error {
	return sc.respondForEmployee(c, middleware.ExtractEmpCode(c), true)
}

// GetManagerStock returns the stock view for the manager identified by the token.
func (sc *StockController) GetManagerStock(c echo.Context) error {
	return sc.respondForEmployee(c, middleware.ExtractEmpCode(c), false)
}

// GetEmployeeStock returns the stock view for the employee in the path.
func (sc *StockController) GetEmployeeStock(c echo.Context) error {
	return sc.respondForEmployee(c, c.Param("empCode"), false)
}

func (sc *StockController) respondForEmployee(c echo.Context, empCode string, includeSelfCreated bool) error {
	if empCode == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Employee code is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scope := scopeReceived
	if includeSelfCreated {
		scope = scopeFull
	}

	if cached, ok := sc.cache.get(ctx, scope, empCode); ok {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Stock fetched successfully",
			Data:    cached,
		})
	}

	var (
		records []models.AllocationRecord
		err     error
	)
	if includeSelfCreated {
		records, err = sc.store.FindByEmployeeOrAssigner(ctx, empCode)
	} else {
		records, err = sc.store.FindByEmployee(ctx, empCode)
	}
	if err != nil {
		log.Printf("Failed to fetch stock for %s: %v", empCode, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch stock",
		})
	}

	resp := &models.StockResponse{
		Stock:       models.StockSummary(records, empCode),
		Assignments: records,
	}
	sc.cache.set(ctx, scope, empCode, resp)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Stock fetched successfully",
		Data:    resp,
	})
}
