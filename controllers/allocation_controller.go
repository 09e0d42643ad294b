package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/hardikmodi/salestrack_backend/middleware"
	"github.com/hardikmodi/salestrack_backend/models"
	"github.com/hardikmodi/salestrack_backend/repositories"
	"github.com/hardikmodi/salestrack_backend/utils"
)

// Chain-id prefixes per hierarchy level.
const (
	rootIDPrefix    = "RT"
	rmIDPrefix      = "RM"
	bmIDPrefix      = "BM"
	managerIDPrefix = "MG"
)

const dateLayout = "02-01-2006"

// AllocationController handles allocation creation at every hierarchy level
// plus the admin history view. Each level inserts its own record carrying
// the ancestor chain ids forward from the request body; no existing record
// is ever mutated to represent a re-allocation.
type AllocationController struct {
	store repositories.AllocationStore
	ids   utils.ChainIDGenerator
	cache *stockCache
}

func NewAllocationController(store repositories.AllocationStore, ids utils.ChainIDGenerator, redisClient *redis.Client) *AllocationController {
	return &AllocationController{store: store, ids: ids, cache: newStockCache(redisClient)}
}

// CreateAdminAllocation starts a new lineage at the root level.
func (ac *AllocationController) CreateAdminAllocation(c echo.Context) error {
	var req models.AdminAllocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Item and at least one employee line with positive qty are required",
		})
	}

	rec := ac.newRecord(c, req.Item, req.Employees, req.Purpose, req.Date)
	rec.RootID = ac.ids.NextID(rootIDPrefix)

	return ac.insert(c, rec)
}

// CreateRMAllocation re-allocates downstream of a root allocation.
func (ac *AllocationController) CreateRMAllocation(c echo.Context) error {
	var req models.RMAllocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "rootId, item and at least one employee line with positive qty are required",
		})
	}

	rec := ac.newRecord(c, req.Item, req.Employees, req.Purpose, req.Date)
	rec.RootID = req.RootID
	rec.RMID = ac.ids.NextID(rmIDPrefix)
	if req.Region != "" {
		rec.Region = utils.SanitizeInput(req.Region)
	}

	return ac.insert(c, rec)
}

// CreateBMAllocation re-allocates downstream of an RM allocation.
func (ac *AllocationController) CreateBMAllocation(c echo.Context) error {
	var req models.BMAllocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "rootId, rmId, item and at least one employee line with positive qty are required",
		})
	}

	rec := ac.newRecord(c, req.Item, req.Employees, req.Purpose, req.Date)
	rec.RootID = req.RootID
	rec.RMID = req.RMID
	rec.BMID = ac.ids.NextID(bmIDPrefix)
	if req.Branch != "" {
		rec.Branch = utils.SanitizeInput(req.Branch)
	}

	return ac.insert(c, rec)
}

// CreateManagerAllocation re-allocates downstream of a BM allocation.
func (ac *AllocationController) CreateManagerAllocation(c echo.Context) error {
	var req models.ManagerAllocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "rootId, rmId, bmId, item and at least one employee line with positive qty are required",
		})
	}

	rec := ac.newRecord(c, req.Item, req.Employees, req.Purpose, req.Date)
	rec.RootID = req.RootID
	rec.RMID = req.RMID
	rec.BMID = req.BMID
	rec.ManagerID = ac.ids.NextID(managerIDPrefix)

	return ac.insert(c, rec)
}

// GetAdminHistory returns all allocation records, newest first. Supports
// ?item= and ?minQty= report filters.
func (ac *AllocationController) GetAdminHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := ac.store.FindAll(ctx)
	if err != nil {
		log.Printf("Failed to fetch allocation history: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch allocation history",
		})
	}

	if item := c.QueryParam("item"); item != "" {
		filtered := records[:0]
		for _, rec := range records {
			if strings.EqualFold(rec.Item, item) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if minQtyParam := c.QueryParam("minQty"); minQtyParam != "" {
		minQty, err := utils.ParseFloat(minQtyParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "minQty must be a number",
			})
		}
		filtered := records[:0]
		for _, rec := range records {
			var total float64
			for _, line := range rec.Employees {
				total += line.Qty.Value()
			}
			if total >= minQty {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Allocation history fetched successfully",
		Data:    records,
	})
}

// GetAssignment returns a single allocation record by id.
func (ac *AllocationController) GetAssignment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := ac.store.FindByID(ctx, c.Param("id"))
	if err == repositories.ErrNotFound {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Allocation record not found",
		})
	}
	if err != nil {
		log.Printf("Failed to fetch allocation record: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch allocation record",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Allocation record fetched successfully",
		Data:    rec,
	})
}

// newRecord fills the fields every level shares: provenance from the token
// identity, sanitized free text, creation timestamps.
func (ac *AllocationController) newRecord(c echo.Context, item string, employees []models.EmployeeLineRequest, purpose, date string) *models.AllocationRecord {
	now := time.Now()
	if date == "" {
		date = now.Format(dateLayout)
	}

	rec := &models.AllocationRecord{
		Item:      utils.SanitizeInput(item),
		Employees: models.ToEmployeeLines(employees),
		Purpose:   utils.SanitizeInput(purpose),
		Date:      date,
		CreatedAt: now,
	}
	if claims := middleware.CurrentUser(c); claims != nil {
		rec.AssignedBy = claims.EmpCode
		rec.Role = claims.Role
		rec.Region = claims.Region
		rec.Branch = claims.Branch
	}
	return rec
}

func (ac *AllocationController) insert(c echo.Context, rec *models.AllocationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := ac.store.Insert(ctx, rec)
	if err != nil {
		log.Printf("Failed to create allocation record: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create allocation",
		})
	}

	// A fresh allocation changes every recipient's available stock.
	empCodes := make([]string, 0, len(created.Employees))
	for _, line := range created.Employees {
		empCodes = append(empCodes, line.EmpCode)
	}
	ac.cache.invalidate(ctx, empCodes...)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Allocation created successfully",
		Data:    created,
	})
}
