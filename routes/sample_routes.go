package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/hardikmodi/salestrack_backend/controllers"
	"github.com/hardikmodi/salestrack_backend/middleware"
	"github.com/hardikmodi/salestrack_backend/repositories"
	"github.com/hardikmodi/salestrack_backend/utils"
)

// RegisterSampleRoutes sets up the sample-allocation API. The store, id
// generator and cache client are injected so tests can run the full route
// table against the in-memory store.
func RegisterSampleRoutes(e *echo.Echo, store repositories.AllocationStore, ids utils.ChainIDGenerator, redisClient *redis.Client) {
	allocationController := controllers.NewAllocationController(store, ids, redisClient)
	stockController := controllers.NewStockController(store, redisClient)
	usageController := controllers.NewUsageController(store, redisClient)
	vendorController := controllers.NewVendorController(store)

	samples := e.Group("/api/samples")
	samples.Use(middleware.Protect())

	// Allocation creation, one route per hierarchy level
	samples.POST("/admin", allocationController.CreateAdminAllocation, middleware.RequireRole(middleware.RoleAdmin))
	samples.POST("/allocate/rm", allocationController.CreateRMAllocation, middleware.RequireRole(middleware.RoleRM))
	samples.POST("/allocate/bm", allocationController.CreateBMAllocation, middleware.RequireRole(middleware.RoleBM))
	samples.POST("/allocate/manager", allocationController.CreateManagerAllocation, middleware.RequireRole(middleware.RoleManager))

	// History and per-record lookup
	samples.GET("/history/admin", allocationController.GetAdminHistory, middleware.RequireRole(middleware.RoleAdmin))
	samples.GET("/assignments/:id", allocationController.GetAssignment)

	// Stock ledger views
	samples.GET("/regional/stock", stockController.GetRegionalStock, middleware.RequireRole(middleware.RoleRM))
	samples.GET("/branch/stock", stockController.GetBranchStock, middleware.RequireRole(middleware.RoleBM))
	samples.GET("/manager/stock", stockController.GetManagerStock, middleware.RequireRole(middleware.RoleManager))
	samples.GET("/employee/:empCode", stockController.GetEmployeeStock)

	// Usage recording
	samples.POST("/assignments/used-sample", usageController.RecordUsedSample, middleware.RequireRole(middleware.RoleEmployee))

	// Vendor dispatch and LR tracking
	samples.POST("/dispatch/:rootId", vendorController.DispatchLineage)
	samples.PUT("/vendor/lr/:rootId", vendorController.UpdateLRNumber)
	samples.GET("/vendor/list", vendorController.GetVendorList, middleware.RequireRole(middleware.RoleVendor, middleware.RoleAdmin))
}
