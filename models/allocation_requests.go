package models

// EmployeeLineRequest is one recipient line in an allocation request.
type EmployeeLineRequest struct {
	EmpCode string  `json:"empCode" validate:"required"`
	Name    string  `json:"name"`
	Qty     float64 `json:"qty" validate:"required,gt=0"`
}

// AdminAllocationRequest starts a new lineage at the root level.
type AdminAllocationRequest struct {
	Item      string                `json:"item" validate:"required"`
	Employees []EmployeeLineRequest `json:"employees" validate:"required,min=1,dive"`
	Purpose   string                `json:"purpose"`
	Date      string                `json:"date"`
}

// RMAllocationRequest re-allocates downstream of a root allocation. The
// ancestor chain id comes from the request body, not a lookup.
type RMAllocationRequest struct {
	RootID    string                `json:"rootId" validate:"required"`
	Item      string                `json:"item" validate:"required"`
	Employees []EmployeeLineRequest `json:"employees" validate:"required,min=1,dive"`
	Purpose   string                `json:"purpose"`
	Region    string                `json:"region"`
	Date      string                `json:"date"`
}

// BMAllocationRequest re-allocates downstream of an RM allocation.
type BMAllocationRequest struct {
	RootID    string                `json:"rootId" validate:"required"`
	RMID      string                `json:"rmId" validate:"required"`
	Item      string                `json:"item" validate:"required"`
	Employees []EmployeeLineRequest `json:"employees" validate:"required,min=1,dive"`
	Purpose   string                `json:"purpose"`
	Branch    string                `json:"branch"`
	Date      string                `json:"date"`
}

// ManagerAllocationRequest re-allocates downstream of a BM allocation.
type ManagerAllocationRequest struct {
	RootID    string                `json:"rootId" validate:"required"`
	RMID      string                `json:"rmId" validate:"required"`
	BMID      string                `json:"bmId" validate:"required"`
	Item      string                `json:"item" validate:"required"`
	Employees []EmployeeLineRequest `json:"employees" validate:"required,min=1,dive"`
	Purpose   string                `json:"purpose"`
	Date      string                `json:"date"`
}

// UsedSampleRequest reports samples consumed against a customer.
type UsedSampleRequest struct {
	AssignmentID string  `json:"assignmentId" validate:"required"`
	EmpCode      string  `json:"empCode" validate:"required"`
	CustomerID   string  `json:"customerId" validate:"required"`
	Qty          float64 `json:"qty" validate:"required,gt=0"`
}

// LRUpdateRequest annotates a lineage with a lorry-receipt number.
type LRUpdateRequest struct {
	LRNo string `json:"lrNo" validate:"required"`
}

// ToEmployeeLines converts request lines into fresh ledger lines.
func ToEmployeeLines(reqs []EmployeeLineRequest) []EmployeeLine {
	lines := make([]EmployeeLine, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, EmployeeLine{
			EmpCode: r.EmpCode,
			Name:    r.Name,
			Qty:     Quantity(r.Qty),
		})
	}
	return lines
}
