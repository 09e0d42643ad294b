package models

// Response is the JSON envelope every handler replies with.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// StockResponse pairs a ledger summary with the records it was folded from.
type StockResponse struct {
	Stock       []StockItem        `json:"stock"`
	Assignments []AllocationRecord `json:"assignments"`
}
