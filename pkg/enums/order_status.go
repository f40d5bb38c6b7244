package enums

import "fmt"

// OrderStatus tracks the lifecycle of a service order.
type OrderStatus string

const (
	OrderStatusReceived         OrderStatus = "received"
	OrderStatusInDiagnosis      OrderStatus = "in_diagnosis"
	OrderStatusAwaitingApproval OrderStatus = "awaiting_approval"
	OrderStatusInExecution      OrderStatus = "in_execution"
	OrderStatusFinalized        OrderStatus = "finalized"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusBudgetExpired    OrderStatus = "budget_expired"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusInDiagnosis,
	OrderStatusAwaitingApproval,
	OrderStatusInExecution,
	OrderStatusFinalized,
	OrderStatusCancelled,
	OrderStatusBudgetExpired,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further workflow transition leaves the status.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusFinalized, OrderStatusCancelled, OrderStatusBudgetExpired:
		return true
	default:
		return false
	}
}

// AllowsMaterialAttach reports whether materials may still be appended.
func (o OrderStatus) AllowsMaterialAttach() bool {
	return o == OrderStatusReceived || o == OrderStatusInDiagnosis
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
