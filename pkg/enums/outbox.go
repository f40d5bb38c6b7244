package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateServiceOrder OutboxAggregateType = "service_order"
	AggregateStockItem    OutboxAggregateType = "stock_item"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateServiceOrder,
	AggregateStockItem,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderInDiagnosis   OutboxEventType = "order_in_diagnosis"
	EventOrderInBudget      OutboxEventType = "order_in_budget"
	EventOrderCancelled     OutboxEventType = "order_cancelled"
	EventOrderFinalized     OutboxEventType = "order_finalized"
	EventOrderBudgetExpired OutboxEventType = "order_budget_expired"
	EventStockCritical      OutboxEventType = "stock_critical"
)

var validEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderInDiagnosis,
	EventOrderInBudget,
	EventOrderCancelled,
	EventOrderFinalized,
	EventOrderBudgetExpired,
	EventStockCritical,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
