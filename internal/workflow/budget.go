package workflow

import (
	"time"

	"github.com/grupo95/mecanica-backend/pkg/enums"
)

// DefaultBudgetValidity is how long a sent budget stays answerable.
const DefaultBudgetValidity = 72 * time.Hour

// BudgetDecision is the outcome of evaluating a budget's age.
type BudgetDecision int

const (
	// BudgetValid means the budget can still be accepted or rejected.
	BudgetValid BudgetDecision = iota
	// BudgetShouldExpire means the window has passed but the expiration
	// has not been recorded yet; the caller must persist it.
	BudgetShouldExpire
	// BudgetAlreadyExpired means the order already sits in the expired
	// status and no date math is needed.
	BudgetAlreadyExpired
)

// EvaluateBudget applies the validity window to an order's current state.
// It is a pure function: recording the expiration is the caller's job.
func EvaluateBudget(status enums.OrderStatus, budgetSentAt *time.Time, now time.Time, validity time.Duration) BudgetDecision {
	if status == enums.OrderStatusBudgetExpired {
		return BudgetAlreadyExpired
	}
	if status != enums.OrderStatusAwaitingApproval || budgetSentAt == nil {
		return BudgetValid
	}
	if validity <= 0 {
		validity = DefaultBudgetValidity
	}
	if !budgetSentAt.Add(validity).After(now) {
		return BudgetShouldExpire
	}
	return BudgetValid
}
