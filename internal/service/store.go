package service

import (
	"context"

	"github.com/pledgetrack/backend/internal/models"
)

// ResponseTx is the slice of the store the protocol uses inside one
// transaction. Reads lock the rows they return so the cycle cannot
// advance between the resolution step and the writes.
type ResponseTx interface {
	// CurrentCycleLoans returns the open assignments for the customer's
	// loans held by the agent, one per loan at its maximum visit number.
	CurrentCycleLoans(ctx context.Context, customerID, agentID string) ([]models.Assignment, error)
	// ResponseForCycle returns the response row for (loan, agent, cycle),
	// or nil when the cycle has no row yet.
	ResponseForCycle(ctx context.Context, ptNo, agentID string, noOfVisit int) (*models.RecoveryResponse, error)
	InsertResponse(ctx context.Context, resp models.RecoveryResponse) error
	UpdateResponse(ctx context.Context, resp models.RecoveryResponse) error
}

type ResponseStore interface {
	WithTx(ctx context.Context, fn func(tx ResponseTx) error) error
	// MarkAssignmentsVisited runs outside the save transaction; its
	// failure is non-critical to the save outcome.
	MarkAssignmentsVisited(ctx context.Context, agentID string, ptNos []string) error
}
