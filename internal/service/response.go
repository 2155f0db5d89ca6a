package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pledgetrack/backend/internal/models"
)

// CategoryOthers is the free-text sentinel category; it requires a
// non-empty description.
const CategoryOthers = "Others"

const defaultSaveTimeout = 30 * time.Second

type Scope int

const (
	// ScopeAllLoans fans the response out to every loan of the customer
	// currently assigned to the agent.
	ScopeAllLoans Scope = iota
	// ScopeSingleLoan targets one explicit PT number.
	ScopeSingleLoan
)

type SaveRequest struct {
	AgentID     string
	CustomerID  string
	Scope       Scope
	PTNo        string
	Category    string
	Description string
	PhotoURL    *string
	Lat         *float64
	Lon         *float64
	DeviceID    string
	BranchID    string
}

type SaveResult struct {
	UpdatedCount    int      `json:"updated_count"`
	InsertedCount   int      `json:"inserted_count"`
	AffectedLoanIDs []string `json:"affected_loan_ids"`
}

// ResponseService implements the per-visit response upsert protocol.
// Both endpoint variants run through Save; the scope argument is the
// only difference between them.
type ResponseService struct {
	Store   ResponseStore
	Logger  zerolog.Logger
	Timeout time.Duration
}

// Save resolves the current-cycle loan set for (customer, agent) and
// upserts one RecoveryResponse per loan, all inside one transaction.
// A partial save across loans is never observable. The visited-flag
// update runs after commit and is deliberately outside that boundary.
func (s *ResponseService) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if err := validateSave(req); err != nil {
		return SaveResult{}, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var result SaveResult
	err := s.Store.WithTx(ctx, func(tx ResponseTx) error {
		open, err := tx.CurrentCycleLoans(ctx, req.CustomerID, req.AgentID)
		if err != nil {
			return err
		}

		targets := open
		if req.Scope == ScopeSingleLoan {
			targets = nil
			for _, a := range open {
				if a.PTNo == req.PTNo {
					targets = []models.Assignment{a}
					break
				}
			}
			if len(targets) == 0 {
				return &Error{Kind: KindNotFound, Message: "loan " + req.PTNo + " has no open assignment for this agent"}
			}
		}
		if len(targets) == 0 {
			return &Error{Kind: KindNotFound, Message: "no open assignment for customer " + req.CustomerID}
		}

		now := time.Now().UTC()
		for _, a := range targets {
			existing, err := tx.ResponseForCycle(ctx, a.PTNo, req.AgentID, a.NoOfVisit)
			if err != nil {
				return err
			}
			if existing != nil {
				upd := mergeResponse(*existing, req, now)
				upd.NoOfVisit = a.NoOfVisit
				if err := tx.UpdateResponse(ctx, upd); err != nil {
					return err
				}
				result.UpdatedCount++
			} else {
				ins := newResponse(req, a.PTNo, a.NoOfVisit, now)
				if err := tx.InsertResponse(ctx, ins); err != nil {
					return err
				}
				result.InsertedCount++
			}
			result.AffectedLoanIDs = append(result.AffectedLoanIDs, a.PTNo)
		}
		return nil
	})
	if err != nil {
		return SaveResult{}, classify(err)
	}

	s.markVisited(ctx, req.AgentID, result.AffectedLoanIDs)
	return result, nil
}

// markVisited flags the assignments best-effort. It detaches from the
// request's cancellation so a client dropping right after commit does
// not skip the flag, and any failure is logged, never escalated.
func (s *ResponseService) markVisited(ctx context.Context, agentID string, ptNos []string) {
	if len(ptNos) == 0 {
		return
	}
	vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Store.MarkAssignmentsVisited(vctx, agentID, ptNos); err != nil {
		s.Logger.Error().Err(err).
			Str("agent_id", agentID).
			Strs("pt_nos", ptNos).
			Msg("visited flag update failed")
	}
}

func validateSave(req SaveRequest) error {
	var violations []FieldViolation
	if strings.TrimSpace(req.CustomerID) == "" {
		violations = append(violations, FieldViolation{Field: "customer_id", Rule: "required"})
	}
	if strings.TrimSpace(req.Category) == "" {
		violations = append(violations, FieldViolation{Field: "category", Rule: "required"})
	}
	if req.Category == CategoryOthers && strings.TrimSpace(req.Description) == "" {
		violations = append(violations, FieldViolation{Field: "description", Rule: "required when category is Others"})
	}
	if req.Scope == ScopeAllLoans && (req.PhotoURL == nil || strings.TrimSpace(*req.PhotoURL) == "") {
		violations = append(violations, FieldViolation{Field: "photo_url", Rule: "required for customer-wide save"})
	}
	if req.Scope == ScopeSingleLoan && strings.TrimSpace(req.PTNo) == "" {
		violations = append(violations, FieldViolation{Field: "pt_no", Rule: "required for single-loan save"})
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// mergeResponse overwrites the existing row with the new submission but
// keeps the stored photo when the submission carries none, and keeps the
// stored description when the submission's is empty and the category is
// not the free-text one.
func mergeResponse(existing models.RecoveryResponse, req SaveRequest, now time.Time) models.RecoveryResponse {
	upd := existing
	upd.Category = req.Category
	upd.Lat = req.Lat
	upd.Lon = req.Lon
	upd.DeviceID = req.DeviceID
	upd.BranchID = req.BranchID
	upd.RecordedAt = now

	if req.PhotoURL != nil && strings.TrimSpace(*req.PhotoURL) != "" {
		upd.PhotoURL = req.PhotoURL
	}

	desc := strings.TrimSpace(req.Description)
	if desc == "" && req.Category != CategoryOthers && existing.Description != "" {
		// keep the prior free-text note
	} else {
		upd.Description = desc
	}
	return upd
}

func newResponse(req SaveRequest, ptNo string, noOfVisit int, now time.Time) models.RecoveryResponse {
	return models.RecoveryResponse{
		ID:          uuid.New().String(),
		PTNo:        ptNo,
		CustomerID:  req.CustomerID,
		AgentID:     req.AgentID,
		Category:    req.Category,
		Description: strings.TrimSpace(req.Description),
		PhotoURL:    req.PhotoURL,
		Lat:         req.Lat,
		Lon:         req.Lon,
		NoOfVisit:   noOfVisit,
		DeviceID:    req.DeviceID,
		BranchID:    req.BranchID,
		RecordedAt:  now,
	}
}
