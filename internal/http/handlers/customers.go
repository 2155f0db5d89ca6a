package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pledgetrack/backend/internal/http/middleware"
	"github.com/pledgetrack/backend/internal/interest"
	"github.com/pledgetrack/backend/internal/models"
)

// @Summary List assigned customers
// @Description Customers with loans in the agent's current open cycle
// @Tags customers
// @Produce json
// @Param q query string false "name or id filter"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} map[string]any
// @Router /api/customers [get]
func (h *Handler) CustomersList(c *gin.Context) {
	agentID := c.GetString(middleware.ContextAgentID)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	customers, err := h.Store.ListCustomersForAgent(c.Request.Context(), agentID, c.Query("q"), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list customers", h.detail(err))
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "count": len(customers)})
}

// LoanView is a loan row decorated with the computed interest figures
// the visit screen renders.
type LoanView struct {
	models.LoanAccount
	Interest    interest.Result `json:"interest"`
	Outstanding string          `json:"outstanding"`
}

// @Summary Customer loan detail
// @Description The customer's loans assigned to the agent, with accrued interest
// @Tags customers
// @Produce json
// @Param id path string true "customer id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/customers/{id}/loans [get]
func (h *Handler) CustomerLoans(c *gin.Context) {
	agentID := c.GetString(middleware.ContextAgentID)
	customerID := c.Param("id")

	customer, err := h.Store.GetCustomer(c.Request.Context(), customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customer", h.detail(err))
		return
	}

	loans, err := h.Store.ListLoansForCustomer(c.Request.Context(), customerID, agentID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list loans", h.detail(err))
		return
	}

	views := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		views = append(views, h.loanView(l))
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer, "loans": views, "count": len(views)})
}

func (h *Handler) loanView(l models.LoanAccount) LoanView {
	view := LoanView{LoanAccount: l, Outstanding: "N/A"}

	principal, perr := decimal.NewFromString(l.LoanAmount)
	rate, rerr := decimal.NewFromString(l.InterestRate)
	if perr != nil || rerr != nil {
		view.Interest = interest.NotComputable()
		return view
	}

	view.Interest = interest.Compute(principal, rate, l.StartDate, l.LastDate, h.Policy.MinDays(rate))
	if view.Interest.Interval == "N/A" {
		return view
	}

	outstanding := principal.Add(decimal.NewFromInt(view.Interest.Interest))
	if paid, err := decimal.NewFromString(l.PaidAmount); err == nil {
		outstanding = outstanding.Sub(paid)
	}
	view.Outstanding = outstanding.String()
	return view
}
