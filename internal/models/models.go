package models

import "time"

type Agent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BranchID     string    `json:"branch_id"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Customer struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	BranchID  string   `json:"branch_id"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	LoanCount int      `json:"loan_count,omitempty"`
	Visited   bool     `json:"visited"`
}

// LoanAccount is one pawn/loan contract ("PT") tracked for recovery.
// Amount and rate columns are carried as numeric text so no precision is
// lost between the database and the interest calculator.
type LoanAccount struct {
	PTNo         string     `json:"pt_no"`
	CustomerID   string     `json:"customer_id"`
	LoanAmount   string     `json:"loan_amount"`
	InterestRate string     `json:"interest_rate"`
	PaidAmount   string     `json:"paid_amount"`
	StartDate    time.Time  `json:"start_date"`
	LastDate     time.Time  `json:"last_date"`
	TenureMonths int        `json:"tenure_months"`
	Ornament     string     `json:"ornament,omitempty"`
	FirstLetter  *time.Time `json:"first_letter_date,omitempty"`
	SecondLetter *time.Time `json:"second_letter_date,omitempty"`
}

// Assignment binds a LoanAccount to an Agent for one visit cycle. The row
// with the maximum NoOfVisit for a (pt_no, agent_id) pair is the current
// open cycle; closed rows never receive new responses.
type Assignment struct {
	ID        string    `json:"id"`
	PTNo      string    `json:"pt_no"`
	AgentID   string    `json:"agent_id"`
	NoOfVisit int       `json:"no_of_visit"`
	IsClosed  bool      `json:"is_closed"`
	Visited   bool      `json:"visited"`
	CreatedAt time.Time `json:"created_at"`
}

// RecoveryResponse is one recorded visit outcome for a (loan, agent, cycle)
// triple. At most one row exists per triple; re-submissions in the same
// cycle update it in place.
type RecoveryResponse struct {
	ID          string    `json:"id"`
	PTNo        string    `json:"pt_no"`
	CustomerID  string    `json:"customer_id"`
	AgentID     string    `json:"agent_id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	NoOfVisit   int       `json:"no_of_visit"`
	DeviceID    string    `json:"device_id,omitempty"`
	BranchID    string    `json:"branch_id,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}
