package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pledgetrack/backend/internal/models"
	"github.com/pledgetrack/backend/internal/service"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// WithTx runs the response-protocol callback inside one transaction.
// The callback's reads and writes share the transaction, so the
// current-cycle resolution and the upserts cannot interleave with a
// concurrent cycle advance.
func (s *Store) WithTx(ctx context.Context, fn func(tx service.ResponseTx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(&responseTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type responseTx struct {
	tx pgx.Tx
}

// CurrentCycleLoans locks and returns the open assignment rows for the
// customer's loans held by the agent, each at its maximum visit number.
func (t *responseTx) CurrentCycleLoans(ctx context.Context, customerID, agentID string) ([]models.Assignment, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT a.id, a.pt_no, a.agent_id, a.no_of_visit, a.is_closed, a.visited, a.created_at
		FROM assignments a
		JOIN loan_accounts l ON l.pt_no = a.pt_no
		WHERE l.customer_id = $1
		  AND a.agent_id = $2
		  AND a.is_closed = FALSE
		  AND a.no_of_visit = (
			SELECT MAX(a2.no_of_visit) FROM assignments a2
			WHERE a2.pt_no = a.pt_no AND a2.agent_id = a.agent_id
		  )
		ORDER BY a.pt_no
		FOR UPDATE OF a
	`, customerID, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.PTNo, &a.AgentID, &a.NoOfVisit, &a.IsClosed, &a.Visited, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *responseTx) ResponseForCycle(ctx context.Context, ptNo, agentID string, noOfVisit int) (*models.RecoveryResponse, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, pt_no, customer_id, agent_id, category, description, photo_url, lat, lon,
		       no_of_visit, device_id, branch_id, recorded_at
		FROM recovery_responses
		WHERE pt_no = $1 AND agent_id = $2 AND no_of_visit = $3
		ORDER BY recorded_at DESC
		LIMIT 1
		FOR UPDATE
	`, ptNo, agentID, noOfVisit)

	var r models.RecoveryResponse
	err := row.Scan(&r.ID, &r.PTNo, &r.CustomerID, &r.AgentID, &r.Category, &r.Description,
		&r.PhotoURL, &r.Lat, &r.Lon, &r.NoOfVisit, &r.DeviceID, &r.BranchID, &r.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *responseTx) InsertResponse(ctx context.Context, r models.RecoveryResponse) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO recovery_responses
			(id, pt_no, customer_id, agent_id, category, description, photo_url, lat, lon,
			 no_of_visit, device_id, branch_id, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, r.ID, r.PTNo, r.CustomerID, r.AgentID, r.Category, r.Description, r.PhotoURL, r.Lat, r.Lon,
		r.NoOfVisit, r.DeviceID, r.BranchID, r.RecordedAt)
	return err
}

func (t *responseTx) UpdateResponse(ctx context.Context, r models.RecoveryResponse) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE recovery_responses SET
			category = $1,
			description = $2,
			photo_url = $3,
			lat = $4,
			lon = $5,
			no_of_visit = $6,
			device_id = $7,
			branch_id = $8,
			recorded_at = $9
		WHERE id = $10
	`, r.Category, r.Description, r.PhotoURL, r.Lat, r.Lon, r.NoOfVisit, r.DeviceID, r.BranchID,
		r.RecordedAt, r.ID)
	return err
}

// MarkAssignmentsVisited flags the current open assignments after a save
// commits. Runs on the pool, outside the save transaction.
func (s *Store) MarkAssignmentsVisited(ctx context.Context, agentID string, ptNos []string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE assignments a SET visited = TRUE
		WHERE a.agent_id = $1
		  AND a.pt_no = ANY($2)
		  AND a.is_closed = FALSE
		  AND a.no_of_visit = (
			SELECT MAX(a2.no_of_visit) FROM assignments a2
			WHERE a2.pt_no = a.pt_no AND a2.agent_id = a.agent_id
		  )
	`, agentID, ptNos)
	return err
}

func (s *Store) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, branch_id, phone, password_hash, active, created_at
		FROM agents WHERE id = $1
	`, agentID)
	var a models.Agent
	if err := row.Scan(&a.ID, &a.Name, &a.BranchID, &a.Phone, &a.PasswordHash, &a.Active, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListCustomersForAgent returns the customers with at least one loan in
// an open current-cycle assignment to the agent; Visited is true once
// every such assignment carries the visited flag.
func (s *Store) ListCustomersForAgent(ctx context.Context, agentID string, q string, limit, offset int) ([]models.Customer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT c.id, c.name, c.phone, c.address, c.city, c.branch_id, c.lat, c.lon,
		       COUNT(DISTINCT l.pt_no) AS loan_count,
		       BOOL_AND(a.visited) AS visited
		FROM customers c
		JOIN loan_accounts l ON l.customer_id = c.id
		JOIN assignments a ON a.pt_no = l.pt_no
		WHERE a.agent_id = $1
		  AND a.is_closed = FALSE
		  AND a.no_of_visit = (
			SELECT MAX(a2.no_of_visit) FROM assignments a2
			WHERE a2.pt_no = a.pt_no AND a2.agent_id = a.agent_id
		  )`
	args := []any{agentID}
	if q != "" {
		args = append(args, "%"+q+"%")
		query += fmt.Sprintf(" AND (c.name ILIKE $%d OR c.id ILIKE $%d)", len(args), len(args))
	}
	query += ` GROUP BY c.id, c.name, c.phone, c.address, c.city, c.branch_id, c.lat, c.lon
		ORDER BY c.name ASC`
	query += " LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.City, &c.BranchID, &c.Lat, &c.Lon, &c.LoanCount, &c.Visited); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, phone, address, city, branch_id, lat, lon
		FROM customers WHERE id = $1
	`, customerID)
	var c models.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.City, &c.BranchID, &c.Lat, &c.Lon); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListLoansForCustomer returns the customer's loans currently assigned
// to the agent in an open cycle. Amount columns come back as text so
// the interest calculator keeps full numeric precision.
func (s *Store) ListLoansForCustomer(ctx context.Context, customerID, agentID string) ([]models.LoanAccount, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT l.pt_no, l.customer_id, l.loan_amount::text, l.interest_rate::text, l.paid_amount::text,
		       l.start_date, l.last_date, l.tenure_months, COALESCE(l.ornament, ''),
		       l.first_letter_date, l.second_letter_date
		FROM loan_accounts l
		JOIN assignments a ON a.pt_no = l.pt_no
		WHERE l.customer_id = $1
		  AND a.agent_id = $2
		  AND a.is_closed = FALSE
		  AND a.no_of_visit = (
			SELECT MAX(a2.no_of_visit) FROM assignments a2
			WHERE a2.pt_no = a.pt_no AND a2.agent_id = a.agent_id
		  )
		ORDER BY l.pt_no
	`, customerID, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LoanAccount
	for rows.Next() {
		var l models.LoanAccount
		if err := rows.Scan(&l.PTNo, &l.CustomerID, &l.LoanAmount, &l.InterestRate, &l.PaidAmount,
			&l.StartDate, &l.LastDate, &l.TenureMonths, &l.Ornament, &l.FirstLetter, &l.SecondLetter); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// HistoryItem pairs a past response with the customer's registered
// coordinates so the caller can show the visit distance.
type HistoryItem struct {
	Response    models.RecoveryResponse `json:"response"`
	CustomerLat *float64                `json:"-"`
	CustomerLon *float64                `json:"-"`
}

func (s *Store) ListResponseHistory(ctx context.Context, agentID, customerID string, limit, offset int) ([]HistoryItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT r.id, r.pt_no, r.customer_id, r.agent_id, r.category, r.description, r.photo_url,
		       r.lat, r.lon, r.no_of_visit, r.device_id, r.branch_id, r.recorded_at,
		       c.lat, c.lon
		FROM recovery_responses r
		JOIN customers c ON c.id = r.customer_id
		WHERE r.agent_id = $1`
	args := []any{agentID}
	if customerID != "" {
		args = append(args, customerID)
		query += fmt.Sprintf(" AND r.customer_id = $%d", len(args))
	}
	query += " ORDER BY r.recorded_at DESC"
	query += " LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryItem
	for rows.Next() {
		var item HistoryItem
		r := &item.Response
		if err := rows.Scan(&r.ID, &r.PTNo, &r.CustomerID, &r.AgentID, &r.Category, &r.Description,
			&r.PhotoURL, &r.Lat, &r.Lon, &r.NoOfVisit, &r.DeviceID, &r.BranchID, &r.RecordedAt,
			&item.CustomerLat, &item.CustomerLon); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) ListCustomersMissingCoords(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, phone, address, city, branch_id, lat, lon
		FROM customers
		WHERE lat IS NULL OR lon IS NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.City, &c.BranchID, &c.Lat, &c.Lon); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCustomerCoords(ctx context.Context, customerID string, lat, lon float64) error {
	_, err := s.Pool.Exec(ctx, `UPDATE customers SET lat = $1, lon = $2 WHERE id = $3`, lat, lon, customerID)
	return err
}

// NormalizePTNo trims and upper-cases a PT number as typed by an agent.
func NormalizePTNo(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
