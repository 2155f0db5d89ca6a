package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pledgetrack/backend/internal/interest"
	"github.com/pledgetrack/backend/internal/models"
	"github.com/pledgetrack/backend/internal/photo"
	"github.com/pledgetrack/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoanViewComputesInterestAndOutstanding(t *testing.T) {
	h := &Handler{Policy: interest.DefaultPolicy()}
	loan := models.LoanAccount{
		PTNo:         "PT1001",
		LoanAmount:   "10000",
		InterestRate: "24",
		PaidAmount:   "0",
		StartDate:    date(2024, time.January, 1),
		LastDate:     date(2024, time.January, 10),
	}

	view := h.loanView(loan)
	if view.Interest.Interest != 100 {
		t.Fatalf("interest = %d, want 100", view.Interest.Interest)
	}
	if view.Outstanding != "10100" {
		t.Fatalf("outstanding = %q, want 10100", view.Outstanding)
	}
}

func TestLoanViewBadAmounts(t *testing.T) {
	h := &Handler{Policy: interest.DefaultPolicy()}
	loan := models.LoanAccount{
		PTNo:         "PT1002",
		LoanAmount:   "not-a-number",
		InterestRate: "24",
		StartDate:    date(2024, time.January, 1),
		LastDate:     date(2024, time.June, 1),
	}

	view := h.loanView(loan)
	if view.Interest.Interval != "N/A" {
		t.Fatalf("interval = %q, want N/A", view.Interest.Interval)
	}
	if view.Outstanding != "N/A" {
		t.Fatalf("outstanding = %q, want N/A", view.Outstanding)
	}
}

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", &service.Error{Kind: service.KindNotFound, Message: "gone"}, http.StatusNotFound, "NOT_FOUND"},
		{"timeout", &service.Error{Kind: service.KindTimeout, Message: "slow"}, http.StatusGatewayTimeout, "TIMEOUT"},
		{"conflict", &service.Error{Kind: service.KindConflict, Message: "locked"}, http.StatusConflict, "CONFLICT"},
		{"storage", &service.Error{Kind: service.KindStorageUnavailable, Message: "down"}, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "UNEXPECTED"},
	}

	h := &Handler{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.writeServiceError(c, tc.err)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", body.Error.Code, tc.wantCode)
			}
		})
	}
}

func TestWriteServiceErrorValidationDetails(t *testing.T) {
	h := &Handler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.writeServiceError(c, &service.ValidationError{Violations: []service.FieldViolation{
		{Field: "category", Rule: "required"},
		{Field: "photo_url", Rule: "required for customer-wide save"},
	}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Error struct {
			Code    string                   `json:"code"`
			Details []service.FieldViolation `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code = %q", body.Error.Code)
	}
	if len(body.Error.Details) != 2 {
		t.Fatalf("details = %d violations, want 2", len(body.Error.Details))
	}
}

func TestDetailHiddenInProd(t *testing.T) {
	err := errors.New("table missing")
	dev := &Handler{Env: "dev"}
	if dev.detail(err) != "table missing" {
		t.Fatalf("dev detail should pass through")
	}
	prod := &Handler{Env: "prod"}
	if prod.detail(err) != nil {
		t.Fatalf("prod detail should be nil")
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	h := &Handler{Photos: photo.NewLocalUploader(t.TempDir(), "http://localhost/uploads"), MaxUploadMB: 1}
	r := gin.New()
	r.POST("/api/uploads", h.Upload)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, makeUploadRequest(t, "report.pdf", "application/pdf", []byte("%PDF")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUploadStoresPhoto(t *testing.T) {
	h := &Handler{Photos: photo.NewLocalUploader(t.TempDir(), "http://localhost/uploads"), MaxUploadMB: 1}
	r := gin.New()
	r.POST("/api/uploads", h.Upload)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, makeUploadRequest(t, "visit.jpg", "image/jpeg", []byte("jpegdata")))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		PhotoURL string `json:"photo_url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.PhotoURL == "" {
		t.Fatalf("photo_url missing in %s", w.Body.String())
	}
}

func makeUploadRequest(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="photo"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
