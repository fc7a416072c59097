package intake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clintriage/triage/internal/domain/triage"
	"github.com/clintriage/triage/internal/domain/worklist"
)

func testServer(t *testing.T) (*echo.Echo, *worklist.Board) {
	t.Helper()
	gen := &fakeGenerator{response: "Summary. ||| Do the thing ||| General Medicine"}
	svc, board, _ := testService(t, gen, triage.NewActiveSet(triage.FeatureColumns))

	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e, board
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDocumentEndpoint(t *testing.T) {
	e, board := testServer(t)

	rec := postJSON(e, "/api/v1/intake/document",
		`{"patient_id":"p1","text":"Pt with O2 sat at 85%."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var entry worklist.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.PatientID != "p1" || entry.Level != 3 {
		t.Errorf("entry = %s level %d, want p1 level 3", entry.PatientID, entry.Level)
	}
	if board.Len() != 1 {
		t.Errorf("board length = %d, want 1", board.Len())
	}
}

func TestDocumentEndpointRequiresPatientID(t *testing.T) {
	e, _ := testServer(t)

	rec := postJSON(e, "/api/v1/intake/document", `{"text":"HR 120 bpm."}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDocumentEndpointRejectsMalformedBody(t *testing.T) {
	e, _ := testServer(t)

	rec := postJSON(e, "/api/v1/intake/document", `{"patient_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestManualEndpoint(t *testing.T) {
	e, _ := testServer(t)

	rec := postJSON(e, "/api/v1/intake/manual",
		`{"patient_id":"p2","age":60,"heart_rate":110,"systolic_blood_pressure":150,
		  "oxygen_saturation":96,"body_temperature":38.2,"pain_level":9,
		  "chronic_disease_count":2,"previous_er_visits":1,"arrival_mode":"ambulance"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var entry worklist.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.Level != 1 || entry.Record.HeartRate != 110 {
		t.Errorf("entry = level %d hr %d, want level 1 hr 110", entry.Level, entry.Record.HeartRate)
	}
}

func TestManualEndpointValidation(t *testing.T) {
	e, _ := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing arrival mode", `{"patient_id":"p2","pain_level":4}`, http.StatusBadRequest},
		{"pain above range", `{"patient_id":"p2","pain_level":11,"arrival_mode":"walk_in"}`, http.StatusBadRequest},
		{"pain below range", `{"patient_id":"p2","pain_level":0,"arrival_mode":"walk_in"}`, http.StatusBadRequest},
		{"unseen arrival mode", `{"patient_id":"p2","pain_level":4,"arrival_mode":"helicopter"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := postJSON(e, "/api/v1/intake/manual", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
