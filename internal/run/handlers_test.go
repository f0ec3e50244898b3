package run

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blambuer11/strun-sub000/internal/zone"
	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newTestApp(t *testing.T) (*fiber.App, *Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	svc := NewService(mock, nil, zone.NewService(mock), testConfig())
	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}
	RegisterRoutes(app.Group("/runs"), svc, auth)
	return app, svc, mock
}

func TestRunHandlersLifecycle(t *testing.T) {
	app, _, mock := newTestApp(t)

	expectStartRun(mock, "user-1", "walk")

	body, _ := json.Marshal(map[string]string{"mode": "walk"})
	req := httptest.NewRequest(http.MethodPost, "/runs/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("start run status: %v %d", err, resp.StatusCode)
	}
	var started Run
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if started.Mode != "walk" {
		t.Fatalf("unexpected mode: %s", started.Mode)
	}

	sampleBody, _ := json.Marshal(SampleRequest{Lat: 0, Lng: 0, AccuracyM: 10, TimestampMs: 1000})
	req = httptest.NewRequest(http.MethodPost, "/runs/"+started.ID+"/samples", bytes.NewReader(sampleBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest status: %v %d", err, resp.StatusCode)
	}
	var ingest IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&ingest); err != nil {
		t.Fatalf("decode ingest: %v", err)
	}
	if !ingest.Accepted {
		t.Fatalf("expected accepted sample")
	}

	mock.ExpectExec(`UPDATE runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	req = httptest.NewRequest(http.MethodPost, "/runs/"+started.ID+"/stop", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status: %v %d", err, resp.StatusCode)
	}
}

func TestRunHandlersSampleNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	body, _ := json.Marshal(SampleRequest{Lat: 0, Lng: 0, AccuracyM: 10})
	req := httptest.NewRequest(http.MethodPost, "/runs/missing/samples", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %v %d", err, resp.StatusCode)
	}
}

func TestRunHandlersSampleParseError(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/runs/any/samples", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %v %d", err, resp.StatusCode)
	}
}

func TestRunHandlersSummary(t *testing.T) {
	app, _, mock := newTestApp(t)

	mock.ExpectQuery(`SELECT id, COALESCE\(distance_m,0\)`).
		WithArgs("run-9").
		WillReturnRows(pgxmock.NewRows([]string{"id", "distance_m", "duration_sec", "point_count", "zone_count", "verified"}).
			AddRow("run-9", 900.0, int64(300), 60, 0, true))

	req := httptest.NewRequest(http.MethodGet, "/runs/run-9/summary", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status: %v %d", err, resp.StatusCode)
	}
	var sum Summary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.DistanceM != 900 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
