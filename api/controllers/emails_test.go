package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marisolvega/funnelmail-backend/internal/queue"
	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

type testQueueService struct {
	enqueueFn func(ctx context.Context, req queue.EnqueueRequest) (*queue.EnqueueResult, error)
	getJobFn  func(ctx context.Context, id uuid.UUID) (*models.EmailJob, error)
	statsFn   func(ctx context.Context) (map[enums.JobStatus]int64, error)
}

func (s *testQueueService) Enqueue(ctx context.Context, req queue.EnqueueRequest) (*queue.EnqueueResult, error) {
	if s.enqueueFn != nil {
		return s.enqueueFn(ctx, req)
	}
	return &queue.EnqueueResult{}, nil
}

func (s *testQueueService) GetJob(ctx context.Context, id uuid.UUID) (*models.EmailJob, error) {
	if s.getJobFn != nil {
		return s.getJobFn(ctx, id)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "email job not found")
}

func (s *testQueueService) Stats(ctx context.Context) (map[enums.JobStatus]int64, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestEnqueueEmailCreated(t *testing.T) {
	jobID := uuid.New()
	scheduled := time.Date(2026, 3, 1, 12, 45, 0, 0, time.UTC)
	svc := &testQueueService{
		enqueueFn: func(ctx context.Context, req queue.EnqueueRequest) (*queue.EnqueueResult, error) {
			if req.RecipientEmail != "lead@example.com" {
				t.Fatalf("unexpected recipient %q", req.RecipientEmail)
			}
			if req.DelayMinutes != 45 {
				t.Fatalf("unexpected delay %d", req.DelayMinutes)
			}
			if req.Priority != enums.PriorityHigh {
				t.Fatalf("unexpected priority %s", req.Priority)
			}
			return &queue.EnqueueResult{JobID: jobID, ScheduledFor: scheduled}, nil
		},
	}

	body := `{
		"recipientEmail": "lead@example.com",
		"subject": "Welcome",
		"htmlContent": "<p>Hi</p>",
		"emailType": "welcome",
		"delayMinutes": 45,
		"priority": "high"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails", strings.NewReader(body))
	resp := httptest.NewRecorder()

	EnqueueEmail(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data queue.EnqueueResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.JobID != jobID {
		t.Fatalf("expected job id %s, got %s", jobID, envelope.Data.JobID)
	}
}

func TestEnqueueEmailSkippedForUnsubscribed(t *testing.T) {
	svc := &testQueueService{
		enqueueFn: func(ctx context.Context, req queue.EnqueueRequest) (*queue.EnqueueResult, error) {
			return &queue.EnqueueResult{Skipped: true}, nil
		},
	}

	body := `{
		"recipientEmail": "lead@example.com",
		"subject": "Welcome",
		"htmlContent": "<p>Hi</p>",
		"emailType": "welcome"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails", strings.NewReader(body))
	resp := httptest.NewRecorder()

	EnqueueEmail(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data queue.EnqueueResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data.Skipped {
		t.Fatal("expected skipped response")
	}
}

func TestEnqueueEmailRejectsBadBody(t *testing.T) {
	svc := &testQueueService{
		enqueueFn: func(ctx context.Context, req queue.EnqueueRequest) (*queue.EnqueueResult, error) {
			t.Fatal("service must not be called for an invalid body")
			return nil, nil
		},
	}

	cases := map[string]string{
		"missing recipient": `{"subject":"s","htmlContent":"<p>x</p>","emailType":"welcome"}`,
		"bad email":         `{"recipientEmail":"nope","subject":"s","htmlContent":"<p>x</p>","emailType":"welcome"}`,
		"bad priority":      `{"recipientEmail":"a@b.com","subject":"s","htmlContent":"<p>x</p>","emailType":"welcome","priority":"urgent"}`,
		"unknown field":     `{"recipientEmail":"a@b.com","subject":"s","htmlContent":"<p>x</p>","emailType":"welcome","nope":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/emails", strings.NewReader(body))
			resp := httptest.NewRecorder()
			EnqueueEmail(svc, testLogger())(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status %d", resp.Code)
			}
		})
	}
}

func TestGetEmailNotFound(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails/"+id.String(), nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("emailId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	GetEmail(&testQueueService{}, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetEmailReturnsJob(t *testing.T) {
	id := uuid.New()
	svc := &testQueueService{
		getJobFn: func(ctx context.Context, gotID uuid.UUID) (*models.EmailJob, error) {
			if gotID != id {
				t.Fatalf("unexpected id %s", gotID)
			}
			return &models.EmailJob{ID: id, Status: enums.JobStatusPending}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails/"+id.String(), nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("emailId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	GetEmail(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data models.EmailJob `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.ID != id {
		t.Fatalf("expected job %s, got %s", id, envelope.Data.ID)
	}
}
