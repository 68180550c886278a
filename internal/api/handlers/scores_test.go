package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/finnut/finnut/internal/jobs"
	"github.com/finnut/finnut/internal/parser"
	"github.com/finnut/finnut/internal/scoring"
	"github.com/finnut/finnut/internal/session"
)

// mockPublisher records published jobs and can be told to fail.
type mockPublisher struct {
	published []*jobs.ScorePushJob
	fail      bool
}

func (m *mockPublisher) PublishScorePush(ctx context.Context, job *jobs.ScorePushJob) error {
	if m.fail {
		return errors.New("queue unavailable")
	}
	job.JobID = "job-test"
	job.Status = jobs.JobStatusPending
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func newScoresHandler(pub jobs.Publisher) *ScoresHandler {
	log := zerolog.Nop()
	svc := scoring.New(parser.New(log), session.NewRegistry(), nil, nil, log)
	return NewScoresHandler(svc, pub, log)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid rule scoring",
			body:       `{"user_id":"user-a","texts":["[신한카드] 승인\nGS25 이대점\n5,800원\n2024-11-21 14:10"]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "explicit rule mode",
			body:       `{"user_id":"user-a","texts":["카카오페이\n스타벅스\n5,000원"],"mode":"rule"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty batch is valid",
			body:       `{"user_id":"user-a","texts":[]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing user_id",
			body:       `{"texts":["카카오페이\n스타벅스\n5,000원"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown mode",
			body:       `{"user_id":"user-a","texts":[],"mode":"quantum"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ml mode without a loaded model",
			body:       `{"user_id":"user-a","texts":["카카오페이\n스타벅스\n5,000원"],"mode":"ml"}`,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newScoresHandler(&mockPublisher{})

			req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Score(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestScoreResponseShape(t *testing.T) {
	h := newScoresHandler(&mockPublisher{})

	body := `{"user_id":"user-a","texts":["[신한카드] 승인\nGS25 이대점\n5,800원\n2024-11-21 14:10"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Score(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Result struct {
			FHI  float64 `json:"fhi"`
			Mode string  `json:"mode"`
		} `json:"result"`
		Transactions []struct {
			Merchant string `json:"merchant"`
			Category string `json:"category"`
		} `json:"transactions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if resp.Result.FHI != 100 {
		t.Errorf("result.fhi = %v, want 100", resp.Result.FHI)
	}
	if resp.Result.Mode != "rule" {
		t.Errorf("result.mode = %q, want rule", resp.Result.Mode)
	}
	if len(resp.Transactions) != 1 || resp.Transactions[0].Category != "편의점" {
		t.Errorf("transactions = %+v, want one 편의점 entry", resp.Transactions)
	}
}

func TestEnqueuePush(t *testing.T) {
	t.Run("valid push is accepted", func(t *testing.T) {
		pub := &mockPublisher{}
		h := newScoresHandler(pub)

		body := `{"user_id":"user-a","text":"카카오페이\n스타벅스\n5,000원"}`
		req := httptest.NewRequest(http.MethodPost, "/api/push", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.EnqueuePush(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202 (body: %s)", rec.Code, rec.Body.String())
		}
		if len(pub.published) != 1 {
			t.Fatalf("published %d jobs, want 1", len(pub.published))
		}
		if pub.published[0].UserID != "user-a" {
			t.Errorf("published UserID = %q, want user-a", pub.published[0].UserID)
		}

		var resp map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp["job_id"] != "job-test" {
			t.Errorf("job_id = %q, want job-test", resp["job_id"])
		}
	})

	t.Run("missing text", func(t *testing.T) {
		h := newScoresHandler(&mockPublisher{})

		req := httptest.NewRequest(http.MethodPost, "/api/push", strings.NewReader(`{"user_id":"user-a"}`))
		rec := httptest.NewRecorder()

		h.EnqueuePush(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("publisher failure", func(t *testing.T) {
		h := newScoresHandler(&mockPublisher{fail: true})

		body := `{"user_id":"user-a","text":"카카오페이\n스타벅스\n5,000원"}`
		req := httptest.NewRequest(http.MethodPost, "/api/push", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.EnqueuePush(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}
