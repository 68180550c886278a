package inmemory

import (
	"context"
	"testing"

	"github.com/finnut/finnut/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ScorePushJob{
		JobID:   "job-1",
		UserID:  "user-a",
		RawText: "신한카드 승인\nGS25\n5,800원",
		Status:  jobs.JobStatusPending,
	}

	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.UserID != "user-a" || got.Status != jobs.JobStatusPending {
		t.Errorf("GetJob() = %+v, want saved job", got)
	}

	// The store keeps its own copy; mutating the original must not leak in.
	job.Status = jobs.JobStatusFailed
	got, _ = store.GetJob(ctx, "job-1")
	if got.Status != jobs.JobStatusPending {
		t.Errorf("stored job mutated through caller reference: %+v", got)
	}
}

func TestStoreSaveRequiresID(t *testing.T) {
	store := NewStore()
	if err := store.SaveJob(context.Background(), &jobs.ScorePushJob{}); err == nil {
		t.Error("SaveJob() error = nil, want error for missing job ID")
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()
	if _, err := store.GetJob(context.Background(), "nope"); err == nil {
		t.Error("GetJob() error = nil, want error for unknown job")
	}
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.ScorePushJob{
		{JobID: "j1", UserID: "user-a", Status: jobs.JobStatusPending},
		{JobID: "j2", UserID: "user-a", Status: jobs.JobStatusCompleted},
		{JobID: "j3", UserID: "user-b", Status: jobs.JobStatusPending},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    jobs.JobFilter
		wantCount int
	}{
		{"no filter", jobs.JobFilter{}, 3},
		{"by user", jobs.JobFilter{UserID: "user-a"}, 2},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusPending}, 2},
		{"by user and status", jobs.JobFilter{UserID: "user-a", Status: jobs.JobStatusCompleted}, 1},
		{"limit", jobs.JobFilter{Limit: 2}, 2},
		{"offset past end", jobs.JobFilter{Offset: 10}, 0},
		{"no match", jobs.JobFilter{UserID: "user-c"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("ListJobs() returned %d jobs, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestStoreUpdateJobStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SaveJob(ctx, &jobs.ScorePushJob{JobID: "j1", Status: jobs.JobStatusPending}); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	if err := store.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}

	got, _ := store.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("GetJob() = %+v, want failed/boom", got)
	}

	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("UpdateJobStatus() error = nil, want error for unknown job")
	}
}
