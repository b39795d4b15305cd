package dynamics

import (
	"context"
	"testing"
	"time"

	"memoria/internal/domain"
	"memoria/internal/repository"
)

func newTestDynamics() (*MemoryDynamics, *repository.MemFsrsRepository) {
	repo := repository.NewMemFsrsRepository()
	d := New(repo, nil)
	return d, repo
}

func TestGetOrCreateDefaultsWhenAbsent(t *testing.T) {
	d, _ := newTestDynamics()
	state := d.GetOrCreate(context.Background(), "mem-1", "u1")
	if state.Stability != 1.0 || state.Difficulty != 5.0 {
		t.Errorf("expected documented defaults, got %+v", state)
	}
}

func TestPromoteGoodIncreasesAccessCount(t *testing.T) {
	d, repo := newTestDynamics()
	ctx := context.Background()

	if err := d.Promote(ctx, "mem-1", []string{"u1"}, domain.Good, domain.SignalUsedInResponse); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	state, ok, err := repo.GetState(ctx, "mem-1", []string{"u1"})
	if err != nil || !ok {
		t.Fatalf("expected persisted state, ok=%v err=%v", ok, err)
	}
	if state.AccessCount != 1 {
		t.Errorf("access_count = %d, want 1", state.AccessCount)
	}

	log := repo.AccessLog()
	if len(log) != 1 || log[0].Grade != domain.Good {
		t.Errorf("unexpected access log: %+v", log)
	}
}

func TestDemoteAppliesAgainGrade(t *testing.T) {
	d, repo := newTestDynamics()
	ctx := context.Background()

	if err := d.Demote(ctx, "mem-1", []string{"u1"}); err != nil {
		t.Fatalf("Demote: %v", err)
	}
	log := repo.AccessLog()
	if len(log) != 1 || log[0].Grade != domain.Again || log[0].SignalType != domain.SignalContradiction {
		t.Errorf("unexpected access log after demote: %+v", log)
	}
}

func TestPromoteRejectsInvalidGrade(t *testing.T) {
	d, _ := newTestDynamics()
	err := d.Promote(context.Background(), "mem-1", []string{"u1"}, domain.Grade(99), domain.SignalUsedInResponse)
	if err == nil {
		t.Error("expected error for invalid grade")
	}
}

func TestPromoteRequiresAtLeastOneUserID(t *testing.T) {
	d, _ := newTestDynamics()
	err := d.Promote(context.Background(), "mem-1", nil, domain.Good, domain.SignalUsedInResponse)
	if err == nil {
		t.Error("expected error with no user ids")
	}
}

func TestBatchGetReturnsOnlyVisibleStates(t *testing.T) {
	d, _ := newTestDynamics()
	ctx := context.Background()
	_ = d.Promote(ctx, "mem-1", []string{"u1"}, domain.Good, domain.SignalUsedInResponse)

	result := d.BatchGet(ctx, []domain.MemoryId{"mem-1", "mem-missing"}, []string{"u1"})
	if len(result) != 1 {
		t.Fatalf("want 1 state, got %d", len(result))
	}
	if _, ok := result["mem-1"]; !ok {
		t.Error("mem-1 missing from batch result")
	}
}

func TestRecordSupersessionAppendsAuditRecord(t *testing.T) {
	d, repo := newTestDynamics()
	d.RecordSupersession(context.Background(), "old-1", "new-1", "u1", domain.ReasonContradiction, 0.8, "explanation")

	records := repo.Supersessions()
	if len(records) != 1 {
		t.Fatalf("want 1 supersession record, got %d", len(records))
	}
	if records[0].OldID != "old-1" || records[0].NewID != "new-1" || records[0].Reason != domain.ReasonContradiction {
		t.Errorf("unexpected supersession record: %+v", records[0])
	}
}

func TestPromoteTwiceAdvancesTime(t *testing.T) {
	d, repo := newTestDynamics()
	ctx := context.Background()
	now := time.Now()
	d.clock = func() time.Time { return now }
	_ = d.Promote(ctx, "mem-1", []string{"u1"}, domain.Good, domain.SignalUsedInResponse)

	now = now.Add(24 * time.Hour)
	_ = d.Promote(ctx, "mem-1", []string{"u1"}, domain.Good, domain.SignalUsedInResponse)

	state, _, _ := repo.GetState(ctx, "mem-1", []string{"u1"})
	if state.AccessCount != 2 {
		t.Errorf("access_count = %d, want 2", state.AccessCount)
	}
}
