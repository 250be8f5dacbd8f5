package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"thermostat_control/internal/models"
)

// recordingEventRepo captures the normalized arguments List receives.
type recordingEventRepo struct {
	lastFrom time.Time
	lastTo   time.Time
	lastType string
	resp     []models.TransitionEvent
	err      error
}

func (r *recordingEventRepo) Append(ctx context.Context, e models.TransitionEvent) error {
	return nil
}

func (r *recordingEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.TransitionEvent, error) {
	r.lastFrom, r.lastTo, r.lastType = from, to, typ
	return r.resp, r.err
}

func TestEventLogService_List_NormalizesFilter(t *testing.T) {
	repo := &recordingEventRepo{resp: []models.TransitionEvent{{EventID: "evt-1"}}}
	svc := NewEventLogService(repo)

	tokyo := time.FixedZone("JST", 9*3600)
	from := time.Date(2025, 6, 1, 9, 0, 0, 0, tokyo)
	to := time.Date(2025, 6, 2, 9, 0, 0, 0, tokyo)

	got, err := svc.List(context.Background(), LogFilter{From: from, To: to, Type: " transition "})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "evt-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if repo.lastFrom.Location() != time.UTC || repo.lastTo.Location() != time.UTC {
		t.Fatalf("times not normalized to UTC: %v / %v", repo.lastFrom, repo.lastTo)
	}
	if repo.lastType != "TRANSITION" {
		t.Fatalf("type not normalized: %q", repo.lastType)
	}
}

func TestEventLogService_List_ZeroBoundsPassThrough(t *testing.T) {
	repo := &recordingEventRepo{}
	svc := NewEventLogService(repo)

	if _, err := svc.List(context.Background(), LogFilter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if !repo.lastFrom.IsZero() || !repo.lastTo.IsZero() || repo.lastType != "" {
		t.Fatalf("zero filter mangled: %v / %v / %q", repo.lastFrom, repo.lastTo, repo.lastType)
	}
}

func TestEventLogService_List_RejectsInvertedRange(t *testing.T) {
	repo := &recordingEventRepo{}
	svc := NewEventLogService(repo)

	from := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.List(context.Background(), LogFilter{From: from, To: to})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}
