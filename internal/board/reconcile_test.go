package board

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"feisboard/internal/model"
)

type fakeSaver struct {
	mu      sync.Mutex
	calls   [][]model.Placement
	respond []model.Conflict
	fail    error
	block   chan struct{} // when set, BulkSave waits until closed
	started chan struct{}
	feisIDs []string
}

func (f *fakeSaver) BulkSave(ctx context.Context, feisID string, placements []model.Placement) ([]model.Conflict, error) {
	f.mu.Lock()
	f.calls = append(f.calls, placements)
	f.feisIDs = append(f.feisIDs, feisID)
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	if f.fail != nil {
		return nil, f.fail
	}
	return f.respond, nil
}

func savedState() *State {
	st := testState()
	st.Conflicts = []model.Conflict{{Severity: model.SeverityWarning, Message: "stale"}}
	st.SetPlacement("c1", "st-a", model.NewWallTime(st.FeisDate, 9*60))
	return st
}

func TestPlacementsOmitUnscheduled(t *testing.T) {
	st := savedState()
	got := Placements(st)
	if len(got) != 1 {
		t.Fatalf("want 1 placement, got %d", len(got))
	}
	want := model.Placement{
		CompetitionID: "c1",
		StageID:       "st-a",
		ScheduledTime: model.WallTime{Date: "2025-06-01", Time: "09:00"},
	}
	if got[0] != want {
		t.Fatalf("placement = %+v, want %+v", got[0], want)
	}
}

func TestSaveReplacesConflictsVerbatim(t *testing.T) {
	st := savedState()
	server := []model.Conflict{
		{Severity: model.SeverityError, Message: "stage A: 101 overlaps 102"},
		{Severity: model.SeverityWarning, Message: "no coverage at 09:00"},
	}
	r := NewReconciler(&fakeSaver{respond: server})

	got, err := r.Save(context.Background(), st)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !reflect.DeepEqual(got, server) {
		t.Fatalf("returned conflicts %+v, want %+v", got, server)
	}
	if !reflect.DeepEqual(st.Conflicts, server) {
		t.Fatalf("state conflicts %+v, want server list verbatim", st.Conflicts)
	}
}

func TestSaveFailureLeavesStateUntouched(t *testing.T) {
	st := savedState()
	before := append([]model.Conflict(nil), st.Conflicts...)
	r := NewReconciler(&fakeSaver{fail: errors.New("boom")})

	if _, err := r.Save(context.Background(), st); err == nil {
		t.Fatal("expected save error")
	}
	if !st.CompetitionByID("c1").Scheduled() {
		t.Fatal("optimistic schedule must survive a failed save")
	}
	if !reflect.DeepEqual(st.Conflicts, before) {
		t.Fatal("conflict list must be untouched on failure")
	}

	// Unlimited manual retries: the next attempt goes through.
	r2 := NewReconciler(&fakeSaver{})
	if _, err := r2.Save(context.Background(), st); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestSaveIdempotentPayload(t *testing.T) {
	st := savedState()
	saver := &fakeSaver{}
	r := NewReconciler(saver)

	if _, err := r.Save(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Save(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	if len(saver.calls) != 2 {
		t.Fatalf("want 2 calls, got %d", len(saver.calls))
	}
	// Identical optimistic state twice => byte-for-byte identical payloads.
	if !reflect.DeepEqual(saver.calls[0], saver.calls[1]) {
		t.Fatalf("payloads differ: %+v vs %+v", saver.calls[0], saver.calls[1])
	}
	if saver.feisIDs[0] != "feis-1" {
		t.Fatalf("feis id = %q, want feis-1", saver.feisIDs[0])
	}
}

func TestSecondSaveWhilePendingRefused(t *testing.T) {
	st := savedState()
	saver := &fakeSaver{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	r := NewReconciler(saver)

	done := make(chan error, 1)
	go func() {
		_, err := r.Save(context.Background(), st)
		done <- err
	}()
	<-saver.started

	if !r.Pending() {
		t.Fatal("Pending must report the in-flight save")
	}
	if _, err := r.SavePlacements(context.Background(), st.FeisID, Placements(st)); !errors.Is(err, ErrSavePending) {
		t.Fatalf("second save should be refused with ErrSavePending, got %v", err)
	}

	close(saver.block)
	if err := <-done; err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if r.Pending() {
		t.Fatal("pending flag must clear after completion")
	}
}

func TestSaveNormalizesNilConflicts(t *testing.T) {
	st := savedState()
	r := NewReconciler(&fakeSaver{respond: nil})

	got, err := r.Save(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil conflict list, got %#v", got)
	}
}
