package board

import (
	"context"
	"errors"
	"sync"

	"feisboard/internal/model"
)

// ErrSavePending is returned when a save is requested while one is already
// in flight. Two concurrent saves would race to overwrite the same schedule
// server-side, so the interaction layer disables or queues the second.
var ErrSavePending = errors.New("a schedule save is already in flight")

// Saver pushes a complete schedule and returns the server's authoritative
// conflict list. feisapi.Client implements it.
type Saver interface {
	BulkSave(ctx context.Context, feisID string, placements []model.Placement) ([]model.Conflict, error)
}

// Reconciler serializes the optimistic schedule into bulk-save requests and
// folds the server's conflict response back into the board state.
//
// Saves are naturally idempotent: every call sends the complete current
// placement set, never a delta, so retrying after a failure is always safe
// and unlimited.
type Reconciler struct {
	saver Saver

	mu      sync.Mutex
	pending bool
}

func NewReconciler(saver Saver) *Reconciler {
	return &Reconciler{saver: saver}
}

// Pending reports whether a save is currently in flight.
func (r *Reconciler) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Placements flattens the optimistic schedule into the bulk-save payload:
// one triple per scheduled competition. Unscheduled competitions are simply
// omitted — never sent as tombstones.
func Placements(st *State) []model.Placement {
	out := make([]model.Placement, 0, len(st.Competitions))
	for _, c := range st.Competitions {
		if !c.Scheduled() {
			continue
		}
		out = append(out, model.Placement{
			CompetitionID: c.ID,
			StageID:       *c.StageID,
			ScheduledTime: *c.ScheduledAt,
		})
	}
	return out
}

// Save submits the full optimistic schedule as one atomic bulk-replace
// request. On success the local conflict list is replaced verbatim with the
// server's response (the server is the sole source of conflicts; the client
// never computes them). On failure the optimistic schedule and the previous
// conflicts are left untouched so the user can retry without redoing edits.
func (r *Reconciler) Save(ctx context.Context, st *State) ([]model.Conflict, error) {
	conflicts, err := r.SavePlacements(ctx, st.FeisID, Placements(st))
	if err != nil {
		return nil, err
	}
	st.Conflicts = conflicts
	return conflicts, nil
}

// SavePlacements is the lower layer of Save for event-loop callers: the
// payload is captured synchronously up front and the conflict fold-in happens
// wherever the response message is handled.
func (r *Reconciler) SavePlacements(ctx context.Context, feisID string, placements []model.Placement) ([]model.Conflict, error) {
	r.mu.Lock()
	if r.pending {
		r.mu.Unlock()
		return nil, ErrSavePending
	}
	r.pending = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.pending = false
		r.mu.Unlock()
	}()

	conflicts, err := r.saver.BulkSave(ctx, feisID, placements)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	return conflicts, nil
}
