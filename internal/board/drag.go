package board

import (
	"feisboard/internal/model"
	"feisboard/internal/timeline"
)

// DragPhase enumerates the drag gesture states. The only legal transitions
// are Idle → Dragging (pick-up), Dragging → Hovering (first pointer move over
// a stage surface), Hovering → Hovering (re-entered arbitrarily often per
// drag), Hovering → Idle (drop or cancel) and Dragging → Idle (cancel).
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragActive
	DragHovering
)

// DragController is the finite-state machine for one board's drag gesture.
// Exactly one drag may be active at a time; a pick-up while one is in flight
// is ignored. Hovering never touches the schedule — only Drop commits, and
// only to the optimistic State.
type DragController struct {
	mapper timeline.Mapper

	phase         DragPhase
	competitionID string
	hoverStageID  string
	hoverMinutes  int
}

func NewDragController(mapper timeline.Mapper) *DragController {
	return &DragController{mapper: mapper}
}

func (d *DragController) Phase() DragPhase { return d.phase }

// Dragging reports the competition in flight, if any.
func (d *DragController) Dragging() (string, bool) {
	if d.phase == DragIdle {
		return "", false
	}
	return d.competitionID, true
}

// HoverTarget returns the live preview target while hovering.
func (d *DragController) HoverTarget() (stageID string, minutes int, ok bool) {
	if d.phase != DragHovering {
		return "", 0, false
	}
	return d.hoverStageID, d.hoverMinutes, true
}

// PickUp starts a drag. Read-only: no schedule mutation happens here.
// Returns false (and changes nothing) if a drag is already active.
func (d *DragController) PickUp(competitionID string) bool {
	if d.phase != DragIdle || competitionID == "" {
		return false
	}
	d.phase = DragActive
	d.competitionID = competitionID
	return true
}

// HoverAt records a pointer position over a stage's drop surface: the
// vertical offset resolves through offset→time→snap to the preview minutes.
// Pointer moves are not debounced beyond the snap quantum.
func (d *DragController) HoverAt(stageID string, offsetPx int) {
	if d.phase == DragIdle || stageID == "" {
		return
	}
	d.phase = DragHovering
	d.hoverStageID = stageID
	d.hoverMinutes = d.mapper.SnapOffset(offsetPx)
}

// HoverMinutes records a preview target given directly in minutes (keyboard
// driven moves), snapped and clamped the same way as pointer hovers.
func (d *DragController) HoverMinutes(stageID string, minutes int) {
	if d.phase == DragIdle || stageID == "" {
		return
	}
	d.phase = DragHovering
	d.hoverStageID = stageID
	d.hoverMinutes = d.mapper.ClampMinutes(d.mapper.Snap(minutes))
}

// Drop commits the hover target to the optimistic schedule and returns to
// Idle. The timestamp is synthesized from the feis calendar date plus the
// snapped minutes as a plain wall-clock value; no timezone conversion is
// involved, so the stored time is exactly what was dropped.
//
// Dropping without a recognized hover target (no stage surface under the
// pointer, unknown stage id) is treated as a cancel: no mutation, Idle.
func (d *DragController) Drop(st *State) bool {
	if d.phase != DragHovering {
		d.Cancel()
		return false
	}
	compID, stageID, minutes := d.competitionID, d.hoverStageID, d.hoverMinutes
	d.Cancel()
	if st.StageByID(stageID) == nil {
		return false
	}
	return st.SetPlacement(compID, stageID, model.NewWallTime(st.FeisDate, minutes))
}

// Cancel ends the gesture with no side effects. Legal in any phase.
func (d *DragController) Cancel() {
	d.phase = DragIdle
	d.competitionID = ""
	d.hoverStageID = ""
	d.hoverMinutes = 0
}
