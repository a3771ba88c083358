package models

// ViewerPositionState is the derived, per-viewer display state of one
// position on a match. It is never persisted; the reconciler recomputes it
// from the ledger and the request log on every update.
type ViewerPositionState string

const (
	PositionOpen      ViewerPositionState = "open"      // Slots remain and the viewer holds no record
	PositionSent      ViewerPositionState = "sent"      // Viewer has a pending request
	PositionAccepted  ViewerPositionState = "accepted"  // Viewer's request was accepted
	PositionRejected  ViewerPositionState = "rejected"  // Viewer's request was rejected (display-once)
	PositionCompleted ViewerPositionState = "completed" // No slots remain, regardless of who holds them
)
