package services

import (
	"sort"

	"squadup_server/models"
)

// LedgerSnapshot is the reconciler's read-only view of a match ledger.
type LedgerSnapshot struct {
	MatchID string
	OwnerID string
	Counts  map[string]int
	Version int64
}

// SnapshotOf builds a LedgerSnapshot from a loaded match. A corrupt token
// list degrades to an empty counter set rather than failing: the reconciler
// must always produce some valid view.
func SnapshotOf(match *models.Match) LedgerSnapshot {
	counts, err := models.ParseMissingGroups(match.MissingGroups)
	if err != nil {
		counts = map[string]int{}
	}
	return LedgerSnapshot{
		MatchID: match.MatchID,
		OwnerID: match.OwnerID,
		Counts:  counts,
		Version: match.Version,
	}
}

// DerivePositionStates computes the viewer-specific display state for every
// position code from one consistent (ledger, log) snapshot. It is a pure
// function: the three sync channels deliver at-least-once and unordered, so
// re-running it on the same snapshot must yield the same map and nothing
// else.
//
// Owner rule: the owner only ever sees open/completed, never the requester
// states. Requester rule: the viewer's own record wins over the raw count,
// with accepted/rejected superseding a stale pending record for the same
// position. A suppressed position renders from the ledger alone, so a stale
// snapshot cannot resurrect a just-cancelled acceptance.
func DerivePositionStates(
	ledger LedgerSnapshot,
	viewerRecords []models.SlotRequest,
	viewerID string,
	suppressed map[string]bool,
) map[string]models.ViewerPositionState {
	states := make(map[string]models.ViewerPositionState, len(models.PositionCodes))

	if viewerID == ledger.OwnerID {
		for _, code := range models.PositionCodes {
			if ledger.Counts[code] > 0 {
				states[code] = models.PositionOpen
			} else {
				states[code] = models.PositionCompleted
			}
		}
		return states
	}

	byPosition := pickRecords(viewerRecords, viewerID)
	for _, code := range models.PositionCodes {
		record, ok := byPosition[code]
		if ok && record.Status == models.RequestStatusAccepted && suppressed[code] {
			ok = false
		}
		if !ok {
			if ledger.Counts[code] > 0 {
				states[code] = models.PositionOpen
			} else {
				states[code] = models.PositionCompleted
			}
			continue
		}
		switch record.Status {
		case models.RequestStatusAccepted:
			states[code] = models.PositionAccepted
		case models.RequestStatusRejected:
			states[code] = models.PositionRejected
		default:
			states[code] = models.PositionSent
		}
	}
	return states
}

// pickRecords selects, per position, the record that should drive the
// viewer's display. A decision supersedes the pending entry it originated
// from, but only that one: a rejection releases the requester to ask again,
// and the strictly newer pending record of a re-request must show as sent,
// not stay shadowed by the undismissed rejection. Among records of equal
// precedence the newest wins.
func pickRecords(records []models.SlotRequest, viewerID string) map[string]models.SlotRequest {
	mine := make([]models.SlotRequest, 0, len(records))
	for _, r := range records {
		if r.RequesterID == viewerID {
			mine = append(mine, r)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt < mine[j].CreatedAt
	})

	byPosition := make(map[string]models.SlotRequest)
	for _, r := range mine {
		current, ok := byPosition[r.Position]
		if !ok {
			byPosition[r.Position] = r
			continue
		}
		// r is never older than current here (ascending CreatedAt), so a
		// decided r replaces the pending it came from, and a strictly newer
		// pending r replaces a decided leftover.
		if statusPrecedence(r.Status) >= statusPrecedence(current.Status) || r.CreatedAt > current.CreatedAt {
			byPosition[r.Position] = r
		}
	}
	return byPosition
}

func statusPrecedence(s models.RequestStatus) int {
	switch s {
	case models.RequestStatusAccepted, models.RequestStatusRejected:
		return 1
	default:
		return 0
	}
}
