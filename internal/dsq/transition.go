// Package dsq keeps the dsq flag of race results consistent with the
// disqualification penalties that reference them.
package dsq

import "championship-engine/internal/domain"

// State classifies a penalty for DSQ bookkeeping.
type State int

const (
	// Inactive covers deactivated and absent penalties.
	Inactive State = iota
	// ActiveNonDSQ is an active penalty of any type but disqualification.
	ActiveNonDSQ
	// ActiveDSQ is an active disqualification.
	ActiveDSQ
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case ActiveNonDSQ:
		return "active_non_dsq"
	case ActiveDSQ:
		return "active_dsq"
	}
	return "unknown"
}

// StateOf classifies p. A nil penalty is Inactive.
func StateOf(p *domain.Penalty) State {
	switch {
	case p == nil || !p.IsActive:
		return Inactive
	case p.Type.Disqualifies():
		return ActiveDSQ
	default:
		return ActiveNonDSQ
	}
}

// Snapshot is the part of a penalty that drives DSQ synchronization.
type Snapshot struct {
	State    State
	ResultID *string
}

// SnapshotOf captures the DSQ-relevant fields of p.
func SnapshotOf(p *domain.Penalty) Snapshot {
	if p == nil {
		return Snapshot{State: Inactive}
	}
	var resultID *string
	if p.ResultID != nil {
		id := *p.ResultID
		resultID = &id
	}
	return Snapshot{State: StateOf(p), ResultID: resultID}
}

// Directive says what a penalty change implies for one result.
type Directive int

const (
	// Set forces dsq=true.
	Set Directive = iota + 1
	// Clear sets dsq=false unless another active disqualification remains.
	Clear
)

func (d Directive) String() string {
	switch d {
	case Set:
		return "set"
	case Clear:
		return "clear"
	}
	return "unknown"
}

// Action is one synchronization step.
type Action struct {
	ResultID  string
	Directive Directive
}

// Plan returns the actions that bring result dsq flags in line after a
// penalty moves from before to after. Actions on a nil result are dropped.
//
//	ActiveDSQ -> ActiveDSQ, same result:      nothing
//	ActiveDSQ -> anything else:               Clear(old)
//	anything else -> ActiveDSQ:               Set(new)
//	ActiveDSQ -> ActiveDSQ, different result: Clear(old), Set(new)
func Plan(before, after Snapshot) []Action {
	wasDSQ := before.State == ActiveDSQ
	isDSQ := after.State == ActiveDSQ

	var actions []Action
	switch {
	case wasDSQ && isDSQ:
		if sameResult(before.ResultID, after.ResultID) {
			return nil
		}
		actions = appendAction(actions, before.ResultID, Clear)
		actions = appendAction(actions, after.ResultID, Set)
	case wasDSQ:
		actions = appendAction(actions, before.ResultID, Clear)
	case isDSQ:
		actions = appendAction(actions, after.ResultID, Set)
	}
	return actions
}

// PlanCreate returns the actions for a newly created penalty.
func PlanCreate(after Snapshot) []Action {
	return Plan(Snapshot{State: Inactive}, after)
}

// PlanDelete returns the actions for a removed penalty.
func PlanDelete(before Snapshot) []Action {
	return Plan(before, Snapshot{State: Inactive})
}

func sameResult(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func appendAction(actions []Action, resultID *string, d Directive) []Action {
	if resultID == nil {
		return actions
	}
	return append(actions, Action{ResultID: *resultID, Directive: d})
}
