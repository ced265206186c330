package dsq

import (
	"reflect"
	"testing"

	"championship-engine/internal/domain"
)

func ref(s string) *string { return &s }

func TestStateOf(t *testing.T) {
	tests := []struct {
		name    string
		penalty *domain.Penalty
		want    State
	}{
		{"nil", nil, Inactive},
		{"inactive dsq", &domain.Penalty{Type: domain.PenaltyDisqualification}, Inactive},
		{"active dsq", &domain.Penalty{Type: domain.PenaltyDisqualification, IsActive: true}, ActiveDSQ},
		{"active deduction", &domain.Penalty{Type: domain.PenaltyPointsDeduction, IsActive: true}, ActiveNonDSQ},
		{"active warning", &domain.Penalty{Type: domain.PenaltyWarning, IsActive: true}, ActiveNonDSQ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateOf(tt.penalty); got != tt.want {
				t.Errorf("StateOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	dsqOn := func(id *string) Snapshot { return Snapshot{State: ActiveDSQ, ResultID: id} }
	nonDSQ := func(id *string) Snapshot { return Snapshot{State: ActiveNonDSQ, ResultID: id} }
	off := func(id *string) Snapshot { return Snapshot{State: Inactive, ResultID: id} }

	tests := []struct {
		name   string
		before Snapshot
		after  Snapshot
		want   []Action
	}{
		{"dsq stays on same result", dsqOn(ref("r1")), dsqOn(ref("r1")), nil},
		{"dsq deactivated", dsqOn(ref("r1")), off(ref("r1")), []Action{{"r1", Clear}}},
		{"dsq retyped", dsqOn(ref("r1")), nonDSQ(ref("r1")), []Action{{"r1", Clear}}},
		{"dsq detached", dsqOn(ref("r1")), dsqOn(nil), []Action{{"r1", Clear}}},
		{"reactivated", off(ref("r1")), dsqOn(ref("r1")), []Action{{"r1", Set}}},
		{"retyped to dsq", nonDSQ(ref("r1")), dsqOn(ref("r2")), []Action{{"r2", Set}}},
		{"dsq attached", dsqOn(nil), dsqOn(ref("r2")), []Action{{"r2", Set}}},
		{"dsq moved", dsqOn(ref("r1")), dsqOn(ref("r2")), []Action{{"r1", Clear}, {"r2", Set}}},
		{"non dsq change", nonDSQ(ref("r1")), off(ref("r2")), nil},
		{"dsq without result", off(nil), dsqOn(nil), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.before, tt.after)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanCreateAndDelete(t *testing.T) {
	p := &domain.Penalty{Type: domain.PenaltyDisqualification, IsActive: true, ResultID: ref("r1")}

	created := PlanCreate(SnapshotOf(p))
	if !reflect.DeepEqual(created, []Action{{"r1", Set}}) {
		t.Errorf("PlanCreate() = %v", created)
	}

	deleted := PlanDelete(SnapshotOf(p))
	if !reflect.DeepEqual(deleted, []Action{{"r1", Clear}}) {
		t.Errorf("PlanDelete() = %v", deleted)
	}

	p.IsActive = false
	if got := PlanDelete(SnapshotOf(p)); got != nil {
		t.Errorf("PlanDelete(inactive) = %v, want nil", got)
	}
}

func TestSnapshotOfCopiesResultID(t *testing.T) {
	p := &domain.Penalty{Type: domain.PenaltyDisqualification, IsActive: true, ResultID: ref("r1")}
	snap := SnapshotOf(p)

	*p.ResultID = "r2"
	if *snap.ResultID != "r1" {
		t.Errorf("snapshot aliases the penalty: %s", *snap.ResultID)
	}
}
