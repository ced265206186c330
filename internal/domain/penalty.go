package domain

import "fmt"

// PenaltyType is the closed set of penalty kinds.
type PenaltyType uint8

const (
	PenaltyWarning PenaltyType = iota + 1
	PenaltyTimePenalty
	PenaltyPointsDeduction
	PenaltyDisqualification
	PenaltyGridPenalty
)

var penaltyTypeNames = map[PenaltyType]string{
	PenaltyWarning:          "warning",
	PenaltyTimePenalty:      "time_penalty",
	PenaltyPointsDeduction:  "points_deduction",
	PenaltyDisqualification: "disqualification",
	PenaltyGridPenalty:      "grid_penalty",
}

// PenaltyTypes returns all penalty types in declaration order.
func PenaltyTypes() []PenaltyType {
	return []PenaltyType{
		PenaltyWarning,
		PenaltyTimePenalty,
		PenaltyPointsDeduction,
		PenaltyDisqualification,
		PenaltyGridPenalty,
	}
}

// ParsePenaltyType converts the wire name of a penalty type.
// Returns an ErrValidation error for unknown names.
func ParsePenaltyType(s string) (PenaltyType, error) {
	for t, name := range penaltyTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, Validationf("invalid penalty type %q", s)
}

// String returns the wire name of the penalty type.
func (t PenaltyType) String() string {
	if name, ok := penaltyTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PenaltyType(%d)", uint8(t))
}

// IsValid checks if the type is one of the declared constants.
func (t PenaltyType) IsValid() bool {
	_, ok := penaltyTypeNames[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t PenaltyType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, Validationf("invalid penalty type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PenaltyType) UnmarshalText(b []byte) error {
	parsed, err := ParsePenaltyType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DeductsPoints reports whether penalties of this type subtract
// points_deducted from standings. Every other type ignores the field.
func (t PenaltyType) DeductsPoints() bool {
	switch t {
	case PenaltyPointsDeduction:
		return true
	case PenaltyWarning, PenaltyTimePenalty, PenaltyDisqualification, PenaltyGridPenalty:
		return false
	}
	return false
}

// Disqualifies reports whether penalties of this type drive the dsq flag
// of their linked result.
func (t PenaltyType) Disqualifies() bool {
	switch t {
	case PenaltyDisqualification:
		return true
	case PenaltyWarning, PenaltyTimePenalty, PenaltyPointsDeduction, PenaltyGridPenalty:
		return false
	}
	return false
}

// Penalty is a stewarding decision attached to a race and team,
// optionally to a driver and a result.
// Corresponds to penalties table in PostgreSQL.
type Penalty struct {
	ID                 string  // PRIMARY KEY (uuid)
	RaceID             string  // race the incident happened in
	TeamID             string  // penalised team
	DriverID           *string // penalised driver (nullable)
	ResultID           *string // linked result (nullable, detached on result delete)
	Type               PenaltyType
	Reason             string
	PointsDeducted     float64 // only meaningful for PenaltyPointsDeduction
	TimePenaltySeconds *int    // nullable
	LapNumber          *int    // nullable
	IsActive           bool
	CreatedAt          int64 // ms
	UpdatedAt          int64 // ms
}

// Deduction returns the points this penalty removes from standings.
func (p *Penalty) Deduction() float64 {
	if !p.IsActive || !p.Type.DeductsPoints() {
		return 0
	}
	return p.PointsDeducted
}

// IsActiveDisqualification reports whether the penalty currently
// disqualifies its linked result.
func (p *Penalty) IsActiveDisqualification() bool {
	return p.IsActive && p.Type.Disqualifies()
}
