package api

import "championship-engine/internal/domain"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type resultResponse struct {
	ID            string  `json:"id"`
	RaceID        string  `json:"race_id"`
	TeamID        string  `json:"team_id"`
	DriverID      *string `json:"driver_id"`
	Position      int     `json:"position"`
	Points        float64 `json:"points"`
	LapsCompleted *int    `json:"laps_completed"`
	FastestLap    bool    `json:"fastest_lap"`
	DNF           bool    `json:"dnf"`
	DSQ           bool    `json:"dsq"`
	Notes         *string `json:"notes"`
	CreatedAt     int64   `json:"created_at"`
	UpdatedAt     int64   `json:"updated_at"`
}

func toResultResponse(r *domain.RaceResult) resultResponse {
	return resultResponse{
		ID:            r.ID,
		RaceID:        r.RaceID,
		TeamID:        r.TeamID,
		DriverID:      r.DriverID,
		Position:      r.Position,
		Points:        r.Points,
		LapsCompleted: r.LapsCompleted,
		FastestLap:    r.FastestLap,
		DNF:           r.DNF,
		DSQ:           r.DSQ,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type penaltyResponse struct {
	ID                 string             `json:"id"`
	RaceID             string             `json:"race_id"`
	TeamID             string             `json:"team_id"`
	DriverID           *string            `json:"driver_id"`
	ResultID           *string            `json:"result_id"`
	PenaltyType        domain.PenaltyType `json:"penalty_type"`
	Reason             string             `json:"reason"`
	PointsDeducted     float64            `json:"points_deducted"`
	TimePenaltySeconds *int               `json:"time_penalty_seconds"`
	LapNumber          *int               `json:"lap_number"`
	IsActive           bool               `json:"is_active"`
	CreatedAt          int64              `json:"created_at"`
	UpdatedAt          int64              `json:"updated_at"`
}

func toPenaltyResponse(p *domain.Penalty) penaltyResponse {
	return penaltyResponse{
		ID:                 p.ID,
		RaceID:             p.RaceID,
		TeamID:             p.TeamID,
		DriverID:           p.DriverID,
		ResultID:           p.ResultID,
		PenaltyType:        p.Type,
		Reason:             p.Reason,
		PointsDeducted:     p.PointsDeducted,
		TimePenaltySeconds: p.TimePenaltySeconds,
		LapNumber:          p.LapNumber,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
