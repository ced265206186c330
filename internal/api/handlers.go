package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"championship-engine/internal/domain"
	"championship-engine/internal/engine"
	"championship-engine/internal/penalties"
	"championship-engine/internal/results"
)

// Handlers provides HTTP handlers for the engine API.
type Handlers struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, logger *slog.Logger) *Handlers {
	return &Handlers{engine: eng, logger: logger}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStandings serves the team table of a championship.
func (h *Handlers) GetStandings(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.GetStandings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDriverStandings serves the driver table of a championship.
func (h *Handlers) GetDriverStandings(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.GetDriverStandings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetBreakdown serves the per-race ledger of a championship.
func (h *Handlers) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.GetBreakdown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// VerifyDSQ reports results whose dsq flag disagrees with their active
// disqualifications.
func (h *Handlers) VerifyDSQ(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.VerifyDSQ(r.Context(), chi.URLParam(r, "id"), false)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// RepairDSQ re-syncs divergent dsq flags.
func (h *Handlers) RepairDSQ(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.VerifyDSQ(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListRaceResults serves the results of a race.
func (h *Handlers) ListRaceResults(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListRaceResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]resultResponse, 0, len(list))
	for _, res := range list {
		out = append(out, toResultResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateResult records a result for the race in the path.
func (h *Handlers) CreateResult(w http.ResponseWriter, r *http.Request) {
	var in results.CreateInput
	if !h.decode(w, r, &in) {
		return
	}
	in.RaceID = chi.URLParam(r, "id")

	res, err := h.engine.CreateResult(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResultResponse(res))
}

// GetResult serves one result.
func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(res))
}

// UpdateResult applies a partial update to a result.
func (h *Handlers) UpdateResult(w http.ResponseWriter, r *http.Request) {
	var in results.UpdateInput
	if !h.decode(w, r, &in) {
		return
	}

	res, err := h.engine.UpdateResult(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(res))
}

// DeleteResult removes a result.
func (h *Handlers) DeleteResult(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteResult(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRacePenalties serves the penalties of a race.
func (h *Handlers) ListRacePenalties(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListRacePenalties(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]penaltyResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPenaltyResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePenalty records a penalty for the race in the path.
func (h *Handlers) CreatePenalty(w http.ResponseWriter, r *http.Request) {
	var in penalties.CreateInput
	if !h.decode(w, r, &in) {
		return
	}
	in.RaceID = chi.URLParam(r, "id")

	p, err := h.engine.CreatePenalty(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPenaltyResponse(p))
}

// GetPenalty serves one penalty.
func (h *Handlers) GetPenalty(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.GetPenalty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPenaltyResponse(p))
}

// UpdatePenalty applies a partial update to a penalty.
func (h *Handlers) UpdatePenalty(w http.ResponseWriter, r *http.Request) {
	var in penalties.UpdateInput
	if !h.decode(w, r, &in) {
		return
	}

	p, err := h.engine.UpdatePenalty(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPenaltyResponse(p))
}

// DeletePenalty removes a penalty.
func (h *Handlers) DeletePenalty(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeletePenalty(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const maxBodyBytes = 1 << 20

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "malformed JSON body"
		if !errors.Is(err, io.EOF) {
			msg = fmt.Sprintf("malformed JSON body: %v", err)
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: msg})
		return false
	}
	return true
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)

	var code int
	switch kind {
	case domain.KindNotFound:
		code = http.StatusNotFound
	case domain.KindConflict:
		code = http.StatusConflict
	case domain.KindValidation:
		code = http.StatusUnprocessableEntity
	default:
		code = http.StatusInternalServerError
	}

	msg := err.Error()
	if kind == domain.KindInternal {
		h.logger.Error("request_failed", slog.Any("error", err))
		msg = "internal error"
	}
	writeJSON(w, code, errorResponse{Error: string(kind), Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
