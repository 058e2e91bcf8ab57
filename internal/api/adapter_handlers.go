package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radiopm/radiopm-server/internal/models"
	"github.com/radiopm/radiopm-server/internal/ps"
	"github.com/radiopm/radiopm-server/internal/storage"
)

// ========== Adapter handlers ==========

// HandleListAdapters lists adapters
func (s *RESTServer) HandleListAdapters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := paginationParams(r)

	adapters, total, err := s.store.ListAdapters(ctx, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"adapters": adapters,
		"total":    total,
	})
}

// HandleCreateAdapter registers an adapter
func (s *RESTServer) HandleCreateAdapter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required,max=100"`
		MACAddress  string `json:"macAddress" validate:"required,mac,max=17"`
		Description string `json:"description" validate:"max=500"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	adapter := &models.Adapter{
		Name:        req.Name,
		MACAddress:  req.MACAddress,
		Description: req.Description,
		PowerSave:   models.PSParameters(s.config.DefaultParameters()),
	}

	if err := s.store.CreateAdapter(r.Context(), adapter); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "adapter with this MAC address already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logAdapterEvent(r, adapter.ID, models.EventTypeAdapterCreated, "Adapter registered")

	s.respondJSON(w, http.StatusCreated, adapter)
}

// HandleGetAdapter gets an adapter
func (s *RESTServer) HandleGetAdapter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid adapter id")
		return
	}

	adapter, err := s.store.GetAdapter(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "adapter not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, adapter)
}

// HandleUpdateAdapter updates adapter metadata
func (s *RESTServer) HandleUpdateAdapter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid adapter id")
		return
	}

	var req struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	adapter, err := s.store.GetAdapter(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "adapter not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	adapter.Name = req.Name
	adapter.Description = req.Description

	if err := s.store.UpdateAdapter(ctx, adapter); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, adapter)
}

// HandleDeleteAdapter deletes an adapter
func (s *RESTServer) HandleDeleteAdapter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid adapter id")
		return
	}

	if err := s.store.DeleteAdapter(ctx, id); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "adapter not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.manager.Remove(id)
	s.logAdapterEvent(r, id, models.EventTypeAdapterDeleted, "Adapter deleted")

	w.WriteHeader(http.StatusNoContent)
}

// ========== Power-save handlers ==========

// HandleGetPowerSave returns the negotiation state and parameters
func (s *RESTServer) HandleGetPowerSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid adapter id")
		return
	}

	state, err := s.manager.State(ctx, id)
	if err != nil {
		s.respondPowerSaveError(w, err)
		return
	}

	params, err := s.manager.Parameters(ctx, id)
	if err != nil {
		s.respondPowerSaveError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":  state.String(),
		"params": params,
	})
}

// HandleUpdatePowerSaveParams replaces the power-save parameters
func (s *RESTServer) HandleUpdatePowerSaveParams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid adapter id")
		return
	}

	var params ps.Parameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if params.SleepType != ps.SleepTypeLP && params.SleepType != ps.SleepTypeULP {
		s.respondError(w, http.StatusBadRequest, "sleep type must be 1 (LP) or 2 (ULP)")
		return
	}

	if err := s.manager.SetParameters(ctx, id, params); err != nil {
		s.respondPowerSaveError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, params)
}

// HandleEnablePowerSave starts power-save negotiation
func (s *RESTServer) HandleEnablePowerSave(w http.ResponseWriter, r *http.Request) {
	s.handlePowerSaveOp(w, r, s.manager.RequestEnable)
}

// HandleDisablePowerSave starts power-save teardown
func (s *RESTServer) HandleDisablePowerSave(w http.ResponseWriter, r *http.Request) {
	s.handlePowerSaveOp(w, r, s.manager.RequestDisable)
}

// HandleReconfigureUAPSD refreshes UAPSD parameters on an enabled session
func (s *RESTServer) HandleReconfigureUAPSD(w http.ResponseWriter, r *http.Request) {
	s.handlePowerSaveOp(w, r, s.manager.ReconfigureUAPSD)
}

// handlePowerSaveOp runs one power-save operation and maps its outcome
// to an HTTP status. Accepted requests answer 202 because the state
// machine completes asynchronously when the confirmation arrives.
func (s *RESTServer) handlePowerSaveOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) error) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid adapter id")
		return
	}

	if err := op(ctx, id); err != nil {
		s.respondPowerSaveError(w, err)
		return
	}

	state, err := s.manager.State(ctx, id)
	if err != nil {
		s.respondPowerSaveError(w, err)
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"state": state.String(),
	})
}

// respondPowerSaveError maps power-save errors to HTTP statuses
func (s *RESTServer) respondPowerSaveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "adapter not found")
	case errors.Is(err, ps.ErrInvalidTransition):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ps.ErrSendFailed):
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// logAdapterEvent records an adapter lifecycle event, best effort
func (s *RESTServer) logAdapterEvent(r *http.Request, adapterID uuid.UUID, typ models.EventType, desc string) {
	event := &models.EventLog{
		AdapterID:   &adapterID,
		Type:        typ,
		Level:       models.EventLevelInfo,
		Description: desc,
	}
	// Dropping the event is acceptable; the API response already
	// reflects the outcome.
	_ = s.store.CreateEventLog(r.Context(), event)
}
