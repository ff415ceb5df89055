package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/savebridge/internal/api/middleware"
	"github.com/mcoot/savebridge/internal/api/request"
	"github.com/mcoot/savebridge/internal/api/response"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/services/savedgames"
)

// SlotHandler handles save slot endpoints
type SlotHandler struct {
	savedGames *savedgames.Service
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(savedGames *savedgames.Service) *SlotHandler {
	return &SlotHandler{
		savedGames: savedGames,
	}
}

// Open handles POST /api/v1/slots/{name}/open
func (h *SlotHandler) Open(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	name := mux.Vars(r)["name"]

	var req request.OpenSlotRequest
	// An empty body opens with defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	source, err := model.ParseDataSource(req.Source)
	if err != nil {
		WriteError(w, err)
		return
	}
	strategy, err := model.ParseConflictStrategy(req.Strategy)
	if err != nil {
		WriteError(w, err)
		return
	}

	meta, err := h.savedGames.Open(r.Context(), session.AccountID, name, source, strategy)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SlotMetadataFromModel(meta))
}

// ReadData handles GET /api/v1/slots/{name}/data
func (h *SlotHandler) ReadData(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	name := mux.Vars(r)["name"]

	if err := savedgames.ValidateSlotName(name); err != nil {
		WriteError(w, err)
		return
	}

	version, err := parseVersion(r.URL.Query().Get("version"))
	if err != nil {
		WriteError(w, NewInvalidRequestError("version query parameter must be the non-negative version returned by open"))
		return
	}

	data, err := h.savedGames.ReadBinaryData(r.Context(), session.AccountID, openHandle(name, version))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SlotData{Data: data})
}

// Commit handles PUT /api/v1/slots/{name}
func (h *SlotHandler) Commit(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	name := mux.Vars(r)["name"]

	if err := savedgames.ValidateSlotName(name); err != nil {
		WriteError(w, err)
		return
	}

	var req request.CommitSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Version < 0 {
		WriteError(w, NewInvalidRequestError("version must be a non-negative integer"))
		return
	}

	update := model.NewMetadataUpdate()
	if req.Description != nil {
		update = update.WithDescription(*req.Description)
	}
	if req.PlayedTimeMs != nil {
		if *req.PlayedTimeMs < 0 {
			WriteError(w, NewInvalidRequestError("played_time_ms must not be negative"))
			return
		}
		update = update.WithPlayedTime(time.Duration(*req.PlayedTimeMs) * time.Millisecond)
	}

	meta, err := h.savedGames.CommitUpdate(r.Context(), session.AccountID, openHandle(name, req.Version), update, req.Data)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SlotMetadataFromModel(meta))
}

// List handles GET /api/v1/slots
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	metas, err := h.savedGames.ListSlots(r.Context(), session.AccountID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SlotListFromModel(metas))
}

// Delete handles DELETE /api/v1/slots/{name}
func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	name := mux.Vars(r)["name"]

	if err := h.savedGames.DeleteSlot(r.Context(), session.AccountID, name); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// openHandle rebuilds the handle a client received from Open
func openHandle(name string, version int64) *model.SlotMetadata {
	return &model.SlotMetadata{
		Name:    name,
		Version: version,
		IsOpen:  true,
	}
}

func parseVersion(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, strconv.ErrRange
	}
	return v, nil
}
