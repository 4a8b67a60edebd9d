package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
	"github.com/goran-ethernal/ModerationIndexor/internal/supervisor"
)

const defaultPageSize = 100

// Store is the read side of the projection. It is satisfied by *store.Store.
type Store interface {
	ListCursors() ([]*store.Cursor, error)
	ListAnomalies(limit, offset int) ([]*store.Anomaly, int, error)
	ListDeadLetters(limit, offset int) ([]*store.DeadLetter, int, error)
	CountAnomalies() (int, error)
	CountDeadLetters() (int, error)
	GetContentWithChallenges(contentID uint64) (*store.Content, []*store.Challenge, error)
	LatestEpoch() (*store.EpochSnapshot, error)
}

// StateReporter reports the connection state of a supervised stream and the
// contracts it covers.
type StateReporter interface {
	Contracts() []string
	State() supervisor.State
}

// Handler handles HTTP requests for the API.
type Handler struct {
	store       Store
	supervisors []StateReporter
	maxPageSize int
	log         *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(st Store, supervisors []StateReporter, maxPageSize int, log *logger.Logger) *Handler {
	if maxPageSize <= 0 {
		maxPageSize = defaultPageSize
	}

	return &Handler{
		store:       st,
		supervisors: supervisors,
		maxPageSize: maxPageSize,
		log:         log,
	}
}

// Health reports whether every contract is connected.
// @Summary Health check
// @Description Connection state of every supervised contract; degraded while any stream is not live or polling
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Contracts: []ContractState{},
	}

	for _, s := range h.supervisors {
		state := s.State()
		if state != supervisor.StateLive && state != supervisor.StatePolling {
			resp.Status = "degraded"
		}
		for _, contract := range s.Contracts() {
			resp.Contracts = append(resp.Contracts, ContractState{Contract: contract, State: string(state)})
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetStatus returns per-contract progress and failure counts.
// @Summary Indexing status
// @Description Per-contract cursor and tip, anomaly and dead letter counts, and the latest epoch snapshot
// @Tags Status
// @Produce json
// @Success 200 {object} StatusResponse "Indexing status"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	cursors, err := h.store.ListCursors()
	if err != nil {
		h.fail(w, "failed to list cursors", err)
		return
	}

	anomalies, err := h.store.CountAnomalies()
	if err != nil {
		h.fail(w, "failed to count anomalies", err)
		return
	}

	deadLetters, err := h.store.CountDeadLetters()
	if err != nil {
		h.fail(w, "failed to count dead letters", err)
		return
	}

	epoch, err := h.store.LatestEpoch()
	if err != nil {
		h.fail(w, "failed to load latest epoch", err)
		return
	}

	states := make(map[string]string, len(h.supervisors))
	var supervised []string
	for _, s := range h.supervisors {
		state := string(s.State())
		for _, contract := range s.Contracts() {
			states[contract] = state
			supervised = append(supervised, contract)
		}
	}

	resp := StatusResponse{
		Contracts:   make([]ContractStatus, 0, len(cursors)),
		Anomalies:   anomalies,
		DeadLetters: deadLetters,
		LatestEpoch: epoch,
	}
	for _, c := range cursors {
		resp.Contracts = append(resp.Contracts, ContractStatus{
			Contract:    c.Contract,
			State:       states[c.Contract],
			CursorBlock: c.BlockNumber,
			TipBlock:    c.TipBlock,
			TipLogIndex: c.TipLogIndex,
		})
		delete(states, c.Contract)
	}
	// supervised contracts that have not committed anything yet
	for _, contract := range supervised {
		if state, ok := states[contract]; ok {
			resp.Contracts = append(resp.Contracts, ContractStatus{Contract: contract, State: state})
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// ListAnomalies returns a page of anomalies, newest first.
// @Summary List anomalies
// @Description Logs that were valid but contradicted the projection, newest first
// @Tags Failures
// @Produce json
// @Param limit query int false "Maximum number of rows to return" default(100)
// @Param offset query int false "Number of rows to skip" default(0)
// @Success 200 {object} ListResponse[store.Anomaly] "Page of anomalies"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /anomalies [get]
func (h *Handler) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := h.parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, total, err := h.store.ListAnomalies(limit, offset)
	if err != nil {
		h.fail(w, "failed to list anomalies", err)
		return
	}

	respondJSON(w, http.StatusOK, page(rows, total, limit, offset))
}

// ListDeadLetters returns a page of dead letters, oldest block first.
// @Summary List dead letters
// @Description Logs that could not be applied and wait for replay, oldest block first
// @Tags Failures
// @Produce json
// @Param limit query int false "Maximum number of rows to return" default(100)
// @Param offset query int false "Number of rows to skip" default(0)
// @Success 200 {object} ListResponse[store.DeadLetter] "Page of dead letters"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /dead-letters [get]
func (h *Handler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := h.parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, total, err := h.store.ListDeadLetters(limit, offset)
	if err != nil {
		h.fail(w, "failed to list dead letters", err)
		return
	}

	respondJSON(w, http.StatusOK, page(rows, total, limit, offset))
}

// GetContent returns a content record and its challenges.
// @Summary Get content
// @Description A content record with every challenge raised against it
// @Tags Content
// @Produce json
// @Param id path string true "Content id, decimal or 0x-prefixed hex"
// @Success 200 {object} ContentResponse "Content and challenges"
// @Failure 400 {object} ErrorResponse "Invalid content id"
// @Failure 404 {object} ErrorResponse "Content not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /content/{id} [get]
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseUint64OrHex(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid content id")
		return
	}

	content, challenges, err := h.store.GetContentWithChallenges(id)
	if err != nil {
		h.fail(w, "failed to load content", err)
		return
	}
	if content == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("content %d not found", id))
		return
	}

	if challenges == nil {
		challenges = []*store.Challenge{}
	}
	respondJSON(w, http.StatusOK, ContentResponse{Content: content, Challenges: challenges})
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	h.log.Errorf("%s: %v", message, err)
	respondError(w, http.StatusInternalServerError, message)
}

func (h *Handler) parsePage(r *http.Request) (int, int, error) {
	limit, offset := defaultPageSize, 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid limit: must be a positive integer")
		}
		limit = n
	}
	limit = min(limit, h.maxPageSize)

	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid offset: must be a non-negative integer")
		}
		offset = n
	}

	return limit, offset, nil
}

func page[T any](rows []T, total, limit, offset int) ListResponse[T] {
	if rows == nil {
		rows = []T{}
	}
	return ListResponse[T]{
		Items: rows,
		Pagination: PaginationResult{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(rows) < total,
		},
	}
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// encode first so a failure can still change the status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
