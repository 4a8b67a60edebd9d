package api

import (
	"time"

	"github.com/goran-ethernal/ModerationIndexor/internal/store"
)

// ListResponse is a page of rows with pagination metadata.
type ListResponse[T any] struct {
	Items      []T              `json:"items"`
	Pagination PaginationResult `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Contracts []ContractState `json:"contracts"`
}

// ContractState is the connection state of one supervised contract.
type ContractState struct {
	Contract string `json:"contract"`
	State    string `json:"state"`
}

// ContractStatus is the progress of one contract.
type ContractStatus struct {
	Contract    string  `json:"contract"`
	State       string  `json:"state,omitempty"`
	CursorBlock uint64  `json:"cursor_block"`
	TipBlock    *uint64 `json:"tip_block,omitempty"`
	TipLogIndex *uint   `json:"tip_log_index,omitempty"`
}

// StatusResponse summarises indexing progress and the failure surface.
type StatusResponse struct {
	Contracts   []ContractStatus     `json:"contracts"`
	Anomalies   int                  `json:"anomalies"`
	DeadLetters int                  `json:"dead_letters"`
	LatestEpoch *store.EpochSnapshot `json:"latest_epoch,omitempty"`
}

// ContentResponse is a content record with its challenges.
type ContentResponse struct {
	Content    *store.Content     `json:"content"`
	Challenges []*store.Challenge `json:"challenges"`
}
