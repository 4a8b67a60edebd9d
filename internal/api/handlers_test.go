package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ModerationIndexor/internal/lifecycle"
	"github.com/goran-ethernal/ModerationIndexor/internal/logger"
	"github.com/goran-ethernal/ModerationIndexor/internal/store"
	"github.com/goran-ethernal/ModerationIndexor/internal/supervisor"
	"github.com/goran-ethernal/ModerationIndexor/internal/testutil"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

type fixedState struct {
	contracts []string
	state     supervisor.State
}

func (f fixedState) Contracts() []string     { return f.contracts }
func (f fixedState) State() supervisor.State { return f.state }

func streamState(state supervisor.State, contracts ...string) fixedState {
	return fixedState{contracts: contracts, state: state}
}

type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) ListCursors() ([]*store.Cursor, error) { return nil, errBroken }
func (brokenStore) ListAnomalies(int, int) ([]*store.Anomaly, int, error) {
	return nil, 0, errBroken
}
func (brokenStore) ListDeadLetters(int, int) ([]*store.DeadLetter, int, error) {
	return nil, 0, errBroken
}
func (brokenStore) CountAnomalies() (int, error)   { return 0, errBroken }
func (brokenStore) CountDeadLetters() (int, error) { return 0, errBroken }
func (brokenStore) GetContentWithChallenges(uint64) (*store.Content, []*store.Challenge, error) {
	return nil, nil, errBroken
}
func (brokenStore) LatestEpoch() (*store.EpochSnapshot, error) { return nil, errBroken }

func setupTestServer(t *testing.T, supervisors ...StateReporter) (http.Handler, *store.Store) {
	t.Helper()

	database, _ := testutil.NewTestDB(t)
	st := store.New(database, logger.NewNopLogger(), nil)

	cfg := &config.APIConfig{Enabled: true, MaxPageSize: 2}
	cfg.ApplyDefaults()

	return NewServer(cfg, st, supervisors, logger.NewNopLogger()).Handler(), st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()

	err := st.RunInTx(ctx, func(tx *sql.Tx) error {
		pos := store.Position{Block: 10, Index: 1}
		if err := store.ApplyEffects(ctx, tx, pos, []lifecycle.Effect{
			lifecycle.CreateContent{
				ContentID:   7,
				ContentHash: common.HexToHash("0xabc"),
				Author:      common.HexToAddress("0x01"),
				Bond:        big.NewInt(100),
			},
			lifecycle.OpenChallenge{ContentID: 7, Challenger: common.HexToAddress("0x02"), Reason: 2, Bond: big.NewInt(5)},
			lifecycle.SetStatus{ContentID: 7, Status: lifecycle.StatusChallenged},
		}); err != nil {
			return err
		}
		if err := store.AdvanceTip(ctx, tx, config.ContractContentRegistry, pos); err != nil {
			return err
		}

		for i := range 3 {
			if err := store.InsertAnomaly(tx, &store.Anomaly{
				TxHash:    common.BigToHash(big.NewInt(int64(i + 1))),
				Contract:  config.ContractContentRegistry,
				EventType: "ContentChallenged",
				Reason:    lifecycle.ReasonUnknownContent,
				Payload:   "{}",
			}); err != nil {
				return err
			}
		}

		return store.UpsertDeadLetter(ctx, tx, &store.DeadLetter{
			TxHash:   common.HexToHash("0xdead"),
			Contract: config.ContractStakingVault,
			Reason:   store.DeadLetterOutOfOrder,
			Attempts: 1,
			RawLog:   "{}",
		})
	})
	require.NoError(t, err)
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	if out != nil {
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h, _ := setupTestServer(t,
		streamState(supervisor.StateLive, config.ContractContentRegistry, config.ContractModerationGame),
		streamState(supervisor.StatePolling, config.ContractStakingVault),
	)

	var resp HealthResponse
	require.Equal(t, http.StatusOK, get(t, h, "/health", &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, []ContractState{
		{Contract: config.ContractContentRegistry, State: string(supervisor.StateLive)},
		{Contract: config.ContractModerationGame, State: string(supervisor.StateLive)},
		{Contract: config.ContractStakingVault, State: string(supervisor.StatePolling)},
	}, resp.Contracts)

	h, _ = setupTestServer(t, streamState(supervisor.StateBackfilling, config.ContractContentRegistry))
	require.Equal(t, http.StatusOK, get(t, h, "/health", &resp))
	require.Equal(t, "degraded", resp.Status)
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	h, st := setupTestServer(t,
		streamState(supervisor.StateLive, config.ContractContentRegistry),
		streamState(supervisor.StateDisconnected, config.ContractModerationGame),
	)
	seed(t, st)

	var resp StatusResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/status", &resp))
	require.Equal(t, 3, resp.Anomalies)
	require.Equal(t, 1, resp.DeadLetters)
	require.Nil(t, resp.LatestEpoch)

	require.Len(t, resp.Contracts, 2)
	require.Equal(t, ContractStatus{
		Contract:    config.ContractContentRegistry,
		State:       string(supervisor.StateLive),
		CursorBlock: 9,
		TipBlock:    ptr(uint64(10)),
		TipLogIndex: ptr(uint(1)),
	}, resp.Contracts[0])
	require.Equal(t, ContractStatus{
		Contract: config.ContractModerationGame,
		State:    string(supervisor.StateDisconnected),
	}, resp.Contracts[1])
}

func TestListAnomalies_Pagination(t *testing.T) {
	t.Parallel()

	h, st := setupTestServer(t)
	seed(t, st)

	var resp ListResponse[store.Anomaly]
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/anomalies?limit=10", &resp))
	// capped by max_page_size
	require.Len(t, resp.Items, 2)
	require.Equal(t, PaginationResult{Total: 3, Limit: 2, Offset: 0, HasMore: true}, resp.Pagination)

	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/anomalies?offset=2", &resp))
	require.Len(t, resp.Items, 1)
	require.False(t, resp.Pagination.HasMore)
	require.Equal(t, common.BigToHash(big.NewInt(1)), resp.Items[0].TxHash)

	var errResp ErrorResponse
	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/anomalies?limit=-1", &errResp))
	require.Contains(t, errResp.Message, "invalid limit")
	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/anomalies?offset=x", &errResp))
}

func TestListDeadLetters(t *testing.T) {
	t.Parallel()

	h, st := setupTestServer(t)

	var resp ListResponse[store.DeadLetter]
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/dead-letters", &resp))
	require.NotNil(t, resp.Items)
	require.Empty(t, resp.Items)

	seed(t, st)
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/dead-letters", &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, store.DeadLetterOutOfOrder, resp.Items[0].Reason)
}

func TestGetContent(t *testing.T) {
	t.Parallel()

	h, st := setupTestServer(t)
	seed(t, st)

	var resp ContentResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/content/7", &resp))
	require.Equal(t, uint64(7), resp.Content.ContentID)
	require.Equal(t, lifecycle.StatusChallenged, resp.Content.Status)
	require.Len(t, resp.Challenges, 1)
	require.Equal(t, uint8(2), resp.Challenges[0].Reason)
	require.False(t, resp.Challenges[0].Resolved)

	var hexResp ContentResponse
	require.Equal(t, http.StatusOK, get(t, h, "/api/v1/content/0x7", &hexResp))
	require.Equal(t, uint64(7), hexResp.Content.ContentID)

	var errResp ErrorResponse
	require.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/content/8", &errResp))
	require.Equal(t, "content 8 not found", errResp.Message)
	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/content/abc", &errResp))
}

func TestHandlers_StoreFailure(t *testing.T) {
	t.Parallel()

	cfg := &config.APIConfig{}
	cfg.ApplyDefaults()
	h := NewServer(cfg, brokenStore{}, nil, logger.NewNopLogger()).Handler()

	for _, path := range []string{
		"/api/v1/status",
		"/api/v1/anomalies",
		"/api/v1/dead-letters",
		"/api/v1/content/1",
	} {
		var errResp ErrorResponse
		require.Equal(t, http.StatusInternalServerError, get(t, h, path, &errResp), path)
		require.NotContains(t, errResp.Message, errBroken.Error())
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	t.Parallel()

	h, _ := setupTestServer(t)

	require.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/nothing", nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/anomalies", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSwaggerDocs(t *testing.T) {
	t.Parallel()

	h, _ := setupTestServer(t)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath    string                    `json:"basePath"`
		Paths       map[string]map[string]any `json:"paths"`
		Definitions map[string]any            `json:"definitions"`
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))

	require.Equal(t, "ModerationIndexor API", doc.Info.Title)
	require.Equal(t, "/api/v1", doc.BasePath)
	for _, path := range []string{"/status", "/anomalies", "/dead-letters", "/content/{id}"} {
		require.Contains(t, doc.Paths, path)
		require.Contains(t, doc.Paths[path], "get")
	}
	require.Contains(t, doc.Definitions, "api.ListResponse-store_Anomaly")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "swagger-ui")
}

func ptr[T any](v T) *T {
	return &v
}
