package httpserver_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server_go/internal/config"
	"server_go/internal/domain"
	"server_go/internal/httpserver"
	"server_go/internal/security"
	"server_go/internal/store/sqlite"
	"server_go/internal/ws"
)

type testEnv struct {
	srv *httptest.Server
	db  *sql.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		AppName:     "test",
		JWTSecret:   "test-secret",
		CORSOrigins: []string{"http://localhost:3000"},
	}
	tokens := security.NewTokenService(cfg.JWTSecret, time.Hour)
	router := httpserver.NewRouter(cfg, db, ws.NewRegistry(), ws.NewRooms(), tokens)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, db: db}
}

func (e *testEnv) seedUser(t *testing.T, externalID string) *domain.User {
	t.Helper()
	u := &domain.User{ExternalID: externalID, Email: externalID + "@example.com", Name: externalID}
	require.NoError(t, sqlite.NewUserRepo(e.db).Create(context.Background(), u))
	return u
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return resp, nil
	}
	return resp, decoded
}

func TestStartConversationIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "ext-alice")
	env.seedUser(t, "ext-bob")

	resp, body := env.postJSON(t, "/api/conversation/start-conversation", map[string]string{
		"userId":      "ext-alice",
		"otherUserId": "ext-bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := body["conversationId"]
	require.NotNil(t, first)

	resp, body = env.postJSON(t, "/api/conversation/start-conversation", map[string]string{
		"userId":      "ext-alice",
		"otherUserId": "ext-bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first, body["conversationId"])
}

func TestStartConversationValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "ext-alice")

	resp, _ := env.postJSON(t, "/api/conversation/start-conversation", map[string]string{
		"userId": "ext-alice",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.postJSON(t, "/api/conversation/start-conversation", map[string]string{
		"userId":      "ext-alice",
		"otherUserId": "ext-ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetConversationsIncludesLastMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "ext-alice")
	bob := env.seedUser(t, "ext-bob")

	convRepo := sqlite.NewConversationRepo(env.db)
	msgRepo := sqlite.NewMessageRepo(env.db)
	conv, err := convRepo.FindOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	msg := &domain.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: "latest"}
	require.NoError(t, msgRepo.Create(ctx, msg))
	require.NoError(t, convRepo.UpdateLastMessage(ctx, conv.ID, alice.ID, msg.Content, msg.CreatedAt))

	raw, err := json.Marshal(map[string]string{"userId": "ext-bob"})
	require.NoError(t, err)
	resp, err := http.Post(env.srv.URL+"/api/conversation/get-conversation", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var convs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&convs))
	require.Len(t, convs, 1)

	last, ok := convs[0]["lastMessage"].(map[string]any)
	require.True(t, ok, "lastMessage missing: %v", convs[0])
	assert.Equal(t, "latest", last["content"])
	assert.Equal(t, float64(alice.ID), last["senderId"])
}

func TestListMessagesOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, "ext-alice")
	bob := env.seedUser(t, "ext-bob")

	convRepo := sqlite.NewConversationRepo(env.db)
	msgRepo := sqlite.NewMessageRepo(env.db)
	conv, err := convRepo.FindOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, msgRepo.Create(ctx, &domain.Message{
			ConversationID: conv.ID,
			SenderID:       alice.ID,
			Content:        fmt.Sprintf("m%d", i),
		}))
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/messages/%d", env.srv.URL, conv.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msgs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msgs))
	require.Len(t, msgs, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, fmt.Sprintf("m%d", i), msgs[i]["content"])
	}
}

func TestListMessagesErrors(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/api/messages/not-a-number")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(env.srv.URL + "/api/messages/9999")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
