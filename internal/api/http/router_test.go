package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/wallboard-service/internal/api/http/handlers"
	"github.com/spec-kit/wallboard-service/internal/auth"
	"github.com/spec-kit/wallboard-service/internal/config"
	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/events"
	"github.com/spec-kit/wallboard-service/internal/observability"
	"github.com/spec-kit/wallboard-service/internal/persistence"
	"github.com/spec-kit/wallboard-service/internal/repository"
	"github.com/spec-kit/wallboard-service/internal/service"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

type apiFixture struct {
	app   *fiber.App
	store *repository.MemoryStore
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Count *int            `json:"count"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics("wallboard")
	store := repository.NewMemoryStore(
		domain.Team{ID: 1, Name: "Team Alpha"},
		domain.Team{ID: 2, Name: "Team Beta"},
	)
	dispatcher := events.NewInMemoryDispatcher()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30}}

	accounts := service.NewAccountService(service.AccountDependencies{
		Accounts: store, Dispatcher: dispatcher, Logger: logger, Metrics: metrics,
	})
	authService := service.NewAuthService(cfg, service.AuthDependencies{Accounts: store, Dispatcher: dispatcher, Logger: logger})
	presence := service.NewPresenceService(service.PresenceDependencies{
		Accounts:   store,
		Teams:      store,
		Cache:      repository.NewRedisPresenceCache(client, 0),
		Logs:       repository.NewMemoryPresenceLog(),
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("wallboard", "test", nil, &persistence.Redis{Client: client}, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Accounts:       handlers.NewAccountsHandler(accounts),
		Teams:          handlers.NewTeamsHandler(store),
		Presence:       handlers.NewPresenceHandler(presence),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store),
		Metrics:        metrics,
	})

	f := &apiFixture{app: app, store: store}
	team := int64(1)
	f.seed(t, domain.AccountDraft{Username: "AD001", FullName: "Root Admin"})
	f.seed(t, domain.AccountDraft{Username: "SP001", FullName: "Sue Park", TeamID: &team})
	f.seed(t, domain.AccountDraft{Username: "AG001", FullName: "Jo Lee", TeamID: &team})
	return f
}

func (f *apiFixture) seed(t *testing.T, draft domain.AccountDraft) {
	t.Helper()
	role, err := domain.RoleFromUsername(draft.Username)
	require.NoError(t, err)
	draft.Role = role
	_, err = f.store.Insert(context.Background(), draft)
	require.NoError(t, err)
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func (f *apiFixture) login(t *testing.T, code string) string {
	t.Helper()
	status, env := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"agentCode": code})
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Auth.Token)
	return data.Auth.Token
}

func decodeObject(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ad001"})
	require.Equal(t, http.StatusOK, status)
	var data struct {
		User struct {
			Username    string  `json:"username"`
			Role        string  `json:"role"`
			LastLoginAt *string `json:"lastLoginAt"`
		} `json:"user"`
		Auth struct {
			Token     string `json:"token"`
			ExpiresIn int64  `json:"expiresIn"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "AD001", data.User.Username)
	assert.Equal(t, "Admin", data.User.Role)
	assert.NotNil(t, data.User.LastLoginAt)
	assert.Positive(t, data.Auth.ExpiresIn)

	status, env = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"agentCode": "AG999"})
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperrors.CodeUnauthorized, env.Error.Code)

	status, env = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidFormat, env.Error.Code)

	token := f.login(t, "AG001")
	status, env = f.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "AG001", decodeObject(t, env)["username"])
}

func TestAccountsEndpoints_Authorization(t *testing.T) {
	f := newAPIFixture(t)
	agent := f.login(t, "AG001")
	supervisor := f.login(t, "SP001")

	status, _ := f.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := f.do(t, http.MethodGet, "/api/users", agent, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, env.Error.Code)

	status, env = f.do(t, http.MethodGet, "/api/users", supervisor, nil)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Count)
	assert.Equal(t, 3, *env.Count)

	status, _ = f.do(t, http.MethodPost, "/api/users", supervisor, map[string]any{"username": "AG002", "fullName": "Ann Ray", "teamId": 1})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAccountsEndpoints_Lifecycle(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.login(t, "AD001")

	status, env := f.do(t, http.MethodPost, "/api/users", admin, map[string]any{"username": "ag002", "fullName": "Ann Ray", "teamId": "1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidFormat, env.Error.Code)

	status, env = f.do(t, http.MethodPost, "/api/users", admin, map[string]any{"username": " AG002 ", "fullName": "Ann Ray", "teamId": "1"})
	require.Equal(t, http.StatusCreated, status)
	created := decodeObject(t, env)
	assert.Equal(t, "AG002", created["username"])
	assert.Equal(t, "Agent", created["role"])
	assert.Equal(t, "Active", created["status"])
	assert.Equal(t, float64(1), created["teamId"])
	id := int64(created["id"].(float64))
	path := "/api/users/" + jsonNumber(id)

	status, env = f.do(t, http.MethodPost, "/api/users", admin, map[string]any{"username": "AG002", "fullName": "Ann Two", "teamId": 1})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apperrors.CodeDuplicate, env.Error.Code)

	status, env = f.do(t, http.MethodPost, "/api/users", admin, map[string]any{"username": "AG003", "fullName": "No Team"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeConsistency, env.Error.Code)

	status, env = f.do(t, http.MethodPost, "/api/users", admin, map[string]any{"username": "AG003", "fullName": "Bad Team", "teamId": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidFormat, env.Error.Code)

	status, env = f.do(t, http.MethodPut, path, admin, map[string]any{"fullName": "Ann Rae", "teamId": 2})
	require.Equal(t, http.StatusOK, status)
	updated := decodeObject(t, env)
	assert.Equal(t, "Ann Rae", updated["fullName"])
	assert.Equal(t, float64(2), updated["teamId"])

	status, env = f.do(t, http.MethodPut, path, admin, map[string]any{"username": "AG009"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeImmutableField, env.Error.Code)

	status, env = f.do(t, http.MethodPut, path, admin, map[string]any{"teamId": nil})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeConsistency, env.Error.Code)

	status, env = f.do(t, http.MethodPut, path, admin, map[string]any{"teamId": 99})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidTeam, env.Error.Code)

	status, env = f.do(t, http.MethodGet, "/api/users?role=agent&teamId=2", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, *env.Count)

	status, env = f.do(t, http.MethodGet, "/api/users?role=Manager", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidFormat, env.Error.Code)

	status, _ = f.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = f.do(t, http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)

	status, env = f.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)

	status, env = f.do(t, http.MethodPost, "/api/users", admin, map[string]any{"username": "AG002", "fullName": "Ann Again", "teamId": 1})
	require.Equal(t, http.StatusCreated, status)
	assert.NotEqual(t, float64(id), decodeObject(t, env)["id"])

	status, env = f.do(t, http.MethodGet, "/api/users/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidFormat, env.Error.Code)
}

func TestPresenceEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	agent := f.login(t, "AG001")
	supervisor := f.login(t, "SP001")

	status, env := f.do(t, http.MethodGet, "/api/status/AG001", agent, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Offline", decodeObject(t, env)["status"])

	status, _ = f.do(t, http.MethodPost, "/api/status", agent, map[string]any{"status": "available"})
	require.Equal(t, http.StatusCreated, status)

	status, env = f.do(t, http.MethodGet, "/api/status/ag001", agent, nil)
	require.Equal(t, http.StatusOK, status)
	current := decodeObject(t, env)
	assert.Equal(t, "Available", current["status"])
	assert.Equal(t, float64(1), current["teamId"])

	status, env = f.do(t, http.MethodPost, "/api/status", agent, map[string]any{"agentCode": "AG002", "status": "Busy"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, env.Error.Code)

	status, _ = f.do(t, http.MethodGet, "/api/status/AG001/history", agent, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = f.do(t, http.MethodGet, "/api/status/AG001/history?limit=10", supervisor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, *env.Count)

	status, env = f.do(t, http.MethodGet, "/api/status/AG001/history?limit=500", supervisor, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeInvalidFormat, env.Error.Code)
}

func TestMessageEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	agent := f.login(t, "AG001")
	supervisor := f.login(t, "SP001")

	status, _ := f.do(t, http.MethodPost, "/api/messages", agent, map[string]any{"toCode": "SP001", "content": "hi"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env := f.do(t, http.MethodPost, "/api/messages", supervisor, map[string]any{"toCode": "AG001", "content": "take a break", "priority": "high"})
	require.Equal(t, http.StatusCreated, status)
	msg := decodeObject(t, env)
	assert.Equal(t, "SP001", msg["fromCode"])
	assert.Equal(t, "direct", msg["type"])

	status, _ = f.do(t, http.MethodPost, "/api/messages", supervisor, map[string]any{"type": "broadcast", "toTeamId": 1, "content": "standup"})
	require.Equal(t, http.StatusCreated, status)

	status, env = f.do(t, http.MethodPost, "/api/messages", supervisor, map[string]any{"toCode": "AG404", "content": "hello"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)

	status, env = f.do(t, http.MethodGet, "/api/messages/inbox", agent, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, *env.Count)
}

func TestPublicEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	status, _ := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := f.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)

	token := f.login(t, "AG001")
	status, env = f.do(t, http.MethodGet, "/api/teams", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, *env.Count)

	status, env = f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "wallboard_http_requests_total")
}

func jsonNumber(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
