package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"snapfeed/internal/config"
	"snapfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "native", body.Checks["feedStore"])

	t.Run("redis down degrades", func(t *testing.T) {
		ts.mr.Close()
		resp := ts.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		decode(t, resp, &body)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "unhealthy", body.Checks["redis"])
	})
}

func TestChatbot(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.createUser(t, "alice", models.RoleUser)
	token := ts.login(t, alice)

	resp := ts.do(t, http.MethodPost, "/api/chatbot", "", fiber.Map{"prompt": ""})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "say something real, bro 👀", body["answer"])

	resp = ts.do(t, http.MethodPost, "/api/chatbot", token, fiber.Map{"prompt": "how many posts do i have"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &body)
	assert.Contains(t, body["answer"], "0 posts")
}

func TestChatbot_DisabledByFlag(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.FeatureFlags = "chatbot=off" })

	resp := ts.do(t, http.MethodPost, "/api/chatbot", "", fiber.Map{"prompt": "hello"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/feature-flags", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var flags struct {
		Flags   map[string]string `json:"flags"`
		Enabled map[string]bool   `json:"enabled"`
	}
	decode(t, resp, &flags)
	assert.Equal(t, "off", flags.Flags["chatbot"])
	assert.False(t, flags.Enabled["chatbot"])
}

func TestRegister_RateLimitedInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp := ts.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}
	resp := ts.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{})
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, models.CodeRateLimited, decodeError(t, resp).Code)
}

func TestSetupMiddleware_CORSAllowsConfiguredOrigin(t *testing.T) {
	srv := &Server{config: &config.Config{AllowedOrigins: "http://localhost:5173"}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
