package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kythia/dashboard-backend/internal/botapi"
	"github.com/kythia/dashboard-backend/internal/licenses"
	"github.com/kythia/dashboard-backend/internal/visitors"
	pkgauth "github.com/kythia/dashboard-backend/pkg/auth"
	"github.com/kythia/dashboard-backend/pkg/config"
	"github.com/kythia/dashboard-backend/pkg/db/models"
	"github.com/kythia/dashboard-backend/pkg/logger"
	"github.com/kythia/dashboard-backend/pkg/metrics"
	"github.com/kythia/dashboard-backend/pkg/ratelimit"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubLicenseService struct{}

func (stubLicenseService) List(context.Context) ([]models.License, error) {
	return []models.License{}, nil
}

func (stubLicenseService) Generate(context.Context, licenses.GenerateInput) (*models.License, error) {
	return &models.License{ID: uuid.New(), Key: "KYTHIA-AAAA-BBBB-CCCC-DDDD", OwnerID: "42", IsActive: true}, nil
}

func (stubLicenseService) Get(context.Context, uuid.UUID) (*models.License, error) {
	return &models.License{ID: uuid.New()}, nil
}

func (stubLicenseService) Patch(context.Context, uuid.UUID, licenses.PatchInput) (*models.License, error) {
	return &models.License{ID: uuid.New()}, nil
}

func (stubLicenseService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubLicenseService) Verify(context.Context, licenses.VerifyInput, string) (*licenses.VerifyResult, error) {
	return &licenses.VerifyResult{Owner: "42"}, nil
}

func (stubLicenseService) IngestTelemetry(context.Context, licenses.TelemetryInput) (int64, error) {
	return 0, nil
}

type stubVisitorService struct{}

func (stubVisitorService) Track(context.Context, string) (*visitors.Stats, error) {
	return &visitors.Stats{TotalVisitors: 1, TodayVisitors: 1}, nil
}

func routerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "test-secret", Issuer: "kythia-test", ExpirationMinutes: 60}
	cfg.License.OwnerIDs = []string{"owner-1"}
	return cfg
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test"})
	botClient, err := botapi.NewClient(config.BotAPIConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	}, logg)
	if err != nil {
		t.Fatalf("new bot client: %v", err)
	}

	return NewRouter(
		routerConfig(),
		logg,
		stubPinger{},
		stubPinger{},
		nil,
		stubSessionChecker{},
		ratelimit.NewSlidingWindow(),
		metrics.NewHTTPMetrics(nil),
		nil,
		stubLicenseService{},
		stubVisitorService{},
		botClient,
	)
}

func perform(router http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func ownerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := pkgauth.MintSessionToken(
		config.JWTConfig{Secret: "test-secret", Issuer: "kythia-test", ExpirationMinutes: 60},
		time.Now(),
		pkgauth.SessionTokenPayload{UserID: userID, JTI: "jti-1"},
	)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	if rec := perform(router, http.MethodGet, "/health/live", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("live should answer 200, got %d", rec.Code)
	}
	if rec := perform(router, http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready should answer 200, got %d", rec.Code)
	}
}

func TestRouterBotFacingRoutesAreOpen(t *testing.T) {
	router := newTestRouter(t)

	rec := perform(router, http.MethodPost, "/api/v1/license/verify", "", `{"key":"K"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify should not require a session, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = perform(router, http.MethodPost, "/api/v1/license/telemetry", "", `{"key":"K"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("telemetry should not require a session, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterAdminRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t)

	if rec := perform(router, http.MethodGet, "/api/v1/license/list", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list should be 401, got %d", rec.Code)
	}
	if rec := perform(router, http.MethodPost, "/api/v1/license/generate", "", `{"ownerId":"42"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous generate should be 401, got %d", rec.Code)
	}
}

func TestRouterAdminRoutesRequireOwner(t *testing.T) {
	router := newTestRouter(t)

	rec := perform(router, http.MethodGet, "/api/v1/license/list", ownerToken(t, "intruder"), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner list should be 403, got %d", rec.Code)
	}

	rec = perform(router, http.MethodGet, "/api/v1/license/list", ownerToken(t, "owner-1"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner list should be 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterPublicMetaAndVisitors(t *testing.T) {
	router := newTestRouter(t)

	// The bot upstream is unreachable in tests; meta pages still degrade
	// to empty payloads instead of erroring.
	if rec := perform(router, http.MethodGet, "/api/v1/meta/stats", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("meta stats should be 200, got %d", rec.Code)
	}
	if rec := perform(router, http.MethodGet, "/api/v1/meta/commands", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("meta commands should be 200, got %d", rec.Code)
	}
	if rec := perform(router, http.MethodPost, "/api/v1/visitors/track", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("visitor track should be 200, got %d", rec.Code)
	}
}

func TestRouterGuildsRequireSession(t *testing.T) {
	router := newTestRouter(t)

	if rec := perform(router, http.MethodGet, "/api/v1/guilds", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous guild list should be 401, got %d", rec.Code)
	}
	if rec := perform(router, http.MethodGet, "/api/v1/guilds", ownerToken(t, "user-1"), ""); rec.Code != http.StatusOK {
		t.Fatalf("authenticated guild list should be 200, got %d", rec.Code)
	}
}

func TestRouterSessionRoutesAbsentWithoutManager(t *testing.T) {
	router := newTestRouter(t)

	if rec := perform(router, http.MethodPost, "/api/v1/auth/session", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("session exchange should be unmounted without a manager, got %d", rec.Code)
	}
}
