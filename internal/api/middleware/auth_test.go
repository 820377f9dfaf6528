package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/approval-engine/internal/domain"
)

const (
	testSecret   = "test-secret-at-least-32-characters!!"
	testIssuer   = "veltapay-test"
	testAudience = "approval-engine-test"
)

func signToken(t *testing.T, actorKind, actorID, channel string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"actor_kind": actorKind,
		"actor_id":   actorID,
		"iss":        testIssuer,
		"aud":        testAudience,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
	if channel != "" {
		claims["channel"] = channel
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest("POST", "/v1/orders", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthMiddleware(t *testing.T) {
	SetJWTSecret(testSecret)
	SetJWTValidation(testIssuer, testAudience)

	var gotActor domain.Actor
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantActor  domain.Actor
	}{
		{
			name:       "missing header",
			token:      "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			token:      "not-a-jwt",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "admin token",
			token:      signToken(t, "admin", "admin-7", ""),
			wantStatus: http.StatusOK,
			wantActor:  domain.Admin{ID: "admin-7"},
		},
		{
			name:       "automated reviewer carries channel",
			token:      signToken(t, "automated_reviewer", "rev-3", "telegram"),
			wantStatus: http.StatusOK,
			wantActor:  domain.AutomatedReviewer{ID: "rev-3", BoundChannel: "telegram"},
		},
		{
			name:       "unknown actor kind rejected",
			token:      signToken(t, "superuser", "x-1", ""),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "system tokens not accepted over http",
			token:      signToken(t, "system", "system", ""),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty actor id rejected",
			token:      signToken(t, "admin", "", ""),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			gotActor = nil
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, authedRequest(tc.token))
			require.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				require.Equal(t, tc.wantActor, gotActor)
			} else {
				require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAuthMiddlewareWrongSignature(t *testing.T) {
	SetJWTSecret(testSecret)
	SetJWTValidation(testIssuer, testAudience)

	claims := jwt.MapClaims{
		"actor_kind": "admin",
		"actor_id":   "admin-7",
		"iss":        testIssuer,
		"aud":        testAudience,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("a-completely-different-signing-key!!"))
	require.NoError(t, err)

	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(token))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	SetJWTSecret(testSecret)
	SetJWTValidation(testIssuer, testAudience)

	handler := AuthMiddleware(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(signToken(t, "admin", "admin-7", "")))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(signToken(t, "automated_reviewer", "rev-3", "telegram")))
	require.Equal(t, http.StatusForbidden, w.Code)
}
