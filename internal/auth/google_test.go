package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	sharedauth "resume-studio/internal/shared/auth"
	"resume-studio/internal/users"
)

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1234","email":"ada@example.com","name":"Ada Lovelace","picture":"https://img/ada"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogle(t *testing.T, store UserStore, opts ...Option) (*GoogleService, *gin.Engine) {
	t.Helper()
	g := fakeGoogle(t)
	svc := NewGoogleService("client", "secret", "http://api.test/api/v1/auth/google/callback", "http://ui.test/signed-in", store, opts...)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:   g.URL + "/auth",
		TokenURL:  g.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	svc.userInfoURL = g.URL + "/userinfo"

	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return svc, r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
	return resp
}

func TestGoogleSignInIssuesTokenAndStoresUser(t *testing.T) {
	store := users.NewService(users.NewMemoryRepo())
	_, r := newTestGoogle(t, store)

	start := get(r, "/api/v1/auth/google/start")
	if start.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", start.Code)
	}
	loc, err := url.Parse(start.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("expected state in %s", loc)
	}

	cb := get(r, "/api/v1/auth/google/callback?code=good-code&state="+url.QueryEscape(state))
	if cb.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d: %s", cb.Code, cb.Body.String())
	}
	back, err := url.Parse(cb.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if !strings.HasPrefix(back.String(), "http://ui.test/signed-in") {
		t.Fatalf("unexpected redirect %s", back)
	}
	claims, err := sharedauth.VerifyJWT(back.Query().Get("token"))
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != "google:1234" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	user, err := store.GetByID(context.Background(), "google:1234")
	if err != nil {
		t.Fatalf("expected stored user: %v", err)
	}
	if user.FullName != "Ada Lovelace" || user.PictureURL != "https://img/ada" {
		t.Fatalf("unexpected user: %+v", user)
	}

	replay := get(r, "/api/v1/auth/google/callback?code=good-code&state="+url.QueryEscape(state))
	if replay.Code != http.StatusBadRequest {
		t.Fatalf("expected state to be single use, got %d", replay.Code)
	}
}

func TestGoogleCallbackRejectsBadInput(t *testing.T) {
	svc, r := newTestGoogle(t, nil)

	if resp := get(r, "/api/v1/auth/google/callback?code=x"); resp.Code != http.StatusBadRequest {
		t.Fatalf("missing state: expected 400, got %d", resp.Code)
	}
	if resp := get(r, "/api/v1/auth/google/callback?code=x&state=unknown"); resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown state: expected 400, got %d", resp.Code)
	}

	if err := svc.states.Put(context.Background(), "s1", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if resp := get(r, "/api/v1/auth/google/callback?code=bad-code&state=s1"); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad code: expected 400, got %d", resp.Code)
	}
}

func TestMemoryStatesExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStates()
	s.now = func() time.Time { return now }

	_ = s.Put(ctx, "old", time.Second)
	_ = s.Put(ctx, "fresh", time.Minute)
	now = now.Add(2 * time.Second)

	if ok, _ := s.Consume(ctx, "old"); ok {
		t.Fatalf("expired state must be rejected")
	}
	first, _ := s.Consume(ctx, "fresh")
	second, _ := s.Consume(ctx, "fresh")
	if !first || second {
		t.Fatalf("fresh state must be consumable exactly once")
	}
}

func TestRedisStates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStates(client)
	ctx := context.Background()

	if err := s.Put(ctx, "abc", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !mr.Exists("oauth:state:abc") {
		t.Fatalf("expected state key in redis")
	}
	first, err := s.Consume(ctx, "abc")
	if err != nil || !first {
		t.Fatalf("first consume: ok=%v err=%v", first, err)
	}
	if again, _ := s.Consume(ctx, "abc"); again {
		t.Fatalf("state must be single use")
	}

	_ = s.Put(ctx, "short", time.Second)
	mr.FastForward(2 * time.Second)
	if ok, _ := s.Consume(ctx, "short"); ok {
		t.Fatalf("expired state must be rejected")
	}
}

func TestCallbackWithSharedStates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, r := newTestGoogle(t, nil, WithStateStore(NewRedisStates(client)))
	start := get(r, "/api/v1/auth/google/start")
	if start.Code != http.StatusFound {
		t.Fatalf("start: expected 302, got %d", start.Code)
	}
	loc, err := url.Parse(start.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if !mr.Exists("oauth:state:" + state) {
		t.Fatalf("expected state stored in redis")
	}
	cb := get(r, "/api/v1/auth/google/callback?code=good-code&state="+url.QueryEscape(state))
	if cb.Code != http.StatusFound {
		t.Fatalf("callback: expected 302, got %d body=%s", cb.Code, cb.Body.String())
	}
}

func TestStartRequiresConfiguration(t *testing.T) {
	svc := NewGoogleService("", "", "", "", nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	if resp := get(r, "/api/v1/auth/google/start"); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
