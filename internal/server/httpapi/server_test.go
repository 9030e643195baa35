package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/dmitrijs2005/trackshare/internal/server/auth"
	"github.com/dmitrijs2005/trackshare/internal/server/gql"
	"github.com/dmitrijs2005/trackshare/internal/server/session"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeExecutor struct {
	calls     int
	lastReq   gql.Request
	identity  session.Identity
	anonymous bool
	deliver   string
	panics    bool
}

func (f *fakeExecutor) Execute(ctx context.Context, req gql.Request) *graphql.Response {
	if f.panics {
		panic("boom")
	}
	f.calls++
	f.lastReq = req
	id, ok := session.FromContext(ctx)
	f.identity, f.anonymous = id, !ok
	if f.deliver != "" {
		_ = session.Deliver(ctx, f.deliver)
	}
	return &graphql.Response{Data: json.RawMessage(`{"ok":true}`)}
}

func newAuth(t *testing.T, now time.Time) *auth.Service {
	t.Helper()
	a, err := auth.NewService(auth.Options{SecretKey: []byte("k"), BcryptCost: bcrypt.MinCost},
		auth.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return a
}

func testOptions() Options {
	return Options{
		CookieName:     "session",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *fakeExecutor, *auth.Service) {
	t.Helper()
	a := newAuth(t, time.Now())
	exec := &fakeExecutor{}
	return NewServer(opts, exec, a, logging.Nop{}), exec, a
}

func postGraphQL(t *testing.T, h http.Handler, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t, testOptions())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGraphQL_ForwardsRequest(t *testing.T) {
	s, exec, _ := newTestServer(t, testOptions())

	rec := postGraphQL(t, s.Handler(), `{"query":"{ getFeedTracks { id } }","operationName":"Feed","variables":{"a":1}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"ok":true}}`, rec.Body.String())
	assert.Equal(t, "{ getFeedTracks { id } }", exec.lastReq.Query)
	assert.Equal(t, "Feed", exec.lastReq.OperationName)
	assert.Equal(t, float64(1), exec.lastReq.Variables["a"])
	assert.True(t, exec.anonymous)
}

func TestGraphQL_BadBody(t *testing.T) {
	s, exec, _ := newTestServer(t, testOptions())

	assert.Equal(t, http.StatusBadRequest, postGraphQL(t, s.Handler(), `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postGraphQL(t, s.Handler(), `{"query":""}`).Code)
	assert.Zero(t, exec.calls)
}

func TestGraphQL_BodyTooLarge(t *testing.T) {
	opts := testOptions()
	opts.MaxBodyBytes = 16
	s, exec, _ := newTestServer(t, opts)

	rec := postGraphQL(t, s.Handler(), `{"query":"{ getFeedTracks { id title } }"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, exec.calls)
}

func TestSession_ValidCookieBindsIdentity(t *testing.T) {
	s, exec, a := newTestServer(t, testOptions())
	token, err := a.IssueSessionToken("u1", "alice")
	require.NoError(t, err)

	postGraphQL(t, s.Handler(), `{"query":"{ x }"}`, &http.Cookie{Name: "session", Value: token})

	assert.False(t, exec.anonymous)
	assert.Equal(t, session.Identity{UserID: "u1", Username: "alice"}, exec.identity)
}

func TestSession_BadCookiesAreAnonymous(t *testing.T) {
	s, exec, _ := newTestServer(t, testOptions())

	expired, err := newAuth(t, time.Now().Add(-48*time.Hour)).IssueSessionToken("u1", "alice")
	require.NoError(t, err)

	for _, v := range []string{"garbage", expired} {
		postGraphQL(t, s.Handler(), `{"query":"{ x }"}`, &http.Cookie{Name: "session", Value: v})
		assert.True(t, exec.anonymous, v)
	}
}

func TestSession_DeliveredTokenBecomesCookie(t *testing.T) {
	opts := testOptions()
	opts.CookieSecure = true
	s, exec, _ := newTestServer(t, opts)
	exec.deliver = "tok123"

	rec := postGraphQL(t, s.Handler(), `{"query":"mutation { loginUser }"}`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session", c.Name)
	assert.Equal(t, "tok123", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCORS(t *testing.T) {
	s, _, _ := newTestServer(t, testOptions())

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	opts := testOptions()
	opts.RateLimit = 0.001
	opts.RateBurst = 2
	s, _, _ := newTestServer(t, opts)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecovery(t *testing.T) {
	s, exec, _ := newTestServer(t, testOptions())
	exec.panics = true

	rec := postGraphQL(t, s.Handler(), `{"query":"{ x }"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	s, _, _ := newTestServer(t, testOptions())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	url := "http://" + lis.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}
