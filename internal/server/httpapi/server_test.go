package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/auth"
	"github.com/dmitrijs2005/lmsauth/internal/server/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeAuth struct {
	registerRes *models.AuthResult
	registerErr error
	loginRes    *models.AuthResult
	loginErr    error
	logoutErr   error

	gotRegister models.RegisterInput
	gotLogin    models.LoginInput
	gotLogout   string
}

func (f *fakeAuth) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error) {
	f.gotRegister = in
	return f.registerRes, f.registerErr
}

func (f *fakeAuth) Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error) {
	f.gotLogin = in
	return f.loginRes, f.loginErr
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.gotLogout = token
	return f.logoutErr
}

type fakeUsers struct {
	res   *models.UserResult
	err   error
	gotID string
}

func (f *fakeUsers) GetOwnData(ctx context.Context, id string) (*models.UserResult, error) {
	f.gotID = id
	return f.res, f.err
}

// --- helpers ---

const testUserID = "0190a4c2-1111-7000-8000-000000000001"

func newTestServer(t *testing.T, a *fakeAuth, u *fakeUsers) (*httptest.Server, *auth.TokenService) {
	t.Helper()
	return newTestServerWithOptions(t, a, u, Options{CookieName: "auth_token"})
}

func newTestServerWithOptions(t *testing.T, a *fakeAuth, u *fakeUsers, opts Options) (*httptest.Server, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	logger := logging.NewZapLogger(zap.NewNop())

	s := NewServer(":0", logger, a, u, guard.New(tokens, logger), opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, tokens
}

func do(t *testing.T, method, url, body string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	return nil
}

func sampleUser() *models.User {
	return &models.User{ID: testUserID, Username: "johndoe", Email: "john@example.com", Phone: "+201234567890", FirstName: "John", LastName: "Doe"}
}

const registerBody = `{"username":"johndoe","email":"john@example.com","phone":"+201234567890","password":"password123","firstName":"John","lastName":"Doe"}`

// --- tests ---

func TestPing(t *testing.T) {
	ts, _ := newTestServer(t, &fakeAuth{}, &fakeUsers{})

	resp := do(t, http.MethodGet, ts.URL+"/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", decodeBody(t, resp)["status"])
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		a := &fakeAuth{registerRes: &models.AuthResult{Message: models.MessageRegistered, User: sampleUser(), Token: "tok"}}
		ts, _ := newTestServer(t, a, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/register", registerBody, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, models.MessageRegistered, body["message"])
		assert.Equal(t, "tok", body["token"])
		user := body["user"].(map[string]any)
		assert.Equal(t, "johndoe", user["username"])
		_, hasPassword := user["password"]
		assert.False(t, hasPassword)

		c := sessionCookie(resp)
		require.NotNil(t, c)
		assert.Equal(t, "tok", c.Value)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, int(common.SessionLifetime.Seconds()), c.MaxAge)

		assert.Equal(t, "password123", a.gotRegister.Password)
	})

	t.Run("malformed", func(t *testing.T) {
		ts, _ := newTestServer(t, &fakeAuth{}, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/register", `{"username":`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(400), body["statusCode"])
		assert.Equal(t, "Malformed request body", body["message"])
	})

	t.Run("every invalid field listed", func(t *testing.T) {
		a := &fakeAuth{}
		ts, _ := newTestServer(t, a, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/register", `{"username":"1x","email":"nope","phone":"abc","password":"123","firstName":"Jo","lastName":"Doe"}`, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		fields := body["fields"].([]any)
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.(map[string]any)["field"].(string))
		}
		assert.ElementsMatch(t, []string{"username", "email", "phone", "password", "firstName"}, names)
		assert.Empty(t, a.gotRegister.Username, "service not called")
	})

	t.Run("password longer than 72 bytes", func(t *testing.T) {
		a := &fakeAuth{}
		ts, _ := newTestServer(t, a, &fakeUsers{})

		body := `{"username":"johndoe","email":"john@example.com","phone":"+201234567890","password":"` +
			strings.Repeat("é", 40) + `","firstName":"John","lastName":"Doe"}`
		resp := do(t, http.MethodPost, ts.URL+"/auth/register", body, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		fields := decodeBody(t, resp)["fields"].([]any)
		require.Len(t, fields, 1)
		assert.Equal(t, "password", fields[0].(map[string]any)["field"])
		assert.Empty(t, a.gotRegister.Username, "service not called")
	})

	t.Run("body too large", func(t *testing.T) {
		a := &fakeAuth{}
		ts, _ := newTestServerWithOptions(t, a, &fakeUsers{}, Options{CookieName: "auth_token", MaxBodyBytes: 64})

		resp := do(t, http.MethodPost, ts.URL+"/auth/register", registerBody, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Malformed request body", decodeBody(t, resp)["message"])
		assert.Empty(t, a.gotRegister.Username, "service not called")
	})

	t.Run("cookie lifetime follows session ttl", func(t *testing.T) {
		a := &fakeAuth{registerRes: &models.AuthResult{Message: models.MessageRegistered, User: sampleUser(), Token: "tok"}}
		ts, _ := newTestServerWithOptions(t, a, &fakeUsers{}, Options{CookieName: "auth_token", SessionTTL: 2 * time.Hour})

		resp := do(t, http.MethodPost, ts.URL+"/auth/register", registerBody, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		c := sessionCookie(resp)
		require.NotNil(t, c)
		assert.Equal(t, 7200, c.MaxAge)
	})

	t.Run("conflict", func(t *testing.T) {
		a := &fakeAuth{registerErr: &common.ConflictError{Field: "email", Value: "john@example.com"}}
		ts, _ := newTestServer(t, a, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/register", registerBody, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, `email "john@example.com" already exists.`, body["message"])
		assert.Equal(t, "Conflict", body["error"])
		assert.Nil(t, sessionCookie(resp))
	})

	t.Run("internal", func(t *testing.T) {
		a := &fakeAuth{registerErr: errors.New("pq: connection refused")}
		ts, _ := newTestServer(t, a, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/register", registerBody, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Process Failed. Please try again later.", body["message"])
	})
}

func TestLogin(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		a := &fakeAuth{loginRes: &models.AuthResult{Message: models.MessageLoggedIn, User: sampleUser(), Token: "tok"}}
		ts, _ := newTestServer(t, a, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/login", `{"identifier":"john@example.com","password":"password123"}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.MessageLoggedIn, decodeBody(t, resp)["message"])
		assert.Equal(t, "john@example.com", a.gotLogin.Identifier)
		require.NotNil(t, sessionCookie(resp))
	})

	t.Run("wrong credentials", func(t *testing.T) {
		ts, _ := newTestServer(t, &fakeAuth{loginErr: common.ErrWrongCredentials}, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/login", `{"identifier":"ghost","password":"x"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Wrong Password", decodeBody(t, resp)["message"])
	})

	t.Run("missing password", func(t *testing.T) {
		ts, _ := newTestServer(t, &fakeAuth{}, &fakeUsers{})

		resp := do(t, http.MethodPost, ts.URL+"/auth/login", `{"identifier":"ghost"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMe(t *testing.T) {
	u := &fakeUsers{res: &models.UserResult{Message: models.MessageOwnData, User: sampleUser()}}
	ts, tokens := newTestServer(t, &fakeAuth{}, u)

	token, err := tokens.Issue(models.AuthContext{ID: testUserID, Username: "johndoe"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  map[string]string
		status  int
		message string
	}{
		{name: "no header", status: http.StatusUnauthorized, message: guard.MsgHTTPMissingToken},
		{name: "not bearer", header: map[string]string{"Authorization": "Token " + token}, status: http.StatusUnauthorized, message: guard.MsgHTTPMissingToken},
		{name: "tampered", header: map[string]string{"Authorization": "Bearer " + token + "x"}, status: http.StatusUnauthorized, message: guard.MsgHTTPInvalidToken},
		{name: "valid", header: map[string]string{"Authorization": "Bearer " + token}, status: http.StatusOK, message: models.MessageOwnData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.URL+"/user/me", "", tt.header)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, decodeBody(t, resp)["message"])
		})
	}
	assert.Equal(t, testUserID, u.gotID)
}

func TestMe_UserGone(t *testing.T) {
	ts, tokens := newTestServer(t, &fakeAuth{}, &fakeUsers{err: common.ErrorNotFound})

	token, err := tokens.Issue(models.AuthContext{ID: testUserID, Username: "johndoe"})
	require.NoError(t, err)

	resp := do(t, http.MethodGet, ts.URL+"/user/me", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User Not Found", decodeBody(t, resp)["message"])
}

func TestLogout(t *testing.T) {
	a := &fakeAuth{}
	ts, tokens := newTestServer(t, a, &fakeUsers{})

	resp := do(t, http.MethodPost, ts.URL+"/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tokens.Issue(models.AuthContext{ID: testUserID, Username: "johndoe"})
	require.NoError(t, err)

	resp = do(t, http.MethodPost, ts.URL+"/auth/logout", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MessageLoggedOut, decodeBody(t, resp)["message"])
	assert.Equal(t, token, a.gotLogout)

	c := sessionCookie(resp)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
}
