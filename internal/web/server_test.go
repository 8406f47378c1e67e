package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/vpl/internal/auth"
	"github.com/JonMunkholm/vpl/internal/config"
	"github.com/JonMunkholm/vpl/internal/core"
	"github.com/JonMunkholm/vpl/internal/logging"
	"github.com/JonMunkholm/vpl/internal/store/memory"
	mw "github.com/JonMunkholm/vpl/internal/web/middleware"
)

const testPassword = "letmein-123"

type testEnv struct {
	srv      *Server
	handler  http.Handler
	photoDir string
	store    core.Store
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload: config.UploadConfig{
			MaxRequestSize: 1 << 20,
			MaxConcurrent:  2,
			MaxWaitTime:    time.Second,
		},
		Admin: config.AdminConfig{
			Username:      "admin",
			Password:      testPassword,
			SessionSecret: "0123456789abcdef0123456789abcdef",
			SessionTTL:    time.Hour,
		},
		Rate:     config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, SubmitLimit: 10},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestEnv(t *testing.T, cfg *config.Config, store core.Store) testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	if store == nil {
		store = memory.New()
	}
	dir := t.TempDir()
	photos, err := core.NewPhotoStore(dir)
	require.NoError(t, err)
	gate, err := auth.NewGate(cfg.Admin)
	require.NoError(t, err)

	svc := core.NewService(store, photos, core.NewSubmitLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime), logging.Discard())
	srv := NewServer(cfg, svc, photos, gate)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return testEnv{srv: srv, handler: srv.Router(), photoDir: dir, store: store}
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func validFields() map[string]string {
	return map[string]string{
		"full_name":    "A Kumar",
		"age":          "22",
		"phone":        "9876543210",
		"ch_reg":       "Yes",
		"ch_mobile":    "9876543210",
		"ch_name":      "R Kumar",
		"current_team": "Strikers",
		"prev_team":    "",
		"role":         "Batsman",
		"style":        "Right",
		"shirt_name":   "KUMAR",
		"shirt_number": "7",
		"shirt_size":   "M",
		"sleeves":      "Half",
		"comments":     "",
	}
}

// registerRequest builds a multipart POST /register. An empty photoName sends
// no file part.
func registerRequest(t *testing.T, fields map[string]string, photoName string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mpw.WriteField(k, v))
	}
	if photoName != "" {
		fw, err := mpw.CreateFormFile("photo", photoName)
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, mpw.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &body)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return req
}

// flash extracts and verifies the flash cookie set on rec.
func (e testEnv) flash(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge >= 0 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			return e.srv.popFlash(httptest.NewRecorder(), req)
		}
	}
	return ""
}

func (e testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {testPassword}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == mw.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

func TestPublicPages(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	for _, path := range []string{"/", "/register", "/login"} {
		rec := e.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"), path)
		assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"), path)
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	for _, path := range []string{"/players", "/export_players", "/uploads/VPL-001.jpg"} {
		rec := e.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestRegister_Success(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	rec := e.do(registerRequest(t, validFields(), "me.JPG", []byte("jpeg")))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))
	assert.Equal(t, "Registration completed successfully! Your VPL ID is VPL-001.", e.flash(t, rec))

	data, err := os.ReadFile(filepath.Join(e.photoDir, "VPL-001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	rec = e.do(registerRequest(t, validFields(), "me.png", []byte("png")))
	assert.Equal(t, "Registration completed successfully! Your VPL ID is VPL-002.", e.flash(t, rec))
}

func TestRegister_FlashShownOnce(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	rec := e.do(registerRequest(t, validFields(), "me.jpg", []byte("x")))
	var fc *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie {
			fc = c
		}
	}
	require.NotNil(t, fc)

	req := httptest.NewRequest(http.MethodGet, "/register", nil)
	req.AddCookie(fc)
	page := e.do(req)
	assert.Contains(t, page.Body.String(), "Your VPL ID is VPL-001.")

	cleared := false
	for _, c := range page.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "flash cookie is cleared after display")
}

func TestRegister_ValidationFlash(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]string)
		photoName string
		want      string
	}{
		{"short phone", func(f map[string]string) { f["phone"] = "987654321" }, "a.jpg", "Error: Phone numbers must be exactly 10 digits!"},
		{"long guardian mobile", func(f map[string]string) { f["ch_mobile"] = "98765432100" }, "a.jpg", "Error: Phone numbers must be exactly 10 digits!"},
		{"missing photo", nil, "", "Photo is required."},
		{"full name omitted", func(f map[string]string) { delete(f, "full_name") }, "a.jpg", "Error: Please fill in all required fields!"},
		{"sleeves omitted", func(f map[string]string) { delete(f, "sleeves") }, "a.jpg", "Error: Please fill in all required fields!"},
		{"role empty", func(f map[string]string) { f["role"] = "" }, "a.jpg", "Error: Please fill in all required fields!"},
		{"age beyond integer column", func(f map[string]string) { f["age"] = "99999999999" }, "a.jpg", "Error: Age and shirt number must be whole numbers!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, nil, nil)
			fields := validFields()
			if tt.mutate != nil {
				tt.mutate(fields)
			}

			rec := e.do(registerRequest(t, fields, tt.photoName, []byte("x")))
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, e.flash(t, rec))

			players, err := e.store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, players)
			entries, err := os.ReadDir(e.photoDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestRegister_OptionalFieldsOmitted(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	fields := validFields()
	delete(fields, "ch_reg")
	delete(fields, "prev_team")
	delete(fields, "comments")

	rec := e.do(registerRequest(t, fields, "a.jpg", []byte("x")))
	assert.Equal(t, "Registration completed successfully! Your VPL ID is VPL-001.", e.flash(t, rec))
}

func TestFlash_RejectsUnsignedCookie(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	other := testConfig()
	other.Admin.SessionSecret = "another-secret-another-secret-00"
	foreign := newTestEnv(t, other, nil)
	rec := foreign.do(registerRequest(t, validFields(), "a.jpg", []byte("x")))
	var signedElsewhere *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie {
			signedElsewhere = c
		}
	}
	require.NotNil(t, signedElsewhere)

	for name, c := range map[string]*http.Cookie{
		"plain text":       {Name: flashCookie, Value: "PGI-aGVsbG88L2I-"},
		"other secret":     signedElsewhere,
		"unsigned payload": {Name: flashCookie, Value: "eyJhbGciOiJub25lIn0.eyJtc2ciOiJoaSIsImlzcyI6InZwbC1mbGFzaCJ9."},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/register", nil)
			req.AddCookie(c)
			page := e.do(req)
			assert.Equal(t, http.StatusOK, page.Code)
			assert.NotContains(t, page.Body.String(), `class="flash"`)
		})
	}
}

type brokenInsert struct{ core.Store }

func (brokenInsert) Insert(context.Context, *core.Player) error {
	return errors.New("database is locked")
}

func TestRegister_DatabaseErrorFlash(t *testing.T) {
	e := newTestEnv(t, nil, brokenInsert{Store: memory.New()})

	rec := e.do(registerRequest(t, validFields(), "a.jpg", []byte("x")))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "Database Error: database is locked", e.flash(t, rec))

	entries, err := os.ReadDir(e.photoDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegister_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxRequestSize = 1024
	e := newTestEnv(t, cfg, nil)

	rec := e.do(registerRequest(t, validFields(), "big.jpg", bytes.Repeat([]byte("x"), 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE001")

	players, err := e.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestRegister_TooLargeWithoutContentLength(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxRequestSize = 1024
	e := newTestEnv(t, cfg, nil)

	req := registerRequest(t, validFields(), "big.jpg", bytes.Repeat([]byte("x"), 4096))
	req.ContentLength = -1
	req.Body = io.NopCloser(req.Body)

	rec := e.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	t.Run("wrong password re-renders with 401", func(t *testing.T) {
		form := url.Values{"username": {"admin"}, "password": {"nope"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := e.do(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid Username or Password")
		for _, c := range rec.Result().Cookies() {
			assert.NotEqual(t, mw.SessionCookie, c.Name)
		}
	})

	t.Run("success redirects with welcome flash", func(t *testing.T) {
		form := url.Values{"username": {"admin"}, "password": {testPassword}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := e.do(req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/players", rec.Header().Get("Location"))
		assert.Equal(t, "Welcome, Admin!", e.flash(t, rec))
	})
}

func TestPlayersAndExport(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	rec := e.do(registerRequest(t, validFields(), "a.jpg", []byte("photo-bytes")))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	session := e.login(t)

	req := httptest.NewRequest(http.MethodGet, "/players", nil)
	req.AddCookie(session)
	rec = e.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "VPL-001")
	assert.Contains(t, rec.Body.String(), "A Kumar")

	req = httptest.NewRequest(http.MethodGet, "/export_players", nil)
	req.AddCookie(session)
	rec = e.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=VPL_Season2_Registrations.csv", rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(core.ExportColumns, ","), lines[0])
	assert.Equal(t, "VPL-001,A Kumar,22,9876543210,Yes,9876543210,R Kumar,Strikers,,Batsman,Right,KUMAR,7,M,Half,", lines[1])

	req = httptest.NewRequest(http.MethodGet, "/uploads/VPL-001.jpg", nil)
	req.AddCookie(session)
	rec = e.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "photo-bytes", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/uploads/VPL-404.jpg", nil)
	req.AddCookie(session)
	assert.Equal(t, http.StatusNotFound, e.do(req).Code)
}

func TestExport_EmptyStore(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	session := e.login(t)

	req := httptest.NewRequest(http.MethodGet, "/export_players", nil)
	req.AddCookie(session)
	rec := e.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strings.Join(core.ExportColumns, ",")+"\n", rec.Body.String())
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	session := e.login(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(session)
	rec := e.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == mw.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil, nil)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

type downStore struct{ core.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_StoreDown(t *testing.T) {
	e := newTestEnv(t, nil, downStore{Store: memory.New()})
	rec := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmitRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, SubmitLimit: 1}
	e := newTestEnv(t, cfg, nil)

	rec := e.do(registerRequest(t, validFields(), "a.jpg", []byte("x")))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	req := registerRequest(t, validFields(), "a.jpg", []byte("x"))
	req.Header.Set("Accept", "application/json")
	rec = e.do(req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE001")
}
