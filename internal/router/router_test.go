package router

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/ngo-portal/internal/config"
	"github.com/iliyamo/ngo-portal/internal/service"
	"github.com/iliyamo/ngo-portal/internal/storage"
	"github.com/iliyamo/ngo-portal/internal/testutil"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

const testSecret = "test-secret"

type testServer struct {
	e   *echo.Echo
	db  *sql.DB
	fs  afero.Fs
	cfg config.Config
}

func newTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()
	cfg := config.Config{
		Env:            "test",
		JWTSecret:      testSecret,
		AccessTTL:      30 * time.Minute,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
		MaxUploadBytes: 10 << 20,
		CORSOrigins:    []string{"*"},
		SeedAdmin: config.SeedAdminConfig{
			Email:     "admin@example.com",
			Username:  "admin",
			Password:  "admin123",
			FirstName: "Admin",
			LastName:  "User",
		},
	}
	db := testutil.OpenDB(t)
	fs := afero.NewMemMapFs()
	d := Deps{
		Cfg:       cfg,
		DB:        db,
		Store:     storage.New(fs),
		Publisher: service.NopPublisher{},
		Issuer:    utils.NewIssuer(testSecret, cfg.AccessTTL),
		Log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	return &testServer{e: New(d), db: db, fs: fs, cfg: d.Cfg}
}

// withRedis backs the server with an in-memory Redis and lets the caller
// turn on the edge middleware that needs it.
func withRedis(t *testing.T, tune func(*config.Config)) func(*Deps) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return func(d *Deps) {
		d.Redis = rdb
		tune(&d.Cfg)
	}
}

type request struct {
	method, path string
	token        string
	body         io.Reader
	contentType  string
}

func (s *testServer) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set(echo.HeaderContentType, r.contentType)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) json(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	return s.do(request{method: method, path: path, token: token, body: &buf, contentType: echo.MIMEApplicationJSON})
}

func (s *testServer) form(method, path, token string, vals url.Values) *httptest.ResponseRecorder {
	return s.do(request{method: method, path: path, token: token,
		body: strings.NewReader(vals.Encode()), contentType: echo.MIMEApplicationForm})
}

func (s *testServer) multipart(t *testing.T, method, path, token string, fields map[string]string, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, _ = fw.Write(data)
	}
	require.NoError(t, w.Close())
	return s.do(request{method: method, path: path, token: token, body: &buf, contentType: w.FormDataContentType()})
}

// login returns an access token for a fixture user.
func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.form(http.MethodPost, "/token", "", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusOK, rec.Code, "login %s: %s", username, rec.Body)
	var resp map[string]any
	decode(t, rec, &resp)
	return resp["access_token"].(string)
}

func (s *testServer) user(t *testing.T, username string, opts testutil.UserOpts) (uint64, string) {
	t.Helper()
	id := testutil.InsertUser(t, s.db, username, opts)
	if opts.Inactive {
		return id, s.issue(t, username)
	}
	return id, s.login(t, username, testutil.Password)
}

// issue signs an access token without going through /token.
func (s *testServer) issue(t *testing.T, username string) string {
	t.Helper()
	tok, err := utils.NewIssuer(testSecret, time.Minute).Issue(username, 0)
	require.NoError(t, err)
	return tok.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "decode %q", rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body %s", rec.Body)
}

func requireFile(t *testing.T, fs afero.Fs, path string, want bool) {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	require.NoError(t, err)
	require.Equal(t, want, ok, path)
}

func TestRootHealthAndNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(request{method: http.MethodGet, path: "/"})
	wantStatus(t, rec, http.StatusOK)
	require.Contains(t, rec.Body.String(), "Welcome to NGO API")
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/healthz"}), http.StatusOK)

	rec = s.do(request{method: http.MethodGet, path: "/nope"})
	wantStatus(t, rec, http.StatusNotFound)
	require.NotEmpty(t, errorOf(t, rec))
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	s := newTestServer(t)

	reg := map[string]any{"email": "alice@example.com", "username": "alice", "password": "pw123456", "first_name": "Alice"}
	rec := s.json(http.MethodPost, "/api/users/register", "", reg)
	wantStatus(t, rec, http.StatusOK)
	require.NotContains(t, rec.Body.String(), "password")

	// same email, different username and case
	dup := map[string]any{"email": "ALICE@example.com", "username": "alice2", "password": "x"}
	rec = s.json(http.MethodPost, "/api/users/register", "", dup)
	wantStatus(t, rec, http.StatusBadRequest)
	require.Equal(t, "Username or email already registered", errorOf(t, rec))
	rec = s.json(http.MethodPost, "/api/users/register", "", map[string]any{"email": "not-an-email", "username": "x", "password": "x"})
	wantStatus(t, rec, http.StatusUnprocessableEntity)

	rec = s.form(http.MethodPost, "/token", "", url.Values{"username": {"alice"}, "password": {"wrong"}})
	wantStatus(t, rec, http.StatusUnauthorized)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	require.Equal(t, "Incorrect username or password", errorOf(t, rec))
	rec = s.form(http.MethodPost, "/token", "", url.Values{"username": {"ghost"}, "password": {"wrong"}})
	wantStatus(t, rec, http.StatusUnauthorized)

	rec = s.form(http.MethodPost, "/token", "", url.Values{"username": {"alice"}, "password": {"pw123456"}})
	wantStatus(t, rec, http.StatusOK)
	var pair struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, rec, &pair)
	require.Equal(t, "bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	rec = s.do(request{method: http.MethodGet, path: "/api/users/me", token: pair.AccessToken})
	wantStatus(t, rec, http.StatusOK)
	var me map[string]any
	decode(t, rec, &me)
	require.Equal(t, "alice", me["username"])
	require.Equal(t, "Alice", me["first_name"])
	require.Equal(t, false, me["is_admin"])
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/users/me"}), http.StatusUnauthorized)
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/users/me", token: "garbage"}), http.StatusUnauthorized)

	// refresh rotates: the old refresh token stops working
	rec = s.json(http.MethodPost, "/token/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	wantStatus(t, rec, http.StatusOK)
	var next struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, rec, &next)
	rec = s.json(http.MethodPost, "/token/refresh", "", map[string]string{"refresh_token": pair.RefreshToken})
	wantStatus(t, rec, http.StatusUnauthorized)

	// bearer logout revokes every session
	wantStatus(t, s.json(http.MethodPost, "/logout", next.AccessToken, nil), http.StatusNoContent)
	rec = s.json(http.MethodPost, "/token/refresh", "", map[string]string{"refresh_token": next.RefreshToken})
	wantStatus(t, rec, http.StatusUnauthorized)
	wantStatus(t, s.json(http.MethodPost, "/logout", "", nil), http.StatusUnauthorized)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	s := newTestServer(t)
	testutil.InsertUser(t, s.db, "alice", testutil.UserOpts{})

	past := utils.NewIssuer(testSecret, time.Minute).WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	old, err := past.Issue("alice", 0)
	require.NoError(t, err)
	rec := s.do(request{method: http.MethodGet, path: "/api/users/me", token: old.Token})
	wantStatus(t, rec, http.StatusUnauthorized)

	other, err := utils.NewIssuer("other-secret", time.Minute).Issue("alice", 0)
	require.NoError(t, err)
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/users/me", token: other.Token}), http.StatusUnauthorized)
}

func TestUpdateMePartial(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.user(t, "alice", testutil.UserOpts{})
	testutil.InsertUser(t, s.db, "bob", testutil.UserOpts{})

	rec := s.json(http.MethodPut, "/api/users/me", tok, map[string]any{"first_name": "Al"})
	wantStatus(t, rec, http.StatusOK)
	var me map[string]any
	decode(t, rec, &me)
	require.Equal(t, "Al", me["first_name"])
	require.Equal(t, "alice@example.com", me["email"])
	require.Equal(t, "alice", me["username"])

	rec = s.json(http.MethodPut, "/api/users/me", tok, map[string]any{"email": "bob@example.com"})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestSeedAdminOnce(t *testing.T) {
	s := newTestServer(t)

	rec := s.json(http.MethodPost, "/api/admin/seed-admin", "", nil)
	wantStatus(t, rec, http.StatusCreated)
	rec = s.json(http.MethodPost, "/api/admin/seed-admin", "", nil)
	wantStatus(t, rec, http.StatusBadRequest)
	require.Equal(t, "Admin user already exists. Use regular admin creation endpoint.", errorOf(t, rec))

	tok := s.login(t, "admin", "admin123")
	rec = s.do(request{method: http.MethodGet, path: "/api/admin/list", token: tok})
	wantStatus(t, rec, http.StatusOK)
	var admins []map[string]any
	decode(t, rec, &admins)
	require.Len(t, admins, 1)
	require.Equal(t, "admin", admins[0]["username"])
}

func TestSeedAdminBlockedByRegularUser(t *testing.T) {
	s := newTestServer(t)
	testutil.InsertUser(t, s.db, "admin", testutil.UserOpts{})

	rec := s.json(http.MethodPost, "/api/admin/seed-admin", "", nil)
	wantStatus(t, rec, http.StatusBadRequest)
	require.Equal(t, "Username or email already registered", errorOf(t, rec))
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	rootID, root := s.user(t, "root", testutil.UserOpts{Admin: true})
	bobID, bob := s.user(t, "bob", testutil.UserOpts{})

	newAdmin := map[string]any{"email": "ops@example.com", "username": "ops", "password": "pw"}
	wantStatus(t, s.json(http.MethodPost, "/api/admin/create", bob, newAdmin), http.StatusForbidden)
	rec := s.json(http.MethodPost, "/api/admin/create", root, newAdmin)
	wantStatus(t, rec, http.StatusOK)
	var created map[string]any
	decode(t, rec, &created)
	require.Equal(t, true, created["is_admin"])

	rec = s.json(http.MethodPut, fmt.Sprintf("/api/admin/update/%d", bobID), root, map[string]any{"last_name": "Builder"})
	wantStatus(t, rec, http.StatusOK)
	var updated map[string]any
	decode(t, rec, &updated)
	require.Equal(t, "Builder", updated["last_name"])
	require.Equal(t, "bob", updated["username"])
	wantStatus(t, s.json(http.MethodPut, "/api/admin/update/999", root, map[string]any{}), http.StatusNotFound)

	rec = s.do(request{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/delete/%d", rootID), token: root})
	wantStatus(t, rec, http.StatusBadRequest)
	require.Equal(t, "Admins cannot delete their own accounts", errorOf(t, rec))
	path := fmt.Sprintf("/api/admin/delete/%d", bobID)
	wantStatus(t, s.do(request{method: http.MethodDelete, path: path, token: root}), http.StatusNoContent)
	wantStatus(t, s.do(request{method: http.MethodDelete, path: path, token: root}), http.StatusNotFound)
	// bob's token now names a missing user
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/users/me", token: bob}), http.StatusUnauthorized)

	_, off := s.user(t, "off", testutil.UserOpts{Admin: true, Inactive: true})
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/admin/list", token: off}), http.StatusBadRequest)
}

func TestEventCollections(t *testing.T) {
	for _, c := range []struct {
		prefix, dir, file, deleted string
	}{
		{"/api/events", storage.CompletedEvents, "event_1.png", "Event deleted successfully"},
		{"/api/upcoming-events", storage.UpcomingEvents, "upcoming_1.png", "Upcoming event deleted successfully"},
	} {
		t.Run(c.prefix, func(t *testing.T) {
			s := newTestServer(t)
			_, alice := s.user(t, "alice", testutil.UserOpts{})
			_, mallory := s.user(t, "mallory", testutil.UserOpts{})
			_, root := s.user(t, "root", testutil.UserOpts{Admin: true})
			_, off := s.user(t, "off", testutil.UserOpts{Inactive: true})

			fields := map[string]string{"title": "Cleanup", "description": "Bring <b>gloves</b>", "date": "2024-06-15", "location": "Park"}
			wantStatus(t, s.multipart(t, http.MethodPost, c.prefix, "", fields, "", nil), http.StatusUnauthorized)
			wantStatus(t, s.multipart(t, http.MethodPost, c.prefix, off, fields, "", nil), http.StatusBadRequest)
			wantStatus(t, s.multipart(t, http.MethodPost, c.prefix, alice, map[string]string{"title": "x"}, "", nil), http.StatusUnprocessableEntity)

			rec := s.multipart(t, http.MethodPost, c.prefix, alice, fields, "photo.PNG", []byte("png-bytes"))
			wantStatus(t, rec, http.StatusOK)
			var ev map[string]any
			decode(t, rec, &ev)
			wantImage := "/static/" + c.dir + "/" + c.file
			require.Equal(t, wantImage, ev["image_url"])
			require.Equal(t, "Bring gloves", ev["description"])
			require.Equal(t, true, ev["is_active"])
			id := uint64(ev["id"].(float64))
			item := fmt.Sprintf("%s/%d", c.prefix, id)

			rec = s.do(request{method: http.MethodGet, path: wantImage})
			wantStatus(t, rec, http.StatusOK)
			require.Equal(t, "png-bytes", rec.Body.String())

			rec = s.do(request{method: http.MethodGet, path: item})
			wantStatus(t, rec, http.StatusOK)
			var got map[string]any
			decode(t, rec, &got)
			require.Equal(t, "Cleanup", got["title"])
			require.Equal(t, "2024-06-15", got["date"])
			require.Equal(t, "Park", got["location"])

			// fields may also come from the query string
			q := url.Values{"title": {"Drive"}, "description": {"d"}, "date": {"2024-07-01"}}
			wantStatus(t, s.do(request{method: http.MethodPost, path: c.prefix + "?" + q.Encode(), token: mallory}), http.StatusOK)

			rec = s.form(http.MethodPut, item, mallory, url.Values{"title": {"Hijack"}})
			wantStatus(t, rec, http.StatusForbidden)
			require.Equal(t, "Not authorized to update this event", errorOf(t, rec))

			rec = s.form(http.MethodPut, item, alice, url.Values{"title": {"Big Cleanup"}})
			wantStatus(t, rec, http.StatusOK)
			decode(t, rec, &got)
			require.Equal(t, "Big Cleanup", got["title"])
			require.Equal(t, "Bring gloves", got["description"])
			require.Equal(t, "Park", got["location"])
			require.Equal(t, wantImage, got["image_url"])
			rec = s.form(http.MethodPut, item, root, url.Values{"location": {"Square"}})
			wantStatus(t, rec, http.StatusOK)
			wantStatus(t, s.form(http.MethodPut, item, alice, url.Values{"date": {"15/06/2024"}}), http.StatusUnprocessableEntity)

			rec = s.multipart(t, http.MethodPut, item, alice, nil, "new.jpg", []byte("jpg-bytes"))
			wantStatus(t, rec, http.StatusOK)
			decode(t, rec, &got)
			newImage := "/static/" + c.dir + "/" + strings.TrimSuffix(c.file, ".png") + ".jpg"
			require.Equal(t, newImage, got["image_url"])
			requireFile(t, s.fs, c.dir+"/"+c.file, false)
			requireFile(t, s.fs, strings.TrimPrefix(newImage, "/static/"), true)

			rec = s.do(request{method: http.MethodDelete, path: item, token: mallory})
			wantStatus(t, rec, http.StatusForbidden)
			for i := 0; i < 2; i++ {
				rec = s.do(request{method: http.MethodDelete, path: item, token: alice})
				wantStatus(t, rec, http.StatusOK)
				require.Empty(t, errorOf(t, rec))
				var msg map[string]string
				decode(t, rec, &msg)
				require.Equal(t, c.deleted, msg["message"])
			}

			rec = s.do(request{method: http.MethodGet, path: c.prefix})
			wantStatus(t, rec, http.StatusOK)
			var list []map[string]any
			decode(t, rec, &list)
			require.Len(t, list, 1)
			require.Equal(t, "Drive", list[0]["title"])
			rec = s.do(request{method: http.MethodGet, path: item})
			wantStatus(t, rec, http.StatusOK)
			decode(t, rec, &got)
			require.Equal(t, false, got["is_active"])

			wantStatus(t, s.do(request{method: http.MethodGet, path: c.prefix + "/999"}), http.StatusNotFound)
			wantStatus(t, s.do(request{method: http.MethodGet, path: c.prefix + "/abc"}), http.StatusUnprocessableEntity)
		})
	}
}

func TestMembers(t *testing.T) {
	s := newTestServer(t)
	_, root := s.user(t, "root", testutil.UserOpts{Admin: true})
	_, bob := s.user(t, "bob", testutil.UserOpts{})

	ann := map[string]any{"name": "Ann", "position": "Chair", "age": 40, "bio": "<script>x</script>Founder"}
	wantStatus(t, s.json(http.MethodPost, "/api/members", "", ann), http.StatusUnauthorized)
	wantStatus(t, s.json(http.MethodPost, "/api/members", bob, ann), http.StatusForbidden)
	wantStatus(t, s.json(http.MethodPost, "/api/members", root, map[string]any{"name": "NoAge", "position": "p"}), http.StatusUnprocessableEntity)

	rec := s.json(http.MethodPost, "/api/members", root, ann)
	wantStatus(t, rec, http.StatusCreated)
	var m map[string]any
	decode(t, rec, &m)
	require.Equal(t, "Founder", m["bio"])
	annPath := fmt.Sprintf("/api/members/%d", uint64(m["id"].(float64)))

	rec = s.multipart(t, http.MethodPost, "/api/members/with-image", root,
		map[string]string{"name": "Ben", "position": "Treasurer", "age": "33"}, "ben.jpeg", []byte("jpeg"))
	wantStatus(t, rec, http.StatusOK)
	var ben map[string]any
	decode(t, rec, &ben)
	photo, _ := ben["photo"].(string)
	require.True(t, strings.HasPrefix(photo, "/static/userimages/"), photo)
	require.True(t, strings.HasSuffix(photo, ".jpeg"), photo)
	rel := strings.TrimPrefix(photo, "/static/")
	requireFile(t, s.fs, rel, true)
	wantStatus(t, s.multipart(t, http.MethodPost, "/api/members/with-image", root,
		map[string]string{"name": "Bad", "position": "x", "age": "old"}, "", nil), http.StatusUnprocessableEntity)

	rec = s.do(request{method: http.MethodGet, path: "/api/members"})
	wantStatus(t, rec, http.StatusOK)
	var list []map[string]any
	decode(t, rec, &list)
	require.Len(t, list, 2)

	rec = s.json(http.MethodPut, annPath, root, map[string]any{"age": 41})
	wantStatus(t, rec, http.StatusOK)
	decode(t, rec, &m)
	require.Equal(t, float64(41), m["age"])
	require.Equal(t, "Ann", m["name"])
	require.Equal(t, "Chair", m["position"])

	benPath := fmt.Sprintf("/api/members/%d", uint64(ben["id"].(float64)))
	wantStatus(t, s.do(request{method: http.MethodDelete, path: benPath, token: bob}), http.StatusForbidden)
	wantStatus(t, s.do(request{method: http.MethodDelete, path: benPath, token: root}), http.StatusNoContent)
	requireFile(t, s.fs, rel, false)
	wantStatus(t, s.do(request{method: http.MethodGet, path: benPath}), http.StatusNotFound)
	wantStatus(t, s.do(request{method: http.MethodDelete, path: benPath, token: root}), http.StatusNotFound)
}

func TestDonations(t *testing.T) {
	s := newTestServer(t)
	_, root := s.user(t, "root", testutil.UserOpts{Admin: true})
	aliceID, alice := s.user(t, "alice", testutil.UserOpts{})
	bobID := testutil.InsertUser(t, s.db, "bob", testutil.UserOpts{})
	testutil.InsertDonation(t, s.db, aliceID, 50, "2024-01-10")
	testutil.InsertDonation(t, s.db, bobID, 75, "2024-02-10")

	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/donations"}), http.StatusUnauthorized)
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/donations", token: alice}), http.StatusForbidden)

	rec := s.do(request{method: http.MethodGet, path: "/api/donations", token: root})
	wantStatus(t, rec, http.StatusOK)
	var all []map[string]any
	decode(t, rec, &all)
	require.Len(t, all, 2)

	rec = s.do(request{method: http.MethodGet, path: "/api/donations/mine", token: alice})
	wantStatus(t, rec, http.StatusOK)
	var mine []map[string]any
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	require.Equal(t, float64(50), mine[0]["amount"])
}

func TestListPagination(t *testing.T) {
	s := newTestServer(t)
	_, root := s.user(t, "root", testutil.UserOpts{Admin: true})
	for i := 0; i < 3; i++ {
		body := map[string]any{"name": fmt.Sprintf("m%d", i), "position": "p", "age": 20 + i}
		wantStatus(t, s.json(http.MethodPost, "/api/members", root, body), http.StatusCreated)
	}
	rec := s.do(request{method: http.MethodGet, path: "/api/members?skip=1&limit=1"})
	wantStatus(t, rec, http.StatusOK)
	var page []map[string]any
	decode(t, rec, &page)
	require.Len(t, page, 1)
	require.Equal(t, "m1", page[0]["name"])
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/api/members?limit=-1"}), http.StatusUnprocessableEntity)
}

func TestEventCacheKeyedPerItem(t *testing.T) {
	s := newTestServer(t, withRedis(t, func(cfg *config.Config) {
		cfg.Cache = config.CacheConfig{
			Enabled:     true,
			Methods:     map[string]bool{http.MethodGet: true},
			TTL:         time.Minute,
			KeyStrategy: "route_query",
			Prefix:      "cache",
		}
	}))
	_, alice := s.user(t, "alice", testutil.UserOpts{})
	for _, title := range []string{"First", "Second"} {
		fields := map[string]string{"title": title, "description": "d", "date": "2024-06-15"}
		wantStatus(t, s.multipart(t, http.MethodPost, "/api/events", alice, fields, "", nil), http.StatusOK)
	}

	get := func(path, wantTitle, wantCache string) {
		t.Helper()
		rec := s.do(request{method: http.MethodGet, path: path})
		wantStatus(t, rec, http.StatusOK)
		require.Equal(t, wantCache, rec.Header().Get("X-Cache"), path)
		require.Len(t, rec.Header().Values(echo.HeaderXRequestID), 1, path)
		var ev map[string]any
		decode(t, rec, &ev)
		require.Equal(t, wantTitle, ev["title"], path)
	}

	get("/api/events/1", "First", "MISS")
	get("/api/events/2", "Second", "MISS")
	get("/api/events/1", "First", "HIT")
	get("/api/events/2", "Second", "HIT")

	rec := s.do(request{method: http.MethodGet, path: "/api/events"})
	wantStatus(t, rec, http.StatusOK)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	// a write to the collection drops every cached entry under it
	wantStatus(t, s.form(http.MethodPut, "/api/events/1", alice, url.Values{"title": {"Renamed"}}), http.StatusOK)
	get("/api/events/1", "Renamed", "MISS")
	get("/api/events/2", "Second", "MISS")

	wantStatus(t, s.do(request{method: http.MethodDelete, path: "/api/events/2", token: alice}), http.StatusOK)
	rec = s.do(request{method: http.MethodGet, path: "/api/events"})
	wantStatus(t, rec, http.StatusOK)
	require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var list []map[string]any
	decode(t, rec, &list)
	require.Len(t, list, 1)
	require.Equal(t, "Renamed", list[0]["title"])
}

func TestEventImageKeptWhenUpdateFails(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user(t, "alice", testutil.UserOpts{})
	fields := map[string]string{"title": "Cleanup", "description": "d", "date": "2024-06-15"}
	rec := s.multipart(t, http.MethodPost, "/api/events", alice, fields, "photo.png", []byte("png-bytes"))
	wantStatus(t, rec, http.StatusOK)

	_, err := s.db.Exec(`CREATE TRIGGER reject_boom BEFORE UPDATE ON events
		WHEN NEW.title = 'boom' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	rec = s.multipart(t, http.MethodPut, "/api/events/1", alice, map[string]string{"title": "boom"}, "new.jpg", []byte("jpg-bytes"))
	wantStatus(t, rec, http.StatusInternalServerError)

	requireFile(t, s.fs, storage.CompletedEvents+"/event_1.png", true)
	requireFile(t, s.fs, storage.CompletedEvents+"/event_1.jpg", false)

	rec = s.do(request{method: http.MethodGet, path: "/api/events/1"})
	wantStatus(t, rec, http.StatusOK)
	var ev map[string]any
	decode(t, rec, &ev)
	require.Equal(t, "Cleanup", ev["title"])
	require.Equal(t, "/static/"+storage.CompletedEvents+"/event_1.png", ev["image_url"])
	wantStatus(t, s.do(request{method: http.MethodGet, path: "/static/" + storage.CompletedEvents + "/event_1.png"}), http.StatusOK)
}

func TestRateLimitPerUser(t *testing.T) {
	s := newTestServer(t, withRedis(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{
			Enabled:        true,
			Capacity:       1,
			RefillTokens:   1,
			RefillInterval: time.Hour,
			TTL:            time.Hour,
			KeyStrategy:    "user",
			Prefix:         "rl",
		}
	}))
	testutil.InsertUser(t, s.db, "alice", testutil.UserOpts{})
	testutil.InsertUser(t, s.db, "bob", testutil.UserOpts{})
	alice, bob := s.issue(t, "alice"), s.issue(t, "bob")

	me := func(token string) int {
		return s.do(request{method: http.MethodGet, path: "/api/users/me", token: token}).Code
	}
	require.Equal(t, http.StatusOK, me(alice))
	require.Equal(t, http.StatusTooManyRequests, me(alice))
	require.Equal(t, http.StatusOK, me(bob))
	require.Equal(t, http.StatusTooManyRequests, me(bob))

	require.Equal(t, http.StatusOK, s.do(request{method: http.MethodGet, path: "/"}).Code)
	require.Equal(t, http.StatusTooManyRequests, s.do(request{method: http.MethodGet, path: "/"}).Code)
}
