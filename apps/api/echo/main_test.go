package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/apps"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/ratelimit"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/testutil"
)

var errMissingTokenResp = errorResponse{Message: "missing or malformed token"}

// testApp is a server backed by a fresh in-memory store.
type testApp struct {
	srv     *server
	usrRepo user.Repository
	mailSvc *testutil.MailService
}

func newTestApp(t *testing.T, limiter ...ratelimit.Limiter) *testApp {
	t.Helper()

	conf := testutil.NewConfig()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	validate, translator := apps.NewValidator()
	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := testutil.NewMailService(conf)

	deps := ServerDeps{
		Conf:          conf,
		Logger:        testutil.Logger{},
		Translator:    translator,
		Store:         db,
		UserSvc:       user.NewService(usrRepo, mailSvc, validate, conf),
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db), validate),
		MarkSvc:       mark.NewService(inmemdb.NewMarkRepository(db), validate),
		BusRouteSvc:   busroute.NewService(inmemdb.NewBusRouteRepository(db), validate),
		TimetableSvc:  timetable.NewService(inmemdb.NewTimetableRepository(db), validate),
	}
	if len(limiter) > 0 {
		deps.AuthLimiter = limiter[0]
	}

	srv := NewServer(deps).(*server)
	t.Cleanup(func() { _ = srv.Close() })
	return &testApp{srv: srv, usrRepo: usrRepo, mailSvc: mailSvc}
}

func (app *testApp) createUser(t *testing.T, name, email, role string, edit ...func(usr *user.User)) user.User {
	t.Helper()
	return testutil.CreateUser(t, app.usrRepo, name, email, role, edit...)
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.srv.tokens.generate(app.srv.tokens.claims(usr))
	require.NoError(t, err, "generating token")
	return token
}

// do serves one request. body is sent as is when it is a []byte, JSON encoded otherwise.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData []byte // not checked when nil
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.do(t, method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marshal(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	require.NoError(t, err, "comparing %s", rec.Body.String())
	assert.True(t, ok, "data = %s; wantData %s", rec.Body.String(), tt.wantData)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ok", resp["store"])
}

func TestMetrics(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodGet, "/api/health", "", nil)

	rec := app.do(t, http.MethodGet, metricsPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `campus_http_requests_total{code="200",method="GET",route="/api/health"} 1`)
	assert.NotContains(t, rec.Body.String(), `route="/metrics"`)
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Alice", "alice@college.edu", user.RoleStudent)
	inactive := app.createUser(t, "Ghost", "ghost@college.edu", user.RoleStudent, func(usr *user.User) {
		usr.IsActive = false
	})

	app.run(t, []httpTest{
		{name: "no token", path: "/api/busroutes", wantCode: http.StatusUnauthorized, wantData: marshal(t, errMissingTokenResp)},
		{
			name: "garbage token", path: "/api/busroutes", token: "garbage", wantCode: http.StatusUnauthorized,
			wantData: marshal(t, errorResponse{Message: "invalid or expired token"}),
		},
		{
			name: "deactivated account", path: "/api/busroutes", token: app.token(t, inactive), wantCode: http.StatusForbidden,
			wantData: marshal(t, errorResponse{Message: "account deactivated"}),
		},
		{name: "valid token", path: "/api/busroutes", token: app.token(t, student), wantData: []byte("[]")},
	})

	t.Run("token of a deleted user", func(t *testing.T) {
		gone := app.createUser(t, "Gone", "gone@college.edu", user.RoleFaculty)
		token := app.token(t, gone)
		require.NoError(t, app.usrRepo.DeleteUsers(context.Background(), gone.ID))

		rec := app.do(t, http.MethodGet, "/api/busroutes", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
