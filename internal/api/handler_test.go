package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"studyroom-backend/internal/account"
	"studyroom-backend/internal/api"
	"studyroom-backend/internal/auth"
	"studyroom-backend/internal/booking"
	"studyroom-backend/internal/metrics"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/store"
	"studyroom-backend/internal/store/storetest"
)

var (
	secret      = []byte("api-test-secret")
	b1Afternoon = model.Descriptor{RoomID: "B1-203", Campus: "HCM", Date: "2024-05-01", TimeRange: "13:00-15:00"}
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gormDB := storetest.Open(t)
	s := store.NewGormStore(gormDB, nil)
	reg := prometheus.NewRegistry()
	engine := booking.NewEngine(s, booking.WithMetrics(metrics.New(reg)))
	issuer := auth.NewIssuer(secret, "studyroom", time.Hour)
	accounts := account.NewService(s.Accounts(), issuer, bcrypt.MinCost, nil)

	h := api.NewHandler(engine, accounts, s, nil)
	router := api.NewRouter(h, auth.NewJWTGuard(secret, "studyroom", 0), api.RouterOptions{
		RateLimit: rate.Inf,
		CacheTTL:  time.Minute,
		Gatherer:  reg,
	})
	return &testServer{router: router, db: gormDB, issuer: issuer}
}

func (ts *testServer) token(t *testing.T, a model.Account) string {
	t.Helper()
	signed, _, err := ts.issuer.Issue(a.ID, a.Role)
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func bookingBody(d model.Descriptor, a model.Account) map[string]string {
	return map[string]string{
		"roomId":      d.RoomID,
		"campus":      d.Campus,
		"date":        d.Date,
		"timeSlot":    d.TimeRange,
		"description": d.Description,
		"fullname":    a.FullName,
		"mssv":        a.StudentID,
		"email":       a.Email,
		"phonenumber": a.Phone,
	}
}

func TestBookings_HappyPath(t *testing.T) {
	ts := newTestServer(t)
	slot := storetest.SeedSlot(t, ts.db, b1Afternoon)
	alice := storetest.SeedAccount(t, ts.db, "alice", model.RoleStudent)
	token := ts.token(t, alice)

	w := ts.do(t, http.MethodPost, "/bookings", token, bookingBody(b1Afternoon, alice))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res model.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, slot.ID, res.SlotID)
	assert.Equal(t, alice.StudentID, res.StudentID)

	w = ts.do(t, http.MethodGet, "/rooms/B1-203", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var slots []model.Slot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, model.SlotBooked, slots[0].Status)

	w = ts.do(t, http.MethodGet, "/bookings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []model.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, res.ID, mine[0].ID)

	w = ts.do(t, http.MethodDelete, "/bookings/"+res.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+res.ID+`","message":"reservation cancelled"}`, w.Body.String())

	// The listing cached above must not survive the cancellation.
	w = ts.do(t, http.MethodGet, "/rooms/B1-203", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.Equal(t, model.SlotAvailable, slots[0].Status)
}

func TestBookings_Errors(t *testing.T) {
	ts := newTestServer(t)
	storetest.SeedSlot(t, ts.db, b1Afternoon)
	alice := storetest.SeedAccount(t, ts.db, "alice", model.RoleStudent)
	bob := storetest.SeedAccount(t, ts.db, "bob", model.RoleStudent)

	w := ts.do(t, http.MethodPost, "/bookings", ts.token(t, alice), bookingBody(b1Afternoon, alice))
	require.Equal(t, http.StatusCreated, w.Code)
	var res model.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	missing := b1Afternoon
	missing.Date = "2024-06-01"
	badRange := b1Afternoon
	badRange.TimeRange = "13:00"
	noEmail := bookingBody(b1Afternoon, bob)
	delete(noEmail, "email")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"anonymous booking", http.MethodPost, "/bookings", "", bookingBody(b1Afternoon, bob), http.StatusUnauthorized},
		{"forged token", http.MethodPost, "/bookings", "not-a-jwt", bookingBody(b1Afternoon, bob), http.StatusUnauthorized},
		{"double booking", http.MethodPost, "/bookings", ts.token(t, bob), bookingBody(b1Afternoon, bob), http.StatusConflict},
		{"unknown slot", http.MethodPost, "/bookings", ts.token(t, bob), bookingBody(missing, bob), http.StatusNotFound},
		{"bad time range", http.MethodPost, "/bookings", ts.token(t, bob), bookingBody(badRange, bob), http.StatusBadRequest},
		{"missing email", http.MethodPost, "/bookings", ts.token(t, bob), noEmail, http.StatusBadRequest},
		{"cancel by stranger", http.MethodDelete, "/bookings/" + res.ID, ts.token(t, bob), nil, http.StatusForbidden},
		{"cancel unknown", http.MethodDelete, "/bookings/nope", ts.token(t, alice), nil, http.StatusNotFound},
		{"anonymous listing", http.MethodGet, "/bookings", "", nil, http.StatusUnauthorized},
		{"unknown room", http.MethodGet, "/rooms/Z9-999", "", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUpdateSlotStatus(t *testing.T) {
	ts := newTestServer(t)
	slot := storetest.SeedSlot(t, ts.db, b1Afternoon)
	evening := b1Afternoon
	evening.TimeRange = "17:00-19:00"
	taken := storetest.SeedSlot(t, ts.db, evening)
	alice := storetest.SeedAccount(t, ts.db, "alice", model.RoleStudent)
	admin := storetest.SeedAccount(t, ts.db, "root", model.RoleAdmin)

	w := ts.do(t, http.MethodPost, "/bookings", ts.token(t, alice), bookingBody(evening, alice))
	require.Equal(t, http.StatusCreated, w.Code)

	path := func(id int64) string { return "/rooms/slot/" + strconv.FormatInt(id, 10) }
	maintenance := map[string]string{"status": "Maintenance"}

	tests := []struct {
		name  string
		path  string
		token string
		body  any
		want  int
	}{
		{"anonymous", path(slot.ID), "", maintenance, http.StatusUnauthorized},
		{"student", path(slot.ID), ts.token(t, alice), maintenance, http.StatusForbidden},
		{"bad id", "/rooms/slot/abc", ts.token(t, admin), maintenance, http.StatusBadRequest},
		{"missing body", path(slot.ID), ts.token(t, admin), nil, http.StatusBadRequest},
		{"unknown status", path(slot.ID), ts.token(t, admin), map[string]string{"status": "Closed"}, http.StatusBadRequest},
		{"unknown slot", path(9999), ts.token(t, admin), maintenance, http.StatusNotFound},
		{"live reservation", path(taken.ID), ts.token(t, admin), maintenance, http.StatusConflict},
		{"ok", path(slot.ID), ts.token(t, admin), maintenance, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPut, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	w = ts.do(t, http.MethodPost, "/bookings", ts.token(t, alice), bookingBody(b1Afternoon, alice))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	register := map[string]string{
		"username":    "carol",
		"password":    "long enough",
		"fullname":    "Carol Tran",
		"mssv":        "20520042",
		"email":       "carol@example.edu",
		"phonenumber": "0907654321",
	}

	w := ts.do(t, http.MethodPost, "/auth/register", "", register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "long enough")
	assert.NotContains(t, w.Body.String(), "password")

	w = ts.do(t, http.MethodPost, "/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "carol", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "carol", "password": "long enough"})
	require.Equal(t, http.StatusOK, w.Code)
	var token account.Token
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	assert.NotEmpty(t, token.AccessToken)

	w = ts.do(t, http.MethodGet, "/bookings", token.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestConsistencyAndOps(t *testing.T) {
	ts := newTestServer(t)
	storetest.SeedSlot(t, ts.db, b1Afternoon)
	alice := storetest.SeedAccount(t, ts.db, "alice", model.RoleStudent)
	admin := storetest.SeedAccount(t, ts.db, "root", model.RoleAdmin)

	w := ts.do(t, http.MethodPost, "/bookings", ts.token(t, alice), bookingBody(b1Afternoon, alice))
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/admin/consistency", ts.token(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/admin/consistency", ts.token(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"consistent":true,"anomalies":[]}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `studyroom_bookings_total{outcome="ok"} 1`)
}
