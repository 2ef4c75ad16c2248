package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/matchdesk/internal/app/features/api"
	"github.com/dalemusser/matchdesk/internal/app/system/backend"
	"github.com/dalemusser/matchdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	"github.com/dalemusser/matchdesk/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db     *mongo.Database
	fix    *testutil.Fixtures
	router chi.Router
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := api.NewHandler(db, 5, zap.NewNop())
	return &env{db: db, fix: testutil.NewFixtures(t, db), router: api.Routes(h)}
}

func (e *env) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *testutil.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestUnmatchedClients(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := e.fix.CreateClient(ctx, "Ann", "Avery", "Tulsa")
	e.fix.CreateClient(ctx, "Bo", "Baker", "Tulsa")
	e.fix.CreateClient(ctx, "Cy", "Cole", "Austin")
	helper := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")
	e.fix.CreatePairing(ctx, ann, helper, time.Now())

	rec := e.do(testutil.NewRequest("GET", "/matchings/unmatched/clients?page=1&size=10"))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Clients []models.Person `json:"clients"`
		Total   int             `json:"total"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 2 || len(body.Clients) != 2 {
		t.Fatalf("got total=%d len=%d, want 2/2", body.Total, len(body.Clients))
	}
	if body.Clients[0].LastName != "Baker" || body.Clients[1].LastName != "Cole" {
		t.Errorf("unexpected order: %+v", body.Clients)
	}
}

func TestUnmatchedClients_EmptyIsArray(t *testing.T) {
	e := newEnv(t)

	rec := e.do(testutil.NewRequest("GET", "/matchings/unmatched/clients"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"clients":[]`)
	rec.AssertContains(t, `"total":0`)
}

func TestPotentialHelpers_SameCityCaseFolded(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := e.fix.CreateClient(ctx, "Ann", "Avery", "Tulsa")
	e.fix.CreateHelper(ctx, "Zed", "Zane", "TULSA")
	e.fix.CreateHelper(ctx, "Amy", "Ames", "tulsa")
	e.fix.CreateHelper(ctx, "Far", "Away", "Austin")

	rec := e.do(testutil.NewRequest("GET", "/matchings/potential/"+strconv.FormatInt(client.ID, 10)))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Helpers []models.Person `json:"potentialHelpers"`
		Total   int             `json:"total"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 2 {
		t.Fatalf("total: got %d, want 2", body.Total)
	}
	if body.Helpers[0].LastName != "Ames" || body.Helpers[1].LastName != "Zane" {
		t.Errorf("unexpected helpers: %+v", body.Helpers)
	}
}

func TestPotentialHelpers_UnknownClient(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	helper := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")

	e.do(testutil.NewRequest("GET", "/matchings/potential/999")).AssertStatus(t, http.StatusNotFound)
	// A helper id is not a client.
	e.do(testutil.NewRequest("GET", "/matchings/potential/"+strconv.FormatInt(helper.ID, 10))).AssertStatus(t, http.StatusNotFound)
	e.do(testutil.NewRequest("GET", "/matchings/potential/abc")).AssertStatus(t, http.StatusBadRequest)
}

func TestAssignAndUnassign(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := e.fix.CreateClient(ctx, "Ann", "Avery", "Tulsa")
	helper := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")
	body := `{"client_id":` + strconv.FormatInt(client.ID, 10) + `,"helper_id":` + strconv.FormatInt(helper.ID, 10) + `}`

	rec := e.do(testutil.NewJSONRequest("POST", "/matchings/assign", body))
	rec.AssertStatus(t, http.StatusCreated)
	var p models.Pairing
	decodeBody(t, rec, &p)
	if p.ClientID != client.ID || p.HelperID != helper.ID || p.HelperLastName != "Hart" {
		t.Errorf("unexpected pairing: %+v", p)
	}

	// Second assign of the same client conflicts.
	e.do(testutil.NewJSONRequest("POST", "/matchings/assign", body)).AssertStatus(t, http.StatusConflict)

	rec = e.do(testutil.NewRequest("GET", "/matchings/users"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":1`)

	e.do(testutil.NewJSONRequest("POST", "/matchings/unassign", body)).AssertStatus(t, http.StatusNoContent)
	e.do(testutil.NewJSONRequest("POST", "/matchings/unassign", body)).AssertStatus(t, http.StatusNotFound)
}

func TestAssign_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := e.fix.CreateClient(ctx, "Ann", "Avery", "Tulsa")
	other := e.fix.CreateClient(ctx, "Bo", "Baker", "Tulsa")
	cid := strconv.FormatInt(client.ID, 10)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing ids", `{}`, http.StatusBadRequest},
		{"unknown helper", `{"client_id":` + cid + `,"helper_id":9999}`, http.StatusNotFound},
		{"unknown client", `{"client_id":9999,"helper_id":` + cid + `}`, http.StatusNotFound},
		{"helper is a client", `{"client_id":` + cid + `,"helper_id":` + strconv.FormatInt(other.ID, 10) + `}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewJSONRequest("POST", "/matchings/assign", tt.body))
			rec.AssertStatus(t, tt.want)
			rec.AssertContains(t, `"error"`)
		})
	}
}

func TestMatchedPairs_NewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	helper := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")
	older := e.fix.CreateClient(ctx, "Old", "Oster", "Tulsa")
	newer := e.fix.CreateClient(ctx, "New", "Nash", "Tulsa")
	base := time.Now().Add(-time.Hour)
	e.fix.CreatePairing(ctx, older, helper, base)
	e.fix.CreatePairing(ctx, newer, helper, base.Add(time.Minute))

	rec := e.do(testutil.NewRequest("GET", "/matchings/users?size=1"))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Matchings []models.Pairing `json:"matchings"`
		Total     int              `json:"total"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 2 || len(body.Matchings) != 1 {
		t.Fatalf("got total=%d len=%d, want 2/1", body.Total, len(body.Matchings))
	}
	if body.Matchings[0].ClientID != newer.ID {
		t.Errorf("first pairing: got client %d, want %d", body.Matchings[0].ClientID, newer.ID)
	}
}

func TestUsersCRUD(t *testing.T) {
	e := newEnv(t)

	rec := e.do(testutil.NewJSONRequest("POST", "/users", `{
		"first_name": "  Ann  ", "last_name": "Avery", "phone_number": "(918) 555-0100",
		"email": "Ann@Example.com", "city_name": "tulsa", "role_name": "Client"}`))
	rec.AssertStatus(t, http.StatusCreated)

	var created models.Person
	decodeBody(t, rec, &created)
	if created.ID < 1 || created.FirstName != "Ann" || created.Role != models.RoleClient {
		t.Fatalf("unexpected person: %+v", created)
	}
	if created.Email != "ann@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	id := strconv.FormatInt(created.ID, 10)

	rec = e.do(testutil.NewJSONRequest("PUT", "/users/"+id, `{
		"first_name": "Annie", "last_name": "Avery", "phone_number": "918-555-0100",
		"email": "annie@example.com", "city_name": "Tulsa", "role_name": "helper"}`))
	rec.AssertStatus(t, http.StatusOK)
	var updated models.Person
	decodeBody(t, rec, &updated)
	if updated.FirstName != "Annie" || updated.Role != models.RoleClient {
		t.Errorf("update: got %+v (role must not change)", updated)
	}

	rec = e.do(testutil.NewRequest("GET", "/users?role_name=client"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":1`)

	e.do(testutil.NewRequest("GET", "/users?role_name=boss")).AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.NewRequest("DELETE", "/users/"+id)).AssertStatus(t, http.StatusNoContent)
	e.do(testutil.NewRequest("DELETE", "/users/"+id)).AssertStatus(t, http.StatusNotFound)
}

func TestCreateUser_Validation(t *testing.T) {
	e := newEnv(t)

	rec := e.do(testutil.NewJSONRequest("POST", "/users", `{
		"first_name": "", "last_name": "Avery", "phone_number": "abc",
		"email": "nope", "city_name": "Tulsa", "role_name": "boss"}`))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "First name is required.")
	rec.AssertContains(t, "A valid email address is required.")
	rec.AssertContains(t, "Role must be")
}

func TestDeleteUser_RemovesPairings(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	helper := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")
	c1 := e.fix.CreateClient(ctx, "Ann", "Avery", "Tulsa")
	c2 := e.fix.CreateClient(ctx, "Bo", "Baker", "Tulsa")
	e.fix.CreatePairing(ctx, c1, helper, time.Now())
	e.fix.CreatePairing(ctx, c2, helper, time.Now())

	e.do(testutil.NewRequest("DELETE", "/users/"+strconv.FormatInt(helper.ID, 10))).AssertStatus(t, http.StatusNoContent)

	n, err := e.db.Collection("pairings").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count pairings: %v", err)
	}
	if n != 0 {
		t.Errorf("pairings left: got %d, want 0", n)
	}

	// Both clients are unmatched again.
	rec := e.do(testutil.NewRequest("GET", "/matchings/unmatched/clients"))
	rec.AssertContains(t, `"total":2`)
}

// TestBackendClientContract drives the API through the desk's HTTP client.
func TestBackendClientContract(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	c, err := backend.New(backend.Options{BaseURL: srv.URL, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}

	client := e.fix.CreateClient(ctx, "Ann", "Avery", "Tulsa")
	helper := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")

	clients, err := c.ListUnmatchedClients(ctx, 1, 5)
	if err != nil || clients.Total != 1 {
		t.Fatalf("ListUnmatchedClients: %+v, %v", clients, err)
	}
	helpers, err := c.ListPotentialHelpers(ctx, client.ID, 1, 5)
	if err != nil || helpers.Total != 1 {
		t.Fatalf("ListPotentialHelpers: %+v, %v", helpers, err)
	}
	if err := c.Assign(ctx, client.ID, helper.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	err = c.Assign(ctx, client.ID, helper.ID)
	if !backend.IsStatus(err, http.StatusConflict) {
		t.Fatalf("second Assign: got %v, want 409", err)
	}
	if !strings.Contains(err.Error(), "already") {
		t.Errorf("error should carry the server message: %v", err)
	}
	pairs, err := c.ListMatchedPairs(ctx, 1, 5)
	if err != nil || pairs.Total != 1 {
		t.Fatalf("ListMatchedPairs: %+v, %v", pairs, err)
	}
	if err := c.Unassign(ctx, client.ID, helper.ID); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
}

// Desk traffic to the colocated API shares one address; with the internal
// token it must not be throttled by the per-IP write limit.
func TestDeskAssigns_ExemptFromWriteLimit(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Stop()
	const token = "desk-token"

	r := chi.NewRouter()
	r.Use(ratelimit.Writes(limiter, token, zap.NewNop()))
	r.Mount("/", e.router)
	srv := httptest.NewServer(r)
	defer srv.Close()

	desk, err := backend.New(backend.Options{
		BaseURL: srv.URL,
		Header:  http.Header{ratelimit.InternalHeader: []string{token}},
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}

	helper := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")
	for i := 0; i < 3; i++ {
		client := e.fix.CreateClient(ctx, "Client", strconv.Itoa(i), "Tulsa")
		if err := desk.Assign(ctx, client.ID, helper.ID); err != nil {
			t.Fatalf("desk assign %d: %v", i, err)
		}
	}

	outsider, err := backend.New(backend.Options{BaseURL: srv.URL, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	a := e.fix.CreateClient(ctx, "Ext", "One", "Tulsa")
	b := e.fix.CreateClient(ctx, "Ext", "Two", "Tulsa")
	if err := outsider.Assign(ctx, a.ID, helper.ID); err != nil {
		t.Fatalf("first external assign: %v", err)
	}
	if err := outsider.Assign(ctx, b.ID, helper.ID); !backend.IsStatus(err, http.StatusTooManyRequests) {
		t.Fatalf("second external assign: got %v, want 429", err)
	}
}

func TestAssign_ClientAlreadyMatchedKeepsPairing(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := e.fix.CreateClient(ctx, "Ann", "Avery", "Tulsa")
	first := e.fix.CreateHelper(ctx, "Hal", "Hart", "Tulsa")
	second := e.fix.CreateHelper(ctx, "Ivy", "Irwin", "Tulsa")
	e.fix.CreatePairing(ctx, client, first, time.Now())

	body := `{"client_id":` + strconv.FormatInt(client.ID, 10) + `,"helper_id":` + strconv.FormatInt(second.ID, 10) + `}`
	rec := e.do(testutil.NewJSONRequest("POST", "/matchings/assign", body))
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "already has a helper")

	var got models.Pairing
	if err := e.db.Collection("pairings").FindOne(ctx, bson.M{"client_id": client.ID}).Decode(&got); err != nil {
		t.Fatalf("load pairing: %v", err)
	}
	if got.HelperID != first.ID {
		t.Errorf("pairing helper = %d, want %d", got.HelperID, first.ID)
	}
}
