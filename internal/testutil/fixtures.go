package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	counterstore "github.com/dalemusser/matchdesk/internal/app/store/counters"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db  *mongo.Database
	ids *counterstore.Store
	t   *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, ids: counterstore.New(db), t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreatePerson inserts a person with an id from the persons sequence, so
// later store inserts do not collide with it.
func (f *Fixtures) CreatePerson(ctx context.Context, first, last, city, role string) models.Person {
	f.t.Helper()

	id, err := f.ids.Next(ctx, counterstore.Persons)
	if err != nil {
		f.t.Fatalf("failed to allocate person id: %v", err)
	}

	now := time.Now().UTC()
	p := models.Person{
		ID:          id,
		FirstName:   first,
		LastName:    last,
		PhoneNumber: "555-0100",
		Email:       text.Fold(first) + "@example.com",
		CityName:    city,
		Role:        role,
		FirstNameCI: text.Fold(first),
		LastNameCI:  text.Fold(last),
		CityCI:      text.Fold(city),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("persons").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test person: %v", err)
	}
	return p
}

// CreateClient creates a client in city.
func (f *Fixtures) CreateClient(ctx context.Context, first, last, city string) models.Person {
	f.t.Helper()
	return f.CreatePerson(ctx, first, last, city, models.RoleClient)
}

// CreateHelper creates a helper in city.
func (f *Fixtures) CreateHelper(ctx context.Context, first, last, city string) models.Person {
	f.t.Helper()
	return f.CreatePerson(ctx, first, last, city, models.RoleHelper)
}

// CreatePairing pairs helper with client, stamped createdAt.
func (f *Fixtures) CreatePairing(ctx context.Context, client, helper models.Person, createdAt time.Time) models.Pairing {
	f.t.Helper()

	id, err := f.ids.Next(ctx, counterstore.Pairings)
	if err != nil {
		f.t.Fatalf("failed to allocate pairing id: %v", err)
	}

	p := models.NewPairing(client, helper)
	p.ID = id
	p.CreatedAt = createdAt.UTC()

	if _, err := f.db.Collection("pairings").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test pairing: %v", err)
	}
	return p
}
