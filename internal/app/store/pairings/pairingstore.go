// internal/app/store/pairings/pairingstore.go
package pairingstore

import (
	"context"
	"errors"
	"time"

	counterstore "github.com/dalemusser/matchdesk/internal/app/store/counters"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrClientAlreadyMatched is returned by Create when the client already
	// has a pairing (unique index on client_id).
	ErrClientAlreadyMatched = errors.New("client already has a helper")
	// ErrNotFound is returned when no pairing matches.
	ErrNotFound = errors.New("pairing not found")
)

type Store struct {
	c   *mongo.Collection
	ids *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pairings"), ids: counterstore.New(db)}
}

// Create pairs helper with client, snapshotting both records.
// Roles are the caller's responsibility.
func (s *Store) Create(ctx context.Context, client, helper models.Person) (models.Pairing, error) {
	p := models.NewPairing(client, helper)

	id, err := s.ids.Next(ctx, counterstore.Pairings)
	if err != nil {
		return models.Pairing{}, err
	}
	p.ID = id
	p.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Pairing{}, ErrClientAlreadyMatched
		}
		return models.Pairing{}, err
	}
	return p, nil
}

// Delete removes the pairing of clientID and helperID.
// Returns ErrNotFound if they are not paired.
func (s *Store) Delete(ctx context.Context, clientID, helperID int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"client_id": clientID, "helper_id": helperID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByPerson removes every pairing that references id on either side.
// Returns the number of pairings deleted.
func (s *Store) DeleteByPerson(ctx context.Context, id int64) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"client_id": id},
		bson.M{"helper_id": id},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// GetByClient returns the client's pairing, or ErrNotFound.
func (s *Store) GetByClient(ctx context.Context, clientID int64) (models.Pairing, error) {
	var p models.Pairing
	if err := s.c.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Pairing{}, ErrNotFound
		}
		return models.Pairing{}, err
	}
	return p, nil
}

// List returns one page of pairings, newest first.
func (s *Store) List(ctx context.Context, page, size int) (paging.Page[models.Pairing], error) {
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return paging.Page[models.Pairing]{}, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(paging.Skip(page, size)).
		SetLimit(int64(size))
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return paging.Page[models.Pairing]{}, err
	}
	defer cur.Close(ctx)

	items := []models.Pairing{}
	if err := cur.All(ctx, &items); err != nil {
		return paging.Page[models.Pairing]{}, err
	}
	return paging.Page[models.Pairing]{Items: items, Total: int(total)}, nil
}
