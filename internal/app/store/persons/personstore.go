// internal/app/store/persons/personstore.go
package personstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	counterstore "github.com/dalemusser/matchdesk/internal/app/store/counters"
	"github.com/dalemusser/matchdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/matchdesk/internal/app/system/normalize"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("person not found")
	errBadRole  = errors.New(`role must be "client"|"helper"`)
)

// nameOrder is the listing order for persons: last name, first name, id.
var nameOrder = bson.D{
	{Key: "last_name_ci", Value: 1},
	{Key: "first_name_ci", Value: 1},
	{Key: "_id", Value: 1},
}

type Store struct {
	c   *mongo.Collection
	ids *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("persons"), ids: counterstore.New(db)}
}

// clean normalizes the editable fields and refreshes the folded copies.
func clean(p *models.Person) {
	p.FirstName = normalize.Name(htmlsanitize.Text(p.FirstName))
	p.LastName = normalize.Name(htmlsanitize.Text(p.LastName))
	p.CityName = normalize.City(htmlsanitize.Text(p.CityName))
	p.PhoneNumber = normalize.Phone(htmlsanitize.Text(p.PhoneNumber))
	p.Email = normalize.Email(p.Email)
	p.FirstNameCI = text.Fold(p.FirstName)
	p.LastNameCI = text.Fold(p.LastName)
	p.CityCI = text.Fold(p.CityName)
}

// Create assigns the next person id and inserts p.
func (s *Store) Create(ctx context.Context, p models.Person) (models.Person, error) {
	p.Role = normalize.Role(p.Role)
	if !models.IsValidRole(p.Role) {
		return models.Person{}, errBadRole
	}
	clean(&p)

	id, err := s.ids.Next(ctx, counterstore.Persons)
	if err != nil {
		return models.Person{}, err
	}
	p.ID = id

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Person{}, err
	}
	return p, nil
}

// GetByID loads a person. Returns ErrNotFound if there is none.
func (s *Store) GetByID(ctx context.Context, id int64) (models.Person, error) {
	var p models.Person
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Person{}, ErrNotFound
		}
		return models.Person{}, err
	}
	return p, nil
}

// Update replaces the editable fields of person id. The role is never
// changed. Returns the stored record.
func (s *Store) Update(ctx context.Context, id int64, upd models.Person) (models.Person, error) {
	clean(&upd)
	set := bson.M{
		"first_name":    upd.FirstName,
		"first_name_ci": upd.FirstNameCI,
		"last_name":     upd.LastName,
		"last_name_ci":  upd.LastNameCI,
		"phone_number":  upd.PhoneNumber,
		"email":         upd.Email,
		"city_name":     upd.CityName,
		"city_ci":       upd.CityCI,
		"updated_at":    time.Now().UTC(),
	}

	var out models.Person
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return models.Person{}, ErrNotFound
	}
	if err != nil {
		return models.Person{}, err
	}
	return out, nil
}

// Delete removes person id. Returns ErrNotFound if there is none.
// Pairings are not touched; see pairingstore.DeleteByPerson.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRole returns one page of persons with role, in name order.
// An empty role matches every person.
func (s *Store) ListByRole(ctx context.Context, role string, page, size int) (paging.Page[models.Person], error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return s.findPage(ctx, filter, page, size)
}

// ListHelpersInCity returns one page of helpers whose folded city equals cityCI.
func (s *Store) ListHelpersInCity(ctx context.Context, cityCI string, page, size int) (paging.Page[models.Person], error) {
	return s.findPage(ctx, bson.M{"role": models.RoleHelper, "city_ci": cityCI}, page, size)
}

func (s *Store) findPage(ctx context.Context, filter bson.M, page, size int) (paging.Page[models.Person], error) {
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return paging.Page[models.Person]{}, err
	}

	opts := options.Find().
		SetSort(nameOrder).
		SetSkip(paging.Skip(page, size)).
		SetLimit(int64(size))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return paging.Page[models.Person]{}, err
	}
	defer cur.Close(ctx)

	items := []models.Person{}
	if err := cur.All(ctx, &items); err != nil {
		return paging.Page[models.Person]{}, err
	}
	return paging.Page[models.Person]{Items: items, Total: int(total)}, nil
}

// ListUnmatchedClients returns one page of clients that have no pairing,
// in name order.
func (s *Store) ListUnmatchedClients(ctx context.Context, page, size int) (paging.Page[models.Person], error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"role": models.RoleClient}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "pairings",
			"localField":   "_id",
			"foreignField": "client_id",
			"as":           "pairing",
		}}},
		bson.D{{Key: "$match", Value: bson.M{"pairing": bson.M{"$size": 0}}}},
		bson.D{{Key: "$sort", Value: nameOrder}},
		bson.D{{Key: "$facet", Value: bson.M{
			"items": bson.A{
				bson.M{"$skip": paging.Skip(page, size)},
				bson.M{"$limit": int64(size)},
				bson.M{"$project": bson.M{"pairing": 0}},
			},
			"total": bson.A{
				bson.M{"$count": "n"},
			},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipe)
	if err != nil {
		return paging.Page[models.Person]{}, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Items []models.Person `bson:"items"`
		Total []struct {
			N int `bson:"n"`
		} `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Person]{}, fmt.Errorf("unmatched clients: %w", err)
	}

	out := paging.Page[models.Person]{Items: []models.Person{}}
	if len(rows) == 0 {
		return out, nil
	}
	if rows[0].Items != nil {
		out.Items = rows[0].Items
	}
	if len(rows[0].Total) > 0 {
		out.Total = rows[0].Total[0].N
	}
	return out, nil
}
