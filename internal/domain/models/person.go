// internal/domain/models/person.go
package models

import "time"

// Person roles. A person's role is fixed when the record is created.
const (
	RoleClient = "client"
	RoleHelper = "helper"
)

// Roles lists the valid person roles in display order.
var Roles = []string{RoleClient, RoleHelper}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	return role == RoleClient || role == RoleHelper
}

// Person is a registered client or helper.
//
// FirstNameCI/LastNameCI/CityCI are folded copies used for sorting and
// matching; they are never sent over the wire.
type Person struct {
	ID          int64  `bson:"_id" json:"user_id"`
	FirstName   string `bson:"first_name" json:"first_name"`
	LastName    string `bson:"last_name" json:"last_name"`
	PhoneNumber string `bson:"phone_number" json:"phone_number"`
	Email       string `bson:"email" json:"email"`
	CityName    string `bson:"city_name" json:"city_name"`
	Role        string `bson:"role" json:"role_name"`

	FirstNameCI string `bson:"first_name_ci" json:"-"`
	LastNameCI  string `bson:"last_name_ci" json:"-"`
	CityCI      string `bson:"city_ci" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display.
func (p Person) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
