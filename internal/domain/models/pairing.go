// internal/domain/models/pairing.go
package models

import "time"

// Pairing assigns one helper to one client.
//
// The client_* and helper_* fields are snapshots of both parties taken when
// the pairing was created, so listings never join back to persons.
// A client has at most one pairing; a helper may have many.
type Pairing struct {
	ID       int64 `bson:"_id" json:"matching_id"`
	ClientID int64 `bson:"client_id" json:"client_id"`
	HelperID int64 `bson:"helper_id" json:"helper_id"`

	ClientFirstName   string `bson:"client_first_name" json:"client_first_name"`
	ClientLastName    string `bson:"client_last_name" json:"client_last_name"`
	ClientPhoneNumber string `bson:"client_phone_number" json:"client_phone_number"`
	ClientEmail       string `bson:"client_email" json:"client_email"`
	ClientCityName    string `bson:"client_city_name" json:"client_city_name"`

	HelperFirstName   string `bson:"helper_first_name" json:"helper_first_name"`
	HelperLastName    string `bson:"helper_last_name" json:"helper_last_name"`
	HelperPhoneNumber string `bson:"helper_phone_number" json:"helper_phone_number"`
	HelperEmail       string `bson:"helper_email" json:"helper_email"`
	HelperCityName    string `bson:"helper_city_name" json:"helper_city_name"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NewPairing builds a pairing that snapshots the display fields of both parties.
func NewPairing(client, helper Person) Pairing {
	return Pairing{
		ClientID:          client.ID,
		HelperID:          helper.ID,
		ClientFirstName:   client.FirstName,
		ClientLastName:    client.LastName,
		ClientPhoneNumber: client.PhoneNumber,
		ClientEmail:       client.Email,
		ClientCityName:    client.CityName,
		HelperFirstName:   helper.FirstName,
		HelperLastName:    helper.LastName,
		HelperPhoneNumber: helper.PhoneNumber,
		HelperEmail:       helper.Email,
		HelperCityName:    helper.CityName,
	}
}
