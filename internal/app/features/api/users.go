// internal/app/features/api/users.go
package api

import (
	"context"
	"errors"
	"net/http"

	personstore "github.com/dalemusser/matchdesk/internal/app/store/persons"
	"github.com/dalemusser/matchdesk/internal/app/system/inputval"
	"github.com/dalemusser/matchdesk/internal/app/system/normalize"
	"github.com/dalemusser/matchdesk/internal/app/system/timeouts"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// personInput is the editable part of a person as sent by the desk.
type personInput struct {
	FirstName   string `json:"first_name" validate:"required,max=100" label:"First name"`
	LastName    string `json:"last_name" validate:"required,max=100" label:"Last name"`
	PhoneNumber string `json:"phone_number" validate:"required,phone" label:"Phone number"`
	Email       string `json:"email" validate:"required,max=254,email" label:"Email"`
	CityName    string `json:"city_name" validate:"required,max=100" label:"City"`
}

type createInput struct {
	personInput
	Role string `json:"role_name" validate:"required,role" label:"Role"`
}

func (in *personInput) normalize() {
	in.FirstName = normalize.Name(in.FirstName)
	in.LastName = normalize.Name(in.LastName)
	in.PhoneNumber = normalize.Phone(in.PhoneNumber)
	in.Email = normalize.Email(in.Email)
	in.CityName = normalize.City(in.CityName)
}

func (in personInput) person() models.Person {
	return models.Person{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Email:       in.Email,
		CityName:    in.CityName,
	}
}

type usersResponse struct {
	Users []models.Person `json:"users"`
	Total int             `json:"total"`
}

// ListUsers handles GET /users?role_name&page&size.
// An empty role lists everyone.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := normalize.Role(query.Get(r, "role_name"))
	if role != "" && !models.IsValidRole(role) {
		writeError(w, http.StatusBadRequest, `role_name must be "client" or "helper"`)
		return
	}
	page, size := h.pageParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Persons.ListByRole(ctx, role, page, size)
	if err != nil {
		h.serverError(w, r, "list users failed", err)
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: nonNil(res.Items), Total: res.Total})
}

// CreateUser handles POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.normalize()
	in.Role = normalize.Role(in.Role)
	if res := inputval.Validate(in); res.HasErrors() {
		writeError(w, http.StatusBadRequest, res.All())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := in.person()
	p.Role = in.Role
	created, err := h.Persons.Create(ctx, p)
	if err != nil {
		h.serverError(w, r, "create user failed", err)
		return
	}
	h.Log.Info("person created",
		zap.Int64("user_id", created.ID),
		zap.String("role", created.Role))
	writeJSON(w, http.StatusCreated, created)
}

// UpdateUser handles PUT /users/{id}. A role in the body is ignored.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var in personInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.normalize()
	if res := inputval.Validate(in); res.HasErrors() {
		writeError(w, http.StatusBadRequest, res.All())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Persons.Update(ctx, id, in.person())
	if errors.Is(err, personstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "update user failed", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteUser handles DELETE /users/{id}. The person's pairings go with it.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, err := h.Persons.GetByID(ctx, id); err != nil {
		if errors.Is(err, personstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.serverError(w, r, "load user failed", err)
		return
	}

	removed, err := h.Pairings.DeleteByPerson(ctx, id)
	if err != nil {
		h.serverError(w, r, "delete user pairings failed", err)
		return
	}
	if err := h.Persons.Delete(ctx, id); err != nil && !errors.Is(err, personstore.ErrNotFound) {
		h.serverError(w, r, "delete user failed", err)
		return
	}

	h.Log.Info("person deleted",
		zap.Int64("user_id", id),
		zap.Int64("pairings_removed", removed))
	w.WriteHeader(http.StatusNoContent)
}

// nonNil keeps empty listings encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
