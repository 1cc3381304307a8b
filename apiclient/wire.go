package apiclient

import (
	"encoding/json"
	"errors"

	goSession "github.com/MrEthical07/goSession"
)

var errMissingUser = errors.New("response carries no user id")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  wireUser `json:"user"`
}

// wireUser accepts both the Mongo-style _id and a plain id.
type wireUser struct {
	MongoID   string `json:"_id"`
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (w wireUser) toUser() goSession.User {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	if id == "" {
		id = w.UserID
	}
	return goSession.User{
		ID:        id,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Role:      goSession.ParseRole(w.Role),
	}
}

// decodeUser reads {"user": {...}} or a bare user object.
func decodeUser(raw []byte) (goSession.User, error) {
	var envelope struct {
		User *wireUser `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return goSession.User{}, err
	}
	if envelope.User != nil {
		u := envelope.User.toUser()
		if u.ID == "" {
			return goSession.User{}, errMissingUser
		}
		return u, nil
	}

	var bare wireUser
	if err := json.Unmarshal(raw, &bare); err != nil {
		return goSession.User{}, err
	}
	u := bare.toUser()
	if u.ID == "" {
		return goSession.User{}, errMissingUser
	}
	return u, nil
}
