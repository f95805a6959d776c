package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account record. PasswordHash holds the bcrypt digest,
// never the plaintext, and is excluded from every JSON response.
type User struct {
	ID                primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Username          string             `json:"username" bson:"username"`
	Email             string             `json:"email" bson:"email"`
	PasswordHash      string             `json:"-" bson:"password"`
	ProfilePictureUrl string             `json:"profilePictureUrl" bson:"profile_picture_url"`
	CreatedAt         time.Time          `json:"createdAt" bson:"created_at"`
}

func NewUser(username, email, passwordHash string) *User {
	return &User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// Summary is the login-response shape: identity fields only.
type Summary struct {
	ID                primitive.ObjectID `json:"id"`
	Username          string             `json:"username"`
	Email             string             `json:"email"`
	ProfilePictureUrl string             `json:"profilePictureUrl"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		ProfilePictureUrl: u.ProfilePictureUrl,
	}
}

// UserUpdate carries the profile fields a user may change.
type UserUpdate struct {
	Username          *string `json:"username"`
	Email             *string `json:"email"`
	ProfilePictureUrl *string `json:"profilePictureUrl"`
}
