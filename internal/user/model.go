package user

import "go.mongodb.org/mongo-driver/v2/bson"

// AccessAuth is the access label of tokens issued on signup and login
const AccessAuth = "auth"

type User struct {
	ID           string  `json:"_id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"` // Never expose password hash in JSON
	Tokens       []Token `json:"-"`
}

// Token is an issued credential and the access it grants
type Token struct {
	Access string `json:"access"`
	Token  string `json:"token"`
}

// NewID returns a fresh ObjectID in hex form. Every backend uses the same
// identifier shape.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// HasToken reports whether token with the given access is on the user
func (u *User) HasToken(access, token string) bool {
	for _, t := range u.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}
	return false
}
