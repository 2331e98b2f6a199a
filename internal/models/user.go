// Package models holds the user record and the request/response shapes
// shared by the identity service and the terminal client.
package models

import (
	"strings"
	"time"
)

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type SocialLinks struct {
	LinkedIn string `json:"linkedin,omitempty" validate:"omitempty,url"`
	Twitter  string `json:"twitter,omitempty" validate:"omitempty,url"`
}

type Profile struct {
	Bio            string       `json:"bio,omitempty"`
	ShortBio       string       `json:"shortBio,omitempty" validate:"max=160"`
	DateOfBirth    *time.Time   `json:"dateOfBirth,omitempty"`
	Address        *Address     `json:"address,omitempty"`
	SocialLinks    *SocialLinks `json:"socialLinks,omitempty"`
	TotalFollowing int          `json:"totalFollowing"`
}

type Preferences struct {
	Language string `json:"language"`
	DarkMode bool   `json:"darkMode"`
}

// DefaultPreferences is applied when a registration carries none.
func DefaultPreferences() Preferences {
	return Preferences{Language: "en", DarkMode: false}
}

// User is the durable user record. Password holds the bcrypt digest and is
// omitted from JSON once cleared by Public.
type User struct {
	ID          string      `json:"_id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Password    string      `json:"password,omitempty"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Profile     *Profile    `json:"profile,omitempty"`
	Preferences Preferences `json:"preferences"`
	LastLogin   *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Public returns a copy of u without the password digest.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Password = ""
	return &c
}

// NormalizeUsername trims and lowercases a username the way it is stored.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AuthContext is the identity attached to an admitted call.
type AuthContext struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}
