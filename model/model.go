// Package model contains abstract data models.
package model

import "fmt"

// Author is a selectable commit author, keyed by initials.
type Author struct {
	Initials   string `json:"initials" yaml:"initials"`
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	SigningKey string `json:"signing_key,omitempty" yaml:"signing_key,omitempty"`
}

// String formats the author the way git identities are written.
func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Relation is the issue the next commit relates to.
type Relation struct {
	Ticket string `json:"ticket"`
}
