package contact

import (
	"strconv"
	"strings"

	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

// Contact is a name and an email address.
type Contact struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c Contact) RecordID() string { return strconv.Itoa(c.ID) }

func (c Contact) WithID(id string) Contact {
	c.ID, _ = strconv.Atoi(id)
	return c
}

func (c Contact) Validate() error {
	return validate.First(
		validate.NotBlank("name", c.Name),
		validate.Email("email", c.Email),
	)
}

// NameContains reports whether the contact name contains query, ignoring case.
func (c Contact) NameContains(query string) bool {
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(query))
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (p Patch) Apply(c Contact) Contact {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	return c
}
