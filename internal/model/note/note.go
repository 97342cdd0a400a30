package note

import "github.com/zhouzirui/recordhub/backend/internal/validate"

// Note is a titled piece of free text, stored one file per note.
type Note struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (n Note) RecordID() string { return n.ID }

func (n Note) WithID(id string) Note {
	n.ID = id
	return n
}

func (n Note) Validate() error {
	return validate.NotBlank("title", n.Title)
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (p Patch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	return n
}
