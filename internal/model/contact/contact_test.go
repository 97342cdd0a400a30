package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameContains(t *testing.T) {
	contacts := []Contact{{Name: "Jane"}, {Name: "John"}, {Name: "Bob"}}

	var matched []string
	for _, c := range contacts {
		if c.NameContains("Jan") {
			matched = append(matched, c.Name)
		}
	}
	assert.Equal(t, []string{"Jane"}, matched)

	assert.True(t, Contact{Name: "Jane Doe"}.NameContains("DOE"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Contact{Name: "Jane", Email: "jane@example.com"}.Validate())
	assert.Error(t, Contact{Name: "Jane", Email: "not-an-email"}.Validate())
	assert.Error(t, Contact{Name: "", Email: "jane@example.com"}.Validate())
}
