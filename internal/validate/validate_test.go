package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

func TestOneOfRejectsValuesOutsideSet(t *testing.T) {
	require.NoError(t, OneOf("color", color("red"), "red", "blue"))

	err := OneOf("color", color("green"), "red", "blue")
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "color", verr.Field)
	assert.Contains(t, verr.Reason, `"green"`)
}

func TestBetween(t *testing.T) {
	assert.NoError(t, Between("score", 0, 0, 100))
	assert.NoError(t, Between("score", 100, 0, 100))
	assert.Error(t, Between("score", 100.5, 0, 100))
	assert.Error(t, Between("score", -1, 0, 100))
	assert.Error(t, Between("score", math.NaN(), 0, 100))
}

func TestPositive(t *testing.T) {
	assert.NoError(t, Positive("price", 0.01))
	assert.Error(t, Positive("price", 0))
	assert.Error(t, Positive("price", math.Inf(1)))
}

func TestEmail(t *testing.T) {
	for _, ok := range []string{"jane@example.com", "a.b+c@mail.example.org"} {
		assert.NoError(t, Email("email", ok), ok)
	}
	for _, bad := range []string{"", "jane", "jane@", "Jane <jane@example.com>", "jane@localhost"} {
		assert.Error(t, Email("email", bad), bad)
	}
}

func TestFirstKeepsFieldOrder(t *testing.T) {
	err := First(nil, NotBlank("title", " "), NotBlank("company", ""))
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
	assert.NoError(t, First(nil, nil))
}
