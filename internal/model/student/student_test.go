package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

func TestSummarize(t *testing.T) {
	cases := []struct {
		scores map[string]float64
		avg    float64
		grade  string
	}{
		{nil, 0, "N/A"},
		{map[string]float64{"math": 90}, 90, "A"},
		{map[string]float64{"math": 85, "art": 80}, 82.5, "B"},
		{map[string]float64{"math": 70, "art": 71, "bio": 72}, 71, "C"},
		{map[string]float64{"math": 60}, 60, "D"},
		{map[string]float64{"math": 59.99}, 59.99, "F"},
		{map[string]float64{"a": 100, "b": 100, "c": 66}, 88.67, "B"},
	}
	for _, tc := range cases {
		avg, grade := Summarize(tc.scores)
		assert.Equal(t, tc.avg, avg, "%v", tc.scores)
		assert.Equal(t, tc.grade, grade, "%v", tc.scores)
	}
}

func TestValidateScoreRange(t *testing.T) {
	ok := Student{Name: "Ada", SubjectScores: map[string]float64{"math": 100, "art": 0}}
	require.NoError(t, ok.Validate())

	bad := Student{Name: "Ada", SubjectScores: map[string]float64{"math": 101}}
	var verr *validate.Error
	require.ErrorAs(t, bad.Validate(), &verr)
	assert.Equal(t, "subject_scores.math", verr.Field)

	require.Error(t, Student{Name: " ", SubjectScores: map[string]float64{}}.Validate())
	require.Error(t, Student{Name: "Ada"}.Validate())
}

func TestDeriveOverridesCallerValues(t *testing.T) {
	s := Student{Name: "Ada", SubjectScores: map[string]float64{"math": 50}, Average: 99, Grade: "A"}
	d := s.Derive(nil, time.Time{})
	assert.Equal(t, 50.0, d.Average)
	assert.Equal(t, "F", d.Grade)
}

func TestConflictsIgnoreCase(t *testing.T) {
	assert.True(t, Student{Name: "Ada"}.ConflictsWith(Student{Name: "ada "}))
	assert.False(t, Student{Name: "Ada"}.ConflictsWith(Student{Name: "Alan"}))
}
