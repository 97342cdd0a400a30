package student

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

const (
	minScore = 0
	maxScore = 100
)

// Student holds per-subject scores and the grade derived from them.
type Student struct {
	ID            int                `json:"id"`
	Name          string             `json:"name"`
	SubjectScores map[string]float64 `json:"subject_scores"`
	Average       float64            `json:"average"`
	Grade         string             `json:"grade"`
}

func (s Student) RecordID() string { return strconv.Itoa(s.ID) }

func (s Student) WithID(id string) Student {
	s.ID, _ = strconv.Atoi(id)
	return s
}

// Validate checks the name and that every score lies in [0, 100].
func (s Student) Validate() error {
	if err := validate.NotBlank("name", s.Name); err != nil {
		return err
	}
	if s.SubjectScores == nil {
		return validate.Errorf("subject_scores", "is required")
	}

	subjects := make([]string, 0, len(s.SubjectScores))
	for subject := range s.SubjectScores {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	for _, subject := range subjects {
		if strings.TrimSpace(subject) == "" {
			return validate.Errorf("subject_scores", "subject names must not be empty")
		}
		if err := validate.Between("subject_scores."+subject, s.SubjectScores[subject], minScore, maxScore); err != nil {
			return err
		}
	}
	return nil
}

// Derive recomputes average and grade.
func (s Student) Derive(_ *Student, _ time.Time) Student {
	s.Average, s.Grade = Summarize(s.SubjectScores)
	return s
}

// ConflictsWith treats names as unique regardless of case.
func (s Student) ConflictsWith(other Student) bool {
	return strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(other.Name))
}

// Summarize returns the mean score rounded to two decimals and its letter grade.
// With no scores it reports 0 and "N/A".
func Summarize(scores map[string]float64) (float64, string) {
	if len(scores) == 0 {
		return 0, "N/A"
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	avg := sum / float64(len(scores))

	var grade string
	switch {
	case avg >= 90:
		grade = "A"
	case avg >= 80:
		grade = "B"
	case avg >= 70:
		grade = "C"
	case avg >= 60:
		grade = "D"
	default:
		grade = "F"
	}
	return math.Round(avg*100) / 100, grade
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name          *string            `json:"name"`
	SubjectScores map[string]float64 `json:"subject_scores"`
}

func (p Patch) Apply(s Student) Student {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.SubjectScores != nil {
		s.SubjectScores = p.SubjectScores
	}
	return s
}
