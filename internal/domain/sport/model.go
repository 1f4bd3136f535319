package sport

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrEmptyID        = errors.New("sport ID cannot be empty")
	ErrEmptyName      = errors.New("sport name cannot be empty")
	ErrDuplicateSkill = errors.New("skill IDs must be unique within a sport")
	ErrUnknownSkill   = errors.New("skill does not belong to sport")
)

// Skill is a trainable ability within a sport (e.g. "serve" in tennis).
type Skill struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Sport groups the skills that quizzes, curricula, and templates refer to.
type Sport struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Skills []Skill `json:"skills" yaml:"skills"`
}

// Validate checks if the Sport has valid data.
// PRE: Sport struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Sport) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	seen := make(map[string]bool, len(s.Skills))
	for _, sk := range s.Skills {
		if sk.ID == "" || sk.Name == "" {
			return fmt.Errorf("skill in %s needs an id and name", s.ID)
		}
		if seen[sk.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateSkill, sk.ID)
		}
		seen[sk.ID] = true
	}
	return nil
}

// HasSkill reports whether skillID belongs to this sport.
func (s *Sport) HasSkill(skillID string) bool {
	for _, sk := range s.Skills {
		if sk.ID == skillID {
			return true
		}
	}
	return false
}
