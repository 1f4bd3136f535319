package form

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field type tags.
const (
	TypeYesNo    = "yesno"
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeNumeric  = "numeric"
	TypeScale    = "scale"
	TypeText     = "text"
	TypeTextarea = "textarea"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength     = 120
	MaxTextLength     = 500
	MaxTextareaLength = 10000
	MaxCommentsLength = 2000
)

// ValidTypes lists every supported field type tag.
var ValidTypes = []string{TypeYesNo, TypeRadio, TypeCheckbox, TypeNumeric, TypeScale, TypeText, TypeTextarea}

// Domain errors
var (
	ErrEmptyTemplateName   = errors.New("template name cannot be empty")
	ErrNoSections          = errors.New("template must have at least one section")
	ErrEmptySectionID      = errors.New("section ID cannot be empty")
	ErrDuplicateSectionID  = errors.New("section IDs must be unique")
	ErrNoFields            = errors.New("section must have at least one field")
	ErrEmptyFieldID        = errors.New("field ID cannot be empty")
	ErrDuplicateFieldID    = errors.New("field IDs must be unique within a section")
	ErrInvalidType         = errors.New("field type must be one of: yesno, radio, checkbox, numeric, scale, text, textarea")
	ErrMissingOptions      = errors.New("radio and checkbox fields need at least one option")
	ErrInvalidScale        = errors.New("scale fields need min and max with min < max")
	ErrInvalidBounds       = errors.New("field min must not exceed max")
	ErrInvalidMaxRepeats   = errors.New("repeatable sections need max repeats of at least 1")
	ErrUnknownSection      = errors.New("unknown section")
	ErrUnknownField        = errors.New("unknown field")
	ErrNotRepeatable       = errors.New("section is not repeatable")
	ErrMaxRepeats          = errors.New("section has reached its maximum number of repeats")
	ErrMinRepeats          = errors.New("repeatable section must keep at least one entry")
	ErrIndexOutOfRange     = errors.New("repeat index out of range")
	ErrShapeMismatch       = errors.New("stored section has several entries but the section is no longer repeatable")
	ErrInvalidValue        = errors.New("invalid value for field")
	ErrCommentsNotAllowed  = errors.New("field does not accept comments")
	ErrCommentsTooLong     = errors.New("comments cannot exceed 2000 characters")
	ErrTemplateNameTooLong = errors.New("template name cannot exceed 120 characters")
)

// Field is one input within a section. The Type tag decides how values are coerced.
type Field struct {
	ID            string   `json:"id" yaml:"id"`
	Label         string   `json:"label" yaml:"label"`
	Type          string   `json:"type" yaml:"type"`
	Required      bool     `json:"required,omitempty" yaml:"required"`
	Options       []string `json:"options,omitempty" yaml:"options"`
	Min           *float64 `json:"min,omitempty" yaml:"min"`
	Max           *float64 `json:"max,omitempty" yaml:"max"`
	Step          float64  `json:"step,omitempty" yaml:"step"`
	Placeholder   string   `json:"placeholder,omitempty" yaml:"placeholder"`
	HelpText      string   `json:"helpText,omitempty" yaml:"helpText"`
	AllowComments bool     `json:"allowComments,omitempty" yaml:"allowComments"`
}

// Section is an ordered group of fields. Repeatable sections collect a list of entries.
type Section struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Repeatable  bool    `json:"repeatable,omitempty" yaml:"repeatable"`
	MaxRepeats  int     `json:"maxRepeats,omitempty" yaml:"maxRepeats"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// Template is an ordered list of sections used to chart a session.
type Template struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description"`
	SportID     string    `json:"sportId,omitempty" yaml:"sportId"`
	Sections    []Section `json:"sections" yaml:"sections"`
	Active      bool      `json:"active" yaml:"active"`
	CreatedBy   string    `json:"createdBy,omitempty" yaml:"-"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// Validate checks the template structure.
// PRE: Template struct is populated
// POST: Returns nil if valid, error describing the first violation otherwise
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyTemplateName
	}
	if utf8.RuneCountInString(t.Name) > MaxNameLength {
		return ErrTemplateNameTooLong
	}
	if len(t.Sections) == 0 {
		return ErrNoSections
	}
	seen := make(map[string]bool, len(t.Sections))
	for _, s := range t.Sections {
		if s.ID == "" {
			return ErrEmptySectionID
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateSectionID, s.ID)
		}
		seen[s.ID] = true
		if err := s.validate(); err != nil {
			return fmt.Errorf("section %s: %w", s.ID, err)
		}
	}
	return nil
}

func (s *Section) validate() error {
	if len(s.Fields) == 0 {
		return ErrNoFields
	}
	if s.Repeatable && s.MaxRepeats < 1 {
		return ErrInvalidMaxRepeats
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.ID == "" {
			return ErrEmptyFieldID
		}
		if seen[f.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateFieldID, f.ID)
		}
		seen[f.ID] = true
		if err := f.validate(); err != nil {
			return fmt.Errorf("field %s: %w", f.ID, err)
		}
	}
	return nil
}

func (f *Field) validate() error {
	if !IsValidType(f.Type) {
		return ErrInvalidType
	}
	switch f.Type {
	case TypeRadio, TypeCheckbox:
		if len(f.Options) == 0 {
			return ErrMissingOptions
		}
	case TypeScale:
		if f.Min == nil || f.Max == nil || *f.Min >= *f.Max {
			return ErrInvalidScale
		}
	case TypeNumeric:
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return ErrInvalidBounds
		}
	}
	return nil
}

// Section looks up a section by ID.
// INVARIANT: Template fields are not mutated
func (t *Template) Section(id string) (Section, bool) {
	for _, s := range t.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Field looks up a field by ID.
// INVARIANT: Section fields are not mutated
func (s *Section) Field(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredCount returns the number of required fields in the section.
func (s *Section) RequiredCount() int {
	n := 0
	for _, f := range s.Fields {
		if f.Required {
			n++
		}
	}
	return n
}

// IsValidType reports whether tag is a supported field type.
func IsValidType(tag string) bool {
	for _, t := range ValidTypes {
		if t == tag {
			return true
		}
	}
	return false
}
