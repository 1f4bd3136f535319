package form

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// FieldError locates a single validation failure within a response set.
type FieldError struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Path renders the location as section[index].field.
func (e FieldError) Path() string {
	p := fmt.Sprintf("%s[%d]", e.Section, e.Index)
	if e.Field != "" {
		p += "." + e.Field
	}
	return p
}

// ValidationErrors collects every failure found by Check or Normalize.
type ValidationErrors []FieldError

// Error implements error.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Path()+": "+e.Message)
	}
	return "form responses invalid: " + strings.Join(parts, "; ")
}

// Check validates a response set for submission: every value must be valid for
// its field, every required field answered, and repeat counts within bounds.
// POST: returns the canonical responses when valid, ValidationErrors otherwise
func Check(t Template, r Responses) (Responses, error) {
	return walk(t, r, true)
}

// Normalize coerces a partial (draft) response set. Unknown sections or fields
// and invalid values are rejected, unanswered required fields are not.
// Missing sections are filled in with their initial shape.
func Normalize(t Template, r Responses) (Responses, error) {
	return walk(t, r, false)
}

func walk(t Template, r Responses, requireComplete bool) (Responses, error) {
	var errs ValidationErrors
	out := make(Responses, len(t.Sections))

	unknown := make([]string, 0)
	for id := range r {
		if _, ok := t.Section(id); !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		errs = append(errs, FieldError{Section: id, Message: ErrUnknownSection.Error()})
	}

	for _, s := range t.Sections {
		sr, ok := r[s.ID]
		if !ok {
			sr = emptySectionResponse(s)
		}
		if sr.Repeated != s.Repeatable {
			msg := "expected a single entry"
			if s.Repeatable {
				msg = "expected a list of entries"
			}
			errs = append(errs, FieldError{Section: s.ID, Message: msg})
			continue
		}

		var instances []Entry
		if s.Repeatable {
			instances = sr.Repeats
			if len(instances) == 0 {
				errs = append(errs, FieldError{Section: s.ID, Message: ErrMinRepeats.Error()})
			}
			if len(instances) > s.MaxRepeats {
				errs = append(errs, FieldError{Section: s.ID, Message: ErrMaxRepeats.Error()})
			}
		} else {
			instances = []Entry{sr.Entry}
		}

		cleaned := make([]Entry, len(instances))
		for i, e := range instances {
			cleaned[i], errs = checkEntry(s, i, e, requireComplete, errs)
		}

		if s.Repeatable {
			out[s.ID] = SectionResponse{Repeats: cleaned, Repeated: true}
		} else {
			out[s.ID] = SectionResponse{Entry: cleaned[0]}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func checkEntry(s Section, index int, e Entry, requireComplete bool, errs ValidationErrors) (Entry, ValidationErrors) {
	out := make(Entry, len(s.Fields))

	extra := make([]string, 0)
	for id := range e {
		if _, ok := s.Field(id); !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		errs = append(errs, FieldError{Section: s.ID, Index: index, Field: id, Message: ErrUnknownField.Error()})
	}

	for _, f := range s.Fields {
		fr, answered := e[f.ID]
		value, err := Coerce(f, fr.Value)
		if err != nil {
			errs = append(errs, FieldError{Section: s.ID, Index: index, Field: f.ID, Message: err.Error()})
			continue
		}
		if fr.Comments != "" && !f.AllowComments {
			errs = append(errs, FieldError{Section: s.ID, Index: index, Field: f.ID, Message: ErrCommentsNotAllowed.Error()})
			continue
		}
		if utf8.RuneCountInString(fr.Comments) > MaxCommentsLength {
			errs = append(errs, FieldError{Section: s.ID, Index: index, Field: f.ID, Message: ErrCommentsTooLong.Error()})
			continue
		}
		if requireComplete && f.Required && IsEmpty(value) {
			errs = append(errs, FieldError{Section: s.ID, Index: index, Field: f.ID, Message: "this field is required"})
			continue
		}
		if answered && (value != nil || fr.Comments != "") {
			out[f.ID] = FieldResponse{Value: value, Comments: fr.Comments}
		}
	}
	return out, errs
}
