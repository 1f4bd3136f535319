package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// FieldResponse holds the answer to one field.
type FieldResponse struct {
	Value    any    `json:"value"`
	Comments string `json:"comments,omitempty"`
}

// Entry maps field IDs to their responses.
type Entry map[string]FieldResponse

// SectionResponse is either a single entry or, for repeatable sections, a list of entries.
// On the wire a single entry is a JSON object and a repeated section is a JSON array.
type SectionResponse struct {
	Entry    Entry
	Repeats  []Entry
	Repeated bool
}

// Responses maps section IDs to their responses.
type Responses map[string]SectionResponse

// Instances returns the entries held by the section response in order.
func (sr SectionResponse) Instances() []Entry {
	if sr.Repeated {
		return sr.Repeats
	}
	if sr.Entry == nil {
		return []Entry{{}}
	}
	return []Entry{sr.Entry}
}

// MarshalJSON encodes a single entry as an object and repeats as an array.
func (sr SectionResponse) MarshalJSON() ([]byte, error) {
	if sr.Repeated {
		repeats := sr.Repeats
		if repeats == nil {
			repeats = []Entry{}
		}
		return json.Marshal(repeats)
	}
	entry := sr.Entry
	if entry == nil {
		entry = Entry{}
	}
	return json.Marshal(entry)
}

// UnmarshalJSON accepts either an object or an array of objects.
func (sr *SectionResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var repeats []Entry
		if err := json.Unmarshal(trimmed, &repeats); err != nil {
			return err
		}
		for i := range repeats {
			if repeats[i] == nil {
				repeats[i] = Entry{}
			}
		}
		*sr = SectionResponse{Repeats: repeats, Repeated: true}
		return nil
	}
	var entry Entry
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return err
	}
	if entry == nil {
		entry = Entry{}
	}
	*sr = SectionResponse{Entry: entry}
	return nil
}

// NewResponses builds the initial response structure for a template: one empty
// entry per section, repeatable sections starting with a single instance.
// PRE: t has been validated
// POST: every template section has a response of the right shape
func NewResponses(t Template) Responses {
	r := make(Responses, len(t.Sections))
	for _, s := range t.Sections {
		r[s.ID] = emptySectionResponse(s)
	}
	return r
}

func emptySectionResponse(s Section) SectionResponse {
	if s.Repeatable {
		return SectionResponse{Repeats: []Entry{{}}, Repeated: true}
	}
	return SectionResponse{Entry: Entry{}}
}

// AddRepeat appends an empty entry to a repeatable section and returns its index.
// PRE: sectionID names a repeatable section of t
// POST: the section holds one more entry, never more than MaxRepeats
func (r Responses) AddRepeat(t Template, sectionID string) (int, error) {
	s, ok := t.Section(sectionID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	if !s.Repeatable {
		return 0, ErrNotRepeatable
	}
	sr, err := r.section(s)
	if err != nil {
		return 0, err
	}
	if len(sr.Repeats) >= s.MaxRepeats {
		return 0, ErrMaxRepeats
	}
	sr.Repeats = append(sr.Repeats, Entry{})
	r[s.ID] = sr
	return len(sr.Repeats) - 1, nil
}

// RemoveRepeat deletes the entry at index from a repeatable section.
// PRE: sectionID names a repeatable section of t; 0 <= index < len(entries)
// POST: the entry is removed; at least one entry always remains
func (r Responses) RemoveRepeat(t Template, sectionID string, index int) error {
	s, ok := t.Section(sectionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	if !s.Repeatable {
		return ErrNotRepeatable
	}
	sr, err := r.section(s)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(sr.Repeats) {
		return ErrIndexOutOfRange
	}
	if len(sr.Repeats) <= 1 {
		return ErrMinRepeats
	}
	repeats := make([]Entry, 0, len(sr.Repeats)-1)
	repeats = append(repeats, sr.Repeats[:index]...)
	repeats = append(repeats, sr.Repeats[index+1:]...)
	sr.Repeats = repeats
	r[s.ID] = sr
	return nil
}

// SetValue coerces value for the field's type and stores it. A nil value clears the answer.
// PRE: section and field exist in t; index addresses an existing entry (0 for single sections)
// POST: the stored value is in canonical form for the field type
func (r Responses) SetValue(t Template, sectionID string, index int, fieldID string, value any) error {
	s, f, entry, err := r.locate(t, sectionID, index, fieldID)
	if err != nil {
		return err
	}
	coerced, err := Coerce(f, value)
	if err != nil {
		return err
	}
	fr := entry[f.ID]
	fr.Value = coerced
	entry[f.ID] = fr
	r.store(s, index, entry)
	return nil
}

// SetComments stores free-text comments alongside a field's value.
// PRE: the field allows comments
// POST: comments are stored, value is untouched
func (r Responses) SetComments(t Template, sectionID string, index int, fieldID, comments string) error {
	s, f, entry, err := r.locate(t, sectionID, index, fieldID)
	if err != nil {
		return err
	}
	if !f.AllowComments {
		return ErrCommentsNotAllowed
	}
	if utf8.RuneCountInString(comments) > MaxCommentsLength {
		return ErrCommentsTooLong
	}
	fr := entry[f.ID]
	fr.Comments = comments
	entry[f.ID] = fr
	r.store(s, index, entry)
	return nil
}

// Value returns the stored value of a field, or nil when unanswered.
func (r Responses) Value(sectionID string, index int, fieldID string) any {
	sr, ok := r[sectionID]
	if !ok {
		return nil
	}
	instances := sr.Instances()
	if index < 0 || index >= len(instances) {
		return nil
	}
	return instances[index][fieldID].Value
}

// section returns the response for s in the shape the template now expects,
// storing the converted form back into r. A single entry becomes instance 0 of
// a repeatable section and a lone instance becomes the single entry.
// POST: answers are never discarded; ErrShapeMismatch when several instances
// would have to collapse into one
func (r Responses) section(s Section) (SectionResponse, error) {
	sr, ok := r[s.ID]
	switch {
	case !ok:
		sr = emptySectionResponse(s)
	case s.Repeatable && !sr.Repeated:
		entry := sr.Entry
		if entry == nil {
			entry = Entry{}
		}
		sr = SectionResponse{Repeats: []Entry{entry}, Repeated: true}
	case !s.Repeatable && sr.Repeated:
		if len(sr.Repeats) > 1 {
			return SectionResponse{}, fmt.Errorf("%w: %s", ErrShapeMismatch, s.ID)
		}
		var entry Entry
		if len(sr.Repeats) == 1 {
			entry = sr.Repeats[0]
		}
		sr = SectionResponse{Entry: entry}
	}
	if !s.Repeatable && sr.Entry == nil {
		sr.Entry = Entry{}
	}
	r[s.ID] = sr
	return sr, nil
}

func (r Responses) locate(t Template, sectionID string, index int, fieldID string) (Section, Field, Entry, error) {
	s, ok := t.Section(sectionID)
	if !ok {
		return Section{}, Field{}, nil, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	f, ok := s.Field(fieldID)
	if !ok {
		return Section{}, Field{}, nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, sectionID, fieldID)
	}
	sr, err := r.section(s)
	if err != nil {
		return Section{}, Field{}, nil, err
	}
	if !s.Repeatable {
		if index != 0 {
			return Section{}, Field{}, nil, ErrIndexOutOfRange
		}
		return s, f, sr.Entry, nil
	}
	if index < 0 || index >= len(sr.Repeats) {
		return Section{}, Field{}, nil, ErrIndexOutOfRange
	}
	if sr.Repeats[index] == nil {
		sr.Repeats[index] = Entry{}
	}
	return s, f, sr.Repeats[index], nil
}

func (r Responses) store(s Section, index int, entry Entry) {
	sr := r[s.ID]
	if s.Repeatable {
		sr.Repeats[index] = entry
	} else {
		sr.Entry = entry
	}
	r[s.ID] = sr
}

// Clone returns a deep copy of the responses. Stored values are canonical
// (strings, float64, []string) so copying slices is enough.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for id, sr := range r {
		c := SectionResponse{Repeated: sr.Repeated}
		if sr.Entry != nil {
			c.Entry = cloneEntry(sr.Entry)
		}
		if sr.Repeats != nil {
			c.Repeats = make([]Entry, len(sr.Repeats))
			for i, e := range sr.Repeats {
				c.Repeats[i] = cloneEntry(e)
			}
		}
		out[id] = c
	}
	return out
}

func cloneEntry(e Entry) Entry {
	out := make(Entry, len(e))
	for k, v := range e {
		if opts, ok := v.Value.([]string); ok {
			v.Value = append([]string(nil), opts...)
		}
		out[k] = v
	}
	return out
}
