package curriculum

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Item kinds.
const (
	ItemLesson = "lesson"
	ItemQuiz   = "quiz"
	ItemVideo  = "video"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength = 150
	MaxNotesLength = 2000
	MaxItems       = 200
)

// Domain errors
var (
	ErrEmptyStudentID   = errors.New("curriculum student is required")
	ErrEmptyCoachID     = errors.New("curriculum coach is required")
	ErrEmptySportID     = errors.New("curriculum sport is required")
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrTitleTooLong     = errors.New("title cannot exceed 150 characters")
	ErrNotesTooLong     = errors.New("notes cannot exceed 2000 characters")
	ErrInvalidItemKind  = errors.New("item kind must be lesson, quiz, or video")
	ErrQuizRefRequired  = errors.New("quiz items must reference a quiz")
	ErrVideoURLRequired = errors.New("video items need a URL")
	ErrTooManyItems     = errors.New("curriculum cannot hold more than 200 items")
	ErrItemNotFound     = errors.New("curriculum item not found")
	ErrNotPermutation   = errors.New("reorder must list every item exactly once")
	ErrAlreadyComplete  = errors.New("item is already complete")
	ErrNotComplete      = errors.New("item is not complete")
)

// Item is one step in a student's curriculum.
type Item struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	RefID       string    `json:"refId,omitempty"` // quiz ID for quiz items
	URL         string    `json:"url,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Position    int       `json:"position"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
}

// IsComplete returns true once the student has finished the item.
func (it *Item) IsComplete() bool {
	return !it.CompletedAt.IsZero()
}

// Validate checks if the Item has valid data.
func (it *Item) Validate() error {
	switch it.Kind {
	case ItemLesson, ItemQuiz, ItemVideo:
	default:
		return ErrInvalidItemKind
	}
	if strings.TrimSpace(it.Title) == "" {
		return ErrEmptyTitle
	}
	if len(it.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(it.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if it.Kind == ItemQuiz && it.RefID == "" {
		return ErrQuizRefRequired
	}
	if it.Kind == ItemVideo && it.URL == "" {
		return ErrVideoURLRequired
	}
	return nil
}

// Curriculum is an ordered plan of lessons, quizzes, and videos a coach
// assigns to one student.
type Curriculum struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	CoachID   string    `json:"coachId"`
	SportID   string    `json:"sportId"`
	Title     string    `json:"title"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Validate checks if the Curriculum has valid data.
// PRE: Curriculum struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Curriculum) Validate() error {
	if c.StudentID == "" {
		return ErrEmptyStudentID
	}
	if c.CoachID == "" {
		return ErrEmptyCoachID
	}
	if c.SportID == "" {
		return ErrEmptySportID
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if len(c.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(c.Items) > MaxItems {
		return ErrTooManyItems
	}
	for i := range c.Items {
		if err := c.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	return nil
}

// AddItem appends an item at the end of the plan.
// PRE: item passes Validate
// POST: item appended with Position = len(Items)-1
func (c *Curriculum) AddItem(item Item, now time.Time) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if len(c.Items) >= MaxItems {
		return ErrTooManyItems
	}
	item.Position = len(c.Items)
	item.CompletedAt = time.Time{}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
	return nil
}

// RemoveItem deletes an item.
// POST: remaining positions are contiguous from 0
func (c *Curriculum) RemoveItem(itemID string, now time.Time) error {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.renumber()
	c.UpdatedAt = now
	return nil
}

// Reorder arranges items in the given order.
// PRE: ids is a permutation of the current item IDs
// POST: Items follow ids; positions are contiguous from 0
func (c *Curriculum) Reorder(ids []string, now time.Time) error {
	if len(ids) != len(c.Items) {
		return ErrNotPermutation
	}
	byID := make(map[string]Item, len(c.Items))
	for _, it := range c.Items {
		byID[it.ID] = it
	}
	ordered := make([]Item, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return ErrNotPermutation
		}
		delete(byID, id)
		ordered = append(ordered, it)
	}
	c.Items = ordered
	c.renumber()
	c.UpdatedAt = now
	return nil
}

// CompleteItem records that the student finished an item.
// PRE: item exists and is not complete
// POST: CompletedAt = now
func (c *Curriculum) CompleteItem(itemID string, now time.Time) error {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if c.Items[idx].IsComplete() {
		return ErrAlreadyComplete
	}
	c.Items[idx].CompletedAt = now
	c.UpdatedAt = now
	return nil
}

// ReopenItem clears completion on an item.
// PRE: item exists and is complete
func (c *Curriculum) ReopenItem(itemID string, now time.Time) error {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return ErrItemNotFound
	}
	if !c.Items[idx].IsComplete() {
		return ErrNotComplete
	}
	c.Items[idx].CompletedAt = time.Time{}
	c.UpdatedAt = now
	return nil
}

// CompleteQuiz marks every open item referencing quizID as complete.
// POST: returns the number of items completed
func (c *Curriculum) CompleteQuiz(quizID string, now time.Time) int {
	n := 0
	for i := range c.Items {
		it := &c.Items[i]
		if it.Kind == ItemQuiz && it.RefID == quizID && !it.IsComplete() {
			it.CompletedAt = now
			n++
		}
	}
	if n > 0 {
		c.UpdatedAt = now
	}
	return n
}

// Progress counts completed items.
// INVARIANT: Curriculum is not mutated
func (c *Curriculum) Progress() (completed, total int) {
	for _, it := range c.Items {
		if it.IsComplete() {
			completed++
		}
	}
	return completed, len(c.Items)
}

func (c *Curriculum) indexOf(itemID string) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Curriculum) renumber() {
	for i := range c.Items {
		c.Items[i].Position = i
	}
}
