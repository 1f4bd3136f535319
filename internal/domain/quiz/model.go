package quiz

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Quiz kinds.
const (
	KindStandard = "standard"
	KindVideo    = "video"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength       = 150
	MaxDescriptionLength = 2000
	MaxPromptLength      = 500
	MaxOptionLength      = 200
	MaxQuestions         = 100
	MaxOptions           = 8
)

// NoAnswer marks a skipped question in an attempt.
const NoAnswer = -1

// Domain errors
var (
	ErrEmptyTitle         = errors.New("quiz title cannot be empty")
	ErrTitleTooLong       = errors.New("quiz title cannot exceed 150 characters")
	ErrDescriptionTooLong = errors.New("quiz description cannot exceed 2000 characters")
	ErrEmptySportID       = errors.New("every quiz must have a sport")
	ErrEmptySkillID       = errors.New("every quiz must have a skill")
	ErrInvalidKind        = errors.New("quiz kind must be standard or video")
	ErrNoQuestions        = errors.New("quiz must have at least one question")
	ErrTooManyQuestions   = errors.New("quiz cannot have more than 100 questions")
	ErrEmptyPrompt        = errors.New("question prompt cannot be empty")
	ErrTooFewOptions      = errors.New("question needs at least two options")
	ErrTooManyOptions     = errors.New("question cannot have more than 8 options")
	ErrEmptyOption        = errors.New("question options cannot be empty")
	ErrCorrectOutOfRange  = errors.New("correct answer must be one of the options")
	ErrMissingVideoURL    = errors.New("video quizzes need a valid video URL")
	ErrNegativeTimestamp  = errors.New("question timestamp cannot be negative")
	ErrEmptyCreatedBy     = errors.New("quiz author is required")
	ErrAnswerCount        = errors.New("answer count must match question count")
	ErrAnswerOutOfRange   = errors.New("answer is not one of the options")
	ErrNotPublished       = errors.New("quiz is not published")
)

// Question is a multiple-choice question. For video quizzes AtSeconds
// positions the question on the video timeline.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
	AtSeconds    float64  `json:"atSeconds,omitempty"`
}

// Quiz is a skill check tied to a sport and skill.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"` // standard, video
	VideoURL    string     `json:"videoUrl"`
	SportID     string     `json:"sportId"`
	SkillID     string     `json:"skillId"`
	Questions   []Question `json:"questions"`
	Published   bool       `json:"published"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt,omitzero"`
}

// Validate checks if the Quiz has valid data.
// PRE: Quiz struct is populated
// POST: Returns nil if valid, error describing the first violation otherwise
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return ErrEmptyTitle
	}
	if len(q.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(q.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if q.SportID == "" {
		return ErrEmptySportID
	}
	if q.SkillID == "" {
		return ErrEmptySkillID
	}
	if q.Kind != KindStandard && q.Kind != KindVideo {
		return ErrInvalidKind
	}
	if q.Kind == KindVideo && !isHTTPURL(q.VideoURL) {
		return ErrMissingVideoURL
	}
	if q.CreatedBy == "" {
		return ErrEmptyCreatedBy
	}
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	if len(q.Questions) > MaxQuestions {
		return ErrTooManyQuestions
	}
	for i, question := range q.Questions {
		if err := question.validate(q.Kind); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

func (qn *Question) validate(kind string) error {
	if strings.TrimSpace(qn.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(qn.Prompt) > MaxPromptLength {
		return fmt.Errorf("prompt cannot exceed %d characters", MaxPromptLength)
	}
	if len(qn.Options) < 2 {
		return ErrTooFewOptions
	}
	if len(qn.Options) > MaxOptions {
		return ErrTooManyOptions
	}
	for _, opt := range qn.Options {
		if strings.TrimSpace(opt) == "" {
			return ErrEmptyOption
		}
		if len(opt) > MaxOptionLength {
			return fmt.Errorf("option cannot exceed %d characters", MaxOptionLength)
		}
	}
	if qn.CorrectIndex < 0 || qn.CorrectIndex >= len(qn.Options) {
		return ErrCorrectOutOfRange
	}
	if kind == KindVideo && qn.AtSeconds < 0 {
		return ErrNegativeTimestamp
	}
	return nil
}

// IsVideo returns true for video quizzes.
func (q *Quiz) IsVideo() bool {
	return q.Kind == KindVideo
}

// Grade scores a set of answers. Skipped questions (NoAnswer) score zero.
// PRE: len(answers) == len(q.Questions)
// POST: returns correct count; errors on a malformed answer set
func (q *Quiz) Grade(answers []int) (int, error) {
	if len(answers) != len(q.Questions) {
		return 0, ErrAnswerCount
	}
	score := 0
	for i, a := range answers {
		if a == NoAnswer {
			continue
		}
		if a < 0 || a >= len(q.Questions[i].Options) {
			return 0, fmt.Errorf("question %d: %w", i+1, ErrAnswerOutOfRange)
		}
		if a == q.Questions[i].CorrectIndex {
			score++
		}
	}
	return score, nil
}

// Attempt records a student's answers to a quiz.
type Attempt struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	StudentID   string    `json:"studentId"`
	Answers     []int     `json:"answers"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submittedAt,omitzero"`
}

// Percent returns the attempt score as a whole percentage.
func (a *Attempt) Percent() int {
	if a.Total == 0 {
		return 0
	}
	return a.Score * 100 / a.Total
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
