package quiz

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"skillcoach/internal/adapters/storage"
	domain "skillcoach/internal/domain/quiz"
)

const (
	quizColumns = `id, title, description, kind, video_url, sport_id, skill_id, questions,
	published, created_by, created_at, updated_at`
	attemptColumns = `id, quiz_id, student_id, answers, score, total, submitted_at`
)

// SQLiteStore implements Store using SQLite. Questions and answers are
// stored as JSON columns.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new quiz store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Quiz by its ID.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quiz WHERE id = ?`, id)
	q, err := scanQuiz(row.Scan)
	return q, storage.NotFound("quiz", err)
}

// Save persists a Quiz (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, q domain.Quiz) error {
	questions, err := storage.EncodeJSON(q.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz (`+quizColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, description=excluded.description, kind=excluded.kind,
		   video_url=excluded.video_url, sport_id=excluded.sport_id, skill_id=excluded.skill_id,
		   questions=excluded.questions, published=excluded.published,
		   updated_at=excluded.updated_at`,
		q.ID, q.Title, q.Description, q.Kind, storage.NullString(q.VideoURL), q.SportID, q.SkillID,
		questions, storage.BoolInt(q.Published), q.CreatedBy,
		storage.FormatTime(q.CreatedAt), storage.FormatTime(q.UpdatedAt))
	return err
}

// Delete removes a Quiz and its attempts in one transaction.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_attempt WHERE quiz_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// List retrieves quizzes matching the filter, ordered by title.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Quiz, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if filter.SportID != "" {
		add("sport_id = ?", filter.SportID)
	}
	if filter.SkillID != "" {
		add("skill_id = ?", filter.SkillID)
	}
	if filter.Kind != "" {
		add("kind = ?", filter.Kind)
	}
	if filter.CreatedBy != "" {
		add("created_by = ?", filter.CreatedBy)
	}
	if filter.PublishedOnly {
		add("published = ?", 1)
	}
	query := `SELECT ` + quizColumns + ` FROM quiz`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY title, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// SaveAttempt records a graded attempt. Attempts are immutable.
func (s *SQLiteStore) SaveAttempt(ctx context.Context, a domain.Attempt) error {
	answers, err := storage.EncodeJSON(a.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempt (`+attemptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.QuizID, a.StudentID, answers, a.Score, a.Total, storage.FormatTime(a.SubmittedAt))
	return err
}

// ListAttempts returns attempts newest first.
func (s *SQLiteStore) ListAttempts(ctx context.Context, filter AttemptFilter) ([]domain.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempt WHERE 1=1`
	var args []any
	if filter.QuizID != "" {
		query += ` AND quiz_id = ?`
		args = append(args, filter.QuizID)
	}
	if filter.StudentID != "" {
		query += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	query += ` ORDER BY submitted_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		var answers, submittedAt string
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &answers, &a.Score, &a.Total, &submittedAt); err != nil {
			return nil, err
		}
		if err := storage.DecodeJSON(answers, &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for %s: %w", a.ID, err)
		}
		a.SubmittedAt, _ = storage.ParseTime(submittedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanQuiz(scan storage.Scanner) (domain.Quiz, error) {
	var q domain.Quiz
	var videoURL sql.NullString
	var questions, createdAt, updatedAt string
	var published int
	err := scan(&q.ID, &q.Title, &q.Description, &q.Kind, &videoURL, &q.SportID, &q.SkillID,
		&questions, &published, &q.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := storage.DecodeJSON(questions, &q.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode questions for %s: %w", q.ID, err)
	}
	q.VideoURL = videoURL.String
	q.Published = published == 1
	q.CreatedAt, _ = storage.ParseTime(createdAt)
	q.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return q, nil
}
