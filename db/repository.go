// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/quickly-poll/models"
)

// Repository is the durable store for polls and votes
type Repository interface {
	FindPoll(ctx context.Context, id string) (models.Poll, error)
	FindVote(ctx context.Context, pollID string, voter models.Identity) (models.Vote, bool, error)
	InsertVote(ctx context.Context, vote models.Vote) error
	InsertPoll(ctx context.Context, poll models.Poll) error
	UpdatePoll(ctx context.Context, id string, owner models.Identity, fields models.PollUpdate) error
	DeletePoll(ctx context.Context, id string, owner models.Identity) error
	ListPolls(ctx context.Context, owner models.Identity) ([]models.Poll, error)
	ListVotes(ctx context.Context, pollID string) ([]models.Vote, error)
	CountVotes(ctx context.Context, pollID string) (int, error)
}

// SQLRepository implements Repository on database/sql.
// Queries use $N placeholders, which both lib/pq and modernc sqlite accept.
type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// FindPoll returns models.ErrNotFound when no poll has the id
func (r *SQLRepository) FindPoll(ctx context.Context, id string) (models.Poll, error) {
	var poll models.Poll
	var owner string
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, question, expires_at, created_at, updated_at
		FROM poll
		WHERE id = $1
	`, id).Scan(&poll.ID, &owner, &poll.Question, &expiresAt, &poll.CreatedAt, &poll.UpdatedAt)

	if err == sql.ErrNoRows {
		return models.Poll{}, models.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}

	poll.OwnerID = models.Identity(owner)
	poll.ExpiresAt = timePtr(expiresAt)
	normalizeTimes(&poll)

	poll.Options, err = r.listOptions(ctx, poll.ID)
	if err != nil {
		return models.Poll{}, err
	}

	return poll, nil
}

func (r *SQLRepository) listOptions(ctx context.Context, pollID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT text
		FROM poll_option
		WHERE poll_id = $1
		ORDER BY ordinal
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	options := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}

	return options, nil
}

// FindVote looks up the vote cast by voter on a poll. Anonymous voters have
// no identity to key on, so nothing is ever found for them.
func (r *SQLRepository) FindVote(ctx context.Context, pollID string, voter models.Identity) (models.Vote, bool, error) {
	if voter.IsAnonymous() {
		return models.Vote{}, false, nil
	}

	var vote models.Vote
	err := r.db.QueryRowContext(ctx, `
		SELECT id, poll_id, option_index, cast_at
		FROM vote
		WHERE poll_id = $1 AND voter_id = $2
	`, pollID, string(voter)).Scan(&vote.ID, &vote.PollID, &vote.OptionIndex, &vote.CastAt)

	if err == sql.ErrNoRows {
		return models.Vote{}, false, nil
	}
	if err != nil {
		return models.Vote{}, false, fmt.Errorf("failed to query vote: %w", err)
	}

	vote.VoterID = voter
	vote.CastAt = vote.CastAt.UTC()
	return vote, true, nil
}

// InsertVote writes a single row. A second vote by the same voter on the
// same poll fails with models.ErrConflict.
func (r *SQLRepository) InsertVote(ctx context.Context, vote models.Vote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, voter_id, option_index, cast_at)
		VALUES ($1, $2, $3, $4, $5)
	`, vote.ID, vote.PollID, nullIdentity(vote.VoterID), vote.OptionIndex, vote.CastAt.UTC())

	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (r *SQLRepository) InsertPoll(ctx context.Context, poll models.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, owner_id, question, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, poll.ID, string(poll.OwnerID), poll.Question, nullTime(poll.ExpiresAt), poll.CreatedAt.UTC(), poll.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	if err := insertOptions(ctx, tx, poll.ID, poll.Options); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertOptions(ctx context.Context, tx *sql.Tx, pollID string, options []string) error {
	for i, text := range options {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, ordinal, text)
			VALUES ($1, $2, $3)
		`, pollID, i, text)
		if err != nil {
			if isUniqueViolation(err) {
				return models.Invalid("options must be unique")
			}
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}
	return nil
}

// UpdatePoll applies fields to a poll owned by owner. Replacing options is
// refused with models.ErrOptionsLocked once any vote exists; the check runs
// inside the same transaction as the write.
func (r *SQLRepository) UpdatePoll(ctx context.Context, id string, owner models.Identity, fields models.PollUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var question string
	var expiresAt sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT question, expires_at FROM poll WHERE id = $1 AND owner_id = $2
	`, id, string(owner)).Scan(&question, &expiresAt)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query poll: %w", err)
	}

	if fields.Question != nil {
		question = *fields.Question
	}
	expires := nullTime(timePtr(expiresAt))
	if fields.ExpiresAt != nil {
		expires = nullTime(fields.ExpiresAt)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE poll
		SET question = $1, expires_at = $2, updated_at = $3
		WHERE id = $4 AND owner_id = $5
	`, question, expires, fields.UpdatedAt.UTC(), id, string(owner))
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}

	if fields.Options != nil {
		var votes int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE poll_id = $1`, id).Scan(&votes)
		if err != nil {
			return fmt.Errorf("failed to count votes: %w", err)
		}
		if votes > 0 {
			return models.ErrOptionsLocked
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM poll_option WHERE poll_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete options: %w", err)
		}
		if err := insertOptions(ctx, tx, id, fields.Options); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeletePoll removes a poll owned by owner together with its options and
// votes. Children are deleted explicitly so SQLite connections without
// foreign key enforcement still cascade.
func (r *SQLRepository) DeletePoll(ctx context.Context, id string, owner models.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM poll WHERE id = $1 AND owner_id = $2)
	`, id, string(owner)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query poll: %w", err)
	}
	if !exists {
		return models.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE poll_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_option WHERE poll_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM poll WHERE id = $1 AND owner_id = $2`, id, string(owner)); err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListPolls returns owner's polls, newest first
func (r *SQLRepository) ListPolls(ctx context.Context, owner models.Identity) ([]models.Poll, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, question, expires_at, created_at, updated_at
		FROM poll
		WHERE owner_id = $1
		ORDER BY created_at DESC, id
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}

	polls := []models.Poll{}
	for rows.Next() {
		var poll models.Poll
		var ownerID string
		var expiresAt sql.NullTime
		if err := rows.Scan(&poll.ID, &ownerID, &poll.Question, &expiresAt, &poll.CreatedAt, &poll.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		poll.OwnerID = models.Identity(ownerID)
		poll.ExpiresAt = timePtr(expiresAt)
		normalizeTimes(&poll)
		polls = append(polls, poll)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read polls: %w", err)
	}

	// Options are loaded after the poll cursor is closed so a single
	// connection pool (SQLite) is never asked for a second connection.
	for i := range polls {
		polls[i].Options, err = r.listOptions(ctx, polls[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return polls, nil
}

func (r *SQLRepository) ListVotes(ctx context.Context, pollID string) ([]models.Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, poll_id, voter_id, option_index, cast_at
		FROM vote
		WHERE poll_id = $1
		ORDER BY cast_at, id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var vote models.Vote
		var voter sql.NullString
		if err := rows.Scan(&vote.ID, &vote.PollID, &voter, &vote.OptionIndex, &vote.CastAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		vote.VoterID = models.Identity(voter.String)
		vote.CastAt = vote.CastAt.UTC()
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}

	return votes, nil
}

func (r *SQLRepository) CountVotes(ctx context.Context, pollID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vote WHERE poll_id = $1
	`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// isUniqueViolation recognizes duplicate-key errors from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		// Primary result code only, when extended codes are off
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
	}

	return false
}

func nullIdentity(id models.Identity) sql.NullString {
	return sql.NullString{String: string(id), Valid: !id.IsAnonymous()}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func normalizeTimes(p *models.Poll) {
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
}
