// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and persistence of polls and votes.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq).

# Tables

  - poll: question, owner, optional expiry
  - poll_option: ordered option texts per poll
  - vote: one row per ballot, option_index into poll_option order

# Relationships

	poll 1──* poll_option
	poll 1──* vote

Foreign keys use ON DELETE CASCADE; DeletePoll also removes children
explicitly so the cascade does not depend on SQLite's foreign_keys pragma.

# Uniqueness

vote has UNIQUE (poll_id, voter_id). It is the final word on double voting:
InsertVote maps the violation from either driver to models.ErrConflict.
Anonymous votes store NULL voter_id and never collide.

# Repository

	repo := db.NewSQLRepository(conn)
	poll, err := repo.FindPoll(ctx, id)          // models.ErrNotFound
	err = repo.InsertVote(ctx, vote)             // models.ErrConflict
	err = repo.UpdatePoll(ctx, id, owner, f)     // models.ErrOptionsLocked
	err = repo.DeletePoll(ctx, id, owner)

Update and delete statements filter on owner_id in addition to the
controller's authorization check.
*/
package db
