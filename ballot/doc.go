// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot decides whether a vote attempt is admissible.

# Validation Order

Validator.Validate evaluates checks in a fixed order so that errors are
deterministic:

	1. structure   poll id is a UUID, 0 <= option index <= 9   models.ErrValidation
	2. existence   poll found in the repository                 models.ErrNotFound
	3. expiry      now is not after expires_at                  models.ErrExpired
	4. option      option index < len(poll.Options)             models.ErrInvalidOption
	5. rate limit  5 attempts per 60s per key                    models.ErrRateLimited
	6. duplicate   no earlier vote by this voter                 models.ErrDuplicateVote

Steps 3 to 6 all use the single poll snapshot read in step 2.

# Rate Limit Keys

	vote:<identity>            authenticated voters
	vote:anonymous:<poll id>   anonymous voters, shared per poll

# Anonymous Votes

The duplicate check only runs for authenticated voters. Anonymous votes are
never deduplicated; the per-poll rate limit is their only throttle.

# Races

The duplicate check is a fast path. Two simultaneous attempts by the same
voter can both pass it; the repository's unique constraint then rejects the
second insert and the controller reports it as a duplicate.
*/
package ballot
