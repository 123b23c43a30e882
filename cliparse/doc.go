// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadEnv reads an optional .env file, then ParseFlags returns a Config:

	if err := cliparse.LoadEnv(""); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p                PORT                       Server port (default 3318)
	-d                DATABASE_URL               Database URL (sqlite file by default)
	-t                DATABASE_TYPE              sqlite or postgres (default sqlite)
	--session-salt    SESSION_SALT               Session token signing salt (required)
	--redis-url       REDIS_URL                  Redis for cross-process live results
	--vote-limit      VOTE_RATE_LIMIT            Vote attempts per window (default 5)
	--vote-window     VOTE_RATE_WINDOW           Window length (default 60s)
	--sweep-interval  RATE_LIMIT_SWEEP_INTERVAL  Bucket cleanup interval (default 5m)

CLI flags take precedence over environment variables, which take precedence
over .env.

# Validation

ParseFlags returns an error if SESSION_SALT is missing, if postgres is
selected without a URL, or if a numeric or duration value does not parse.
*/
package cliparse
