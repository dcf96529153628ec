package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when a query or update targets an
	// onboarding record that does not exist in the database.
	ErrRecordNotFound = errors.New("onboarding record was not found")

	// ErrRecordAlreadyExists is returned when inserting an onboarding record
	// whose identifier is already taken.
	ErrRecordAlreadyExists = errors.New("onboarding record already exists")

	// ErrVersionConflict is returned when the optimistic-concurrency check of
	// a step save fails: the version supplied by the client does not match
	// the version stored in the database, meaning another writer has modified
	// the step since the client last synchronized. It also covers the case of
	// a non-zero sent version for a step that has no stored row at all.
	ErrVersionConflict = errors.New("step version conflict occurred")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
