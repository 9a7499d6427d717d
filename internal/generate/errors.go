package generate

import "errors"

var (
	// ErrNoEligibleParents is returned by comment and review generation when
	// no published, open-for-comments parent exists. Nothing is inserted.
	ErrNoEligibleParents = errors.New("no eligible parents")

	// ErrIdentitySynthesis wraps a failed fake person draw.
	ErrIdentitySynthesis = errors.New("identity synthesis failed")

	// ErrNoIdentifier is returned when the store accepted an insert but
	// returned no id.
	ErrNoIdentifier = errors.New("no identifier returned")

	// ErrBackendFetch wraps a failed read needed before any insert.
	ErrBackendFetch = errors.New("backend fetch failed")
)

// Result codes.
const (
	CodeNoEligibleParents = "no_eligible_parents"
	CodeIdentitySynthesis = "identity_synthesis_failed"
	CodeNoIdentifier      = "no_identifier_returned"
	CodeBackendInsert     = "backend_insert_failed"
	CodeBackendFetch      = "backend_fetch_failed"
	CodeCanceled          = "canceled"
)
