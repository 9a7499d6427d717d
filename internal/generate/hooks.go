package generate

import (
	"context"

	"github.com/zarlcorp/zseed/internal/backend"
)

// Draft is a record about to be inserted. Exactly one of Item, Comment or
// User is meaningful, according to Type. Meta is written after the insert.
type Draft struct {
	Type    string
	Item    backend.ContentItem
	Comment backend.Comment
	User    backend.User
	Meta    map[string]string
}

// Hooks are the extension points around each record. Nil hooks are skipped.
type Hooks struct {
	// BeforeRecordCreate runs before any field of a record is synthesized.
	BeforeRecordCreate func(ctx context.Context, typ string)

	// TransformFields may rewrite a draft. Returning false skips the record:
	// it is not inserted, not counted and not an error.
	TransformFields func(ctx context.Context, d Draft) (Draft, bool)

	// AfterRecordCreate runs once the record and its enrichment are stored.
	AfterRecordCreate func(ctx context.Context, typ string, id int64)
}
