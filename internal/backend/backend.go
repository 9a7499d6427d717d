// Package backend defines the content store that generated records are
// written to.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Content item types.
const (
	TypePost    = "post"
	TypeProduct = "product"
)

// Taxonomies.
const (
	TaxCategory    = "category"
	TaxProductCat  = "product_cat"
	TaxProductType = "product_type"
)

// Statuses.
const (
	StatusPublish = "publish"
	CommentOpen   = "open"
	CommentClosed = "closed"
)

// Comment types.
const (
	CommentTypeComment = "comment"
	CommentTypeReview  = "review"
)

// Store error codes.
const (
	CodeRequestFailed     = "http_request_failed" // transport failure reaching the store
	CodeMetaNotRegistered = "meta_not_registered" // meta keys the store dropped
	CodeUnsupported       = "unsupported"         // write the store has no endpoint for
)

// ErrSettingNotExposed is returned by FetchSiteSetting for keys the store
// does not publish. It is distinct from a setting that is present but empty.
var ErrSettingNotExposed = errors.New("setting not exposed")

// ContentItem is a post-like record: a blog post or a commerce product.
type ContentItem struct {
	ID            int64
	Type          string
	Title         string
	Content       string
	Status        string
	CommentStatus string
	Author        int64
	Date          time.Time
}

// Open reports whether the item accepts comments.
func (c ContentItem) Open() bool {
	return c.CommentStatus == CommentOpen
}

// Comment is a comment or a product review.
type Comment struct {
	ID          int64
	PostID      int64
	Parent      int64
	UserID      int64
	Author      string
	AuthorEmail string
	Content     string
	Type        string
	Date        time.Time
}

// User is a site account.
type User struct {
	ID          int64
	Login       string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DisplayName string
	Role        string
	Registered  time.Time
}

// Term is a taxonomy term.
type Term struct {
	ID       int64
	Taxonomy string
	Name     string
	Slug     string
}

// Media is an uploaded file.
type Media struct {
	FileName    string
	ContentType string
	Title       string
	Data        []byte
	ParentID    int64
}

// ObjectKind is the kind of record meta attaches to.
type ObjectKind string

const (
	KindContent ObjectKind = "content"
	KindComment ObjectKind = "comment"
	KindUser    ObjectKind = "user"
)

// Object identifies a stored record. Type is the content item type for
// KindContent, the comment type for KindComment and the role for KindUser.
type Object struct {
	Kind ObjectKind
	Type string
	ID   int64
}

// Store is the content store contract. Inserts return the new record id;
// an id of 0 with a nil error means the store returned no identifier.
// Failures are reported as *Error, apart from ErrSettingNotExposed.
type Store interface {
	InsertContentItem(ctx context.Context, item ContentItem) (int64, error)
	InsertComment(ctx context.Context, c Comment) (int64, error)
	InsertUser(ctx context.Context, u User) (int64, error)
	AssignTerms(ctx context.Context, item Object, taxonomy string, termIDs []int64) error
	SetMeta(ctx context.Context, obj Object, meta map[string]string) error
	FetchRandomContentItems(ctx context.Context, itemType string, limit int) ([]ContentItem, error)
	FetchUsersByRole(ctx context.Context, role string) ([]User, error)
	FetchTerms(ctx context.Context, taxonomy string) ([]Term, error)
	FetchSiteSetting(ctx context.Context, key string) (string, error)
	UploadMedia(ctx context.Context, m Media) (int64, error)
	SetFeaturedImage(ctx context.Context, item Object, mediaID int64) error
}

// Error is a store failure carrying the store's error code.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend: %s: %s (status %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("backend: %s: %s", e.Code, e.Message)
}
