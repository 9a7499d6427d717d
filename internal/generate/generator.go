// Package generate fabricates records of each entity type and writes them
// to a backend store, reporting how many were created.
package generate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zarlcorp/zseed/internal/backend"
	"github.com/zarlcorp/zseed/internal/content"
	"github.com/zarlcorp/zseed/internal/identity"
	"github.com/zarlcorp/zseed/internal/remote"
)

// GeneratedMetaKey tags every created object with the type that made it.
const GeneratedMetaKey = "_zseed_generated"

// RecordGenerator creates up to n records of one type.
type RecordGenerator interface {
	Limits() Limits
	// Generate returns the number of records created. On error the count
	// is the number created before the failure.
	Generate(ctx context.Context, n int) (int, error)
}

// People synthesizes fake people.
type People interface {
	Person() (identity.Person, error)
}

// Text synthesizes titles and bodies.
type Text interface {
	Title(ctx context.Context, words int) (string, error)
	Body(ctx context.Context, p content.BodyParams) (string, error)
	TitleWords() int
}

// Images fetches images for sideloading.
type Images interface {
	RandomImage(ctx context.Context, source string) (remote.Image, error)
	Download(ctx context.Context, url string) (remote.Download, error)
}

// Deps are the collaborators generators draw on. Images may be nil.
type Deps struct {
	Store  backend.Store
	People People
	Text   Text
	Images Images
	Rand   *rand.Rand
	Now    func() time.Time
	Log    zerolog.Logger
}

// env is the state shared by the built-in generators of one orchestrator.
type env struct {
	cfg   Config
	deps  Deps
	hooks Hooks
	log   zerolog.Logger
}

func (e *env) now() time.Time {
	if e.deps.Now != nil {
		return e.deps.Now()
	}
	return time.Now()
}

// between returns a random duration in [lo, hi] at second granularity.
func (e *env) between(lo, hi time.Duration) time.Duration {
	span := int64((hi - lo) / time.Second)
	return lo + time.Duration(e.deps.Rand.Int64N(span+1))*time.Second
}

func (e *env) before(ctx context.Context, typ string) {
	if e.hooks.BeforeRecordCreate != nil {
		e.hooks.BeforeRecordCreate(ctx, typ)
	}
}

func (e *env) transform(ctx context.Context, d Draft) (Draft, bool) {
	if e.hooks.TransformFields == nil {
		return d, true
	}
	out, ok := e.hooks.TransformFields(ctx, d)
	if !ok {
		e.log.Debug().Str("type", d.Type).Msg("record skipped by transform hook")
	}
	return out, ok
}

func (e *env) after(ctx context.Context, typ string, id int64) {
	if e.hooks.AfterRecordCreate != nil {
		e.hooks.AfterRecordCreate(ctx, typ, id)
	}
}

func (e *env) person() (identity.Person, error) {
	p, err := e.deps.People.Person()
	if err != nil {
		return identity.Person{}, fmt.Errorf("%w: %w", ErrIdentitySynthesis, err)
	}
	return p, nil
}

// title degrades to "" when no source has content.
func (e *env) title(ctx context.Context) string {
	t, err := e.deps.Text.Title(ctx, e.deps.Text.TitleWords())
	if err != nil {
		e.log.Warn().Err(err).Msg("title unavailable")
		return ""
	}
	return t
}

// body degrades to "" when no source has content.
func (e *env) body(ctx context.Context, p content.BodyParams) string {
	b, err := e.deps.Text.Body(ctx, p)
	if err != nil {
		e.log.Warn().Err(err).Msg("body unavailable")
		return ""
	}
	return b
}

// setMeta writes meta plus the generated tag. Failure is logged only.
func (e *env) setMeta(ctx context.Context, obj backend.Object, typ string, meta map[string]string) {
	m := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		m[k] = v
	}
	m[GeneratedMetaKey] = typ

	if err := e.deps.Store.SetMeta(ctx, obj, m); err != nil {
		e.log.Warn().Err(err).Str("type", typ).Int64("id", obj.ID).Msg("set meta")
	}
}

// terms lists a taxonomy. Failure is logged and reads as empty.
func (e *env) terms(ctx context.Context, taxonomy string) []backend.Term {
	terms, err := e.deps.Store.FetchTerms(ctx, taxonomy)
	if err != nil {
		e.log.Warn().Err(err).Str("taxonomy", taxonomy).Msg("fetch terms")
		return nil
	}
	return terms
}

// featuredImage sideloads a random image onto an item. Every failure is
// logged and ignored.
func (e *env) featuredImage(ctx context.Context, obj backend.Object) {
	if e.deps.Images == nil || e.cfg.ImageSource == remote.ImageNone || e.cfg.NoImages {
		return
	}

	log := e.log.With().Int64("id", obj.ID).Str("source", e.cfg.ImageSource).Logger()

	img, err := e.deps.Images.RandomImage(ctx, e.cfg.ImageSource)
	if err != nil {
		log.Warn().Err(err).Msg("featured image lookup")
		return
	}
	dl, err := e.deps.Images.Download(ctx, img.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", img.URL).Msg("featured image download")
		return
	}

	mediaID, err := e.deps.Store.UploadMedia(ctx, backend.Media{
		FileName:    dl.FileName,
		ContentType: dl.ContentType,
		Title:       img.Title,
		Data:        dl.Data,
		ParentID:    obj.ID,
	})
	if err != nil {
		log.Warn().Err(err).Msg("featured image upload")
		return
	}
	if mediaID == 0 {
		log.Warn().Msg("featured image upload returned no id")
		return
	}

	if err := e.deps.Store.SetFeaturedImage(ctx, obj, mediaID); err != nil {
		log.Warn().Err(err).Int64("media", mediaID).Msg("set featured image")
		return
	}
	log.Debug().Int64("media", mediaID).Msg("featured image attached")
}

// truthy reads an option value the way the site stores booleans.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
