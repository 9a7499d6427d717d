package generate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zarlcorp/zseed/internal/backend"
	"github.com/zarlcorp/zseed/internal/content"
)

// parentPool is how many random open parents receive comments per run.
const parentPool = 10

// comment dates follow their parent by 1 hour to 1 week, replies follow
// their comment by 1 hour to 1 day
const (
	commentMin = time.Hour
	commentMax = week
	replyMin   = time.Hour
	replyMax   = 24 * time.Hour
)

// Threading selects whether comments get a reply pass.
type Threading string

const (
	ThreadingOn   Threading = "on"
	ThreadingOff  Threading = "off"
	ThreadingSite Threading = "site" // follow the thread_comments setting
)

// threadLink remembers a top-level comment for the reply pass.
type threadLink struct {
	id   int64
	date time.Time
}

// author is who a comment is attributed to.
type author struct {
	userID int64
	name   string
	email  string
}

// commentGenerator creates comments on posts or reviews on products.
type commentGenerator struct {
	*env
	typ         string
	parentType  string
	commentType string
	threads     bool
	limits      Limits
}

func newComments(e *env, l Limits) *commentGenerator {
	return &commentGenerator{
		env:         e,
		typ:         TypeComments,
		parentType:  backend.TypePost,
		commentType: backend.CommentTypeComment,
		threads:     true,
		limits:      l,
	}
}

func newReviews(e *env, l Limits) *commentGenerator {
	return &commentGenerator{
		env:         e,
		typ:         TypeReviews,
		parentType:  backend.TypeProduct,
		commentType: backend.CommentTypeReview,
		limits:      l,
	}
}

func (g *commentGenerator) Limits() Limits { return g.limits }

func (g *commentGenerator) reviews() bool { return g.commentType == backend.CommentTypeReview }

// Generate creates n top-level comments on every eligible parent, plus one
// reply each when threading is enabled. Replies count toward the total.
func (g *commentGenerator) Generate(ctx context.Context, n int) (int, error) {
	// closed items are filtered before the pool is cut
	candidates, err := g.deps.Store.FetchRandomContentItems(ctx, g.parentType, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: %s parents: %w", ErrBackendFetch, g.parentType, err)
	}

	var parents []backend.ContentItem
	for _, c := range candidates {
		if c.Open() {
			parents = append(parents, c)
		}
		if len(parents) == parentPool {
			break
		}
	}
	if len(parents) == 0 {
		return 0, fmt.Errorf("%s: %w", g.typ, ErrNoEligibleParents)
	}

	threaded := g.threads && g.threadingEnabled(ctx)

	var reviewers []backend.User
	if g.reviews() {
		reviewers = g.customers(ctx)
	}

	created := 0
	for _, parent := range parents {
		var links []threadLink

		for range n {
			if err := ctx.Err(); err != nil {
				return created, err
			}
			date := parent.Date.Add(g.between(commentMin, commentMax))
			id, ok, err := g.insert(ctx, parent.ID, 0, date, reviewers)
			if err != nil {
				return created, err
			}
			if !ok {
				continue
			}
			created++
			if threaded {
				links = append(links, threadLink{id: id, date: date})
			}
		}

		for _, l := range links {
			if err := ctx.Err(); err != nil {
				return created, err
			}
			date := l.date.Add(g.between(replyMin, replyMax))
			_, ok, err := g.insert(ctx, parent.ID, l.id, date, nil)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}

	return created, nil
}

// insert creates one comment. ok is false when a hook skipped it.
func (g *commentGenerator) insert(ctx context.Context, postID, parent int64, date time.Time, reviewers []backend.User) (int64, bool, error) {
	g.before(ctx, g.typ)

	who, err := g.author(reviewers)
	if err != nil {
		return 0, false, err
	}

	d := Draft{
		Type: g.typ,
		Comment: backend.Comment{
			PostID:      postID,
			Parent:      parent,
			UserID:      who.userID,
			Author:      who.name,
			AuthorEmail: who.email,
			Content:     g.body(ctx, content.BodyParams{Sentences: 2 + g.deps.Rand.IntN(4)}),
			Type:        g.commentType,
			Date:        date,
		},
	}
	if g.reviews() {
		d.Meta = map[string]string{
			"rating":   strconv.Itoa(1 + g.deps.Rand.IntN(5)),
			"verified": "0",
		}
	}

	d, ok := g.transform(ctx, d)
	if !ok {
		return 0, false, nil
	}

	id, err := g.deps.Store.InsertComment(ctx, d.Comment)
	if err != nil {
		return 0, false, fmt.Errorf("insert %s: %w", g.commentType, err)
	}
	if id == 0 {
		return 0, false, fmt.Errorf("insert %s: %w", g.commentType, ErrNoIdentifier)
	}
	g.log.Debug().Str("type", g.typ).Int64("id", id).Int64("post", postID).Int64("parent", parent).Msg("created")

	g.setMeta(ctx, backend.Object{Kind: backend.KindComment, Type: d.Comment.Type, ID: id}, g.typ, d.Meta)
	g.after(ctx, g.typ, id)

	return id, true, nil
}

// author picks an existing reviewer when there are any, otherwise a
// synthesized person.
func (g *commentGenerator) author(reviewers []backend.User) (author, error) {
	if len(reviewers) > 0 {
		u := reviewers[g.deps.Rand.IntN(len(reviewers))]
		name := u.DisplayName
		if name == "" {
			name = u.Login
		}
		return author{userID: u.ID, name: name, email: u.Email}, nil
	}

	p, err := g.person()
	if err != nil {
		return author{}, err
	}
	return author{name: p.DisplayName, email: p.Email}, nil
}

func (g *commentGenerator) customers(ctx context.Context) []backend.User {
	users, err := g.deps.Store.FetchUsersByRole(ctx, roleCustomer)
	if err != nil {
		g.log.Warn().Err(err).Msg("fetch reviewers")
		return nil
	}
	return users
}

// threadingEnabled follows the configured mode. In site mode a setting the
// store does not expose, or cannot read, counts as on.
func (g *commentGenerator) threadingEnabled(ctx context.Context) bool {
	switch g.cfg.Threading {
	case ThreadingOn:
		return true
	case ThreadingOff:
		return false
	}

	v, err := g.deps.Store.FetchSiteSetting(ctx, "thread_comments")
	switch {
	case errors.Is(err, backend.ErrSettingNotExposed):
		g.log.Warn().Msg("thread_comments not exposed by the site, threading on")
		return true
	case err != nil:
		g.log.Warn().Err(err).Msg("fetch thread_comments, threading on")
		return true
	}
	return truthy(v)
}
