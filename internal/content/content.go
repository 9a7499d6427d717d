// Package content composes titles and bodies for generated records from a
// primary source with an optional fallback.
package content

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/zarlcorp/zseed/internal/corpus"
	"github.com/zarlcorp/zseed/internal/remote"
	"github.com/zarlcorp/zseed/internal/sanitize"
)

// ErrUnavailable is returned when no configured source produced content.
// It is the same sentinel the remote fetchers use.
var ErrUnavailable = remote.ErrUnavailable

// ErrUnknownSource is returned when a source name is not recognised.
var ErrUnknownSource = errors.New("unknown content source")

// DefaultTitleWords is the title length used when none is configured.
const DefaultTitleWords = 3

// Source names where titles and bodies come from.
type Source string

const (
	SourceRemote  Source = "remote"  // datamuse titles, bacon ipsum bodies
	SourceHipster Source = "hipster" // datamuse titles, hipster ipsum bodies
	SourceLocal   Source = "local"   // title and content corpora
	SourceFaker   Source = "faker"   // offline gofakeit text
)

// Sources lists every known source.
var Sources = []Source{SourceRemote, SourceHipster, SourceLocal, SourceFaker}

// ParseSource validates a source name. The empty string yields "".
func ParseSource(s string) (Source, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, src := range Sources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// Remote is the subset of the remote client the synthesizer uses.
type Remote interface {
	Words(ctx context.Context, p remote.WordParams) ([]string, error)
	BaconIpsum(ctx context.Context, p remote.IpsumParams) (string, error)
	HipsterIpsum(ctx context.Context, p remote.IpsumParams) (string, error)
}

// Lines is the subset of the corpus reader the synthesizer uses.
type Lines interface {
	Lines(name string) ([]string, error)
	RandomLine(name string) (string, error)
}

// BodyParams tunes body length. Sentences, when set, asks for a single
// short passage instead of paragraphs.
type BodyParams struct {
	Paragraphs int
	Sentences  int
}

// Config selects the sources.
type Config struct {
	Primary    Source // defaults to local
	Fallback   Source // empty for none
	TitleWords int    // defaults to 3
}

// Synthesizer produces titles and bodies.
type Synthesizer struct {
	cfg    Config
	remote Remote
	lines  Lines
	rng    *rand.Rand
	faker  *gofakeit.Faker
	log    zerolog.Logger

	titleBypass func(ctx context.Context, words int) string
	bodyBypass  func(ctx context.Context, p BodyParams) string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger used to report source fall-through.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

// WithTitleBypass installs a hook that may supply a title. A non-empty
// return is used verbatim and synthesis is skipped.
func WithTitleBypass(fn func(ctx context.Context, words int) string) Option {
	return func(s *Synthesizer) { s.titleBypass = fn }
}

// WithBodyBypass installs a hook that may supply a body. A non-empty
// return is used verbatim and synthesis is skipped.
func WithBodyBypass(fn func(ctx context.Context, p BodyParams) string) Option {
	return func(s *Synthesizer) { s.bodyBypass = fn }
}

// New creates a synthesizer. remote may be nil when neither the primary
// nor the fallback needs it.
func New(cfg Config, rem Remote, lines Lines, rng *rand.Rand, opts ...Option) *Synthesizer {
	if cfg.Primary == "" {
		cfg.Primary = SourceLocal
	}
	if cfg.TitleWords <= 0 {
		cfg.TitleWords = DefaultTitleWords
	}
	if cfg.Fallback == cfg.Primary {
		cfg.Fallback = ""
	}

	s := &Synthesizer{
		cfg:    cfg,
		remote: rem,
		lines:  lines,
		rng:    rng,
		faker:  gofakeit.New(rng.Uint64()),
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TitleWords returns the configured title length.
func (s *Synthesizer) TitleWords() int {
	return s.cfg.TitleWords
}

// Title synthesizes a title of words words from the configured sources.
func (s *Synthesizer) Title(ctx context.Context, words int) (string, error) {
	if s.titleBypass != nil {
		if t := s.titleBypass(ctx, words); t != "" {
			return t, nil
		}
	}
	return withFallback(s, "title", func(src Source) (string, error) {
		return s.title(ctx, words, src)
	})
}

// TitleFrom synthesizes a title from one specific source, without fallback.
func (s *Synthesizer) TitleFrom(ctx context.Context, words int, src Source) (string, error) {
	if s.titleBypass != nil {
		if t := s.titleBypass(ctx, words); t != "" {
			return t, nil
		}
	}
	return s.title(ctx, words, src)
}

// Body synthesizes body text from the configured sources.
func (s *Synthesizer) Body(ctx context.Context, p BodyParams) (string, error) {
	if s.bodyBypass != nil {
		if b := s.bodyBypass(ctx, p); b != "" {
			return b, nil
		}
	}
	return withFallback(s, "body", func(src Source) (string, error) {
		return s.body(ctx, p, src)
	})
}

// BodyFrom synthesizes body text from one specific source, without fallback.
func (s *Synthesizer) BodyFrom(ctx context.Context, p BodyParams, src Source) (string, error) {
	if s.bodyBypass != nil {
		if b := s.bodyBypass(ctx, p); b != "" {
			return b, nil
		}
	}
	return s.body(ctx, p, src)
}

// withFallback runs fn against the primary source, then once against the
// fallback when the primary was unavailable.
func withFallback(s *Synthesizer, what string, fn func(Source) (string, error)) (string, error) {
	out, err := fn(s.cfg.Primary)
	if err == nil {
		return out, nil
	}
	if s.cfg.Fallback == "" || !errors.Is(err, ErrUnavailable) {
		return "", err
	}

	s.log.Warn().Err(err).
		Str("primary", string(s.cfg.Primary)).
		Str("fallback", string(s.cfg.Fallback)).
		Msgf("%s source unavailable, falling back", what)

	out, ferr := fn(s.cfg.Fallback)
	if ferr != nil {
		return "", fmt.Errorf("%s: primary: %w; fallback: %w", what, err, ferr)
	}
	return out, nil
}

func (s *Synthesizer) title(ctx context.Context, words int, src Source) (string, error) {
	candidates, err := s.candidates(ctx, words, src)
	if err != nil {
		return "", err
	}

	n := words
	if n < 2 {
		n = 1
	}

	pool := splitWords(candidates)
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	pool = pool[:min(n, len(pool))]

	t := sanitize.Title(strings.Join(pool, " "))
	if t == "" {
		return "", fmt.Errorf("title from %s: %w: no usable words", src, ErrUnavailable)
	}
	return t, nil
}

// splitWords strips markup from candidate entries and breaks multi-word
// phrases into single words.
func splitWords(candidates []string) []string {
	var words []string
	for _, c := range candidates {
		words = append(words, strings.Fields(sanitize.Line(c))...)
	}
	return words
}

// candidates returns a fresh slice of candidate title entries. Entries may
// be phrases.
func (s *Synthesizer) candidates(ctx context.Context, words int, src Source) ([]string, error) {
	switch src {
	case SourceRemote, SourceHipster:
		if s.remote == nil {
			return nil, fmt.Errorf("title from %s: %w: no remote client", src, ErrUnavailable)
		}
		w, err := s.remote.Words(ctx, remote.WordParams{})
		if err != nil {
			return nil, fmt.Errorf("title from %s: %w", src, err)
		}
		return w, nil
	case SourceLocal:
		w, err := s.lines.Lines(corpus.Title)
		if err != nil {
			return nil, fmt.Errorf("title from %s: %w: %w", src, ErrUnavailable, err)
		}
		return w, nil
	case SourceFaker:
		n := max(words, 1) * 4
		w := make([]string, n)
		for i := range w {
			w[i] = s.faker.Word()
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, src)
	}
}

func (s *Synthesizer) body(ctx context.Context, p BodyParams, src Source) (string, error) {
	var (
		raw string
		err error
	)

	switch src {
	case SourceRemote, SourceHipster:
		if s.remote == nil {
			return "", fmt.Errorf("body from %s: %w: no remote client", src, ErrUnavailable)
		}
		ip := remote.IpsumParams{Paragraphs: p.Paragraphs, Sentences: p.Sentences}
		if src == SourceRemote {
			raw, err = s.remote.BaconIpsum(ctx, ip)
		} else {
			raw, err = s.remote.HipsterIpsum(ctx, ip)
		}
		if err != nil {
			return "", fmt.Errorf("body from %s: %w", src, err)
		}
	case SourceLocal:
		raw, err = s.localBody(p)
		if err != nil {
			return "", fmt.Errorf("body from %s: %w: %w", src, ErrUnavailable, err)
		}
	case SourceFaker:
		raw = s.fakerBody(p)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, src)
	}

	b := sanitize.StripTags(raw)
	if b == "" {
		return "", fmt.Errorf("body from %s: %w: empty text", src, ErrUnavailable)
	}
	return b, nil
}

func (s *Synthesizer) localBody(p BodyParams) (string, error) {
	if p.Sentences > 0 {
		return s.lines.RandomLine(corpus.Content)
	}

	n := p.Paragraphs
	if n <= 0 {
		n = 2 + s.rng.IntN(4)
	}

	paras := make([]string, 0, n)
	for range n {
		l, err := s.lines.RandomLine(corpus.Content)
		if err != nil {
			return "", err
		}
		paras = append(paras, l)
	}
	return strings.Join(paras, "\n\n"), nil
}

func (s *Synthesizer) fakerBody(p BodyParams) string {
	if p.Sentences > 0 {
		return s.faker.Paragraph(1, p.Sentences, 8+s.rng.IntN(8), "")
	}

	n := p.Paragraphs
	if n <= 0 {
		n = 2 + s.rng.IntN(4)
	}
	return s.faker.Paragraph(n, 3+s.rng.IntN(4), 8+s.rng.IntN(8), "\n\n")
}
