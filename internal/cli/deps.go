package cli

import (
	"errors"

	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/zseed/internal/backend"
	"github.com/zarlcorp/zseed/internal/content"
	"github.com/zarlcorp/zseed/internal/corpus"
	"github.com/zarlcorp/zseed/internal/generate"
	"github.com/zarlcorp/zseed/internal/identity"
	"github.com/zarlcorp/zseed/internal/remote"
	"github.com/zarlcorp/zseed/internal/wordpress"
)

// ErrNoSite is returned when a command needs a site and none is configured.
var ErrNoSite = errors.New("no site configured: set ZSEED_SITE_URL or pass --dry-run")

func (a *app) corpus() *corpus.Reader {
	if a.cfg.CorpusDir != "" {
		return corpus.New(zfilesystem.NewOSFileSystem(a.cfg.CorpusDir), a.rng)
	}
	return corpus.Default(a.rng)
}

func (a *app) remote() *remote.Client {
	return remote.NewClient(a.cfg.Remote, a.rng)
}

func (a *app) people(lines *corpus.Reader) *identity.Synthesizer {
	return identity.New(lines, a.rng, identity.WithClock(a.now))
}

func (a *app) text(lines *corpus.Reader, rem *remote.Client) *content.Synthesizer {
	return content.New(a.cfg.Content, rem, lines, a.rng, content.WithLogger(a.log))
}

// store returns the in-memory sample site for dry runs and the REST
// client otherwise.
func (a *app) store() (backend.Store, error) {
	if a.dryRun {
		return backend.NewSampleMemory(a.rng, a.now()), nil
	}
	if a.cfg.Site.SiteURL == "" {
		return nil, ErrNoSite
	}
	return wordpress.NewClient(a.cfg.Site, a.rng), nil
}

// orchestrator wires the configured collaborators. noImages disables
// featured images for this invocation.
func (a *app) orchestrator(noImages bool) (*generate.Orchestrator, error) {
	st, err := a.store()
	if err != nil {
		return nil, err
	}

	lines := a.corpus()
	rem := a.remote()

	deps := generate.Deps{
		Store:  st,
		People: a.people(lines),
		Text:   a.text(lines, rem),
		Rand:   a.rng,
		Now:    a.now,
		Log:    a.log,
	}

	cfg := a.cfg.Generate()
	if noImages {
		cfg.NoImages = true
	}
	if !cfg.NoImages {
		deps.Images = rem
	}

	return generate.New(cfg, deps), nil
}
