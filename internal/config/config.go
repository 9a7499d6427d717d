// Package config loads zseed's configuration from .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/zarlcorp/zseed/internal/content"
	"github.com/zarlcorp/zseed/internal/generate"
	"github.com/zarlcorp/zseed/internal/remote"
	"github.com/zarlcorp/zseed/internal/wordpress"
)

// ErrInvalid wraps every rejected configuration value.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete application configuration.
type Config struct {
	Site        wordpress.Config
	Content     content.Config
	Remote      remote.Config
	ImageSource string
	Threading   generate.Threading

	CorpusDir string // empty for the embedded corpora
	DataDir   string
	Password  string // history password, prompted for when empty

	DefaultRole            string
	DefaultCategory        int64
	DefaultProductCategory int64

	Seed    uint64
	SeedSet bool

	Limits map[string]generate.Limits
}

// Generate returns the orchestrator configuration.
func (c Config) Generate() generate.Config {
	return generate.Config{
		Limits:                 c.Limits,
		Threading:              c.Threading,
		ImageSource:            c.ImageSource,
		NoImages:               c.ImageSource == remote.ImageNone,
		DefaultRole:            c.DefaultRole,
		DefaultCategory:        c.DefaultCategory,
		DefaultProductCategory: c.DefaultProductCategory,
	}
}

// LogDir is where the rotating log file lives.
func (c Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DataDir returns the default data directory for zseed.
func DataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "zseed")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zseed"
	}
	return filepath.Join(home, ".local", "share", "zseed")
}

// Load reads .env from the binary's directory, then from the working
// directory, and builds the configuration from the environment. Variables
// already set in the environment win over .env files.
func Load() (Config, error) {
	if exe, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(exe), ".env")
		if err := godotenv.Load(path); err == nil {
			log.Debug().Str("path", path).Msg("loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded configuration from working directory")
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from lookup. All invalid values are
// reported together.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}

	cfg := Config{
		Site: wordpress.Config{
			SiteURL:     e.str("ZSEED_SITE_URL", ""),
			User:        e.str("ZSEED_SITE_USER", ""),
			AppPassword: e.str("ZSEED_SITE_APP_PASSWORD", ""),
			Timeout:     e.duration("ZSEED_BACKEND_TIMEOUT", 30*time.Second),
		},
		Content: content.Config{
			Primary:    e.source("ZSEED_CONTENT_SOURCE", content.SourceRemote),
			Fallback:   e.source("ZSEED_CONTENT_FALLBACK", content.SourceLocal),
			TitleWords: e.positive("ZSEED_TITLE_WORDS", content.DefaultTitleWords),
		},
		Remote: remote.Config{
			Timeout:      e.duration("ZSEED_REMOTE_TIMEOUT", 25*time.Second),
			Insecure:     e.boolean("ZSEED_REMOTE_INSECURE", false),
			RateLimit:    e.float("ZSEED_REMOTE_RATE", 0),
			SearchPhrase: e.str("ZSEED_SEARCH_PHRASE", ""),
			FlickrTags:   e.list("ZSEED_FLICKR_TAGS"),
		},
		ImageSource: e.imageSource("ZSEED_IMAGE_SOURCE"),
		Threading:   e.threading("ZSEED_THREADING"),

		CorpusDir: e.str("ZSEED_CORPUS_DIR", ""),
		DataDir:   e.str("ZSEED_DATA_DIR", DataDir()),
		Password:  e.str("ZSEED_PASSWORD", ""),

		DefaultRole:            e.str("ZSEED_DEFAULT_ROLE", ""),
		DefaultCategory:        e.id("ZSEED_DEFAULT_CATEGORY", 1),
		DefaultProductCategory: e.id("ZSEED_DEFAULT_PRODUCT_CATEGORY", 0),

		Limits: e.limits(),
	}

	if v, ok := lookup("ZSEED_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			e.fail("ZSEED_SEED", v, "want an unsigned integer")
		}
		cfg.Seed, cfg.SeedSet = seed, err == nil
	}

	if cfg.Content.Fallback == cfg.Content.Primary {
		cfg.Content.Fallback = ""
	}

	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	return cfg, nil
}

// env reads typed values and collects the errors.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) fail(key, value, want string) {
	e.errs = append(e.errs, fmt.Errorf("%w: %s=%q: %s", ErrInvalid, key, value, want))
}

func (e *env) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *env) str(key, fallback string) string {
	if v, ok := e.get(key); ok {
		return v
	}
	return fallback
}

func (e *env) boolean(key string, fallback bool) bool {
	v, ok := e.get(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, "want true or false")
		return fallback
	}
	return b
}

func (e *env) positive(key string, fallback int) int {
	v, ok := e.get(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		e.fail(key, v, "want a positive integer")
		return fallback
	}
	return n
}

func (e *env) id(key string, fallback int64) int64 {
	v, ok := e.get(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		e.fail(key, v, "want a term id")
		return fallback
	}
	return n
}

func (e *env) float(key string, fallback float64) float64 {
	v, ok := e.get(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		e.fail(key, v, "want a non-negative number")
		return fallback
	}
	return f
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v, ok := e.get(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.fail(key, v, "want a positive duration such as 30s")
		return fallback
	}
	return d
}

func (e *env) list(key string) []string {
	v, ok := e.get(key)
	if !ok {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (e *env) source(key string, fallback content.Source) content.Source {
	v, ok := e.get(key)
	if !ok {
		return fallback
	}
	if strings.EqualFold(v, "none") {
		return ""
	}
	src, err := content.ParseSource(v)
	if err != nil {
		e.fail(key, v, "want one of remote, hipster, local, faker")
		return fallback
	}
	return src
}

func (e *env) imageSource(key string) string {
	v, _ := e.get(key)
	src, err := remote.ParseImageSource(v)
	if err != nil {
		e.fail(key, v, "want dog, flickr or none")
		return remote.ImageDog
	}
	return src
}

func (e *env) threading(key string) generate.Threading {
	v, ok := e.get(key)
	if !ok {
		return generate.ThreadingSite
	}
	switch t := generate.Threading(strings.ToLower(v)); t {
	case generate.ThreadingOn, generate.ThreadingOff, generate.ThreadingSite:
		return t
	}
	e.fail(key, v, "want on, off or site")
	return generate.ThreadingSite
}

// limits reads ZSEED_<TYPE>_CEILING and ZSEED_<TYPE>_DEFAULT for each
// built-in type. Only overridden types are returned.
func (e *env) limits() map[string]generate.Limits {
	out := map[string]generate.Limits{}
	for typ, l := range generate.DefaultLimits() {
		prefix := "ZSEED_" + strings.ToUpper(typ)
		_, hasCeiling := e.get(prefix + "_CEILING")
		_, hasDefault := e.get(prefix + "_DEFAULT")
		if !hasCeiling && !hasDefault {
			continue
		}

		l.Ceiling = e.positive(prefix+"_CEILING", l.Ceiling)
		l.Default = e.positive(prefix+"_DEFAULT", min(l.Default, l.Ceiling))
		if l.Default > l.Ceiling {
			e.fail(prefix+"_DEFAULT", strconv.Itoa(l.Default), fmt.Sprintf("want at most the ceiling %d", l.Ceiling))
			continue
		}
		out[typ] = l
	}
	return out
}
