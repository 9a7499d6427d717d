// Package corpus reads line-delimited text files of candidate values, one
// file per fake-data field, and hands out random entries.
package corpus

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"strings"

	"github.com/zarlcorp/zseed/internal/sanitize"
)

// Corpus names shipped with the tool.
const (
	FirstName    = "first-name"
	LastName     = "last-name"
	StreetName   = "street-name"
	CityStateZip = "city-state-zip"
	Title        = "title"
	Content      = "content"
)

var (
	// ErrCorpusMissing is returned when the backing file does not exist.
	ErrCorpusMissing = errors.New("corpus missing")

	// ErrCorpusEmpty is returned when a corpus has no usable lines.
	ErrCorpusEmpty = errors.New("corpus empty")
)

//go:embed data/*.txt
var defaultData embed.FS

// FS is the read side of a corpus filesystem. zfilesystem filesystems
// satisfy it.
type FS interface {
	ReadFile(name string) ([]byte, error)
}

type embedded struct{}

func (embedded) ReadFile(name string) ([]byte, error) {
	return defaultData.ReadFile("data/" + name)
}

// Reader loads corpora lazily and caches their cleaned lines.
type Reader struct {
	fsys  FS
	rng   *rand.Rand
	cache map[string][]string
}

// New creates a reader over fsys. Corpus "name" lives in "name.txt" at the
// root of fsys.
func New(fsys FS, rng *rand.Rand) *Reader {
	return &Reader{
		fsys:  fsys,
		rng:   rng,
		cache: make(map[string][]string),
	}
}

// Default creates a reader over the embedded corpora.
func Default(rng *rand.Rand) *Reader {
	return New(embedded{}, rng)
}

// RandomLine returns one uniformly chosen line from the named corpus.
func (r *Reader) RandomLine(name string) (string, error) {
	lines, err := r.load(name)
	if err != nil {
		return "", err
	}
	return lines[r.rng.IntN(len(lines))], nil
}

// Lines returns a copy of every usable line in the named corpus.
func (r *Reader) Lines(name string) ([]string, error) {
	lines, err := r.load(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}

func (r *Reader) load(name string) ([]string, error) {
	if lines, ok := r.cache[name]; ok {
		return lines, nil
	}

	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("corpus %q: %w", name, ErrCorpusMissing)
	}

	data, err := r.fsys.ReadFile(name + ".txt")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("corpus %q: %w", name, ErrCorpusMissing)
		}
		return nil, fmt.Errorf("corpus %q: read: %w", name, err)
	}

	lines := parse(string(data))
	if len(lines) == 0 {
		return nil, fmt.Errorf("corpus %q: %w", name, ErrCorpusEmpty)
	}

	r.cache[name] = lines
	return lines, nil
}

// parse splits raw file contents into trimmed, markup-free, non-blank lines.
func parse(raw string) []string {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = sanitize.Line(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
