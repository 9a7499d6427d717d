// Package store keeps an encrypted history of generation runs in a zstore
// collection on a filesystem.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstore"
	"github.com/zarlcorp/zseed/internal/generate"
)

const runsCollection = "runs"

var (
	// ErrNotFound is returned when no run matches an id.
	ErrNotFound = errors.New("run not found")

	// ErrAmbiguous is returned when an id prefix matches several runs.
	ErrAmbiguous = errors.New("run id is ambiguous")
)

// Run is one recorded generation request.
type Run struct {
	ID          string    `json:"id"`
	Plan        string    `json:"plan,omitempty"`
	Type        string    `json:"type"`
	Requested   int       `json:"requested"`
	Count       int       `json:"count"`
	Code        string    `json:"code,omitempty"`
	BackendCode string    `json:"backend_code,omitempty"`
	Message     string    `json:"message,omitempty"`
	DryRun      bool      `json:"dry_run"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
}

// OK reports whether the run completed without an error code.
func (r Run) OK() bool {
	return r.Code == ""
}

// ShortID is the first block of the run id, enough to address it.
func (r Run) ShortID() string {
	if i := strings.IndexByte(r.ID, '-'); i > 0 {
		return r.ID[:i]
	}
	return r.ID
}

// NewRun builds a run record from a generation result.
func NewRun(res generate.Result, dryRun bool, started, finished time.Time) Run {
	return Run{
		Type:        res.Type,
		Requested:   res.Requested,
		Count:       res.Count,
		Code:        res.Code,
		BackendCode: res.BackendCode,
		Message:     res.Message,
		DryRun:      dryRun,
		Started:     started,
		Finished:    finished,
	}
}

// History is the encrypted run log.
type History struct {
	s    *zstore.Store
	runs *zstore.Collection[Run]
}

// Open opens or initializes the history on fsys. A wrong password fails
// with zstore.ErrWrongPassword.
func Open(fsys zfilesystem.ReadWriteFileFS, password string) (*History, error) {
	s, err := zstore.Open(fsys, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	runs, err := zstore.NewCollection[Run](s, runsCollection)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}

	return &History{s: s, runs: runs}, nil
}

// Record stores a run, assigning it a new id when it has none.
func (h *History) Record(r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := h.runs.Put(r.ID, r); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return r, nil
}

// List returns every run, newest first.
func (h *History) List() ([]Run, error) {
	runs, err := h.runs.List()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	// zstore does not order its listing
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Started.After(runs[j].Started)
	})

	return runs, nil
}

// Get returns the run whose id is id or starts with id.
func (h *History) Get(id string) (Run, error) {
	runs, err := h.List()
	if err != nil {
		return Run{}, err
	}
	return match(runs, id)
}

// Delete removes the run whose id is id or starts with id.
func (h *History) Delete(id string) (Run, error) {
	r, err := h.Get(id)
	if err != nil {
		return Run{}, err
	}
	if err := h.runs.Delete(r.ID); err != nil {
		return Run{}, fmt.Errorf("delete run %s: %w", r.ID, err)
	}
	return r, nil
}

// Close releases the underlying store.
func (h *History) Close() error {
	h.s.Close()
	return nil
}

func match(runs []Run, id string) (Run, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return Run{}, ErrNotFound
	}

	var found []Run
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
		if strings.HasPrefix(r.ID, id) {
			found = append(found, r)
		}
	}

	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s matches %d runs", ErrAmbiguous, id, len(found))
	}
}
