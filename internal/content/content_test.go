package content

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/zarlcorp/zseed/internal/corpus"
	"github.com/zarlcorp/zseed/internal/remote"
)

type fakeRemote struct {
	words     []string
	wordsErr  error
	bacon     string
	hipster   string
	ipsumErr  error
	lastIpsum remote.IpsumParams
	calls     int
}

func (f *fakeRemote) Words(_ context.Context, _ remote.WordParams) ([]string, error) {
	f.calls++
	if f.wordsErr != nil {
		return nil, f.wordsErr
	}
	return append([]string(nil), f.words...), nil
}

func (f *fakeRemote) BaconIpsum(_ context.Context, p remote.IpsumParams) (string, error) {
	f.calls++
	f.lastIpsum = p
	return f.bacon, f.ipsumErr
}

func (f *fakeRemote) HipsterIpsum(_ context.Context, p remote.IpsumParams) (string, error) {
	f.calls++
	f.lastIpsum = p
	return f.hipster, f.ipsumErr
}

type fakeLines map[string][]string

func (f fakeLines) Lines(name string) ([]string, error) {
	l, ok := f[name]
	if !ok {
		return nil, corpus.ErrCorpusMissing
	}
	return append([]string(nil), l...), nil
}

func (f fakeLines) RandomLine(name string) (string, error) {
	l, ok := f[name]
	if !ok {
		return "", corpus.ErrCorpusMissing
	}
	return l[0], nil
}

var localLines = fakeLines{
	corpus.Title:   {"alpha", "bravo", "charlie", "delta", "echo"},
	corpus.Content: {"A paragraph."},
}

func newRNG() *rand.Rand { return rand.New(rand.NewPCG(7, 7)) }

func isTitleCased(s string) bool {
	for _, w := range strings.Fields(s) {
		if w[0] < 'A' || w[0] > 'Z' {
			return false
		}
	}
	return true
}

func TestTitleWordCount(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{1, 1},
		{-3, 1},
		{2, 2},
		{3, 3},
		{5, 5},
		{9, 5}, // fewer candidates than requested
	}

	for _, src := range []Source{SourceLocal, SourceRemote} {
		for _, tt := range tests {
			s := New(Config{Primary: src}, &fakeRemote{words: []string{"one", "two", "three", "four", "five"}}, localLines, newRNG())

			title, err := s.Title(context.Background(), tt.words)
			if err != nil {
				t.Fatalf("%s title(%d): %v", src, tt.words, err)
			}

			if got := len(strings.Fields(title)); got != tt.want {
				t.Errorf("%s title(%d) = %q: got %d words, want %d", src, tt.words, title, got, tt.want)
			}
			if !isTitleCased(title) {
				t.Errorf("%s title(%d) = %q: not title-cased", src, tt.words, title)
			}
		}
	}
}

func TestFakerTitleOffline(t *testing.T) {
	s := New(Config{Primary: SourceFaker}, nil, nil, newRNG())

	title, err := s.Title(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(strings.Fields(title)) < 3 {
		t.Errorf("title %q: want at least 3 words", title)
	}
}

func TestSameSeedSameTitle(t *testing.T) {
	a := New(Config{Primary: SourceFaker}, nil, nil, newRNG())
	b := New(Config{Primary: SourceFaker}, nil, nil, newRNG())

	ta, _ := a.Title(context.Background(), 3)
	tb, _ := b.Title(context.Background(), 3)
	if ta != tb {
		t.Errorf("titles differ: %q vs %q", ta, tb)
	}
}

func TestTitleFromLocalUsesCorpus(t *testing.T) {
	s := New(Config{}, nil, localLines, newRNG())

	title, err := s.TitleFrom(context.Background(), 2, SourceLocal)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range strings.Fields(title) {
		found := false
		for _, c := range localLines[corpus.Title] {
			if strings.EqualFold(c, w) {
				found = true
			}
		}
		if !found {
			t.Errorf("word %q not from title corpus", w)
		}
	}
}

func TestTitleStripsMarkup(t *testing.T) {
	s := New(Config{Primary: SourceLocal}, nil, fakeLines{corpus.Title: {"<b>bold</b>"}}, newRNG())

	title, err := s.Title(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if title != "Bold" {
		t.Errorf("got %q, want %q", title, "Bold")
	}
}

func TestTitleSplitsPhrases(t *testing.T) {
	phrases := []string{"be beautiful", "nothing hurt", "wonderful life", "so it goes"}

	for _, src := range []Source{SourceRemote, SourceLocal} {
		for _, words := range []int{0, 1, 2, 3, 5, 9} {
			rem := &fakeRemote{words: phrases}
			lines := fakeLines{corpus.Title: phrases}
			s := New(Config{Primary: src}, rem, lines, newRNG())

			title, err := s.Title(context.Background(), words)
			if err != nil {
				t.Fatalf("%s title(%d): %v", src, words, err)
			}

			want := min(max(words, 1), 9)
			if got := len(strings.Fields(title)); got != want {
				t.Errorf("%s title(%d) = %q: got %d words, want %d", src, words, title, got, want)
			}
		}
	}
}

func TestFallback(t *testing.T) {
	rem := &fakeRemote{wordsErr: remote.ErrUnavailable, ipsumErr: remote.ErrUnavailable}
	s := New(Config{Primary: SourceRemote, Fallback: SourceLocal}, rem, localLines, newRNG())

	title, err := s.Title(context.Background(), 2)
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if len(strings.Fields(title)) != 2 {
		t.Errorf("title %q: want 2 words", title)
	}

	body, err := s.Body(context.Background(), BodyParams{Paragraphs: 1})
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if body != "A paragraph." {
		t.Errorf("body: got %q", body)
	}

	// one attempt each, no retries
	if rem.calls != 2 {
		t.Errorf("remote calls: got %d, want 2", rem.calls)
	}
}

func TestBothSourcesUnavailable(t *testing.T) {
	rem := &fakeRemote{wordsErr: remote.ErrUnavailable, ipsumErr: remote.ErrUnavailable}
	s := New(Config{Primary: SourceRemote, Fallback: SourceHipster}, rem, localLines, newRNG())

	if _, err := s.Title(context.Background(), 3); !errors.Is(err, ErrUnavailable) {
		t.Errorf("title: got %v, want ErrUnavailable", err)
	}
	if _, err := s.Body(context.Background(), BodyParams{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("body: got %v, want ErrUnavailable", err)
	}
}

func TestNoFallbackConfigured(t *testing.T) {
	rem := &fakeRemote{wordsErr: remote.ErrUnavailable}
	s := New(Config{Primary: SourceRemote}, rem, localLines, newRNG())

	if _, err := s.Title(context.Background(), 3); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	if rem.calls != 1 {
		t.Errorf("calls: got %d, want 1", rem.calls)
	}
}

func TestMissingCorpusIsUnavailable(t *testing.T) {
	s := New(Config{Primary: SourceLocal}, nil, fakeLines{}, newRNG())

	_, err := s.Title(context.Background(), 3)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
	if !errors.Is(err, corpus.ErrCorpusMissing) {
		t.Errorf("got %v, want ErrCorpusMissing in chain", err)
	}
}

func TestRemoteWithoutClient(t *testing.T) {
	s := New(Config{Primary: SourceRemote, Fallback: SourceLocal}, nil, localLines, newRNG())

	if _, err := s.Title(context.Background(), 1); err != nil {
		t.Fatalf("fallback should cover a missing client: %v", err)
	}
}

func TestBodySources(t *testing.T) {
	rem := &fakeRemote{bacon: "Bacon <i>ipsum</i>.\n\nJerky.", hipster: "Kale chips."}

	tests := []struct {
		src  Source
		want string
	}{
		{SourceRemote, "Bacon ipsum.\n\nJerky."},
		{SourceHipster, "Kale chips."},
	}

	for _, tt := range tests {
		s := New(Config{Primary: tt.src}, rem, localLines, newRNG())
		got, err := s.Body(context.Background(), BodyParams{Paragraphs: 2})
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.src, got, tt.want)
		}
		if rem.lastIpsum.Paragraphs != 2 {
			t.Errorf("%s: paragraphs passed %d, want 2", tt.src, rem.lastIpsum.Paragraphs)
		}
	}
}

func TestLocalBodyParagraphs(t *testing.T) {
	s := New(Config{Primary: SourceLocal}, nil, localLines, newRNG())

	body, err := s.Body(context.Background(), BodyParams{Paragraphs: 3})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(strings.Split(body, "\n\n")); got != 3 {
		t.Errorf("paragraphs: got %d, want 3", got)
	}

	body, err = s.Body(context.Background(), BodyParams{Sentences: 4})
	if err != nil {
		t.Fatal(err)
	}
	if body != "A paragraph." {
		t.Errorf("sentences body: got %q", body)
	}
}

func TestFakerBody(t *testing.T) {
	s := New(Config{Primary: SourceFaker}, nil, nil, newRNG())

	body, err := s.Body(context.Background(), BodyParams{Paragraphs: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(strings.Split(body, "\n\n")); got != 2 {
		t.Errorf("paragraphs: got %d, want 2 (%q)", got, body)
	}

	short, err := s.Body(context.Background(), BodyParams{Sentences: 2})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(short, "\n\n") {
		t.Errorf("sentence body should be a single passage: %q", short)
	}
}

func TestBypass(t *testing.T) {
	rem := &fakeRemote{}
	s := New(Config{Primary: SourceRemote}, rem, localLines, newRNG(),
		WithTitleBypass(func(_ context.Context, words int) string {
			if words == 7 {
				return "<em>custom</em> title"
			}
			return ""
		}),
		WithBodyBypass(func(context.Context, BodyParams) string { return "custom body" }),
	)

	title, err := s.Title(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if title != "<em>custom</em> title" {
		t.Errorf("bypass title should be returned unchanged, got %q", title)
	}

	body, err := s.BodyFrom(context.Background(), BodyParams{}, SourceHipster)
	if err != nil {
		t.Fatal(err)
	}
	if body != "custom body" {
		t.Errorf("body: got %q", body)
	}
	if rem.calls != 0 {
		t.Errorf("bypass should skip synthesis, got %d remote calls", rem.calls)
	}

	// empty bypass result falls through to synthesis
	rem.words = []string{"sea"}
	title, err = s.Title(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if title != "Sea" {
		t.Errorf("got %q, want %q", title, "Sea")
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"", "", false},
		{"remote", SourceRemote, false},
		{" Local ", SourceLocal, false},
		{"FAKER", SourceFaker, false},
		{"hipster", SourceHipster, false},
		{"wikipedia", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSource(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownSource) {
				t.Errorf("ParseSource(%q): got %v, want ErrUnknownSource", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSource(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDefaults(t *testing.T) {
	s := New(Config{}, nil, localLines, newRNG())
	if s.TitleWords() != DefaultTitleWords {
		t.Errorf("title words: got %d", s.TitleWords())
	}
	if s.cfg.Primary != SourceLocal {
		t.Errorf("primary: got %q", s.cfg.Primary)
	}
}
