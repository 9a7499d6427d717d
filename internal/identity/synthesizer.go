package identity

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/zarlcorp/core/pkg/zcrypto"
	"github.com/zarlcorp/zseed/internal/corpus"
	"github.com/zarlcorp/zseed/internal/sanitize"
)

// ErrIdentityDataUnavailable is returned when a corpus draw needed for a
// person fails or yields unusable data.
var ErrIdentityDataUnavailable = errors.New("identity data unavailable")

// LineSource hands out random corpus lines.
type LineSource interface {
	RandomLine(name string) (string, error)
}

// Synthesizer builds Person values. Given the same corpora, seed and clock
// it produces the same sequence of people.
type Synthesizer struct {
	lines LineSource
	rng   *rand.Rand
	now   func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithClock overrides the clock used for registration timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// New creates a synthesizer drawing from lines with randomness from rng.
func New(lines LineSource, rng *rand.Rand, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		lines: lines,
		rng:   rng,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Person synthesizes one fake person. Every field is populated or an error
// wrapping ErrIdentityDataUnavailable is returned.
func (s *Synthesizer) Person() (Person, error) {
	first, err := s.draw(corpus.FirstName)
	if err != nil {
		return Person{}, err
	}
	last, err := s.draw(corpus.LastName)
	if err != nil {
		return Person{}, err
	}
	street, err := s.draw(corpus.StreetName)
	if err != nil {
		return Person{}, err
	}
	place, err := s.draw(corpus.CityStateZip)
	if err != nil {
		return Person{}, err
	}

	city, state, zip, err := splitPlace(place)
	if err != nil {
		return Person{}, err
	}

	key := Key(first, last)
	if key == "" {
		return Person{}, fmt.Errorf("name %q %q has no slug-safe characters: %w", first, last, ErrIdentityDataUnavailable)
	}

	return Person{
		FirstName:   first,
		LastName:    last,
		DisplayName: first + " " + last,
		Login:       key,
		Email:       s.email(key),
		Phone:       s.phone(),
		Street:      s.street(street),
		City:        city,
		State:       state,
		Zip:         zip,
		Registered:  s.registered(),
	}, nil
}

// Key derives the login and email key: the lower-cased first and last name
// run together and reduced to slug-safe characters.
func Key(first, last string) string {
	return sanitize.Slug(strings.ToLower(first + last))
}

// Password generates a random login password for a created account.
func Password(length int) string {
	return zcrypto.GeneratePassword(length)
}

func (s *Synthesizer) draw(name string) (string, error) {
	l, err := s.lines.RandomLine(name)
	if err != nil {
		return "", fmt.Errorf("draw %s: %w: %w", name, ErrIdentityDataUnavailable, err)
	}
	return l, nil
}

// email is key + 4-digit number + the example domain, e.g. janedoe4821@example.com.
func (s *Synthesizer) email(key string) string {
	return key + strconv.Itoa(1000+s.rng.IntN(9000)) + "@" + emailDomain
}

// phone uses the fictional (555) 555 exchange with a random line number.
func (s *Synthesizer) phone() string {
	return fmt.Sprintf("(555) 555-%04d", s.rng.IntN(10000))
}

// street prefixes the corpus street with a 2 to 4 digit house number.
func (s *Synthesizer) street(name string) string {
	return strconv.Itoa(12+s.rng.IntN(9999-12+1)) + " " + name
}

// registered is between one and seven days before now, to the second.
func (s *Synthesizer) registered() time.Time {
	const day = 24 * time.Hour
	offset := day + time.Duration(s.rng.Int64N(int64(6*day/time.Second)+1))*time.Second
	return s.now().Add(-offset).Truncate(time.Second)
}

// splitPlace splits a "city; state; zip" line.
func splitPlace(line string) (city, state, zip string, err error) {
	parts := strings.Split(line, ";")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("city-state-zip %q: want 3 parts, got %d: %w", line, len(parts), ErrIdentityDataUnavailable)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	city = sanitize.Title(parts[0])
	state = strings.ToUpper(parts[1])
	n := sanitize.Int(parts[2])
	if city == "" || state == "" || n == 0 {
		return "", "", "", fmt.Errorf("city-state-zip %q: empty part: %w", line, ErrIdentityDataUnavailable)
	}

	return city, state, strconv.Itoa(n), nil
}
