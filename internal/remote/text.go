package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/zarlcorp/zseed/internal/sanitize"
)

// WordParams tunes a datamuse lookup.
type WordParams struct {
	Phrase string // overrides the configured seed phrase
	Max    int    // result cap, defaults to 250
}

// IpsumParams tunes a filler-text request. Sentences, when set, replaces
// paragraphs; with neither set a random 2 to 5 paragraphs are requested.
type IpsumParams struct {
	Paragraphs int
	Sentences  int
}

// Words returns a shuffled list of words related to the seed phrase.
func (c *Client) Words(ctx context.Context, p WordParams) ([]string, error) {
	phrase := p.Phrase
	if phrase == "" {
		phrase = c.phrase
	}
	limit := p.Max
	if limit <= 0 {
		limit = 250
	}

	q := url.Values{}
	q.Set("ml", phrase)
	q.Set("max", strconv.Itoa(limit))

	body, _, err := c.get(ctx, c.datamuseURL+"?"+q.Encode(), maxTextBody)
	if err != nil {
		return nil, fmt.Errorf("words: %w", err)
	}

	var resp []datamuseWord
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("words: %w: unmarshal: %w", ErrUnavailable, err)
	}

	words := make([]string, 0, len(resp))
	for _, w := range resp {
		if v := sanitize.Line(w.Word); v != "" {
			words = append(words, v)
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("words: %w: no words in response", ErrUnavailable)
	}

	c.rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	return words, nil
}

// BaconIpsum returns meat-and-filler paragraphs.
func (c *Client) BaconIpsum(ctx context.Context, p IpsumParams) (string, error) {
	text, err := c.ipsum(ctx, c.baconURL, "meat-and-filler", p)
	if err != nil {
		return "", fmt.Errorf("bacon ipsum: %w", err)
	}
	return text, nil
}

// HipsterIpsum returns hipster-latin paragraphs.
func (c *Client) HipsterIpsum(ctx context.Context, p IpsumParams) (string, error) {
	text, err := c.ipsum(ctx, c.hipsumURL, "hipster-latin", p)
	if err != nil {
		return "", fmt.Errorf("hipster ipsum: %w", err)
	}
	return text, nil
}

func (c *Client) ipsum(ctx context.Context, base, style string, p IpsumParams) (string, error) {
	q := url.Values{}
	q.Set("type", style)
	q.Set("format", "text")
	switch {
	case p.Sentences > 0:
		q.Set("sentences", strconv.Itoa(p.Sentences))
	case p.Paragraphs > 0:
		q.Set("paras", strconv.Itoa(p.Paragraphs))
	default:
		q.Set("paras", strconv.Itoa(2+c.rng.IntN(4)))
	}

	body, _, err := c.get(ctx, base+"?"+q.Encode(), maxTextBody)
	if err != nil {
		return "", err
	}

	text := paragraphs(body)
	if text == "" {
		return "", fmt.Errorf("%w: no text in response", ErrUnavailable)
	}
	return text, nil
}

// paragraphs accepts either plain text or a JSON array of paragraphs.
func paragraphs(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if strings.HasPrefix(raw, "[") {
		var paras []string
		if err := json.Unmarshal([]byte(raw), &paras); err == nil {
			raw = strings.Join(paras, "\n\n")
		}
	}
	return sanitize.StripTags(raw)
}

type datamuseWord struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}
