package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/zarlcorp/zseed/internal/sanitize"
)

// Image describes a random remote image.
type Image struct {
	URL      string
	FileName string
	Title    string
}

// Download holds fetched image bytes ready for sideloading.
type Download struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Image sources.
const (
	ImageDog    = "dog"
	ImageFlickr = "flickr"
	ImageNone   = "none"
)

// ErrUnknownImageSource is returned for an unrecognised image source name.
var ErrUnknownImageSource = errors.New("unknown image source")

// ParseImageSource validates an image source name. The empty string
// selects dog.
func ParseImageSource(s string) (string, error) {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "":
		return ImageDog, nil
	case ImageDog, ImageFlickr, ImageNone:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownImageSource, s)
	}
}

// path segments that carry no meaning for a title
var noiseSegments = map[string]bool{
	"breeds":  true,
	"cache":   true,
	"resized": true,
}

// RandomImage returns a random image from the named source.
func (c *Client) RandomImage(ctx context.Context, source string) (Image, error) {
	switch source {
	case ImageDog, "":
		return c.DogImage(ctx)
	case ImageFlickr:
		return c.FlickrImage(ctx)
	default:
		return Image{}, fmt.Errorf("%w: %q", ErrUnknownImageSource, source)
	}
}

// DogImage returns a random dog photo from dog.ceo.
func (c *Client) DogImage(ctx context.Context) (Image, error) {
	body, _, err := c.get(ctx, c.dogURL, maxTextBody)
	if err != nil {
		return Image{}, fmt.Errorf("dog image: %w", err)
	}

	var resp dogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Image{}, fmt.Errorf("dog image: %w: unmarshal: %w", ErrUnavailable, err)
	}
	if resp.Status != "success" || resp.Message == "" {
		return Image{}, fmt.Errorf("dog image: %w: status %q", ErrUnavailable, resp.Status)
	}

	img, err := newImage(resp.Message, "Dog")
	if err != nil {
		return Image{}, fmt.Errorf("dog image: %w", err)
	}
	return img, nil
}

// FlickrImage returns a random tagged photo from loremflickr.
func (c *Client) FlickrImage(ctx context.Context) (Image, error) {
	tag := strings.TrimSpace(c.tags[c.rng.IntN(len(c.tags))])

	body, _, err := c.get(ctx, c.flickrURL+url.PathEscape(tag), maxTextBody)
	if err != nil {
		return Image{}, fmt.Errorf("flickr image: %w", err)
	}

	var resp flickrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Image{}, fmt.Errorf("flickr image: %w: unmarshal: %w", ErrUnavailable, err)
	}
	if resp.File == "" {
		return Image{}, fmt.Errorf("flickr image: %w: no file in response", ErrUnavailable)
	}

	img, err := newImage(resp.File, tag)
	if err != nil {
		return Image{}, fmt.Errorf("flickr image: %w", err)
	}
	return img, nil
}

// Download fetches the image bytes behind u.
func (c *Client) Download(ctx context.Context, u string) (Download, error) {
	body, header, err := c.get(ctx, u, c.maxImage)
	if err != nil {
		return Download{}, fmt.Errorf("download: %w", err)
	}

	ct := header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(body)
	}
	if !strings.HasPrefix(ct, "image/") {
		return Download{}, fmt.Errorf("download: %w: content type %q is not an image", ErrUnavailable, ct)
	}

	name := "image"
	if parsed, err := url.Parse(u); err == nil && path.Base(parsed.Path) != "/" && path.Base(parsed.Path) != "." {
		name = path.Base(parsed.Path)
	}

	return Download{Data: body, ContentType: ct, FileName: name}, nil
}

func newImage(raw, fallback string) (Image, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Image{}, fmt.Errorf("%w: bad image url %q", ErrUnavailable, raw)
	}

	name := path.Base(u.Path)
	title := Humanize(u.Path)
	if title == "" {
		title = sanitize.Title(fallback)
	}

	return Image{URL: u.String(), FileName: name, Title: title}, nil
}

// Humanize turns an image path into a title: the file name and noise
// segments are dropped, the remaining fragments split on slashes, dashes
// and underscores, and the words capitalised.
// "/breeds/hound-afghan/n02088094_1003.jpg" becomes "Hound Afghan".
func Humanize(p string) string {
	dir := path.Dir(p)

	var words []string
	for _, seg := range strings.Split(dir, "/") {
		if seg == "" || seg == "." || noiseSegments[seg] {
			continue
		}
		for _, w := range strings.FieldsFunc(seg, func(r rune) bool { return r == '-' || r == '_' }) {
			words = append(words, w)
		}
	}

	return sanitize.Title(strings.Join(words, " "))
}

type dogResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type flickrResponse struct {
	File   string `json:"file"`
	Owner  string `json:"owner"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
