package backend

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store for dry runs and tests. It can be told to
// fail or to drop identifiers after a number of successful inserts.
type Memory struct {
	mu  sync.Mutex
	rng *rand.Rand

	nextID   int64
	items    map[int64]ContentItem
	order    []int64
	comments []Comment
	users    []User
	terms    []Term
	links    map[Object]map[string][]int64
	meta     map[Object]map[string]string
	settings map[string]string
	media    map[int64]Media
	featured map[int64]int64

	inserts   int
	failAfter int
	failErr   *Error
	zeroAfter int
}

// NewMemory creates an empty store. rng drives random fetches.
func NewMemory(rng *rand.Rand) *Memory {
	return &Memory{
		rng:       rng,
		items:     make(map[int64]ContentItem),
		links:     make(map[Object]map[string][]int64),
		meta:      make(map[Object]map[string]string),
		settings:  make(map[string]string),
		media:     make(map[int64]Media),
		featured:  make(map[int64]int64),
		failAfter: -1,
		zeroAfter: -1,
	}
}

// NewSampleMemory creates a store pre-populated like a fresh site with a
// shop: settings, categories, product terms, a few open posts and products.
func NewSampleMemory(rng *rand.Rand, now time.Time) *Memory {
	m := NewMemory(rng)

	m.SetSetting("default_role", "subscriber")
	m.SetSetting("thread_comments", "1")
	m.SetSetting("default_category", "1")

	for _, name := range []string{"Uncategorized", "News", "Travel", "Recipes"} {
		m.AddTerm(TaxCategory, name)
	}
	for _, name := range []string{"Clothing", "Music", "Decor"} {
		m.AddTerm(TaxProductCat, name)
	}
	for _, name := range []string{"simple", "grouped", "variable", "external"} {
		m.AddTerm(TaxProductType, name)
	}

	for i, title := range []string{"Hello world", "Sample post", "Notes from the road"} {
		m.AddContentItem(ContentItem{
			Type:          TypePost,
			Title:         title,
			Status:        StatusPublish,
			CommentStatus: CommentOpen,
			Date:          now.Add(-time.Duration(i+2) * 7 * 24 * time.Hour),
		})
	}
	for i, title := range []string{"Beanie", "Album", "Poster"} {
		m.AddContentItem(ContentItem{
			Type:          TypeProduct,
			Title:         title,
			Status:        StatusPublish,
			CommentStatus: CommentOpen,
			Date:          now.Add(-time.Duration(i+2) * 24 * time.Hour),
		})
	}

	return m
}

// FailInsertAfter makes every insert after the first n successful ones
// fail with err. A nil err uses a generic database error.
func (m *Memory) FailInsertAfter(n int, err *Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = &Error{Code: "db_insert_error", Message: "could not insert record into the database"}
	}
	m.failAfter = n
	m.failErr = err
}

// ZeroIDAfter makes every insert after the first n successful ones return
// id 0 without storing anything.
func (m *Memory) ZeroIDAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zeroAfter = n
}

// SetSetting sets a site setting.
func (m *Memory) SetSetting(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
}

// AddTerm adds a taxonomy term and returns it.
func (m *Memory) AddTerm(taxonomy, name string) Term {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := Term{
		ID:       m.id(),
		Taxonomy: taxonomy,
		Name:     name,
		Slug:     strings.ToLower(strings.ReplaceAll(name, " ", "-")),
	}
	m.terms = append(m.terms, t)
	return t
}

// AddContentItem stores an item without counting it as an insert.
func (m *Memory) AddContentItem(item ContentItem) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putItem(item)
}

// AddUser stores a user without counting it as an insert.
func (m *Memory) AddUser(u User) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users = append(m.users, u)
	return u.ID
}

// InsertContentItem implements Store.
func (m *Memory) InsertContentItem(_ context.Context, item ContentItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok, err := m.admit(); !ok {
		return 0, err
	}
	return m.putItem(item), nil
}

// InsertComment implements Store.
func (m *Memory) InsertComment(_ context.Context, c Comment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[c.PostID]; !ok {
		return 0, &Error{Code: "rest_comment_invalid_post_id", Message: fmt.Sprintf("no item %d", c.PostID), Status: 403}
	}
	if ok, err := m.admit(); !ok {
		return 0, err
	}
	c.ID = m.id()
	m.comments = append(m.comments, c)
	return c.ID, nil
}

// InsertUser implements Store.
func (m *Memory) InsertUser(_ context.Context, u User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Login == u.Login {
			return 0, &Error{Code: "existing_user_login", Message: "sorry, that username already exists", Status: 500}
		}
	}
	if ok, err := m.admit(); !ok {
		return 0, err
	}
	u.ID = m.id()
	m.users = append(m.users, u)
	return u.ID, nil
}

// AssignTerms implements Store.
func (m *Memory) AssignTerms(_ context.Context, item Object, taxonomy string, termIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return &Error{Code: "rest_post_invalid_id", Message: fmt.Sprintf("no item %d", item.ID), Status: 404}
	}
	key := Object{Kind: KindContent, ID: item.ID}
	if m.links[key] == nil {
		m.links[key] = make(map[string][]int64)
	}
	m.links[key][taxonomy] = append(m.links[key][taxonomy], termIDs...)
	return nil
}

// SetMeta implements Store.
func (m *Memory) SetMeta(_ context.Context, obj Object, meta map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := Object{Kind: obj.Kind, ID: obj.ID}
	if m.meta[key] == nil {
		m.meta[key] = make(map[string]string, len(meta))
	}
	for k, v := range meta {
		m.meta[key][k] = v
	}
	return nil
}

// FetchRandomContentItems implements Store. Only published items are
// returned.
func (m *Memory) FetchRandomContentItems(_ context.Context, itemType string, limit int) ([]ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ContentItem
	for _, id := range m.order {
		it := m.items[id]
		if it.Type == itemType && it.Status == StatusPublish {
			out = append(out, it)
		}
	}
	m.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FetchUsersByRole implements Store.
func (m *Memory) FetchUsersByRole(_ context.Context, role string) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// FetchTerms implements Store.
func (m *Memory) FetchTerms(_ context.Context, taxonomy string) ([]Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Term
	for _, t := range m.terms {
		if t.Taxonomy == taxonomy {
			out = append(out, t)
		}
	}
	return out, nil
}

// FetchSiteSetting implements Store. Unset keys read as "".
func (m *Memory) FetchSiteSetting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[key], nil
}

// UploadMedia implements Store.
func (m *Memory) UploadMedia(_ context.Context, media Media) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(media.Data) == 0 {
		return 0, &Error{Code: "rest_upload_no_data", Message: "no data supplied", Status: 400}
	}
	id := m.id()
	m.media[id] = media
	return id, nil
}

// SetFeaturedImage implements Store.
func (m *Memory) SetFeaturedImage(_ context.Context, item Object, mediaID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.media[mediaID]; !ok {
		return &Error{Code: "rest_invalid_featured_media", Message: fmt.Sprintf("no media %d", mediaID), Status: 400}
	}
	m.featured[item.ID] = mediaID
	return nil
}

// Items returns stored items of one type in insertion order.
func (m *Memory) Items(itemType string) []ContentItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ContentItem
	for _, id := range m.order {
		if it := m.items[id]; it.Type == itemType {
			out = append(out, it)
		}
	}
	return out
}

// Comments returns every stored comment in insertion order.
func (m *Memory) Comments() []Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.comments)
}

// Users returns every stored user in insertion order.
func (m *Memory) Users() []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.users)
}

// Meta returns a copy of the meta stored on an object.
func (m *Memory) Meta(kind ObjectKind, id int64) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for k, v := range m.meta[Object{Kind: kind, ID: id}] {
		out[k] = v
	}
	return out
}

// TermIDs returns the terms assigned to an item in one taxonomy.
func (m *Memory) TermIDs(itemID int64, taxonomy string) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.links[Object{Kind: KindContent, ID: itemID}][taxonomy])
}

// FeaturedImage returns the media id attached to an item, or 0.
func (m *Memory) FeaturedImage(itemID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.featured[itemID]
}

// MediaCount returns the number of uploaded files.
func (m *Memory) MediaCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.media)
}

// admit applies failure injection to an insert. It reports false with the
// error to return, or false with a nil error for a dropped identifier.
func (m *Memory) admit() (bool, error) {
	if m.failAfter >= 0 && m.inserts >= m.failAfter {
		return false, m.failErr
	}
	if m.zeroAfter >= 0 && m.inserts >= m.zeroAfter {
		return false, nil
	}
	m.inserts++
	return true, nil
}

func (m *Memory) putItem(item ContentItem) int64 {
	item.ID = m.id()
	m.items[item.ID] = item
	m.order = append(m.order, item.ID)
	return item.ID
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}
