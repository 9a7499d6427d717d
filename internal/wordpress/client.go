// Package wordpress implements the backend store over the WordPress REST
// API, authenticating with an application password. Products, reviews and
// customers go through the WooCommerce REST API on the same site.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zarlcorp/zseed/internal/backend"
)

// restDate is the layout of the REST API's *_gmt fields.
const restDate = "2006-01-02T15:04:05"

// page size for listing requests, the API maximum
const perPage = 100

// api namespaces under /wp-json
const (
	wpAPI = "/wp/v2"
	wcAPI = "/wc/v3"
)

// Config holds site credentials.
type Config struct {
	SiteURL     string
	User        string
	AppPassword string
	Timeout     time.Duration
}

// Client talks to a site's /wp-json/wp/v2 and /wp-json/wc/v3 endpoints.
type Client struct {
	user     string
	password string
	root     string
	http     *http.Client
	rng      *rand.Rand
}

// NewClient creates a client for the site in cfg. rng shuffles the pages
// returned by random fetches.
func NewClient(cfg Config, rng *rand.Rand) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		user:     cfg.User,
		password: strings.ReplaceAll(cfg.AppPassword, " ", ""),
		root:     strings.TrimRight(cfg.SiteURL, "/") + "/wp-json",
		http:     &http.Client{Timeout: timeout},
		rng:      rng,
	}
}

// InsertContentItem creates a post or product.
func (c *Client) InsertContentItem(ctx context.Context, item backend.ContentItem) (int64, error) {
	if item.Type == backend.TypeProduct {
		return c.insertProduct(ctx, item)
	}

	req := itemRequest{
		Title:         item.Title,
		Content:       item.Content,
		Status:        item.Status,
		CommentStatus: item.CommentStatus,
		Author:        item.Author,
	}
	if !item.Date.IsZero() {
		req.DateGMT = item.Date.UTC().Format(restDate)
	}

	id, err := c.create(ctx, wpAPI+"/"+contentBase(item.Type), req)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", item.Type, err)
	}
	return id, nil
}

// InsertComment creates a comment or review. The comments endpoint treats
// type as read-only, so top-level reviews go through the reviews endpoint.
func (c *Client) InsertComment(ctx context.Context, cm backend.Comment) (int64, error) {
	if cm.Type == backend.CommentTypeReview && cm.Parent == 0 {
		return c.insertReview(ctx, cm)
	}

	req := commentRequest{
		Post:        cm.PostID,
		Parent:      cm.Parent,
		Author:      cm.UserID,
		AuthorName:  cm.Author,
		AuthorEmail: cm.AuthorEmail,
		Content:     cm.Content,
		Status:      "approved",
	}
	if !cm.Date.IsZero() {
		req.DateGMT = cm.Date.UTC().Format(restDate)
	}

	id, err := c.create(ctx, wpAPI+"/comments", req)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

// InsertUser creates a user account, or a customer for the customer role.
// Neither API accepts a registration date, so u.Registered is not sent.
func (c *Client) InsertUser(ctx context.Context, u backend.User) (int64, error) {
	if u.Role == roleCustomer {
		return c.insertCustomer(ctx, u)
	}

	req := userRequest{
		Username:  u.Login,
		Email:     u.Email,
		Password:  u.Password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Name:      u.DisplayName,
		Nickname:  u.Login,
	}
	if u.Role != "" {
		req.Roles = []string{u.Role}
	}

	id, err := c.create(ctx, wpAPI+"/users", req)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// AssignTerms sets the item's terms in one taxonomy.
func (c *Client) AssignTerms(ctx context.Context, item backend.Object, taxonomy string, termIDs []int64) error {
	if item.Kind == backend.KindContent && item.Type == backend.TypeProduct {
		return c.assignProductTerms(ctx, item.ID, taxonomy, termIDs)
	}

	body := map[string]any{taxonomyBase(taxonomy): termIDs}
	if _, err := c.doJSON(ctx, http.MethodPost, c.objectPath(item), body); err != nil {
		return fmt.Errorf("assign %s terms: %w", taxonomy, err)
	}
	return nil
}

// SetMeta writes meta fields. Product, review and customer fields the
// WooCommerce API models are sent as those fields. The rest go through
// the wp/v2 meta object, where keys must be registered for REST on the
// site; keys the site drops fail with CodeMetaNotRegistered.
func (c *Client) SetMeta(ctx context.Context, obj backend.Object, meta map[string]string) error {
	var err error
	switch {
	case obj.Kind == backend.KindContent && obj.Type == backend.TypeProduct:
		err = c.setProductMeta(ctx, obj.ID, meta)
	case obj.Kind == backend.KindComment && obj.Type == backend.CommentTypeReview:
		err = c.setReviewMeta(ctx, obj, meta)
	case obj.Kind == backend.KindUser && obj.Type == roleCustomer:
		err = c.setCustomerMeta(ctx, obj.ID, meta)
	default:
		err = c.setRESTMeta(ctx, obj, meta)
	}
	if err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}

// setRESTMeta posts meta to the object and checks every key came back.
func (c *Client) setRESTMeta(ctx context.Context, obj backend.Object, meta map[string]string) error {
	if len(meta) == 0 {
		return nil
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.objectPath(obj), map[string]any{"meta": meta})
	if err != nil {
		return err
	}

	var resp struct {
		Meta json.RawMessage `json:"meta"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// no registered meta serializes as []
	var got map[string]json.RawMessage
	_ = json.Unmarshal(resp.Meta, &got)

	var dropped []string
	for k := range meta {
		if _, ok := got[k]; !ok {
			dropped = append(dropped, k)
		}
	}
	if len(dropped) > 0 {
		slices.Sort(dropped)
		return &backend.Error{
			Code:    backend.CodeMetaNotRegistered,
			Message: fmt.Sprintf("%s %d: keys not registered for REST: %s", obj.Kind, obj.ID, strings.Join(dropped, ", ")),
		}
	}
	return nil
}

// FetchRandomContentItems returns up to limit published items of itemType,
// shuffled from one page of results. Items without a readable date are
// skipped.
func (c *Client) FetchRandomContentItems(ctx context.Context, itemType string, limit int) ([]backend.ContentItem, error) {
	if itemType == backend.TypeProduct {
		items, err := c.fetchProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch %s items: %w", itemType, err)
		}
		return c.pick(items, limit), nil
	}

	q := url.Values{}
	q.Set("status", backend.StatusPublish)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("orderby", "date")
	q.Set("_fields", "id,type,date_gmt,status,comment_status,author,title")

	body, err := c.doJSON(ctx, http.MethodGet, wpAPI+"/"+contentBase(itemType)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s items: %w", itemType, err)
	}

	var resp []itemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s items: unmarshal: %w", itemType, err)
	}

	items := make([]backend.ContentItem, 0, len(resp))
	for _, r := range resp {
		d, err := time.Parse(restDate, r.DateGMT)
		if err != nil {
			continue
		}
		items = append(items, backend.ContentItem{
			ID:            r.ID,
			Type:          itemType,
			Title:         r.Title.Rendered,
			Status:        r.Status,
			CommentStatus: r.CommentStatus,
			Author:        r.Author,
			Date:          d.UTC(),
		})
	}
	return c.pick(items, limit), nil
}

// pick shuffles items and keeps up to limit of them.
func (c *Client) pick(items []backend.ContentItem, limit int) []backend.ContentItem {
	c.rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// FetchUsersByRole lists users with role.
func (c *Client) FetchUsersByRole(ctx context.Context, role string) ([]backend.User, error) {
	q := url.Values{}
	q.Set("roles", role)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("context", "edit")

	body, err := c.doJSON(ctx, http.MethodGet, wpAPI+"/users?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s users: %w", role, err)
	}

	var resp []userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s users: unmarshal: %w", role, err)
	}

	users := make([]backend.User, len(resp))
	for i, r := range resp {
		users[i] = backend.User{
			ID:          r.ID,
			Login:       r.Username,
			Email:       r.Email,
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			DisplayName: r.Name,
			Role:        role,
		}
	}
	return users, nil
}

// FetchTerms lists every term in taxonomy, empty ones included. The
// product type taxonomy has no REST route and lists as empty; products are
// created with their type set.
func (c *Client) FetchTerms(ctx context.Context, taxonomy string) ([]backend.Term, error) {
	if taxonomy == backend.TaxProductType {
		return nil, nil
	}

	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("hide_empty", "false")

	body, err := c.doJSON(ctx, http.MethodGet, wpAPI+"/"+taxonomyBase(taxonomy)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s terms: %w", taxonomy, err)
	}

	var resp []termResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s terms: unmarshal: %w", taxonomy, err)
	}

	terms := make([]backend.Term, len(resp))
	for i, r := range resp {
		terms[i] = backend.Term{ID: r.ID, Taxonomy: taxonomy, Name: r.Name, Slug: r.Slug}
	}
	return terms, nil
}

// FetchSiteSetting reads one key from the settings endpoint. Keys the
// endpoint does not expose fail with backend.ErrSettingNotExposed.
func (c *Client) FetchSiteSetting(ctx context.Context, key string) (string, error) {
	body, err := c.doJSON(ctx, http.MethodGet, wpAPI+"/settings", nil)
	if err != nil {
		return "", fmt.Errorf("fetch setting %s: %w", key, err)
	}

	var settings map[string]json.RawMessage
	if err := json.Unmarshal(body, &settings); err != nil {
		return "", fmt.Errorf("fetch setting %s: unmarshal: %w", key, err)
	}

	raw, ok := settings[key]
	if !ok {
		return "", fmt.Errorf("fetch setting %s: %w", key, backend.ErrSettingNotExposed)
	}
	return settingValue(raw), nil
}

// UploadMedia sideloads a file into the media library.
func (c *Client) UploadMedia(ctx context.Context, m backend.Media) (int64, error) {
	q := url.Values{}
	if m.Title != "" {
		q.Set("title", m.Title)
	}
	if m.ParentID != 0 {
		q.Set("post", strconv.FormatInt(m.ParentID, 10))
	}
	u := c.root + wpAPI + "/media"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(m.Data))
	if err != nil {
		return 0, fmt.Errorf("upload media: create request: %w", err)
	}
	req.Header.Set("Content-Type", m.ContentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", m.FileName))

	body, err := c.do(req)
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}

	id, err := decodeID(body)
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	return id, nil
}

// SetFeaturedImage attaches mediaID as the item's featured image. For
// products that is the first gallery image.
func (c *Client) SetFeaturedImage(ctx context.Context, item backend.Object, mediaID int64) error {
	method, path := http.MethodPost, c.objectPath(item)
	var body any = map[string]any{"featured_media": mediaID}
	if item.Kind == backend.KindContent && item.Type == backend.TypeProduct {
		method, path = http.MethodPut, productPath(item.ID)
		body = productUpdate{Images: []idRef{{ID: mediaID}}}
	}
	if _, err := c.doJSON(ctx, method, path, body); err != nil {
		return fmt.Errorf("set featured image: %w", err)
	}
	return nil
}

func (c *Client) create(ctx context.Context, path string, payload any) (int64, error) {
	body, err := c.doJSON(ctx, http.MethodPost, path, payload)
	if err != nil {
		return 0, err
	}
	return decodeID(body)
}

func (c *Client) objectPath(obj backend.Object) string {
	id := strconv.FormatInt(obj.ID, 10)
	switch obj.Kind {
	case backend.KindComment:
		return wpAPI + "/comments/" + id
	case backend.KindUser:
		return wpAPI + "/users/" + id
	default:
		return wpAPI + "/" + contentBase(obj.Type) + "/" + id
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var r io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.root+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &backend.Error{Code: backend.CodeRequestFailed, Message: "read response: " + err.Error()}
	}

	return body, nil
}

func (c *Client) doRaw(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &backend.Error{Code: backend.CodeRequestFailed, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var apiErr apiErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
			return nil, &backend.Error{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Status:  resp.StatusCode,
			}
		}

		return nil, &backend.Error{
			Code:    "http_" + strconv.Itoa(resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	return resp, nil
}

// decodeID reads the id of a created object. A missing id yields 0.
func decodeID(body []byte) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("unmarshal: %w", err)
	}
	return resp.ID, nil
}

// contentBase maps a content type to its REST base.
func contentBase(itemType string) string {
	switch itemType {
	case "", backend.TypePost:
		return "posts"
	case "page":
		return "pages"
	default:
		return itemType
	}
}

// taxonomyBase maps a taxonomy to its REST base.
func taxonomyBase(taxonomy string) string {
	switch taxonomy {
	case backend.TaxCategory:
		return "categories"
	case "post_tag":
		return "tags"
	default:
		return taxonomy
	}
}

// settingValue flattens a JSON setting into the form stored in options:
// booleans become "1" or "".
func settingValue(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return string(raw)
	}
}

// json wire types

type itemRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status,omitempty"`
	CommentStatus string `json:"comment_status,omitempty"`
	Author        int64  `json:"author,omitempty"`
	DateGMT       string `json:"date_gmt,omitempty"`
}

type commentRequest struct {
	Post        int64  `json:"post"`
	Parent      int64  `json:"parent,omitempty"`
	Author      int64  `json:"author,omitempty"`
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
	Content     string `json:"content"`
	Status      string `json:"status,omitempty"`
	DateGMT     string `json:"date_gmt,omitempty"`
}

type userRequest struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Name      string   `json:"name,omitempty"`
	Nickname  string   `json:"nickname,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

type itemResponse struct {
	ID            int64  `json:"id"`
	DateGMT       string `json:"date_gmt"`
	Status        string `json:"status"`
	CommentStatus string `json:"comment_status"`
	Author        int64  `json:"author"`
	Title         struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type termResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type apiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}
