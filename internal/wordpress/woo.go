package wordpress

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zarlcorp/zseed/internal/backend"
)

// roleCustomer is the WooCommerce shop customer role.
const roleCustomer = "customer"

func productPath(id int64) string {
	return wcAPI + "/products/" + strconv.FormatInt(id, 10)
}

func (c *Client) insertProduct(ctx context.Context, item backend.ContentItem) (int64, error) {
	req := productRequest{
		Name:           item.Title,
		Description:    item.Content,
		Status:         item.Status,
		Type:           "simple",
		ReviewsAllowed: item.CommentStatus == backend.CommentOpen,
	}
	if !item.Date.IsZero() {
		req.DateCreatedGMT = item.Date.UTC().Format(restDate)
	}

	id, err := c.create(ctx, wcAPI+"/products", req)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// insertReview creates a product review. The reviews endpoint takes no
// date, so the date is set through the comments endpoint afterwards.
func (c *Client) insertReview(ctx context.Context, cm backend.Comment) (int64, error) {
	req := reviewRequest{
		ProductID:     cm.PostID,
		Review:        cm.Content,
		Reviewer:      cm.Author,
		ReviewerEmail: cm.AuthorEmail,
		Status:        "approved",
	}

	id, err := c.create(ctx, wcAPI+"/products/reviews", req)
	if err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}
	if id == 0 || cm.Date.IsZero() {
		return id, nil
	}

	body := map[string]any{"date_gmt": cm.Date.UTC().Format(restDate)}
	if _, err := c.doJSON(ctx, http.MethodPost, wpAPI+"/comments/"+strconv.FormatInt(id, 10), body); err != nil {
		return 0, fmt.Errorf("insert review %d: set date: %w", id, err)
	}
	return id, nil
}

func (c *Client) insertCustomer(ctx context.Context, u backend.User) (int64, error) {
	req := customerRequest{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Login,
		Password:  u.Password,
	}

	id, err := c.create(ctx, wcAPI+"/customers", req)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}

func (c *Client) assignProductTerms(ctx context.Context, id int64, taxonomy string, termIDs []int64) error {
	refs := make([]idRef, len(termIDs))
	for i, t := range termIDs {
		refs[i] = idRef{ID: t}
	}

	var u productUpdate
	switch taxonomy {
	case backend.TaxProductCat:
		u.Categories = refs
	case "product_tag":
		u.Tags = refs
	default:
		return fmt.Errorf("assign %s terms: %w", taxonomy, &backend.Error{
			Code:    backend.CodeUnsupported,
			Message: "products take no " + taxonomy + " terms over REST",
		})
	}

	if _, err := c.doJSON(ctx, http.MethodPut, productPath(id), u); err != nil {
		return fmt.Errorf("assign %s terms: %w", taxonomy, err)
	}
	return nil
}

// setProductMeta maps commerce meta onto product fields. Keys the API has
// no field for are sent as meta_data. Price and sales totals are
// maintained by WooCommerce and are not sent.
func (c *Client) setProductMeta(ctx context.Context, id int64, meta map[string]string) error {
	var u productUpdate
	for k, v := range meta {
		switch k {
		case "_regular_price":
			u.RegularPrice = v
		case "_sku":
			u.SKU = v
		case "_stock_status":
			u.StockStatus = v
		case "_tax_status":
			u.TaxStatus = v
		case "_backorders":
			u.Backorders = v
		case "_visibility":
			u.CatalogVisibility = v
		case "_manage_stock":
			u.ManageStock = yes(v)
		case "_sold_individually":
			u.SoldIndividually = yes(v)
		case "_featured":
			u.Featured = yes(v)
		case "_downloadable":
			u.Downloadable = yes(v)
		case "_virtual":
			u.Virtual = yes(v)
		case "_price", "total_sales":
		default:
			u.MetaData = append(u.MetaData, metaEntry{Key: k, Value: v})
		}
	}
	sortMeta(u.MetaData)

	_, err := c.doJSON(ctx, http.MethodPut, productPath(id), u)
	return err
}

// setReviewMeta sends the rating to the reviews endpoint. The verified
// flag is computed by WooCommerce from order history. Other keys go
// through comment meta.
func (c *Client) setReviewMeta(ctx context.Context, obj backend.Object, meta map[string]string) error {
	rest := make(map[string]string)
	var u reviewUpdate
	for k, v := range meta {
		switch k {
		case "rating":
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 5 {
				return &backend.Error{Code: "rest_invalid_param", Message: fmt.Sprintf("rating %q: want 1-5", v)}
			}
			u.Rating = n
		case "verified":
		default:
			rest[k] = v
		}
	}

	if u.Rating != 0 {
		path := wcAPI + "/products/reviews/" + strconv.FormatInt(obj.ID, 10)
		if _, err := c.doJSON(ctx, http.MethodPut, path, u); err != nil {
			return err
		}
	}
	return c.setRESTMeta(ctx, obj, rest)
}

// setCustomerMeta maps billing_ and shipping_ keys onto the customer's
// address objects. Other keys are sent as meta_data.
func (c *Client) setCustomerMeta(ctx context.Context, id int64, meta map[string]string) error {
	u := customerUpdate{
		Billing:  make(map[string]string),
		Shipping: make(map[string]string),
	}
	for k, v := range meta {
		if f, ok := strings.CutPrefix(k, "billing_"); ok {
			u.Billing[f] = v
			continue
		}
		if f, ok := strings.CutPrefix(k, "shipping_"); ok {
			u.Shipping[f] = v
			continue
		}
		u.MetaData = append(u.MetaData, metaEntry{Key: k, Value: v})
	}
	sortMeta(u.MetaData)

	_, err := c.doJSON(ctx, http.MethodPut, wcAPI+"/customers/"+strconv.FormatInt(id, 10), u)
	return err
}

// fetchProducts lists one page of published products. Products without a
// readable creation date are skipped.
func (c *Client) fetchProducts(ctx context.Context) ([]backend.ContentItem, error) {
	q := url.Values{}
	q.Set("status", backend.StatusPublish)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("orderby", "date")
	q.Set("_fields", "id,name,status,reviews_allowed,date_created_gmt")

	body, err := c.doJSON(ctx, http.MethodGet, wcAPI+"/products?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp []productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	items := make([]backend.ContentItem, 0, len(resp))
	for _, r := range resp {
		d, err := time.Parse(restDate, r.DateCreatedGMT)
		if err != nil {
			continue
		}
		status := backend.CommentClosed
		if r.ReviewsAllowed {
			status = backend.CommentOpen
		}
		items = append(items, backend.ContentItem{
			ID:            r.ID,
			Type:          backend.TypeProduct,
			Title:         r.Name,
			Status:        r.Status,
			CommentStatus: status,
			Date:          d.UTC(),
		})
	}
	return items, nil
}

// yes reads a "yes"/"no" meta flag.
func yes(v string) *bool {
	b := v == "yes"
	return &b
}

func sortMeta(m []metaEntry) {
	slices.SortFunc(m, func(a, b metaEntry) int { return cmp.Compare(a.Key, b.Key) })
}

// woocommerce wire types

type idRef struct {
	ID int64 `json:"id"`
}

type metaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type productRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Status         string `json:"status,omitempty"`
	Type           string `json:"type"`
	ReviewsAllowed bool   `json:"reviews_allowed"`
	DateCreatedGMT string `json:"date_created_gmt,omitempty"`
}

type productUpdate struct {
	RegularPrice      string      `json:"regular_price,omitempty"`
	SKU               string      `json:"sku,omitempty"`
	StockStatus       string      `json:"stock_status,omitempty"`
	TaxStatus         string      `json:"tax_status,omitempty"`
	Backorders        string      `json:"backorders,omitempty"`
	CatalogVisibility string      `json:"catalog_visibility,omitempty"`
	ManageStock       *bool       `json:"manage_stock,omitempty"`
	SoldIndividually  *bool       `json:"sold_individually,omitempty"`
	Featured          *bool       `json:"featured,omitempty"`
	Downloadable      *bool       `json:"downloadable,omitempty"`
	Virtual           *bool       `json:"virtual,omitempty"`
	Categories        []idRef     `json:"categories,omitempty"`
	Tags              []idRef     `json:"tags,omitempty"`
	Images            []idRef     `json:"images,omitempty"`
	MetaData          []metaEntry `json:"meta_data,omitempty"`
}

type productResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	ReviewsAllowed bool   `json:"reviews_allowed"`
	DateCreatedGMT string `json:"date_created_gmt"`
}

type reviewRequest struct {
	ProductID     int64  `json:"product_id"`
	Review        string `json:"review"`
	Reviewer      string `json:"reviewer"`
	ReviewerEmail string `json:"reviewer_email"`
	Status        string `json:"status,omitempty"`
}

type reviewUpdate struct {
	Rating int `json:"rating"`
}

type customerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type customerUpdate struct {
	Billing  map[string]string `json:"billing,omitempty"`
	Shipping map[string]string `json:"shipping,omitempty"`
	MetaData []metaEntry       `json:"meta_data,omitempty"`
}
