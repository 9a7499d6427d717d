package generate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zarlcorp/zseed/internal/backend"
	"github.com/zarlcorp/zseed/internal/content"
	"github.com/zarlcorp/zseed/internal/sanitize"
)

const week = 7 * 24 * time.Hour

// post dates fall between 72 weeks and 1 week ago
const (
	oldestItem = 72 * week
	newestItem = week
)

// product prices in cents
const (
	minPrice = 500
	maxPrice = 25000
)

// itemGenerator creates posts or products.
type itemGenerator struct {
	*env
	typ         string
	itemType    string
	taxonomy    string
	defaultTerm int64
	limits      Limits
}

func newPosts(e *env, l Limits) *itemGenerator {
	return &itemGenerator{
		env:         e,
		typ:         TypePosts,
		itemType:    backend.TypePost,
		taxonomy:    backend.TaxCategory,
		defaultTerm: e.cfg.DefaultCategory,
		limits:      l,
	}
}

func newProducts(e *env, l Limits) *itemGenerator {
	return &itemGenerator{
		env:         e,
		typ:         TypeProducts,
		itemType:    backend.TypeProduct,
		taxonomy:    backend.TaxProductCat,
		defaultTerm: e.cfg.DefaultProductCategory,
		limits:      l,
	}
}

func (g *itemGenerator) Limits() Limits { return g.limits }

func (g *itemGenerator) products() bool { return g.itemType == backend.TypeProduct }

func (g *itemGenerator) Generate(ctx context.Context, n int) (int, error) {
	terms := g.terms(ctx, g.taxonomy)

	var simple int64
	if g.products() {
		simple = simpleTypeTerm(g.terms(ctx, backend.TaxProductType))
	}

	created := 0
	for range n {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		g.before(ctx, g.typ)

		d := Draft{
			Type: g.typ,
			Item: backend.ContentItem{
				Type:          g.itemType,
				Title:         g.title(ctx),
				Content:       g.body(ctx, content.BodyParams{}),
				Status:        backend.StatusPublish,
				CommentStatus: backend.CommentOpen,
				Date:          g.now().Add(-g.between(newestItem, oldestItem)).Truncate(time.Second),
			},
		}
		if g.products() {
			d.Meta = g.productMeta()
		}

		d, ok := g.transform(ctx, d)
		if !ok {
			continue
		}

		id, err := g.deps.Store.InsertContentItem(ctx, d.Item)
		if err != nil {
			return created, fmt.Errorf("insert %s: %w", g.itemType, err)
		}
		if id == 0 {
			return created, fmt.Errorf("insert %s: %w", g.itemType, ErrNoIdentifier)
		}
		created++
		g.log.Debug().Str("type", g.typ).Int64("id", id).Str("title", d.Item.Title).Msg("created")

		obj := backend.Object{Kind: backend.KindContent, Type: g.itemType, ID: id}
		g.assignTerm(ctx, obj, terms)
		if g.products() {
			if simple != 0 {
				g.assign(ctx, obj, backend.TaxProductType, simple)
			}
			if d.Meta == nil {
				d.Meta = make(map[string]string)
			}
			d.Meta["_sku"] = sku(d.Item.Title, id)
		}
		g.setMeta(ctx, obj, g.typ, d.Meta)
		g.featuredImage(ctx, obj)

		g.after(ctx, g.typ, id)
	}

	return created, nil
}

// assignTerm attaches one random term, or the default when there are none.
func (g *itemGenerator) assignTerm(ctx context.Context, obj backend.Object, terms []backend.Term) {
	id := g.defaultTerm
	if len(terms) > 0 {
		id = terms[g.deps.Rand.IntN(len(terms))].ID
	}
	if id == 0 {
		return
	}
	g.assign(ctx, obj, g.taxonomy, id)
}

func (g *itemGenerator) assign(ctx context.Context, obj backend.Object, taxonomy string, id int64) {
	if err := g.deps.Store.AssignTerms(ctx, obj, taxonomy, []int64{id}); err != nil {
		g.log.Warn().Err(err).Str("taxonomy", taxonomy).Int64("id", obj.ID).Msg("assign term")
	}
}

// productMeta is the fixed commerce schema of a simple, in-stock product.
func (g *itemGenerator) productMeta() map[string]string {
	price := formatPrice(minPrice + g.deps.Rand.IntN(maxPrice-minPrice+1))
	return map[string]string{
		"_visibility":        "visible",
		"_stock_status":      "instock",
		"_tax_status":        "taxable",
		"_manage_stock":      "no",
		"_backorders":        "no",
		"_sold_individually": "no",
		"_featured":          "no",
		"_downloadable":      "no",
		"_virtual":           "no",
		"_regular_price":     price,
		"_price":             price,
		"total_sales":        "0",
	}
}

func simpleTypeTerm(terms []backend.Term) int64 {
	for _, t := range terms {
		if t.Slug == "simple" || strings.EqualFold(t.Name, "simple") {
			return t.ID
		}
	}
	return 0
}

// sku is the upper-cased title slug and the item id: "BLUE-TEAPOT-42".
func sku(title string, id int64) string {
	slug := sanitize.Slug(strings.Join(strings.Fields(title), "-"))
	if slug == "" {
		return strconv.FormatInt(id, 10)
	}
	return strings.ToUpper(slug) + "-" + strconv.FormatInt(id, 10)
}

func formatPrice(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
