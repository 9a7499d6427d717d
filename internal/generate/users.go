package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/zarlcorp/zseed/internal/backend"
	"github.com/zarlcorp/zseed/internal/identity"
)

const (
	roleCustomer   = "customer"
	roleSubscriber = "subscriber"
	passwordLength = 20
)

// userGenerator creates site users or shop customers.
type userGenerator struct {
	*env
	typ    string
	role   string // fixed role, "" to resolve from config and site
	limits Limits
}

func newUsers(e *env, l Limits) *userGenerator {
	return &userGenerator{env: e, typ: TypeUsers, limits: l}
}

func newCustomers(e *env, l Limits) *userGenerator {
	return &userGenerator{env: e, typ: TypeCustomers, role: roleCustomer, limits: l}
}

func (g *userGenerator) Limits() Limits { return g.limits }

func (g *userGenerator) Generate(ctx context.Context, n int) (int, error) {
	role := g.resolveRole(ctx)

	created := 0
	for range n {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		g.before(ctx, g.typ)

		p, err := g.person()
		if err != nil {
			return created, err
		}

		d := Draft{
			Type: g.typ,
			User: backend.User{
				Login:       p.Login,
				Email:       p.Email,
				Password:    identity.Password(passwordLength),
				FirstName:   p.FirstName,
				LastName:    p.LastName,
				DisplayName: p.DisplayName,
				Role:        role,
				Registered:  p.Registered,
			},
		}
		if g.role == roleCustomer {
			d.Meta = addressMeta(p)
		}

		d, ok := g.transform(ctx, d)
		if !ok {
			continue
		}

		id, err := g.deps.Store.InsertUser(ctx, d.User)
		if err != nil {
			return created, fmt.Errorf("insert user: %w", err)
		}
		if id == 0 {
			return created, fmt.Errorf("insert user: %w", ErrNoIdentifier)
		}
		created++
		g.log.Debug().Str("type", g.typ).Int64("id", id).Str("login", d.User.Login).Msg("created")

		g.setMeta(ctx, backend.Object{Kind: backend.KindUser, Type: d.User.Role, ID: id}, g.typ, d.Meta)
		g.after(ctx, g.typ, id)
	}

	return created, nil
}

// resolveRole is the fixed role, else the configured default, else the
// site's default_role, else subscriber.
func (g *userGenerator) resolveRole(ctx context.Context) string {
	if g.role != "" {
		return g.role
	}
	if g.cfg.DefaultRole != "" {
		return g.cfg.DefaultRole
	}
	r, err := g.deps.Store.FetchSiteSetting(ctx, "default_role")
	switch {
	case errors.Is(err, backend.ErrSettingNotExposed):
		g.log.Warn().Str("role", roleSubscriber).Msg("default_role not exposed by the site, set ZSEED_DEFAULT_ROLE")
	case err != nil:
		g.log.Warn().Err(err).Str("role", roleSubscriber).Msg("fetch default_role")
	case r != "":
		return r
	}
	return roleSubscriber
}

// addressMeta mirrors a person into billing and shipping fields.
func addressMeta(p identity.Person) map[string]string {
	m := map[string]string{
		"billing_email": p.Email,
		"billing_phone": p.Phone,
	}
	for _, prefix := range []string{"billing_", "shipping_"} {
		m[prefix+"first_name"] = p.FirstName
		m[prefix+"last_name"] = p.LastName
		m[prefix+"address_1"] = p.Street
		m[prefix+"city"] = p.City
		m[prefix+"state"] = p.State
		m[prefix+"postcode"] = p.Zip
		m[prefix+"country"] = "US"
	}
	return m
}
