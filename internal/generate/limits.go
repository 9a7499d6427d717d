package generate

// Entity type tags of the built-in generators.
const (
	TypePosts     = "posts"
	TypeComments  = "comments"
	TypeUsers     = "users"
	TypeProducts  = "products"
	TypeCustomers = "customers"
	TypeReviews   = "reviews"
)

// Limits bounds a single request for one type.
type Limits struct {
	Ceiling int `json:"ceiling"`
	Default int `json:"default"`
}

// Clamp returns the effective count for a request: n itself within
// [1, Ceiling], otherwise Default.
func (l Limits) Clamp(n int) int {
	if n <= 0 || n > l.Ceiling {
		return l.Default
	}
	return n
}

// DefaultLimits returns the stock limits per type. Comment and review
// counts are per parent.
func DefaultLimits() map[string]Limits {
	return map[string]Limits{
		TypePosts:     {Ceiling: 10, Default: 10},
		TypeComments:  {Ceiling: 25, Default: 25},
		TypeUsers:     {Ceiling: 40, Default: 20},
		TypeProducts:  {Ceiling: 10, Default: 10},
		TypeCustomers: {Ceiling: 40, Default: 20},
		TypeReviews:   {Ceiling: 25, Default: 25},
	}
}
