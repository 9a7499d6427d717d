// Package identity synthesizes fake people from corpus draws and fixed
// derivation rules.
package identity

import "time"

// emailDomain is the reserved example domain every fake address uses.
const emailDomain = "example.com"

// Person holds a complete synthesized persona.
type Person struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	Login       string    `json:"login"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Street      string    `json:"street"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Zip         string    `json:"zip"`
	Registered  time.Time `json:"registered"`
}
