package entity

// IdentityClaims is the subset of a verified identity token the directory cares about.
type IdentityClaims struct {
	Subject  string
	Name     string
	Email    string
	Nickname string
	Picture  string
	Roles    []string
}

// HasRole reports whether role is among the granted roles.
func (c IdentityClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
