package platform

import (
	"fmt"
	"strings"
)

// ResourceGroupName builds a participant's resource group name from the
// configured prefix, the first 8 characters of the workshop ID, and the
// participant alias. Example: ws-1a2b3c4d-alice
func ResourceGroupName(prefix, workshopID, alias string) string {
	short := workshopID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, short, alias)
}

// UserPrincipalName builds the directory login for a participant alias.
func UserPrincipalName(alias, domain string) string {
	return fmt.Sprintf("%s@%s", alias, domain)
}

// NormalizeAlias lowercases an alias and strips characters that are not
// valid in a user principal name local part.
func NormalizeAlias(alias string) string {
	alias = strings.ToLower(strings.TrimSpace(alias))
	var b strings.Builder
	b.Grow(len(alias))
	for _, r := range alias {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
