package restaurants

import (
	"regexp"
	"strings"
)

var slugStrip = regexp.MustCompile(`[^\w-]+`)

// Slugify derives the public URL slug from a restaurant name:
// "Chez Mario" becomes "chez-mario".
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugStrip.ReplaceAllString(slug, "")
	return strings.Trim(slug, "-")
}
