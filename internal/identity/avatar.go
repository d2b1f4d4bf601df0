package identity

import (
	"net/url"
	"strconv"
	"strings"

	"phonelogin/internal/models"
)

// Avatar sizes in pixels.
const (
	SizeLarge     = 128
	SizeMedium    = 72
	SizeThumbnail = 48
)

// AvatarStyle builds an avatar URL for a display name at a size.
type AvatarStyle func(name string, size int) string

// SeedAvatar renders a deterministic illustrated avatar seeded by the name.
func SeedAvatar(name string, size int) string {
	q := url.Values{}
	q.Set("seed", name)
	q.Set("size", strconv.Itoa(size))
	return "https://api.dicebear.com/7.x/avataaars/svg?" + q.Encode()
}

// InitialsAvatar renders the name's initials on a plain background.
func InitialsAvatar(name string, size int) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("size", strconv.Itoa(size))
	q.Set("background", "random")
	return "https://ui-avatars.com/api/?" + q.Encode()
}

// DeriveAvatar builds the three sizes from first and last name. It reports
// false when the name has nothing to seed from.
func DeriveAvatar(style AvatarStyle, first, last string) (models.Avatar, bool) {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return models.Avatar{}, false
	}
	return models.Avatar{
		Large:     style(name, SizeLarge),
		Medium:    style(name, SizeMedium),
		Thumbnail: style(name, SizeThumbnail),
	}, true
}
