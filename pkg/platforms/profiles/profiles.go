// Package profiles resolves a platform ID to its advance profile.
package profiles

import (
	"fmt"

	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/platforms/facebook"
	"github.com/sw33tLie/shortscroll/pkg/platforms/instagram"
	"github.com/sw33tLie/shortscroll/pkg/platforms/tiktok"
	"github.com/sw33tLie/shortscroll/pkg/platforms/youtube"
)

// For returns the profile of id.
func For(id platforms.ID) (platforms.Profile, error) {
	switch id {
	case platforms.YouTube:
		return youtube.Profile(), nil
	case platforms.Instagram:
		return instagram.Profile(), nil
	case platforms.Facebook:
		return facebook.Profile(), nil
	case platforms.TikTok:
		return tiktok.Profile(), nil
	}
	return platforms.Profile{}, fmt.Errorf("%w: %q", platforms.ErrUnknownPlatform, id)
}

// ForURL detects the platform of a page URL and returns its profile.
func ForURL(rawURL string) (platforms.Profile, error) {
	id, err := platforms.FromURL(rawURL)
	if err != nil {
		return platforms.Profile{}, err
	}
	return For(id)
}
