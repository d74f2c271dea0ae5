package audit

import "github.com/pagepulse/pagepulse/internal/models"

// ResolveFormFactor picks the form factor an audit actually runs under.
// A mobile or desktop platform preference wins unconditionally; only a
// "both" client honors the requested form factor. Total over valid
// platform values: the result is always mobile or desktop.
func ResolveFormFactor(platform, requested string) string {
	switch platform {
	case models.PlatformMobile:
		return models.FormFactorMobile
	case models.PlatformDesktop:
		return models.FormFactorDesktop
	}
	if requested == models.FormFactorDesktop {
		return models.FormFactorDesktop
	}
	return models.FormFactorMobile
}
