package engine

import (
	"testing"

	"github.com/pagepulse/pagepulse/internal/models"
)

func TestBand(t *testing.T) {
	tests := []struct {
		value, good, poor float64
		want              float64
	}{
		{500, 800, 1800, 1},    // at or under good
		{800, 800, 1800, 1},    // exactly good
		{1800, 800, 1800, 0},   // exactly poor
		{2500, 800, 1800, 0},   // past poor
		{1300, 800, 1800, 0.5}, // midpoint
	}
	for _, tt := range tests {
		if got := band(tt.value, tt.good, tt.poor); got != tt.want {
			t.Errorf("band(%v, %v, %v) = %v, want %v", tt.value, tt.good, tt.poor, got, tt.want)
		}
	}
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, 100},
		{0.5, 50},
		{0.854, 85},
		{0.855, 86},
		{-0.2, 0},  // clamped
		{1.3, 100}, // clamped
	}
	for _, tt := range tests {
		if got := roundScore(tt.in); got != tt.want {
			t.Errorf("roundScore(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFraction(t *testing.T) {
	if got := fraction(0, 0); got != 1 {
		t.Errorf("empty set should pass, got %v", got)
	}
	if got := fraction(2, 4); got != 0.5 {
		t.Errorf("fraction(2, 4) = %v, want 0.5", got)
	}
	if got := fraction(4, 4); got != 0 {
		t.Errorf("fraction(4, 4) = %v, want 0", got)
	}
}

// perfectFacts is a page that passes every check under the mobile budgets.
func perfectFacts() *pageFacts {
	return &pageFacts{
		TTFBMs:             200,
		FCPMs:              900,
		LCPMs:              1500,
		DOMContentLoadedMs: 1200,
		LoadMs:             2000,
		CLS:                0.01,
		IsHTTPS:            true,
		HasDoctype:         true,
		Title:              "Example",
		HasMetaDesc:        true,
		HasViewportMeta:    true,
		HasHTMLLang:        true,
		HasCanonical:       true,
		HasManifest:        true,
		HasServiceWork:     true,
		HasThemeColor:      true,
		ImageCount:         4,
		LinkCount:          10,
		InputCount:         2,
	}
}

func TestBuildReport_PerfectPage(t *testing.T) {
	scores, report := buildReport("https://example.com", models.FormFactorMobile, perfectFacts())

	if scores.Performance != 100 || scores.Accessibility != 100 ||
		scores.BestPractices != 100 || scores.SEO != 100 || scores.PWA != 100 {
		t.Errorf("perfect page should score 100 across the board, got %+v", scores)
	}
	if report.URL != "https://example.com" || report.FormFactor != models.FormFactorMobile {
		t.Errorf("report header: %+v", report)
	}
	if len(report.Categories) != 5 {
		t.Errorf("expected 5 categories, got %d", len(report.Categories))
	}
	for name, cat := range report.Categories {
		if len(cat.Audits) != 5 {
			t.Errorf("category %s: expected 5 findings, got %d", name, len(cat.Audits))
		}
		for _, f := range cat.Audits {
			if !f.Passed {
				t.Errorf("category %s: finding %s should pass on a perfect page", name, f.ID)
			}
		}
	}
}

func TestBuildReport_DegradedPage(t *testing.T) {
	f := perfectFacts()
	f.LCPMs = 6000 // past the mobile poor threshold
	f.CLS = 0.5
	f.IsHTTPS = false
	f.HasManifest = false
	f.HasServiceWork = false
	f.ImagesNoAlt = 4

	scores, report := buildReport("http://example.com", models.FormFactorMobile, f)

	if scores.Performance >= 100 {
		t.Errorf("slow LCP and CLS must drag performance down, got %d", scores.Performance)
	}
	if scores.Accessibility >= 100 {
		t.Errorf("missing alt text must drag accessibility down, got %d", scores.Accessibility)
	}
	if scores.PWA > 40 {
		t.Errorf("no https/manifest/service worker should leave pwa low, got %d", scores.PWA)
	}
	if report.Categories["performance"].Audits[2].Passed {
		t.Error("lcp finding should fail")
	}
}

func TestBuildReport_DesktopBudgetsStricter(t *testing.T) {
	f := perfectFacts()
	f.LCPMs = 2000 // good on mobile (<=2500), degraded on desktop (>1200)

	mobile, _ := buildReport("https://example.com", models.FormFactorMobile, f)
	desktop, _ := buildReport("https://example.com", models.FormFactorDesktop, f)

	if desktop.Performance >= mobile.Performance {
		t.Errorf("desktop budgets are tighter: desktop %d, mobile %d",
			desktop.Performance, mobile.Performance)
	}
}

func TestScoreBestPractices_ConsoleErrors(t *testing.T) {
	f := perfectFacts()
	clean, _ := scoreBestPractices(f)
	f.consoleErrors = 3
	dirty, _ := scoreBestPractices(f)

	if dirty >= clean {
		t.Errorf("console errors must lower the score: clean %v, dirty %v", clean, dirty)
	}
}
