package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/pagepulse/pagepulse/internal/models"
)

// perfBudget holds the good/poor thresholds for one timing metric. Values at
// or under good score 1.0, at or over poor score 0, linear in between.
type perfBudget struct{ good, poor float64 }

var perfBudgets = map[string]map[string]perfBudget{
	models.FormFactorMobile: {
		"ttfb": {800, 1800},
		"fcp":  {1800, 3000},
		"lcp":  {2500, 4000},
		"load": {5000, 10000},
	},
	models.FormFactorDesktop: {
		"ttfb": {500, 1200},
		"fcp":  {900, 1600},
		"lcp":  {1200, 2400},
		"load": {2500, 6000},
	},
}

const (
	clsGood = 0.1
	clsPoor = 0.25
)

func band(value, good, poor float64) float64 {
	if value <= good {
		return 1
	}
	if value >= poor {
		return 0
	}
	return (poor - value) / (poor - good)
}

// roundScore converts a fractional 0-1 score to the 0-100 integer scale.
func roundScore(f float64) int {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return int(math.Round(f * 100))
}

func scorePerformance(f *pageFacts, formFactor string) (float64, []Finding) {
	b, ok := perfBudgets[formFactor]
	if !ok {
		b = perfBudgets[models.FormFactorMobile]
	}

	ttfb := band(f.TTFBMs, b["ttfb"].good, b["ttfb"].poor)
	fcp := band(f.FCPMs, b["fcp"].good, b["fcp"].poor)
	lcp := band(f.LCPMs, b["lcp"].good, b["lcp"].poor)
	load := band(f.LoadMs, b["load"].good, b["load"].poor)
	cls := band(f.CLS, clsGood, clsPoor)

	score := 0.15*ttfb + 0.25*fcp + 0.30*lcp + 0.15*load + 0.15*cls
	findings := []Finding{
		{ID: "ttfb", Title: "Time to first byte", Passed: ttfb == 1, Detail: fmt.Sprintf("%.0f ms", f.TTFBMs)},
		{ID: "fcp", Title: "First contentful paint", Passed: fcp == 1, Detail: fmt.Sprintf("%.0f ms", f.FCPMs)},
		{ID: "lcp", Title: "Largest contentful paint", Passed: lcp == 1, Detail: fmt.Sprintf("%.0f ms", f.LCPMs)},
		{ID: "load", Title: "Page fully loaded", Passed: load == 1, Detail: fmt.Sprintf("%.0f ms", f.LoadMs)},
		{ID: "cls", Title: "Cumulative layout shift", Passed: cls == 1, Detail: fmt.Sprintf("%.3f", f.CLS)},
	}
	return score, findings
}

// fraction scores how many of total items pass; an empty set passes.
func fraction(bad, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(total-bad) / float64(total)
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

func scoreAccessibility(f *pageFacts) (float64, []Finding) {
	altFrac := fraction(f.ImagesNoAlt, f.ImageCount)
	labelFrac := fraction(f.InputsUnlabeled, f.InputCount)

	checks := []float64{
		altFrac,
		labelFrac,
		boolScore(f.HasHTMLLang),
		boolScore(f.Title != ""),
		boolScore(f.HasViewportMeta),
	}
	findings := []Finding{
		{ID: "image-alt", Title: "Images have alt attributes", Passed: f.ImagesNoAlt == 0,
			Detail: fmt.Sprintf("%d of %d missing", f.ImagesNoAlt, f.ImageCount)},
		{ID: "label", Title: "Form controls have labels", Passed: f.InputsUnlabeled == 0,
			Detail: fmt.Sprintf("%d of %d unlabeled", f.InputsUnlabeled, f.InputCount)},
		{ID: "html-lang", Title: "Document has a lang attribute", Passed: f.HasHTMLLang},
		{ID: "document-title", Title: "Document has a title", Passed: f.Title != ""},
		{ID: "viewport", Title: "Viewport meta tag present", Passed: f.HasViewportMeta},
	}
	return mean(checks), findings
}

func scoreBestPractices(f *pageFacts) (float64, []Finding) {
	checks := []float64{
		boolScore(f.IsHTTPS),
		boolScore(f.MixedContent == 0),
		boolScore(f.consoleErrors == 0),
		boolScore(f.HasDoctype),
		fraction(f.ImagesBadAspect, f.ImageCount),
	}
	findings := []Finding{
		{ID: "is-https", Title: "Served over HTTPS", Passed: f.IsHTTPS},
		{ID: "mixed-content", Title: "No insecure resources", Passed: f.MixedContent == 0,
			Detail: fmt.Sprintf("%d http:// requests", f.MixedContent)},
		{ID: "console-errors", Title: "No browser console errors", Passed: f.consoleErrors == 0,
			Detail: fmt.Sprintf("%d errors", f.consoleErrors)},
		{ID: "doctype", Title: "Page has a doctype", Passed: f.HasDoctype},
		{ID: "image-aspect", Title: "Images rendered at natural aspect ratio", Passed: f.ImagesBadAspect == 0,
			Detail: fmt.Sprintf("%d of %d distorted", f.ImagesBadAspect, f.ImageCount)},
	}
	return mean(checks), findings
}

func scoreSEO(f *pageFacts) (float64, []Finding) {
	linkFrac := fraction(f.LinksNoText, f.LinkCount)
	checks := []float64{
		boolScore(f.Title != ""),
		boolScore(f.HasMetaDesc),
		boolScore(f.HasCanonical),
		linkFrac,
		boolScore(f.HasViewportMeta),
	}
	findings := []Finding{
		{ID: "document-title", Title: "Document has a title", Passed: f.Title != ""},
		{ID: "meta-description", Title: "Meta description present", Passed: f.HasMetaDesc},
		{ID: "canonical", Title: "Canonical link present", Passed: f.HasCanonical},
		{ID: "link-text", Title: "Links have descriptive text", Passed: f.LinksNoText == 0,
			Detail: fmt.Sprintf("%d of %d empty", f.LinksNoText, f.LinkCount)},
		{ID: "viewport", Title: "Viewport meta tag present", Passed: f.HasViewportMeta},
	}
	return mean(checks), findings
}

func scorePWA(f *pageFacts) (float64, []Finding) {
	checks := []float64{
		boolScore(f.HasManifest),
		boolScore(f.HasServiceWork),
		boolScore(f.HasThemeColor),
		boolScore(f.IsHTTPS),
		boolScore(f.HasViewportMeta),
	}
	findings := []Finding{
		{ID: "manifest", Title: "Web app manifest linked", Passed: f.HasManifest},
		{ID: "service-worker", Title: "Service worker registered", Passed: f.HasServiceWork},
		{ID: "theme-color", Title: "Theme color set", Passed: f.HasThemeColor},
		{ID: "is-https", Title: "Served over HTTPS", Passed: f.IsHTTPS},
		{ID: "viewport", Title: "Viewport meta tag present", Passed: f.HasViewportMeta},
	}
	return mean(checks), findings
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// buildReport scores every category and assembles the full report document.
func buildReport(url, formFactor string, f *pageFacts) (Scores, *Report) {
	perf, perfFindings := scorePerformance(f, formFactor)
	a11y, a11yFindings := scoreAccessibility(f)
	bp, bpFindings := scoreBestPractices(f)
	seo, seoFindings := scoreSEO(f)
	pwa, pwaFindings := scorePWA(f)

	scores := Scores{
		Performance:   roundScore(perf),
		Accessibility: roundScore(a11y),
		BestPractices: roundScore(bp),
		SEO:           roundScore(seo),
		PWA:           roundScore(pwa),
	}
	report := &Report{
		URL:        url,
		FormFactor: formFactor,
		FetchedAt:  time.Now().UTC(),
		Metrics:    f.metrics(),
		Categories: map[string]Category{
			"performance":    {Score: scores.Performance, Audits: perfFindings},
			"accessibility":  {Score: scores.Accessibility, Audits: a11yFindings},
			"best-practices": {Score: scores.BestPractices, Audits: bpFindings},
			"seo":            {Score: scores.SEO, Audits: seoFindings},
			"pwa":            {Score: scores.PWA, Audits: pwaFindings},
		},
	}
	return scores, report
}
