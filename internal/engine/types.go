package engine

import "time"

// Scores are the five category scores of one audit, each 0-100.
type Scores struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"best_practices"`
	SEO           int `json:"seo"`
	PWA           int `json:"pwa"`
}

// Result is the engine's response payload for one audit invocation.
type Result struct {
	Success    bool   `json:"success"`
	URL        string `json:"url"`
	FormFactor string `json:"form_factor"`
	Scores     Scores `json:"scores"`
	AuditID    int64  `json:"audit_id,omitempty"`
}

// Metrics are the performance sub-metrics gathered from one page load under
// the form-factor profile's throttling.
type Metrics struct {
	TTFBMs             float64 `json:"ttfb_ms"`
	FCPMs              float64 `json:"fcp_ms"`
	LCPMs              float64 `json:"lcp_ms"`
	DOMContentLoadedMs float64 `json:"dom_content_loaded_ms"`
	LoadMs             float64 `json:"load_ms"`
	CLS                float64 `json:"cls"`
	TransferBytes      int64   `json:"transfer_bytes"`
	RequestCount       int     `json:"request_count"`
}

// Report is the full report document persisted with a completed run and
// served by GET /audits/{id}/report.
type Report struct {
	URL        string              `json:"url"`
	FormFactor string              `json:"form_factor"`
	FetchedAt  time.Time           `json:"fetched_at"`
	Metrics    Metrics             `json:"metrics"`
	Categories map[string]Category `json:"categories"`
}

// Category groups the findings behind one category score.
type Category struct {
	Score  int       `json:"score"`
	Audits []Finding `json:"audits"`
}

// Finding is one individual check inside a category.
type Finding struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// pageFacts is what the in-page collection script reports back, plus the
// console error count observed from the CDP event stream.
type pageFacts struct {
	TTFBMs             float64 `json:"ttfb_ms"`
	FCPMs              float64 `json:"fcp_ms"`
	LCPMs              float64 `json:"lcp_ms"`
	DOMContentLoadedMs float64 `json:"dom_content_loaded_ms"`
	LoadMs             float64 `json:"load_ms"`
	CLS                float64 `json:"cls"`
	TransferBytes      int64   `json:"transfer_bytes"`
	RequestCount       int     `json:"request_count"`

	IsHTTPS         bool   `json:"is_https"`
	HasDoctype      bool   `json:"has_doctype"`
	Title           string `json:"title"`
	HasMetaDesc     bool   `json:"has_meta_desc"`
	HasViewportMeta bool   `json:"has_viewport_meta"`
	HasHTMLLang     bool   `json:"has_html_lang"`
	HasCanonical    bool   `json:"has_canonical"`
	HasManifest     bool   `json:"has_manifest"`
	HasServiceWork  bool   `json:"has_service_worker"`
	HasThemeColor   bool   `json:"has_theme_color"`

	ImageCount      int `json:"image_count"`
	ImagesNoAlt     int `json:"images_no_alt"`
	ImagesBadAspect int `json:"images_bad_aspect"`
	InputCount      int `json:"input_count"`
	InputsUnlabeled int `json:"inputs_unlabeled"`
	LinkCount       int `json:"link_count"`
	LinksNoText     int `json:"links_no_text"`
	MixedContent    int `json:"mixed_content"`

	consoleErrors int
}

func (f *pageFacts) metrics() Metrics {
	return Metrics{
		TTFBMs:             f.TTFBMs,
		FCPMs:              f.FCPMs,
		LCPMs:              f.LCPMs,
		DOMContentLoadedMs: f.DOMContentLoadedMs,
		LoadMs:             f.LoadMs,
		CLS:                f.CLS,
		TransferBytes:      f.TransferBytes,
		RequestCount:       f.RequestCount,
	}
}
