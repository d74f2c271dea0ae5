package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// observerJS is injected before any document script runs so LCP and CLS
// entries are captured from the very start of the load.
const observerJS = `
window.__pp = { lcp: 0, cls: 0 };
try {
  new PerformanceObserver((list) => {
    const entries = list.getEntries();
    if (entries.length) window.__pp.lcp = entries[entries.length - 1].startTime;
  }).observe({ type: 'largest-contentful-paint', buffered: true });
  new PerformanceObserver((list) => {
    for (const e of list.getEntries()) {
      if (!e.hadRecentInput) window.__pp.cls += e.value;
    }
  }).observe({ type: 'layout-shift', buffered: true });
} catch (e) {}
`

// factsJS gathers timing and document facts after load. It must stay
// JSON-serializable end to end; field names mirror pageFacts tags.
const factsJS = `
(async () => {
  const nav = performance.getEntriesByType('navigation')[0] || {};
  const paint = {};
  performance.getEntriesByType('paint').forEach((p) => { paint[p.name] = p.startTime; });
  const resources = performance.getEntriesByType('resource');

  const imgs = Array.from(document.images);
  const badAspect = imgs.filter((i) =>
    i.naturalWidth > 0 && i.clientWidth > 0 &&
    Math.abs(i.naturalWidth / i.naturalHeight - i.clientWidth / i.clientHeight) > 0.2).length;

  const inputs = Array.from(document.querySelectorAll('input:not([type=hidden]), select, textarea'));
  const unlabeled = inputs.filter((el) =>
    !el.labels?.length && !el.getAttribute('aria-label') && !el.getAttribute('aria-labelledby')).length;

  const links = Array.from(document.querySelectorAll('a[href]'));
  const noText = links.filter((a) => !a.textContent.trim() && !a.getAttribute('aria-label')).length;

  const mixed = resources.filter((r) => r.name.startsWith('http://')).length;

  let hasSW = false;
  try {
    if (navigator.serviceWorker) {
      const regs = await navigator.serviceWorker.getRegistrations();
      hasSW = regs.length > 0;
    }
  } catch (e) {}

  return {
    ttfb_ms: nav.responseStart || 0,
    fcp_ms: paint['first-contentful-paint'] || 0,
    lcp_ms: (window.__pp && window.__pp.lcp) || paint['first-contentful-paint'] || 0,
    dom_content_loaded_ms: nav.domContentLoadedEventEnd || 0,
    load_ms: nav.loadEventEnd || nav.duration || 0,
    cls: (window.__pp && window.__pp.cls) || 0,
    transfer_bytes: Math.round((nav.transferSize || 0) +
      resources.reduce((t, r) => t + (r.transferSize || 0), 0)),
    request_count: resources.length + 1,

    is_https: location.protocol === 'https:',
    has_doctype: !!document.doctype,
    title: document.title || '',
    has_meta_desc: !!document.querySelector('meta[name=description][content]'),
    has_viewport_meta: !!document.querySelector('meta[name=viewport]'),
    has_html_lang: !!document.documentElement.lang,
    has_canonical: !!document.querySelector('link[rel=canonical]'),
    has_manifest: !!document.querySelector('link[rel=manifest]'),
    has_service_worker: hasSW,
    has_theme_color: !!document.querySelector('meta[name=theme-color]'),

    image_count: imgs.length,
    images_no_alt: imgs.filter((i) => !i.hasAttribute('alt')).length,
    images_bad_aspect: badAspect,
    input_count: inputs.length,
    inputs_unlabeled: unlabeled,
    link_count: links.length,
    links_no_text: noText,
    mixed_content: mixed,
  };
})()
`

// settleDelay gives late LCP candidates and layout shifts time to land after
// the load event before facts are read.
const settleDelay = 2 * time.Second

func allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
}

// collect launches an isolated browser, applies the form-factor profile,
// loads the page and returns its facts. The browser contexts are cancelled on
// every exit path; a leaked instance is a defect, not a tolerable failure.
func (s *Service) collect(ctx context.Context, url, formFactor string) (*pageFacts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.browserTimeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var consoleErrors int64
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *cdpruntime.EventConsoleAPICalled:
			if e.Type == cdpruntime.APITypeError {
				atomic.AddInt64(&consoleErrors, 1)
			}
		case *cdpruntime.EventExceptionThrown:
			atomic.AddInt64(&consoleErrors, 1)
		}
	})

	var facts pageFacts
	err := chromedp.Run(taskCtx,
		applyProfile(formFactor),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(observerJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(factsJS, &facts,
			func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
	)
	if err != nil {
		return nil, err
	}

	facts.consoleErrors = int(atomic.LoadInt64(&consoleErrors))
	return &facts, nil
}
