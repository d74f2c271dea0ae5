package engine

import (
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/pagepulse/pagepulse/internal/models"
)

const (
	mobileUA  = `Mozilla/5.0 (Linux; Android 14; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36`
	desktopUA = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36`
)

// profile is the device emulation and throttling applied before navigation.
// Mobile approximates a mid-tier phone on slow 4G; desktop a broadband cable
// connection.
type profile struct {
	width, height int64
	scale         float64
	mobile        bool
	userAgent     string
	latencyMs     float64
	downloadBps   float64
	uploadBps     float64
	cpuRate       float64
}

var profiles = map[string]profile{
	models.FormFactorMobile: {
		width: 375, height: 812, scale: 3, mobile: true,
		userAgent: mobileUA,
		latencyMs: 150,
		// 1.6 Mbps down / 750 Kbps up
		downloadBps: 1.6 * 1024 * 1024 / 8,
		uploadBps:   750 * 1024 / 8,
		cpuRate:     4,
	},
	models.FormFactorDesktop: {
		width: 1350, height: 940, scale: 1, mobile: false,
		userAgent: desktopUA,
		latencyMs: 40,
		// 10 Mbps symmetric
		downloadBps: 10 * 1024 * 1024 / 8,
		uploadBps:   10 * 1024 * 1024 / 8,
		cpuRate:     1,
	},
}

// apply returns the emulation actions for the form factor. Unknown values
// fall back to the mobile profile, matching the request default.
func applyProfile(formFactor string) chromedp.Tasks {
	p, ok := profiles[formFactor]
	if !ok {
		p = profiles[models.FormFactorMobile]
	}
	return chromedp.Tasks{
		network.Enable(),
		emulation.SetDeviceMetricsOverride(p.width, p.height, p.scale, p.mobile),
		emulation.SetTouchEmulationEnabled(p.mobile),
		emulation.SetUserAgentOverride(p.userAgent),
		network.EmulateNetworkConditions(false, p.latencyMs, p.downloadBps, p.uploadBps),
		emulation.SetCPUThrottlingRate(p.cpuRate),
	}
}
