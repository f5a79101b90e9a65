package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to Rod protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// trackerDomains are ad and analytics hosts the science sites embed.
var trackerDomains = map[string]struct{}{
	"doubleclick.net":          {},
	"googlesyndication.com":    {},
	"googleadservices.com":     {},
	"google-analytics.com":     {},
	"googletagmanager.com":     {},
	"googletagservices.com":    {},
	"dap.digitalgov.gov":       {},
	"facebook.net":             {},
	"connect.facebook.net":     {},
	"adnxs.com":                {},
	"amazon-adsystem.com":      {},
	"scorecardresearch.com":    {},
	"quantserve.com":           {},
	"hotjar.com":               {},
	"addthis.com":              {},
	"sharethis.com":            {},
	"static.ads-twitter.com":   {},
	"analytics.twitter.com":    {},
	"siteimproveanalytics.com": {},
}

// isTrackerHost checks host and each parent domain against trackerDomains.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for {
		if _, ok := trackerDomains[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
}

// setupHijack installs a request interceptor on the session tab that fails
// blocked resource types and, if blockTrackers is set, tracker hosts.
//
// Returns the running router so Close can stop it, or nil when there is
// nothing to block.
func setupHijack(page *rod.Page, blockedTypes []string, blockTrackers bool) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 && !blockTrackers {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, ok := blocked[ctx.Request.Type()]; ok {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if blockTrackers {
			if u, err := url.Parse(ctx.Request.URL().String()); err == nil && isTrackerHost(u.Hostname()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()

	return router
}
