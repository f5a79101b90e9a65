package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/marsscrape/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps how much of a response is parsed.
const maxBody = 10 << 20

// chromeH1Spec is a Chrome ClientHello with ALPN limited to http/1.1, since
// http.Transport cannot speak h2 over a utls connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPFetcher loads static pages without a browser, presenting a Chrome TLS
// fingerprint. It is safe for concurrent use.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher. proxy may be empty or an http(s) proxy URL.
func NewHTTPFetcher(proxy string, timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &HTTPFetcher{
		client: &http.Client{Transport: transport, Timeout: timeout},
	}
}

// FetchDocument GETs target and parses the body.
func (f *HTTPFetcher) FetchDocument(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "invalid URL "+target, err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, categorizeError(err, "request to "+target+" failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewScrapeError(
			models.ErrCodeNavigation,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, target),
			nil,
		)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, categorizeError(err, "failed to read "+target)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

// dialTLSChrome establishes a TLS connection using the Chrome h1 fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("httpfetch: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
