package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sjsage522/pricescout/config"
	"sjsage522/pricescout/helpers"
	"sjsage522/pricescout/logger"
	pkgerrors "sjsage522/pricescout/pkg/errors"
)

const redacted = "REDACTED"

// DefaultTimeout bounds one proxied fetch, which includes JS rendering.
const DefaultTimeout = 60 * time.Second

// HTTPClient is the transport seam of the gateway. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway fetches target pages through the JS-rendering scraping proxy.
// It never retries; retry policy belongs to the caller.
type Gateway struct {
	client   HTTPClient
	proxyURL string
	apiKey   string
	log      *logger.Logger
}

// NewGateway creates a gateway. A nil client falls back to the production
// client with the default timeout.
func NewGateway(client HTTPClient, proxyURL, apiKey string) *Gateway {
	if client == nil {
		client = helpers.NewHTTPClient(DefaultTimeout)
	}
	return &Gateway{
		client:   client,
		proxyURL: proxyURL,
		apiKey:   apiKey,
		log:      logger.ForGateway(),
	}
}

// NewGatewayFromConfig creates a gateway using the resolved configuration.
func NewGatewayFromConfig(cfg *config.Config, client HTTPClient) *Gateway {
	if client == nil {
		client = helpers.NewHTTPClient(cfg.ScraperTimeout)
	}
	return NewGateway(client, cfg.ProxyURL, cfg.APIKey)
}

// Configured reports whether the gateway has a provider credential.
func (g *Gateway) Configured() bool {
	return g.apiKey != ""
}

// ProviderURL wraps targetURL into a scraping-proxy request URL.
func (g *Gateway) ProviderURL(targetURL string) (string, error) {
	u, err := url.Parse(g.proxyURL)
	if err != nil {
		return "", fmt.Errorf("invalid scraper proxy URL: %w", err)
	}

	params := url.Values{}
	params.Set("apikey", g.apiKey)
	params.Set("url", targetURL)
	params.Set("js_render", "true")
	params.Set("premium_proxy", "true")
	params.Set("wait_for", "networkidle")
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// Fetch retrieves targetURL through the proxy and returns the UTF-8 body.
func (g *Gateway) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	if !g.Configured() {
		return nil, pkgerrors.NewMisconfigured("missing scraping provider API key", config.CredentialEnvKeys)
	}

	source := hostOf(targetURL)

	providerURL, err := g.ProviderURL(targetURL)
	if err != nil {
		return nil, pkgerrors.NewMisconfigured(err.Error(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, providerURL, nil)
	if err != nil {
		return nil, pkgerrors.NewNetwork(source, "failed to create request", err)
	}
	req.Header.Set("User-Agent", helpers.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, pkgerrors.NewNetwork(source, "failed to reach scraping provider", g.redact(err))
	}
	defer resp.Body.Close()

	body, err := helpers.ReadBody(resp)
	if err != nil {
		return nil, pkgerrors.NewNetwork(source, "failed to read provider response", err)
	}

	g.log.Debug().
		Str("source", source).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Provider responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := pkgerrors.NewUpstream(source, resp.StatusCode, g.scrub(string(body)))
		g.log.Warn().
			Str("source", source).
			Int("status", resp.StatusCode).
			Str("excerpt", upstreamErr.Excerpt).
			Msg("Scraping provider returned an error")
		return nil, upstreamErr
	}

	utf8Body, err := helpers.ToUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, pkgerrors.NewParsing(source, "failed to decode provider response", err)
	}
	return utf8Body, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// redact strips the credential from transport errors. *url.Error prints the
// full request URL, which carries the apikey parameter.
func (g *Gateway) redact(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: g.redact(ue.Err)}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", redacted)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// scrub removes the credential from provider-supplied text
func (g *Gateway) scrub(s string) string {
	if g.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, g.apiKey, redacted)
}
