package pipeline

import (
	"encoding/base64"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"insightdeal/dealworker/helpers"
)

// RepairURL fixes the truncation patterns models produce when they mangle a
// scheme: "http:s//...", "https.www...." and missing-colon variants.
func RepairURL(raw string) string {
	u := strings.TrimSpace(raw)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(u, "http:s"):
		u = "https" + u[len("http:s"):]
	case strings.HasPrefix(u, "https."):
		u = "https://" + u[len("https."):]
	case strings.HasPrefix(u, "http."):
		u = "http://" + u[len("http."):]
	}
	if strings.HasPrefix(u, "https//") {
		u = "https://" + u[len("https//"):]
	} else if strings.HasPrefix(u, "http//") {
		u = "http://" + u[len("http//"):]
	}
	return u
}

// DecodeTarget unwraps the community redirect pattern where the true
// destination rides base64-encoded in a target= query parameter. Anything
// that fails to decode returns the input unchanged.
func DecodeTarget(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	encoded := parsed.Query().Get("target")
	if encoded == "" {
		return raw
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return raw
	}
	if !utf8.Valid(decoded) {
		return raw
	}
	return string(decoded)
}

// Resolver follows a repaired, decoded link to its final destination.
type Resolver interface {
	Resolve(rawLink string) string
}

// HTTPResolver resolves redirect chains with a real HTTP client. Every stage
// degrades to the best URL obtained so far rather than failing.
type HTTPResolver struct {
	client *resty.Client
}

// NewHTTPResolver creates a resolver with sane timeouts.
func NewHTTPResolver() *HTTPResolver {
	return &HTTPResolver{
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
			SetHeader("User-Agent", helpers.RandomUserAgent()),
	}
}

// Resolve repairs and decodes the link, then follows its redirect chain and
// returns the final landed URL.
func (r *HTTPResolver) Resolve(rawLink string) string {
	u := DecodeTarget(RepairURL(rawLink))
	if u == "" || (!strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://")) {
		return u
	}

	resp, err := r.client.R().Get(u)
	if err != nil || resp.RawResponse == nil || resp.RawResponse.Request == nil {
		return u
	}
	if final := resp.RawResponse.Request.URL.String(); final != "" {
		return final
	}
	return u
}
