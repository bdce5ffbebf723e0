package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// parseFeatures reads the observation from a request. POST bodies carry JSON
// (an object, an array, or either wrapped as {"features": ...}) or a form;
// GET requests and empty bodies fall back to the query string.
func parseFeatures(r *http.Request) (domain.Features, error) {
	if r.Method == http.MethodPost && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return domain.Features{}, fmt.Errorf("read body: %w", err)
		}
		if len(bytes.TrimSpace(body)) > 0 {
			if isForm(r.Header.Get("Content-Type")) {
				return queryFeatures(string(body))
			}
			return bodyFeatures(body)
		}
	}
	return queryFeatures(r.URL.RawQuery)
}

func isForm(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/x-www-form-urlencoded"
}

func bodyFeatures(body []byte) (domain.Features, error) {
	f, err := domain.ParseFeatures(body)
	if err != nil {
		return f, err
	}
	if inner, ok := f.Attrs["features"]; ok && len(f.Attrs) == 1 {
		raw, err := json.Marshal(inner)
		if err != nil {
			return domain.Features{}, fmt.Errorf("%w: features: %v", domain.ErrBadArguments, err)
		}
		return domain.ParseFeatures(raw)
	}
	return f, nil
}

// queryFeatures turns "a=1&b=2" into attributes and "onefish,twofish" into a
// token list. A query mixing both forms is read as a token list, which yields
// the same "key=value" tokens for its attribute parts.
func queryFeatures(raw string) (domain.Features, error) {
	var parts []string
	for _, p := range strings.FieldsFunc(raw, func(r rune) bool { return r == '&' || r == ',' || r == ';' }) {
		v, err := url.QueryUnescape(p)
		if err != nil {
			return domain.Features{}, fmt.Errorf("%w: query %q: %v", domain.ErrBadArguments, p, err)
		}
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return domain.Features{}, nil
	}

	attrs := make(map[string]any, len(parts))
	for _, p := range parts {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return tokenList(parts), nil
		}
		attrs[k] = v
	}
	return domain.FeatureMap(attrs), nil
}

func tokenList(parts []string) domain.Features {
	values := make([]any, len(parts))
	for i, p := range parts {
		values[i] = p
	}
	return domain.FeatureList(values...)
}
