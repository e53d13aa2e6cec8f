package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/worldbrief/worldbrief/internal/util"
)

const (
	googleEndpoint = "https://translate.googleapis.com/translate_a/single"
	maxTextLen     = 4000
)

// GoogleOracle translates via the public Google Translate web endpoint.
type GoogleOracle struct {
	httpClient *http.Client
	endpoint   string
}

// NewGoogleOracle creates the default translation oracle.
func NewGoogleOracle(timeout time.Duration) *GoogleOracle {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &GoogleOracle{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   googleEndpoint,
	}
}

// NewGoogleOracleWithEndpoint allows pointing the oracle at a test server.
func NewGoogleOracleWithEndpoint(endpoint string, timeout time.Duration) *GoogleOracle {
	o := NewGoogleOracle(timeout)
	o.endpoint = endpoint
	return o
}

// Translate translates text from sourceLang to targetLang. The endpoint
// auto-detects when sourceLang is "auto" or wrong.
func (o *GoogleOracle) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" {
		return "", nil
	}
	text = util.Truncate(text, maxTextLen)
	if sourceLang == "" {
		sourceLang = "auto"
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceLang)
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate endpoint status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	return parseResponse(body)
}

// parseResponse unpacks the endpoint's nested-array payload: the first
// element is a list of [translatedSegment, originalSegment, ...] tuples.
func parseResponse(body []byte) (string, error) {
	var payload []interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("empty translate response")
	}

	segments, ok := payload[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected translate response shape")
	}

	var b strings.Builder
	for _, segment := range segments {
		tuple, ok := segment.([]interface{})
		if !ok || len(tuple) == 0 {
			continue
		}
		if translated, ok := tuple[0].(string); ok {
			b.WriteString(translated)
		}
	}

	if b.Len() == 0 {
		return "", errors.New("no translation in response")
	}
	return b.String(), nil
}
