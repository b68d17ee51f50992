// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package tokenregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes limits registry responses to 10 MiB
const maxResponseBytes = 10 << 20

// queryProperties are the registry properties requested for each subject
var queryProperties = []string{
	"name",
	"description",
	"ticker",
	"url",
	"logo",
	"decimals",
}

// HTTP is a client for the token registry metadata API.
type HTTP struct {
	registryURL string
	httpClient  *http.Client
}

// HTTPOption is a functional option for configuring an HTTP registry.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom *http.Client for the registry client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(h *HTTP) {
		if hc != nil {
			h.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout of the default client.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.httpClient.Timeout = timeout
	}
}

// NewHTTP creates a registry client for the given base URL
// (e.g., "https://tokens.cardano.org").
func NewHTTP(registryURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		registryURL: strings.TrimRight(registryURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type queryRequest struct {
	Subjects   []string `json:"subjects"`
	Properties []string `json:"properties"`
}

type stringProperty struct {
	Value string `json:"value"`
}

type decimalsProperty struct {
	Value uint32 `json:"value"`
}

type subjectEntry struct {
	Subject     string            `json:"subject"`
	Name        *stringProperty   `json:"name,omitempty"`
	Description *stringProperty   `json:"description,omitempty"`
	Ticker      *stringProperty   `json:"ticker,omitempty"`
	URL         *stringProperty   `json:"url,omitempty"`
	Logo        *stringProperty   `json:"logo,omitempty"`
	Decimals    *decimalsProperty `json:"decimals,omitempty"`
}

type queryResponse struct {
	Subjects []subjectEntry `json:"subjects"`
}

func (p *stringProperty) value() string {
	if p == nil {
		return ""
	}
	return p.Value
}

func (e subjectEntry) metadata() Metadata {
	ret := Metadata{
		Subject:     e.Subject,
		Name:        e.Name.value(),
		Description: e.Description.value(),
		Ticker:      e.Ticker.value(),
		URL:         e.URL.value(),
		Logo:        e.Logo.value(),
	}
	if e.Decimals != nil {
		ret.Decimals = e.Decimals.Value
	}
	return ret
}

// BatchMetadata queries the registry for all assets in one request.
// Corresponds to POST /metadata/query.
func (h *HTTP) BatchMetadata(ctx context.Context, assets []Asset) (map[string]Metadata, error) {
	ret := make(map[string]Metadata)
	if len(assets) == 0 {
		return ret, nil
	}
	seen := make(map[string]bool, len(assets))
	query := queryRequest{Properties: queryProperties}
	for _, asset := range assets {
		subject := asset.Subject()
		if seen[subject] {
			continue
		}
		seen[subject] = true
		query.Subjects = append(query.Subjects, subject)
	}
	body, err := h.doPost(ctx, h.registryURL+"/metadata/query", query)
	if err != nil {
		return nil, fmt.Errorf("querying token metadata: %w", err)
	}
	defer body.Close()

	var resp queryResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding token metadata: %w", err)
	}
	for _, entry := range resp.Subjects {
		if !seen[entry.Subject] {
			continue
		}
		ret[entry.Subject] = entry.metadata()
	}
	return ret, nil
}

// doPost performs an HTTP POST request with a JSON body and returns the
// response body. The caller is responsible for closing the returned
// ReadCloser.
func (h *HTTP) doPost(
	ctx context.Context,
	reqURL string,
	payload any,
) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		reqURL,
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do( //nolint:gosec // URL is built from the configured registry base
		req,
	)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp == nil || resp.Body == nil {
		return nil, errors.New("nil response from server")
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(
			io.LimitReader(resp.Body, 1024),
		)
		return nil, fmt.Errorf(
			"unexpected status %d: %s",
			resp.StatusCode,
			string(bodyBytes),
		)
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, maxResponseBytes),
		Closer: resp.Body,
	}, nil
}

// limitedReadCloser wraps a size-limited Reader with the
// underlying connection's Closer.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
