/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package persist synchronizes the in-memory scene with the remote
// sandbox store: a thin HTTP client for the wire API plus the
// controller that owns load-time reconciliation, dirty tracking,
// debounced autosave and the single-flight save latch.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"citysketch/internal/domain"
)

// LoadResult is the outcome of fetching a proposal's sandbox.
type LoadResult struct {
	Exists    bool
	Scene     domain.Scene
	CreatedAt time.Time
}

// Client is a minimal HTTP client for the sandbox API.
type Client struct {
	BaseURL string
	Token   string // bearer token, optional
	client  *http.Client
}

// NewClient creates a sandbox client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type loadEnvelope struct {
	Exists    bool       `json:"exists"`
	Scene     *WireScene `json:"scene,omitempty"`
	CreatedAt string     `json:"createdAt,omitempty"`
}

type saveEnvelope struct {
	ProposalID string    `json:"proposalId"`
	Scene      WireScene `json:"scene"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// LoadSandbox fetches the scene stored for a proposal. A proposal with
// no stored scene yet is not an error; Exists reports false.
func (c *Client) LoadSandbox(ctx context.Context, proposalID string) (*LoadResult, error) {
	var env loadEnvelope
	path := "/api/sandbox?proposalId=" + url.QueryEscape(proposalID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	res := &LoadResult{Exists: env.Exists}
	if env.Exists && env.Scene != nil {
		res.Scene = DecodeScene(*env.Scene)
	}
	if env.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, env.CreatedAt); err == nil {
			res.CreatedAt = ts
		}
	}
	return res, nil
}

// SaveSandbox stores the whole scene for a proposal. The server applies
// last-writer-wins; there is no version check.
func (c *Client) SaveSandbox(ctx context.Context, proposalID string, scene domain.Scene) error {
	body := saveEnvelope{ProposalID: proposalID, Scene: EncodeScene(scene)}
	return c.doJSON(ctx, http.MethodPost, "/api/sandbox", body, nil)
}
