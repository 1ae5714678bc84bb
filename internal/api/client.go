// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// Client is a client for the HTTP API.
type Client struct {
	Server string
	HTTP   *http.Client
}

func NewClient(server string) *Client {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	return &Client{Server: strings.TrimSuffix(server, "/"), HTTP: http.DefaultClient}
}

func (c *Client) Token(ctx context.Context) (*ledger.Metadata, error) {
	res := new(ledger.Metadata)
	err := c.do(ctx, http.MethodGet, "/v1/token", nil, res)
	return res, err
}

func (c *Client) Balance(ctx context.Context, id ledger.AccountID) (*Balance, error) {
	res := new(Balance)
	err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(string(id))+"/balance", nil, res)
	return res, err
}

func (c *Client) Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	res := new(TransferResponse)
	err := c.do(ctx, http.MethodPost, "/v1/transfer", req, res)
	return res, err
}

func (c *Client) State(ctx context.Context) (*ledger.State, error) {
	res := new(ledger.State)
	err := c.do(ctx, http.MethodGet, "/v1/state", nil, res)
	return res, err
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	res := new(Health)
	err := c.do(ctx, http.MethodGet, "/healthz", nil, res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.EncodingError.WithFormat("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Server+path, rd)
	if err != nil {
		return errors.BadRequest.WithFormat("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.UnknownError.WithFormat("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.UnknownError.WithFormat("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		e := new(errors.Error)
		if json.Unmarshal(b, e) != nil || e.Code == 0 {
			return errors.Status(resp.StatusCode).WithFormat("%s %s: %s", method, path, resp.Status)
		}
		return e
	}

	err = json.Unmarshal(b, result)
	if err != nil {
		return errors.EncodingError.WithFormat("decode response: %w", err)
	}
	return nil
}
