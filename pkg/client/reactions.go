package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// React runs the pipeline on the server.  An application failure (bad
// template, no valid reactants) comes back as a *ResultError alongside the
// result, which still carries the empty product list.
func (c *Client) React(ctx context.Context, req ReactionRequest) (*ReactionResult, error) {
	var res ReactionResult
	if err := c.do(ctx, http.MethodPost, "/api/react", req, &res); err != nil {
		return nil, err
	}
	if res.Products == nil {
		res.Products = []string{}
	}
	if res.Error != "" {
		return &res, &ResultError{Message: res.Error}
	}
	return &res, nil
}

// Stats returns the telemetry summary.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := c.getData(ctx, "/api/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Failures returns up to limit of the newest failure log entries, oldest
// first.  A non-positive limit uses the server default.
func (c *Client) Failures(ctx context.Context, limit int) ([]Failure, error) {
	path := "/api/failures"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []Failure
	if err := c.getData(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reactions lists the catalog, optionally restricted to one category.
func (c *Client) Reactions(ctx context.Context, category string) (*Catalog, error) {
	path := "/api/reactions"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var cat Catalog
	if err := c.getData(ctx, path, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Reaction fetches one catalog template.
func (c *Client) Reaction(ctx context.Context, id string) (*Reaction, error) {
	var r Reaction
	if err := c.getData(ctx, "/api/reactions/"+url.PathEscape(id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

//Personal.AI order the ending
