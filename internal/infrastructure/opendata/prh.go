package opendata

import (
	"context"
	"fmt"
	"net/url"

	"NordicDataFlow/internal/domain"
)

// PRH searches the YTJ company registry of the Finnish Patent and Registration Office.
type PRH struct {
	client  *Client
	baseURL string
}

// NewPRH builds the PRH source.
func NewPRH(client *Client, baseURL string) *PRH {
	return &PRH{client: client, baseURL: baseURL}
}

// Name identifies the source inside the registry and bronze layout.
func (p *PRH) Name() string { return "prh" }

// Kind tags bronze blobs as company search results.
func (p *PRH) Kind() domain.DatasetKind { return domain.KindCompanies }

// Dataset is companies_<name>, companies_<businessId> or companies_all.
func (p *PRH) Dataset(params map[string]string) (string, error) {
	id := params["name"]
	if id == "" {
		id = params["businessId"]
	}
	if id == "" {
		id = "all"
	}
	return "companies_" + id, nil
}

// Fetch searches by name and/or businessId.
func (p *PRH) Fetch(ctx context.Context, params map[string]string) (domain.Fetched, error) {
	dataset, _ := p.Dataset(params)

	query := url.Values{}
	sent := map[string]string{}
	for _, key := range []string{"name", "businessId"} {
		if v := params[key]; v != "" {
			query.Set(key, v)
			sent[key] = v
		}
	}

	data, err := p.client.getJSON(ctx, p.baseURL, query, nil)
	if err != nil {
		return domain.Fetched{}, fmt.Errorf("prh %s: %w", dataset, err)
	}

	return domain.Fetched{
		Source:   p.Name(),
		Label:    "prh_ytj",
		Dataset:  dataset,
		Kind:     p.Kind(),
		ParamKey: "query",
		Params:   sent,
		Data:     data,
		Records:  fieldListLength(data, "results"),
	}, nil
}
