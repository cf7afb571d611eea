package opendata

import (
	"context"
	"fmt"
	"strings"

	"NordicDataFlow/internal/domain"
)

// StatFin reads the Statistics Finland PxWeb catalog.
type StatFin struct {
	client  *Client
	baseURL string
}

// NewStatFin builds the Statistics Finland source rooted at baseURL.
func NewStatFin(client *Client, baseURL string) *StatFin {
	return &StatFin{client: client, baseURL: baseURL}
}

// Name identifies the source inside the registry and bronze layout.
func (s *StatFin) Name() string { return "stat_finland" }

// Kind tags bronze blobs as category listings.
func (s *StatFin) Kind() domain.DatasetKind { return domain.KindStatCategories }

// Dataset is the requested category path or "catalog" for the root listing.
func (s *StatFin) Dataset(params map[string]string) (string, error) {
	if category := params["category"]; category != "" {
		return category, nil
	}
	return "catalog", nil
}

// Fetch lists the catalog, or one category when params["category"] is set.
func (s *StatFin) Fetch(ctx context.Context, params map[string]string) (domain.Fetched, error) {
	category := params["category"]
	dataset, _ := s.Dataset(params)

	url := s.baseURL
	if category != "" {
		url = strings.TrimSuffix(url, "/") + "/" + strings.TrimPrefix(category, "/")
	}

	data, err := s.client.getJSON(ctx, url, nil, nil)
	if err != nil {
		return domain.Fetched{}, fmt.Errorf("statistics finland %s: %w", dataset, err)
	}

	var paramValue any
	if category != "" {
		paramValue = category
	}

	return domain.Fetched{
		Source:   s.Name(),
		Label:    "statistics_finland",
		Dataset:  dataset,
		Kind:     s.Kind(),
		ParamKey: "category",
		Params:   paramValue,
		Data:     data,
		Records:  listLength(data),
	}, nil
}
