package opendata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"NordicDataFlow/internal/domain"
)

// datasetParam carries the Eurostat dataset code; every other param is forwarded.
const datasetParam = "dataset"

// Eurostat reads one dissemination dataset.
type Eurostat struct {
	client  *Client
	baseURL string
}

// NewEurostat builds the Eurostat source.
func NewEurostat(client *Client, baseURL string) *Eurostat {
	return &Eurostat{client: client, baseURL: baseURL}
}

// Name identifies the source inside the registry and bronze layout.
func (e *Eurostat) Name() string { return "eurostat" }

// Kind tags bronze blobs as Eurostat datasets; they are kept raw.
func (e *Eurostat) Kind() domain.DatasetKind { return domain.KindEurostat }

// Dataset is the dataset code itself.
func (e *Eurostat) Dataset(params map[string]string) (string, error) {
	code := strings.TrimSpace(params[datasetParam])
	if code == "" {
		return "", errors.New("eurostat dataset code is required")
	}
	return code, nil
}

// Fetch downloads the dataset with format=JSON and lang=EN unless params override them.
func (e *Eurostat) Fetch(ctx context.Context, params map[string]string) (domain.Fetched, error) {
	code, err := e.Dataset(params)
	if err != nil {
		return domain.Fetched{}, err
	}

	query := url.Values{}
	query.Set("format", "JSON")
	query.Set("lang", "EN")
	for key, value := range params {
		if key == datasetParam {
			continue
		}
		query.Set(key, value)
	}

	endpoint := strings.TrimSuffix(e.baseURL, "/") + "/" + url.PathEscape(code)
	data, err := e.client.getJSON(ctx, endpoint, query, nil)
	if err != nil {
		return domain.Fetched{}, fmt.Errorf("eurostat %s: %w", code, err)
	}

	var head struct {
		Label string `json:"label"`
	}
	_ = json.Unmarshal(data, &head)

	return domain.Fetched{
		Source:   e.Name(),
		Label:    "eurostat",
		Dataset:  code,
		Kind:     e.Kind(),
		ParamKey: "dataset_code",
		Params:   code,
		Data:     data,
		Title:    head.Label,
	}, nil
}
