package opendata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"NordicDataFlow/internal/domain"
)

const defaultFingridPageSize = 100

// Fingrid reads one Fingrid Open Data dataset. It needs an API key.
type Fingrid struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewFingrid builds the Fingrid source.
func NewFingrid(client *Client, baseURL, apiKey string) *Fingrid {
	return &Fingrid{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Name identifies the source inside the registry and bronze layout.
func (f *Fingrid) Name() string { return "fingrid" }

// Kind tags bronze blobs as electricity measurements.
func (f *Fingrid) Kind() domain.DatasetKind { return domain.KindElectricity }

// Dataset is dataset_<id>.
func (f *Fingrid) Dataset(params map[string]string) (string, error) {
	id, err := datasetID(params)
	if err != nil {
		return "", err
	}
	return "dataset_" + strconv.Itoa(id), nil
}

// Fetch downloads one page of measurements. Without an API key no request is sent.
func (f *Fingrid) Fetch(ctx context.Context, params map[string]string) (domain.Fetched, error) {
	if f.apiKey == "" {
		return domain.Fetched{}, fmt.Errorf("fingrid: %w", domain.ErrMissingAPIKey)
	}

	id, err := datasetID(params)
	if err != nil {
		return domain.Fetched{}, err
	}

	pageSize := defaultFingridPageSize
	if raw := params["pageSize"]; raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize <= 0 {
			return domain.Fetched{}, fmt.Errorf("fingrid: invalid pageSize %q", raw)
		}
	}

	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(pageSize))

	endpoint := fmt.Sprintf("%s/%d/data", strings.TrimSuffix(f.baseURL, "/"), id)
	data, err := f.client.getJSON(ctx, endpoint, query, map[string]string{"x-api-key": f.apiKey})
	if err != nil {
		return domain.Fetched{}, fmt.Errorf("fingrid dataset %d: %w", id, err)
	}

	return domain.Fetched{
		Source:   f.Name(),
		Label:    "fingrid",
		Dataset:  "dataset_" + strconv.Itoa(id),
		Kind:     f.Kind(),
		ParamKey: "dataset_id",
		Params:   id,
		Data:     data,
		Records:  fieldListLength(data, "data"),
	}, nil
}

func datasetID(params map[string]string) (int, error) {
	raw := strings.TrimSpace(params["dataset_id"])
	if raw == "" {
		return domain.DefaultElectricityDatasetID, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("fingrid: invalid dataset_id %q", raw)
	}
	return id, nil
}
