// Package provider holds the HTTP clients for the two upstream data sources:
// the Ecowitt personal weather-station cloud API and the ACA river/reservoir
// monitoring feeds. Both return generically decoded JSON documents; all field
// interpretation happens in the ingest package.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tecnolord/meteohub/internal/config"
)

// EcowittClient pulls the realtime device snapshot from the Ecowitt cloud.
type EcowittClient struct {
	http *resty.Client
	cfg  config.Ecowitt
}

// NewEcowittClient builds a client with the given credentials and timeout.
func NewEcowittClient(cfg config.Ecowitt, timeout time.Duration) *EcowittClient {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &EcowittClient{http: client, cfg: cfg}
}

// FetchRealtime retrieves the current device document. The unit selectors are
// fixed per deployment so every pull reports in the same units.
func (c *EcowittClient) FetchRealtime(ctx context.Context) (any, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"application_key":   c.cfg.ApplicationKey,
			"api_key":           c.cfg.APIKey,
			"mac":               c.cfg.MAC,
			"call_back":         "all",
			"temp_unitid":       c.cfg.TempUnitID,
			"wind_speed_unitid": c.cfg.WindUnitID,
			"rainfall_unitid":   c.cfg.RainUnitID,
			"pressure_unitid":   c.cfg.PressureUnitID,
		}).
		Get(c.cfg.BaseURL)
	if err != nil {
		return nil, &TransportError{URL: c.cfg.BaseURL, Err: err}
	}
	if resp.IsError() {
		return nil, &UpstreamError{URL: c.cfg.BaseURL, Status: resp.StatusCode()}
	}

	var doc any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("decode ecowitt payload: %w", err)
	}
	return doc, nil
}
