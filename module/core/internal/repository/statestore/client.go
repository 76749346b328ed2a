package statestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/database"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/publisher"
)

var (
	_ database.ZoneRepository = (*Client)(nil)
	_ publisher.StateSink     = (*Client)(nil)
)

const zonePrefix = "zone."

// Client talks to the state store REST API. baseURL is the API root, e.g.
// http://homeassistant.local:8123/api.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type entityState struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

type stateRequest struct {
	State      string                   `json:"state"`
	Attributes domain.DeviceCoordinates `json:"attributes"`
}

// Ping checks that the API root answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: status %d", resp.StatusCode)
	}
	return nil
}

// ListZones returns the active zone entities in the order the store lists them.
func (c *Client) ListZones(ctx context.Context) ([]domain.Zone, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/states", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list states: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var states []entityState
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, fmt.Errorf("decode states: %w", err)
	}

	zones := []domain.Zone{}
	for _, st := range states {
		z, ok := toZone(&st)
		if !ok {
			continue
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// PushState upserts the tracked entity. The response body is not inspected;
// a non-2xx status is logged, not returned.
func (c *Client) PushState(ctx context.Context, update *domain.StateUpdate) error {
	body, err := json.Marshal(stateRequest{State: update.State, Attributes: update.Attributes})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/states/"+url.PathEscape(update.Entity), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post state: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("state store answered %d for %s", resp.StatusCode, update.Entity)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func toZone(st *entityState) (domain.Zone, bool) {
	name, ok := strings.CutPrefix(st.EntityID, zonePrefix)
	if !ok || name == "" {
		return domain.Zone{}, false
	}
	if passive, _ := st.Attributes["passive"].(bool); passive {
		return domain.Zone{}, false
	}

	lat, okLat := number(st.Attributes["latitude"])
	lon, okLon := number(st.Attributes["longitude"])
	if !okLat || !okLon {
		return domain.Zone{}, false
	}
	radius, ok := number(st.Attributes["radius"])
	if !ok || radius <= 0 {
		return domain.Zone{}, false
	}

	return domain.Zone{
		Name:   name,
		Center: domain.GeoPoint{Lat: lat, Lon: lon},
		Radius: radius,
	}, true
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
