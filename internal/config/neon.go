package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ResolveDatabaseURL returns the connection string to use. When DATABASE_URL
// is set it is returned as is; otherwise the string is fetched once from the
// Neon API using the configured key and project id.
func (d *DatabaseConfig) ResolveDatabaseURL(ctx context.Context, client *http.Client) (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if !d.UsesRemoteConnectionString() {
		return "", errors.New("no database connection string configured")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	q := url.Values{}
	q.Set("database_name", d.NeonDatabase)
	q.Set("role_name", d.NeonRole)
	endpoint := fmt.Sprintf("%s/projects/%s/connection_uri?%s",
		d.NeonAPIURL, url.PathEscape(d.NeonProjectID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build connection uri request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.NeonAPIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch connection uri: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fetch connection uri: unexpected status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode connection uri response: %w", err)
	}
	if payload.URI == "" {
		return "", errors.New("connection uri response did not contain a uri")
	}
	return payload.URI, nil
}
