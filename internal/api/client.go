// Package api is the sync client for the Multi-Sheet Data Transfer backend.
//
// Every mutating call is fire-and-confirm: callers apply nothing locally
// until the round trip succeeds, and the server-returned canonical record
// (not the submitted one) is what gets cached. There is no batching and no
// retrying; a failed request surfaces an error and changes nothing.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sheetdesk-cli/internal/model"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// configPayload tolerates both /get_config response shapes: the current
// {global_settings, sheet_configs} split and the legacy flat {config}
// record from before multi-sheet support. Supporting both is intentional
// backward compatibility, not a bug.
type configPayload struct {
	GlobalSettings *model.GlobalSettings `json:"global_settings"`
	SheetConfigs   []model.SheetConfig   `json:"sheet_configs"`
	Config         *legacyConfig         `json:"config"`
}

type legacyConfig struct {
	TransferDestination string `json:"transfer_destination"`
	DanaUsed            string `json:"dana_used"`
	SheetName           string `json:"sheet_name"`
	SpreadsheetIDs      string `json:"spreadsheet_ids"`
	BankDestination     string `json:"bank_destination"`
	BankNameDestination string `json:"bank_name_destination"`
}

// FetchConfig performs the wholesale load: global settings plus all sheet
// configs in one call.
func (c *Client) FetchConfig(ctx context.Context) (model.ConfigSnapshot, error) {
	var payload configPayload
	if err := c.do(ctx, http.MethodGet, "/get_config", nil, &payload); err != nil {
		return model.ConfigSnapshot{}, err
	}

	if payload.GlobalSettings != nil || payload.SheetConfigs != nil {
		snap := model.ConfigSnapshot{SheetConfigs: payload.SheetConfigs}
		if payload.GlobalSettings != nil {
			snap.GlobalSettings = *payload.GlobalSettings
		}
		return snap, nil
	}

	if payload.Config != nil {
		return snapshotFromLegacy(*payload.Config), nil
	}

	return model.ConfigSnapshot{}, fmt.Errorf("unrecognized /get_config payload")
}

// snapshotFromLegacy mirrors the backend's own flat-to-multi migration:
// transfer_destination becomes the global settings, and the per-sheet
// fields surface as a single id-less record when they name a sheet.
func snapshotFromLegacy(lc legacyConfig) model.ConfigSnapshot {
	snap := model.ConfigSnapshot{
		GlobalSettings: model.GlobalSettings{TransferDestination: lc.TransferDestination},
	}
	if snap.GlobalSettings.TransferDestination == "" {
		snap.GlobalSettings.TransferDestination = model.DefaultTransferDestination
	}
	if strings.TrimSpace(lc.SheetName) != "" && strings.TrimSpace(lc.SpreadsheetIDs) != "" {
		snap.SheetConfigs = []model.SheetConfig{{
			DanaUsed:            lc.DanaUsed,
			SheetName:           lc.SheetName,
			SpreadsheetIDs:      lc.SpreadsheetIDs,
			BankDestination:     lc.BankDestination,
			BankNameDestination: lc.BankNameDestination,
		}}
	}
	return snap
}

// UpdateGlobalSettings replaces the settings record and returns the
// server's canonical value.
func (c *Client) UpdateGlobalSettings(ctx context.Context, gs model.GlobalSettings) (model.GlobalSettings, error) {
	var resp struct {
		CurrentSettings model.GlobalSettings `json:"current_settings"`
	}
	if err := c.do(ctx, http.MethodPost, "/update_global_settings", gs, &resp); err != nil {
		return model.GlobalSettings{}, err
	}
	return resp.CurrentSettings, nil
}

// AddSheetConfig creates a sheet config and returns the canonical record,
// including the server-assigned id.
func (c *Client) AddSheetConfig(ctx context.Context, cfg model.SheetConfig) (model.SheetConfig, error) {
	var resp struct {
		Config model.SheetConfig `json:"config"`
	}
	if err := c.do(ctx, http.MethodPost, "/add_sheet_config", cfg, &resp); err != nil {
		return model.SheetConfig{}, err
	}
	return resp.Config, nil
}

// UpdateSheetConfig updates the config with the given id and returns the
// canonical record.
func (c *Client) UpdateSheetConfig(ctx context.Context, id string, cfg model.SheetConfig) (model.SheetConfig, error) {
	var resp struct {
		CurrentConfig model.SheetConfig `json:"current_config"`
	}
	path := "/update_sheet_config/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, cfg, &resp); err != nil {
		return model.SheetConfig{}, err
	}
	return resp.CurrentConfig, nil
}

// DeleteSheetConfig deletes the config with the given id.
func (c *Client) DeleteSheetConfig(ctx context.Context, id string) error {
	path := "/delete_sheet_config/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	// The backend reports errors as {"detail": "..."}; tolerate any other
	// body shape and fall back to the status code.
	var body struct {
		Detail string `json:"detail"`
	}
	if b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		if json.Unmarshal(b, &body) == nil {
			apiErr.Detail = strings.TrimSpace(body.Detail)
		}
	}
	return apiErr
}
