package model

import (
	"fmt"
	"strings"
)

// DefaultTransferDestination is applied by the backend when settings have
// never been saved.
const DefaultTransferDestination = "LAYER 1"

// GlobalSettings are transfer-wide defaults applied across all sheet
// configs. The record is replaced wholesale on update.
type GlobalSettings struct {
	TransferDestination string `json:"transfer_destination"`
}

// SheetConfig maps a source spreadsheet to a destination bank identity.
// SheetID is assigned by the server and opaque to the client.
type SheetConfig struct {
	SheetID             string `json:"sheet_id,omitempty"`
	DanaUsed            string `json:"dana_used"`
	SheetName           string `json:"sheet_name"`
	SpreadsheetIDs      string `json:"spreadsheet_ids"`
	BankDestination     string `json:"bank_destination"`
	BankNameDestination string `json:"bank_name_destination"`
}

// Validate checks the required fields. The backend owns any validation
// beyond presence.
func (c SheetConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"dana_used", c.DanaUsed},
		{"sheet_name", c.SheetName},
		{"spreadsheet_ids", c.SpreadsheetIDs},
		{"bank_destination", c.BankDestination},
		{"bank_name_destination", c.BankNameDestination},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing required field: %s", f.name)
		}
	}
	return nil
}

// Legacy reports whether the record came from the backend's old flat config
// shape, which predates server-assigned ids. Legacy records cannot be
// updated or deleted until the server re-serves them with minted ids.
func (c SheetConfig) Legacy() bool {
	return strings.TrimSpace(c.SheetID) == ""
}

// ConfigSnapshot is the full server-held configuration as returned by
// GET /get_config. The client treats it as a cacheable unit: it is fetched
// wholesale and invalidated wholesale.
type ConfigSnapshot struct {
	GlobalSettings GlobalSettings `json:"global_settings"`
	SheetConfigs   []SheetConfig  `json:"sheet_configs"`
}
