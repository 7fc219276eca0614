package tui

import (
	"context"
	"strings"
	"time"

	"sheetdesk-cli/internal/model"
	"sheetdesk-cli/internal/push"
	"sheetdesk-cli/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	requestTimeout = 30 * time.Second
	flashDuration  = 3 * time.Second
)

// syncClient is the slice of the API client the panel needs. Tests swap in
// a fake; production passes *api.Client.
type syncClient interface {
	FetchConfig(ctx context.Context) (model.ConfigSnapshot, error)
	UpdateGlobalSettings(ctx context.Context, gs model.GlobalSettings) (model.GlobalSettings, error)
	AddSheetConfig(ctx context.Context, cfg model.SheetConfig) (model.SheetConfig, error)
	UpdateSheetConfig(ctx context.Context, id string, cfg model.SheetConfig) (model.SheetConfig, error)
	DeleteSheetConfig(ctx context.Context, id string) error
}

// sheetField indexes into appModel.fieldInputs. The order matches the form
// layout top to bottom.
const (
	fieldSheetName = iota
	fieldSpreadsheetIDs
	fieldBankDestination
	fieldBankNameDestination
	fieldDanaUsed
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Sheet name",
	"Spreadsheet IDs",
	"Bank destination",
	"Bank name destination",
	"Dana used",
}

type appModel struct {
	client    syncClient
	cache     *store.Store
	serverURL string

	// resumePush re-arms the push listener when the terminal regains
	// focus. Nil in tests.
	resumePush func()

	width  int
	height int

	configs list.Model

	modal modal

	// Sheet form state. editTargetID is empty in add mode.
	fieldInputs  [fieldCount]textinput.Model
	fieldFocus   int
	editTargetID string

	settingsInput textinput.Model

	deleteTargetID   string
	deleteTargetName string
	confirmFocus     confirmModalFocus

	// confirmDelete gates the delete confirmation modal; when false, 'd'
	// deletes immediately.
	confirmDelete bool

	spin spinner.Model
	// busy counts in-flight server requests.
	busy int

	flashText string
	flashKind string // "", "error"
	flashSeq  int

	pushState push.State
}

func newAppModel(client syncClient, serverURL string, confirmDelete bool) appModel {
	m := appModel{
		client:        client,
		cache:         store.New(),
		serverURL:     serverURL,
		confirmDelete: confirmDelete,
		pushState:     push.StateDisconnected,
	}

	m.configs = newList("Sheet configs", "", nil)

	for i := range m.fieldInputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 0
		m.fieldInputs[i] = ti
	}
	m.fieldInputs[fieldSheetName].Placeholder = "Sheet A"
	m.fieldInputs[fieldSpreadsheetIDs].Placeholder = "id1,id2"
	m.fieldInputs[fieldDanaUsed].Placeholder = "yes / no"

	m.settingsInput = textinput.New()
	m.settingsInput.Prompt = ""
	m.settingsInput.Placeholder = model.DefaultTransferDestination

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot

	// One request is in flight from the start: the initial load.
	m.busy = 1
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadConfigCmd(), m.spin.Tick)
}

// flash replaces the status-line message and schedules its expiry. The
// sequence number keeps a stale timer from clearing a newer message.
func (m *appModel) flash(kind, text string) tea.Cmd {
	m.flashKind = kind
	m.flashText = text
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashDoneMsg{seq: seq}
	})
}

// refreshConfigs rebuilds the list items from the cache, keeping the
// selection on the same record when it survived the refresh.
func (m *appModel) refreshConfigs() {
	var selectedID string
	if it, ok := m.configs.SelectedItem().(sheetItem); ok {
		selectedID = it.cfg.SheetID
	}

	snap := m.cache.Snapshot()
	items := make([]list.Item, 0, len(snap.SheetConfigs))
	selectIdx := -1
	for i, cfg := range snap.SheetConfigs {
		items = append(items, sheetItem{cfg: cfg})
		if selectedID != "" && cfg.SheetID == selectedID {
			selectIdx = i
		}
	}
	m.configs.SetItems(items)
	if selectIdx >= 0 {
		m.configs.Select(selectIdx)
	}
}

// openSheetForm prepares the form modal. With a non-empty id the fields are
// prefilled from the cache; otherwise the form starts blank.
func (m *appModel) openSheetForm(id string) {
	m.editTargetID = id
	for i := range m.fieldInputs {
		m.fieldInputs[i].SetValue("")
		m.fieldInputs[i].Blur()
	}
	if id != "" {
		if cfg, ok := m.cache.Get(id); ok {
			m.fieldInputs[fieldSheetName].SetValue(cfg.SheetName)
			m.fieldInputs[fieldSpreadsheetIDs].SetValue(cfg.SpreadsheetIDs)
			m.fieldInputs[fieldBankDestination].SetValue(cfg.BankDestination)
			m.fieldInputs[fieldBankNameDestination].SetValue(cfg.BankNameDestination)
			m.fieldInputs[fieldDanaUsed].SetValue(cfg.DanaUsed)
		}
	}
	m.fieldFocus = 0
	m.fieldInputs[0].Focus()
	m.modal = modalSheetForm
}

func (m *appModel) closeModal() {
	for i := range m.fieldInputs {
		m.fieldInputs[i].Blur()
	}
	m.settingsInput.Blur()
	m.modal = modalNone
}

// sheetFromForm assembles the record currently typed into the form.
func (m appModel) sheetFromForm() model.SheetConfig {
	return model.SheetConfig{
		SheetID:             m.editTargetID,
		SheetName:           strings.TrimSpace(m.fieldInputs[fieldSheetName].Value()),
		SpreadsheetIDs:      strings.TrimSpace(m.fieldInputs[fieldSpreadsheetIDs].Value()),
		BankDestination:     strings.TrimSpace(m.fieldInputs[fieldBankDestination].Value()),
		BankNameDestination: strings.TrimSpace(m.fieldInputs[fieldBankNameDestination].Value()),
		DanaUsed:            strings.TrimSpace(m.fieldInputs[fieldDanaUsed].Value()),
	}
}
