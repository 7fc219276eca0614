package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"sheetdesk-cli/internal/model"
	"sheetdesk-cli/internal/push"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeClient struct {
	mu         sync.Mutex
	snap       model.ConfigSnapshot
	fetchCalls int
	nextID     int

	failAdd    error
	failUpdate error
	failDelete error
}

func (f *fakeClient) FetchConfig(ctx context.Context) (model.ConfigSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return f.snap, nil
}

func (f *fakeClient) UpdateGlobalSettings(ctx context.Context, gs model.GlobalSettings) (model.GlobalSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.GlobalSettings = gs
	return gs, nil
}

func (f *fakeClient) AddSheetConfig(ctx context.Context, cfg model.SheetConfig) (model.SheetConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd != nil {
		return model.SheetConfig{}, f.failAdd
	}
	f.nextID++
	cfg.SheetID = fmt.Sprintf("srv-%d", f.nextID)
	f.snap.SheetConfigs = append(f.snap.SheetConfigs, cfg)
	return cfg, nil
}

func (f *fakeClient) UpdateSheetConfig(ctx context.Context, id string, cfg model.SheetConfig) (model.SheetConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return model.SheetConfig{}, f.failUpdate
	}
	for i := range f.snap.SheetConfigs {
		if f.snap.SheetConfigs[i].SheetID == id {
			cfg.SheetID = id
			f.snap.SheetConfigs[i] = cfg
			return cfg, nil
		}
	}
	return model.SheetConfig{}, fmt.Errorf("no sheet config with id %s", id)
}

func (f *fakeClient) DeleteSheetConfig(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	for i := range f.snap.SheetConfigs {
		if f.snap.SheetConfigs[i].SheetID == id {
			f.snap.SheetConfigs = append(f.snap.SheetConfigs[:i], f.snap.SheetConfigs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no sheet config with id %s", id)
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func sheet(id, name string) model.SheetConfig {
	return model.SheetConfig{
		SheetID:             id,
		SheetName:           name,
		SpreadsheetIDs:      "sp-1",
		BankDestination:     "0123456789",
		BankNameDestination: "ACME BANK",
		DanaUsed:            "no",
	}
}

func drive(t *testing.T, m appModel, msgs ...tea.Msg) appModel {
	t.Helper()
	for _, msg := range msgs {
		mm, _ := m.Update(msg)
		m = mm.(appModel)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newLoadedModel builds a model, sizes it and completes the initial fetch.
func newLoadedModel(t *testing.T, f *fakeClient) appModel {
	t.Helper()
	m := newAppModel(f, "http://localhost:8000", true)
	m = drive(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = drive(t, m, m.loadConfigCmd()())
	return m
}

func TestInitialLoadPopulatesListInServerOrder(t *testing.T) {
	t.Parallel()

	f := &fakeClient{snap: model.ConfigSnapshot{
		GlobalSettings: model.GlobalSettings{TransferDestination: "LAYER 1"},
		SheetConfigs:   []model.SheetConfig{sheet("id-1", "Alpha"), sheet("id-2", "Beta")},
	}}
	m := newLoadedModel(t, f)

	items := m.configs.Items()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	first := items[0].(sheetItem)
	second := items[1].(sheetItem)
	if first.cfg.SheetName != "Alpha" || second.cfg.SheetName != "Beta" {
		t.Fatalf("list order = %q, %q; want Alpha, Beta", first.cfg.SheetName, second.cfg.SheetName)
	}
	if m.busy != 0 {
		t.Fatalf("busy = %d after load, want 0", m.busy)
	}
}

func TestAddSheetUsesServerCanonicalRecord(t *testing.T) {
	t.Parallel()

	f := &fakeClient{}
	m := newLoadedModel(t, f)

	m = drive(t, m, key("a"))
	if m.modal != modalSheetForm {
		t.Fatalf("modal = %v after 'a', want sheet form", m.modal)
	}
	m.fieldInputs[fieldSheetName].SetValue("Sheet A")
	m.fieldInputs[fieldSpreadsheetIDs].SetValue("sp-9")
	m.fieldInputs[fieldBankDestination].SetValue("0123456789")
	m.fieldInputs[fieldBankNameDestination].SetValue("ACME BANK")
	m.fieldInputs[fieldDanaUsed].SetValue("yes")

	mm, cmd := m.Update(key("ctrl+s"))
	m = mm.(appModel)
	if cmd == nil {
		t.Fatal("submit produced no command")
	}
	m = drive(t, m, cmd())

	if m.modal != modalNone {
		t.Fatalf("modal still open after successful save")
	}
	got, ok := m.cache.Get("srv-1")
	if !ok {
		t.Fatal("saved config not cached under the server-assigned id")
	}
	if got.SheetName != "Sheet A" {
		t.Fatalf("cached SheetName = %q, want %q", got.SheetName, "Sheet A")
	}
	if len(m.configs.Items()) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(m.configs.Items()))
	}
}

func TestSubmitRejectsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	f := &fakeClient{}
	m := newLoadedModel(t, f)

	m = drive(t, m, key("a"))
	m.fieldInputs[fieldSheetName].SetValue("Only a name")

	mm, _ := m.Update(key("ctrl+s"))
	m = mm.(appModel)

	if m.modal != modalSheetForm {
		t.Fatal("form closed despite validation failure")
	}
	if m.flashKind != "error" {
		t.Fatalf("flashKind = %q, want error", m.flashKind)
	}
	if m.busy != 0 {
		t.Fatalf("busy = %d, want 0 (no request issued)", m.busy)
	}
}

func TestEditLegacyEntryIsBlocked(t *testing.T) {
	t.Parallel()

	f := &fakeClient{snap: model.ConfigSnapshot{
		SheetConfigs: []model.SheetConfig{sheet("", "Old flat entry")},
	}}
	m := newLoadedModel(t, f)

	m = drive(t, m, key("enter"))
	if m.modal != modalNone {
		t.Fatal("edit modal opened for a legacy entry")
	}
	if m.flashKind != "error" {
		t.Fatalf("flashKind = %q, want error", m.flashKind)
	}
}

func TestDeleteThroughConfirmModal(t *testing.T) {
	t.Parallel()

	f := &fakeClient{snap: model.ConfigSnapshot{
		SheetConfigs: []model.SheetConfig{sheet("id-1", "Doomed")},
	}}
	m := newLoadedModel(t, f)

	m = drive(t, m, key("d"))
	if m.modal != modalConfirmDelete {
		t.Fatalf("modal = %v after 'd', want confirm", m.modal)
	}
	if m.confirmFocus != confirmFocusCancel {
		t.Fatal("confirm modal should start focused on Cancel")
	}

	mm, cmd := m.Update(key("y"))
	m = mm.(appModel)
	if cmd == nil {
		t.Fatal("confirmed delete produced no command")
	}
	m = drive(t, m, cmd())

	if m.cache.Len() != 0 {
		t.Fatalf("cache.Len() = %d after delete, want 0", m.cache.Len())
	}
	if len(m.configs.Items()) != 0 {
		t.Fatal("deleted entry still listed")
	}
}

func TestDeleteFailureKeepsCache(t *testing.T) {
	t.Parallel()

	f := &fakeClient{
		snap:       model.ConfigSnapshot{SheetConfigs: []model.SheetConfig{sheet("id-1", "Kept")}},
		failDelete: fmt.Errorf("no sheet config with id id-1"),
	}
	m := newLoadedModel(t, f)

	m = drive(t, m, key("d"))
	mm, cmd := m.Update(key("y"))
	m = mm.(appModel)
	m = drive(t, m, cmd())

	if m.cache.Len() != 1 {
		t.Fatalf("cache.Len() = %d, want 1 (failed delete must not evict)", m.cache.Len())
	}
	if m.flashKind != "error" {
		t.Fatalf("flashKind = %q, want error", m.flashKind)
	}
}

func TestDataProcessedFlashesWithoutReload(t *testing.T) {
	t.Parallel()

	f := &fakeClient{snap: model.ConfigSnapshot{
		SheetConfigs: []model.SheetConfig{sheet("id-1", "Sheet A")},
	}}
	m := newLoadedModel(t, f)
	before := f.fetchCount()

	m = drive(t, m, pushEventMsg{ev: push.Event{Type: push.EventDataProcessed, SheetName: "Sheet A"}})

	if !strings.Contains(m.flashText, "Sheet A") {
		t.Fatalf("flashText = %q, want it to name the sheet", m.flashText)
	}
	if f.fetchCount() != before {
		t.Fatal("data_processed must not trigger a refetch")
	}
	if m.cache.Len() != 1 {
		t.Fatal("cache changed on data_processed")
	}
}

func TestConfigUpdatedTriggersExactlyOneReload(t *testing.T) {
	t.Parallel()

	f := &fakeClient{snap: model.ConfigSnapshot{
		GlobalSettings: model.GlobalSettings{TransferDestination: "LAYER 1"},
	}}
	m := newLoadedModel(t, f)
	before := f.fetchCount()

	// Another admin changed settings server-side.
	f.mu.Lock()
	f.snap.GlobalSettings.TransferDestination = "LAYER 2"
	f.mu.Unlock()

	mm, cmd := m.Update(pushEventMsg{ev: push.Event{Type: push.EventConfigUpdated}})
	m = mm.(appModel)
	if m.busy != 1 {
		t.Fatalf("busy = %d, want 1 (exactly one fetch in flight)", m.busy)
	}

	// The returned command batches the reload with a flash timer; run the
	// parts and keep only the fetch result.
	var loaded configLoadedMsg
	gotLoaded := false
	for _, sub := range collectCmds(cmd) {
		done := make(chan tea.Msg, 1)
		go func() { done <- sub() }()
		select {
		case res := <-done:
			if lm, ok := res.(configLoadedMsg); ok {
				if gotLoaded {
					t.Fatal("more than one reload issued for a single notification")
				}
				loaded = lm
				gotLoaded = true
			}
		case <-time.After(200 * time.Millisecond):
			// Flash expiry timer; let it run out on its own.
		}
	}
	if !gotLoaded {
		t.Fatal("config_updated did not issue a reload")
	}
	if f.fetchCount() != before+1 {
		t.Fatalf("fetch count = %d, want %d", f.fetchCount(), before+1)
	}

	m = drive(t, m, loaded)
	if got := m.cache.GlobalSettings().TransferDestination; got != "LAYER 2" {
		t.Fatalf("TransferDestination = %q after reload, want LAYER 2", got)
	}
}

func TestSettingsSaveRoundTrip(t *testing.T) {
	t.Parallel()

	f := &fakeClient{snap: model.ConfigSnapshot{
		GlobalSettings: model.GlobalSettings{TransferDestination: "LAYER 1"},
	}}
	m := newLoadedModel(t, f)

	m = drive(t, m, key("g"))
	if m.modal != modalSettingsForm {
		t.Fatalf("modal = %v after 'g', want settings form", m.modal)
	}
	m.settingsInput.SetValue("LAYER 2")

	mm, cmd := m.Update(key("enter"))
	m = mm.(appModel)
	if cmd == nil {
		t.Fatal("settings submit produced no command")
	}
	m = drive(t, m, cmd())

	if m.modal != modalNone {
		t.Fatal("settings form still open after save")
	}
	if got := m.cache.GlobalSettings().TransferDestination; got != "LAYER 2" {
		t.Fatalf("TransferDestination = %q, want LAYER 2", got)
	}
}

func TestFlashExpiryIgnoresStaleTimer(t *testing.T) {
	t.Parallel()

	f := &fakeClient{}
	m := newLoadedModel(t, f)

	_ = m.flash("", "first")
	staleSeq := m.flashSeq
	_ = m.flash("", "second")

	m = drive(t, m, flashDoneMsg{seq: staleSeq})
	if m.flashText != "second" {
		t.Fatalf("flashText = %q, stale timer cleared a newer flash", m.flashText)
	}

	m = drive(t, m, flashDoneMsg{seq: m.flashSeq})
	if m.flashText != "" {
		t.Fatalf("flashText = %q, want cleared", m.flashText)
	}
}

func TestRendersDocumentedExamplePayload(t *testing.T) {
	t.Parallel()

	f := &fakeClient{snap: model.ConfigSnapshot{
		GlobalSettings: model.GlobalSettings{TransferDestination: "LAYER 2"},
		SheetConfigs: []model.SheetConfig{{
			SheetID:             "a1b2c3",
			SheetName:           "Sheet A",
			SpreadsheetIDs:      "1BxiM...",
			BankDestination:     "0123456789",
			BankNameDestination: "ACME BANK",
			DanaUsed:            "no",
		}},
	}}
	m := newLoadedModel(t, f)

	if n := len(m.configs.Items()); n != 1 {
		t.Fatalf("len(items) = %d, want 1", n)
	}
	view := m.View()
	if !strings.Contains(view, "Sheet A") {
		t.Fatal("view does not show the sheet row")
	}
	if !strings.Contains(view, "LAYER 2") {
		t.Fatal("view does not show the global transfer destination")
	}
}

// collectCmds flattens a possibly batched command into its parts.
func collectCmds(cmd tea.Cmd) []tea.Cmd {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Cmd
		for _, sub := range batch {
			out = append(out, collectCmds(sub)...)
		}
		return out
	}
	return []tea.Cmd{func() tea.Msg { return msg }}
}
