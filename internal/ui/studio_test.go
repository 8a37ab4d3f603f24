package ui

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func press(m StudioModel, msgs ...tea.Msg) (StudioModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(StudioModel)
	}
	return m, cmd
}

// resolve runs the dispatch command out of a submit batch.
func resolve(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(studioResultMsg); ok {
			return msg
		}
	}
	t.Fatal("no result in batch")
	return nil
}

func testStudio(dispatch StudioDispatch) StudioModel {
	return NewStudioModel("Oracle Studio", []StudioAction{
		{Name: "balance", Description: "Show the contract balance", Outputs: []string{"balance"}},
		{Name: "query-fee", Inputs: []string{"address"}, Outputs: []string{"fee"}},
		{Name: "register-oracle", Inputs: []string{"fee", "ttl"}, Writes: true},
	}, dispatch)
}

func TestStudioDispatchesWithoutInputs(t *testing.T) {
	var got string
	m := testStudio(func(_ context.Context, action string, values map[string]string) StudioResult {
		got = action
		assert.Empty(t, values)
		return StudioResult{Pairs: [][2]string{{"balance", "100"}}}
	})

	m, cmd := press(m, key(tea.KeyEnter))
	assert.True(t, m.Busy())
	m, _ = press(m, resolve(t, cmd))

	assert.Equal(t, "balance", got)
	assert.False(t, m.Busy())
	require.NotNil(t, m.Result())
	assert.Equal(t, "100", m.Result().Pairs[0][1])
	assert.Contains(t, m.View(), "100")
}

func TestStudioFormEditing(t *testing.T) {
	var mu sync.Mutex
	var seen map[string]string
	m := testStudio(func(_ context.Context, _ string, values map[string]string) StudioResult {
		mu.Lock()
		defer mu.Unlock()
		seen = values
		return StudioResult{}
	})

	m, _ = press(m, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyEnter))
	m, _ = press(m, runes("1000"), key(tea.KeyBackspace), key(tea.KeyTab), runes("10"))
	assert.Equal(t, "100", m.Value("fee"))
	assert.Equal(t, "10", m.Value("ttl"))

	m, cmd := press(m, key(tea.KeyEnter))
	_, _ = press(m, resolve(t, cmd))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]string{"fee": "100", "ttl": "10"}, seen)
}

func TestStudioValuesSharedAcrossActions(t *testing.T) {
	m := testStudio(func(context.Context, string, map[string]string) StudioResult { return StudioResult{} })

	m, _ = press(m, key(tea.KeyDown), key(tea.KeyEnter), runes("0xabc"), key(tea.KeyEsc))
	m, _ = press(m, key(tea.KeyUp), key(tea.KeyDown))
	assert.Equal(t, "0xabc", m.Value("address"))
	assert.Contains(t, m.View(), "0xabc")

	m, _ = press(m, key(tea.KeyEnter), key(tea.KeyCtrlU))
	assert.Equal(t, "", m.Value("address"))
}

func TestStudioRendersErrorKind(t *testing.T) {
	m := testStudio(func(context.Context, string, map[string]string) StudioResult {
		return StudioResult{ErrKind: "connection", Err: "handshake: node unreachable"}
	})
	m, cmd := press(m, key(tea.KeyEnter))
	m, _ = press(m, resolve(t, cmd))

	view := m.View()
	assert.Contains(t, view, "[connection]")
	assert.Contains(t, view, "balance  failed")
}

func TestStudioIgnoresSubmitWhileBusy(t *testing.T) {
	m := testStudio(func(context.Context, string, map[string]string) StudioResult { return StudioResult{} })
	m, _ = press(m, key(tea.KeyEnter))
	require.True(t, m.Busy())

	_, cmd := press(m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
}

func TestStudioQuit(t *testing.T) {
	m := testStudio(nil)
	m, cmd := press(m, runes("q"))
	assert.True(t, m.Quitting)
	assert.NotNil(t, cmd)
	assert.Equal(t, "", m.View())
}

func TestPickerModel(t *testing.T) {
	m := newPickerModel("Select wallet", []PickerItem{
		{Label: "dev", Value: "dev"},
		{Label: "ops", Value: "ops", Current: true},
	})
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), "★")

	next, _ := m.Update(key(tea.KeyUp))
	next, cmd := next.Update(key(tea.KeyEnter))
	pm := next.(pickerModel)
	require.NotNil(t, pm.selected)
	assert.Equal(t, "dev", pm.selected.Value)
	assert.NotNil(t, cmd)
}

func TestPickItemEmpty(t *testing.T) {
	_, err := PickItem("nothing", nil)
	assert.Error(t, err)
}

func TestConfirmFrom(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, ConfirmFrom(strings.NewReader("yes\n"), &out, "send?"))
	assert.Contains(t, out.String(), "send? [y/N]")
	assert.False(t, ConfirmFrom(strings.NewReader("\n"), &out, "send?"))
	assert.False(t, ConfirmFrom(strings.NewReader(""), &out, "send?"))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerNesting(t *testing.T) {
	out := &lockedBuffer{}
	s := NewSpinner(out)

	s.Start("Running balance…")
	s.Start("Running query-fee…")
	assert.True(t, s.Active())
	s.Stop()
	assert.True(t, s.Active())
	s.Stop()
	assert.False(t, s.Active())
	s.Stop()

	assert.Contains(t, out.String(), "Running")
}
