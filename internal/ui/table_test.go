package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValueBlockContainsTitleAndPairs(t *testing.T) {
	result := KeyValueBlock("create-query", [][2]string{
		{"query_id", "0x01"},
		{"answer", "4"},
	})
	assert.Contains(t, result, "create-query")
	assert.Contains(t, result, "query_id")
	assert.Contains(t, result, "0x01")
	assert.Contains(t, result, "answer")
}

func TestKeyValueBlockEmptyTitle(t *testing.T) {
	result := KeyValueBlock("", [][2]string{{"fee", "100"}})
	assert.Contains(t, result, "fee")
	assert.Contains(t, result, "100")
}

func TestKeyValueBlockNoPairs(t *testing.T) {
	result := KeyValueBlock("Empty", nil)
	assert.Contains(t, result, "Empty")
}

func TestKeyValueBlockPreservesOrder(t *testing.T) {
	result := KeyValueBlock("", [][2]string{
		{"message", "registered"},
		{"address", "0xabc"},
		{"tx", "0xdef"},
	})
	a := strings.Index(result, "message")
	b := strings.Index(result, "address")
	c := strings.Index(result, "tx")
	require.Greater(t, a, -1)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestKeyValueBlockLongKeyWidensColumn(t *testing.T) {
	result := KeyValueBlock("", [][2]string{{"a_rather_long_key_name", "v"}})
	assert.Contains(t, result, "a_rather_long_key_name:")
	assert.NotContains(t, result, "…")
}

func TestKeyValueBlockHasBorder(t *testing.T) {
	result := KeyValueBlock("T", [][2]string{{"k", "v"}})
	assert.True(t, strings.ContainsAny(result, "╭╮╰╯"))
}

func TestPadCell(t *testing.T) {
	assert.Equal(t, "ab   ", padCell("ab", 5))
	assert.Equal(t, "abcde", padCell("abcde", 5))
	assert.Equal(t, "abcd…", padCell("abcdefgh", 5))
	assert.Equal(t, "", padCell("abc", 0))
	assert.Equal(t, 6, lipgloss.Width(padCell("★ name", 6)))
}

func TestTableRenderHeadersAndRows(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Name", Width: 10}, {Title: "Address", Width: 14}})
	tbl.AddRow(Row{"dev", "0xf39F…2266"})
	tbl.AddRow(Row{"ops"})

	result := tbl.Render()
	assert.Contains(t, result, "Name")
	assert.Contains(t, result, "Address")
	assert.Contains(t, result, "dev")
	assert.Contains(t, result, "ops")
	assert.Contains(t, result, "----------")
	assert.Less(t, strings.Index(result, "dev"), strings.Index(result, "ops"))
}

func TestTableRenderSelectedRow(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Name", Width: 10}})
	assert.Equal(t, -1, tbl.SelIdx)
	tbl.AddRow(Row{"row0"})
	tbl.AddRow(Row{"row1"})
	tbl.SelIdx = 1

	result := tbl.Render()
	assert.Contains(t, result, "row0")
	assert.Contains(t, result, "row1")
}

func TestBanner(t *testing.T) {
	assert.Contains(t, Banner(), "Oracle registry client")
}
