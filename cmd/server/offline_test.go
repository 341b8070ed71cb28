package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/api"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		classifySettings, ledgerCatalog, ledgerYear = "", "", 0
	})
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

const nightShiftYAML = `
date: "2025-03-10"
punches:
  - {id: n1, type: in, timestamp: "2025-03-10T21:00:00Z"}
  - {id: n2, type: out, timestamp: "2025-03-11T05:00:00Z"}
next_info:
  holiday: true
settings:
  standard_day_hours: 3
  deduct_auto_break: false
  timezone: UTC
`

func TestClassifyCommand_YAML(t *testing.T) {
	path := writeFile(t, "day.yaml", nightShiftYAML)

	var day api.DayDTO
	require.NoError(t, json.Unmarshal(execute(t, "classify", "-f", path), &day))

	assert.Equal(t, "2025-03-10", day.Date)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), day.Summary.TotalWorkMs)
	assert.Equal(t, (3 * time.Hour).Milliseconds(), day.Summary.StandardWorkMs)
	assert.Equal(t, (5 * time.Hour).Milliseconds(), day.Summary.OvertimeNocturnalHolidayMs)
	assert.True(t, day.Voucher.Earned)
	assert.Equal(t, "continuous", day.Voucher.Reason)
}

func TestClassifyCommand_DefaultSettings(t *testing.T) {
	path := writeFile(t, "day.json", `{
	  "date": "2025-03-10",
	  "punches": [
	    {"id": "p1", "type": "in", "timestamp": "2025-03-10T08:00:00Z"},
	    {"id": "p2", "type": "out", "timestamp": "2025-03-10T17:00:00Z"}
	  ]
	}`)

	var day api.DayDTO
	require.NoError(t, json.Unmarshal(execute(t, "classify", "-f", path), &day))

	// 9h worked, 30 minutes of automatic break over the 6h threshold
	assert.Equal(t, (30 * time.Minute).Milliseconds(), day.Summary.BreakDeductedMs)
	assert.Equal(t, (8*time.Hour + 30*time.Minute).Milliseconds(), day.Summary.TotalWorkMs)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), day.Summary.StandardWorkMs)
}

func TestLedgerCommand(t *testing.T) {
	path := writeFile(t, "year.yaml", `
year: 2024
codes:
  - {code: "15", description: Ferie, class: GPO, entitlement: 20, category: leave-day}
  - {code: "40", description: Permessi, class: GPO, entitlement: 10, category: leave-hours}
days:
  "2025-01-02": {leave: {benefit_code: "15"}}
  "2025-01-03": {leave: {benefit_code: "40", hours: 4}}
  "2025-02-10": {events: [{kind: leave, leave: {benefit_code: "15"}}]}
`)

	var ledger api.LedgerDTO
	require.NoError(t, json.Unmarshal(execute(t, "ledger", "-f", path, "--year", "2025"), &ledger))

	assert.Equal(t, 2025, ledger.Year)
	require.Len(t, ledger.Lines, 2)
	assert.Equal(t, "18", ledger.Lines[0].Balance.String())
	assert.Equal(t, "-1", ledger.Lines[0].Monthly[0].String())
	assert.Equal(t, "6", ledger.Lines[1].Balance.String())
}

func TestLedgerCommand_CatalogFile(t *testing.T) {
	catalog := writeFile(t, "catalog.json", `[{"code": "15", "description": "Ferie", "entitlement": 26, "category": "leave-day"}]`)
	path := writeFile(t, "year.json", `{"year": 2025, "days": {"2025-06-02": {"leave": {"benefit_code": "15"}}}}`)

	var ledger api.LedgerDTO
	require.NoError(t, json.Unmarshal(execute(t, "ledger", "-f", path, "--catalog", catalog), &ledger))

	require.Len(t, ledger.Lines, 1)
	assert.Equal(t, "25", ledger.Lines[0].Balance.String())
}

func TestReadDocument_Errors(t *testing.T) {
	var req api.ClassifyRequest

	assert.Error(t, readDocument(filepath.Join(t.TempDir(), "missing.json"), &req))
	assert.Error(t, readDocument(writeFile(t, "bad.yaml", "date: [unclosed"), &req))
	assert.Error(t, readDocument(writeFile(t, "bad.json", "{"), &req))
}
