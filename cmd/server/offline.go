package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/voucher"
	"github.com/warp/attendance-engine/worktime"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CLASSIFY
// =============================================================================

var (
	classifyFile     string
	classifySettings string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one day described in a JSON or YAML document",
	Args:  cobra.NoArgs,
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "Day document (.json, .yaml)")
	classifyCmd.Flags().StringVar(&classifySettings, "settings", "", "Settings document; the day's own settings win")
	classifyCmd.MarkFlagRequired("file")
}

func runClassify(cmd *cobra.Command, args []string) error {
	var req api.ClassifyRequest
	if err := readDocument(classifyFile, &req); err != nil {
		return err
	}

	settings, err := classifySettingsFor(req)
	if err != nil {
		return err
	}

	date, err := generic.ParseDateKey(req.Date, settings.Location)
	if err != nil {
		return err
	}

	day := store.DayRecord{
		Date:     date.Key(),
		Punches:  api.PunchesFromDTOs(req.Punches),
		Info:     req.Info,
		Overtime: api.OvertimeFromDTOs(req.Overtime),
	}
	next := store.DayRecord{Info: req.NextInfo}

	res := api.BuildDay(date, day, next, settings, voucher.DefaultRule)
	return writeOutput(cmd.OutOrStdout(), res.DTO)
}

func classifySettingsFor(req api.ClassifyRequest) (worktime.WorkSettings, error) {
	f := factory.NewSettingsFactory()
	switch {
	case req.Settings != nil:
		return f.FromJSON(*req.Settings)
	case classifySettings != "":
		return loadSettingsFile(classifySettings)
	default:
		return f.ParseSettings([]byte(factory.DefaultSettingsJSON), factory.FormatJSON)
	}
}

// =============================================================================
// LEDGER
// =============================================================================

var (
	ledgerFile    string
	ledgerCatalog string
	ledgerYear    int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Compute the yearly ledger of a JSON or YAML document",
	Args:  cobra.NoArgs,
	RunE:  runLedger,
}

func init() {
	ledgerCmd.Flags().StringVarP(&ledgerFile, "file", "f", "", "Year document (.json, .yaml)")
	ledgerCmd.Flags().StringVar(&ledgerCatalog, "catalog", "", "Catalog document, used when the year document has no codes")
	ledgerCmd.Flags().IntVar(&ledgerYear, "year", 0, "Year to compute (overrides the document)")
	ledgerCmd.MarkFlagRequired("file")
}

func runLedger(cmd *cobra.Command, args []string) error {
	var req api.LedgerRequest
	if err := readDocument(ledgerFile, &req); err != nil {
		return err
	}
	if ledgerYear != 0 {
		req.Year = ledgerYear
	}
	if req.Year < 1 || req.Year > 9999 {
		return fmt.Errorf("invalid year %d", req.Year)
	}

	cf := factory.NewCatalogFactory()
	catalog, err := cf.FromJSON(req.Codes)
	if err != nil {
		return err
	}
	if len(catalog) == 0 && ledgerCatalog != "" {
		data, err := os.ReadFile(ledgerCatalog)
		if err != nil {
			return err
		}
		if catalog, err = cf.ParseCatalog(data, factory.FormatFromPath(ledgerCatalog)); err != nil {
			return err
		}
	}

	overtime := make(map[string][]worktime.ManualOvertime, len(req.Overtime))
	for date, entries := range req.Overtime {
		overtime[date] = api.OvertimeFromDTOs(entries)
	}

	return writeOutput(cmd.OutOrStdout(), api.BuildLedger(req.Year, req.Days, catalog, overtime))
}

// =============================================================================
// HELPERS
// =============================================================================

func loadSettingsFile(path string) (worktime.WorkSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return worktime.WorkSettings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	s, err := factory.NewSettingsFactory().ParseSettings(data, factory.FormatFromPath(path))
	if err != nil {
		return worktime.WorkSettings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// readDocument decodes a JSON or YAML file into v using v's JSON field
// names. YAML is converted to JSON first so both formats share one schema.
func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if factory.FormatFromPath(path) == factory.FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func writeOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
