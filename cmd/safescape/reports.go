package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/safescape-map-service/internal/adapter/sqlite"
	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/couchcryptid/safescape-map-service/internal/observability"
	"github.com/couchcryptid/safescape-map-service/internal/reports"
	"github.com/spf13/cobra"
)

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect and add stored safety reports",
	}
	cmd.AddCommand(newReportsListCmd(), newReportsAddCmd(), newReportsImportCmd(), newReportsCheckCmd())
	return cmd
}

// openStore opens the configured database for a one-shot command. Logs go to
// stderr so stdout carries only command output.
func openStore(cmd *cobra.Command) (*reports.Store, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlite.Open(cmd.Context(), cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	return reports.NewStore(db, logger, observability.NewMetricsForTesting()), db.Close, nil
}

func newReportsListCmd() *cobra.Command {
	var reportType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored reports as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeDB, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB() //nolint:errcheck

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range store.LoadAll(cmd.Context()) {
				if reportType != "" && string(r.Type) != reportType {
					continue
				}
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportType, "type", "", "only print reports of this type")
	return cmd
}

func newReportsAddCmd() *cobra.Command {
	var (
		reportType, desc, severity, timestamp string
		lat, lng                              float64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a report to the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeDB, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB() //nolint:errcheck

			stored, err := store.Append(cmd.Context(), domain.NewReport(reportType, desc, severity, lat, lng, timestamp))
			if err != nil {
				return fmt.Errorf("add report: %w", err)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(stored)
		},
	}
	cmd.Flags().StringVar(&reportType, "type", "", "report type (Harassment, Broken Road, Dark Area, Unsafe Crowd)")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&severity, "severity", "", "Low, Medium, High or Critical")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "RFC 3339 time (default now)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newReportsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Append reports from a JSON array, such as a browser storage export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var incoming []domain.Report
			if err := json.Unmarshal(data, &incoming); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			store, closeDB, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB() //nolint:errcheck

			var imported, skipped int
			for i, r := range incoming {
				place := r.Place
				r = domain.NewReport(string(r.Type), r.Desc, r.Severity, r.Lat, r.Lng, r.Timestamp)
				r.Place = place
				if _, err := store.Append(cmd.Context(), r); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skip #%d: %v\n", i, err)
					skipped++
					continue
				}
				imported++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
			return nil
		},
	}
}

// errCheckFailed is returned by reports check when any stored report has
// problems.
var errCheckFailed = errors.New("stored reports failed checks")

func newReportsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate every stored report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeDB, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB() //nolint:errcheck

			all, err := store.ReadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("check reports: %w", err)
			}
			var failed int
			for i, r := range all {
				problems := checkReport(r)
				for _, p := range problems {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL #%d (%s): %s\n", i, r.Type, p)
				}
				if len(problems) > 0 {
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d reports, %d with problems\n", len(all), failed)
			if failed > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
}

func checkReport(r domain.Report) []string {
	var problems []string
	if err := r.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, ok := r.Time(); !ok {
		problems = append(problems, fmt.Sprintf("timestamp %q is unreadable", r.Timestamp))
	}
	return problems
}
