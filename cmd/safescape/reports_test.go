package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/safescape-map-service/internal/adapter/sqlite"
	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/couchcryptid/safescape-map-service/internal/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportsAddAndList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "safescape.db")

	out, err := run(t, "reports", "add", "--db", db,
		"--type", "Unsafe Crowd", "--desc", "Rowdy group at the station", "--severity", "medium",
		"--lat", "22.5726", "--lng", "88.3639", "--timestamp", "2024-06-01T21:00:00Z")
	require.NoError(t, err)
	var added domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	assert.Equal(t, domain.TypeUnsafeCrowd, added.Type)
	assert.Equal(t, domain.SeverityMedium, added.Severity)

	_, err = run(t, "reports", "add", "--db", db, "--type", "Dark Area", "--lat", "22.5", "--lng", "88.3")
	require.NoError(t, err)

	out, err = run(t, "reports", "list", "--db", db)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out, err = run(t, "reports", "list", "--db", db, "--type", "Unsafe Crowd")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Rowdy group at the station")
}

func TestReportsAdd_Invalid(t *testing.T) {
	db := filepath.Join(t.TempDir(), "safescape.db")

	_, err := run(t, "reports", "add", "--db", db, "--type", "Flood", "--lat", "1", "--lng", "1")
	require.ErrorIs(t, err, domain.ErrInvalidReport)

	_, err = run(t, "reports", "add", "--db", db, "--type", "Dark Area")
	require.Error(t, err, "lat and lng are required")

	out, err := run(t, "reports", "list", "--db", db)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestChecks(t *testing.T) {
	assert.NoError(t, checks{}.CheckReadiness(context.Background()))
}

func TestReportsImportAndCheck(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "safescape.db")
	export := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(export, []byte(`[
		{"type":"Harassment","desc":"Followed home","lat":28.63,"lng":77.22,"timestamp":"2024-03-10T19:45:00.000Z"},
		{"type":"Flood","lat":1,"lng":1},
		{"type":"Dark Area","lat":28.6,"lng":77.2,"timestamp":"2024-03-11T21:00:00+05:30"}
	]`), 0o600))

	out, err := run(t, "reports", "import", "--db", db, export)
	require.NoError(t, err)
	assert.Equal(t, "imported 2, skipped 1\n", out)

	out, err = run(t, "reports", "check", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2 reports, 0 with problems")
}

func TestReportsImport_KeepsPlace(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "safescape.db")
	export := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(export, []byte(`[
		{"type":"Broken Road","lat":19.07,"lng":72.87,"timestamp":"2024-04-02T08:15:00Z","place":"Linking Road, Bandra West, Mumbai"}
	]`), 0o600))

	_, err := run(t, "reports", "import", "--db", db, export)
	require.NoError(t, err)

	out, err := run(t, "reports", "list", "--db", db)
	require.NoError(t, err)
	var stored domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &stored))
	assert.Equal(t, "Linking Road, Bandra West, Mumbai", stored.Place)
	assert.Equal(t, domain.TypeBrokenRoad, stored.Type)
}

func TestReportsCheck_UndecodableData(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "safescape.db")
	kv, err := sqlite.Open(ctx, db)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, reports.ReportsKey, []byte(`{not json`)))
	require.NoError(t, kv.Close())

	out, err := run(t, "reports", "check", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode reports")
	assert.NotContains(t, out, "0 with problems")
}

func TestCheckReport(t *testing.T) {
	bad := domain.Report{Type: "Flood", Lat: 1, Lng: 1, Timestamp: "yesterday"}
	assert.Len(t, checkReport(bad), 2)

	good := domain.Report{Type: domain.TypeDarkArea, Lat: 1, Lng: 1, Timestamp: "2024-03-11T21:00:00Z"}
	assert.Empty(t, checkReport(good))
}
