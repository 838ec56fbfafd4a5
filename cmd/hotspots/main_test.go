package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

const nwsFixture = "../../internal/adapter/nws/testdata/coastal_flood.json"

func writeReports(t *testing.T, reports []domain.Report) string {
	t.Helper()
	data, err := json.Marshal(reports)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "reports.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func fixtureReports() []domain.Report {
	return []domain.Report{
		{ID: "r_1", Type: "Flooding", Location: "19.001, 72.001", Status: domain.StatusApproved},
		{ID: "r_2", Type: "Flooding", Location: "19.002, 72.002", Status: domain.StatusPending},
		{ID: "r_3", Type: "High Waves", Location: "13.05, 80.28", Status: domain.StatusPending},
		{ID: "r_4", Type: "Other", Location: "somewhere without coordinates"},
	}
}

func TestRun_JSON(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-reports", writeReports(t, fixtureReports()), "-alerts", nwsFixture}, &out)
	require.NoError(t, err)

	var res struct {
		Mode        string            `json:"mode"`
		SignalCount int               `json:"signal_count"`
		Hotspots    []json.RawMessage `json:"hotspots"`
		Markers     []json.RawMessage `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "density", res.Mode)
	// three located reports plus two alerts with geometry
	assert.Equal(t, 5, res.SignalCount)
	assert.Len(t, res.Markers, 5)
	assert.Len(t, res.Hotspots, 4)
}

func TestRun_GeoJSON(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-reports", writeReports(t, fixtureReports()), "-format", "geojson", "-zoom", "11"}, &out)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(out.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	var maxIntensity float64
	for _, f := range fc.Features {
		_, ok := f.Geometry.(orb.Point)
		assert.True(t, ok)
		maxIntensity = max(maxIntensity, f.Properties.MustFloat64("intensity"))
	}
	assert.InDelta(t, 1.0, maxIntensity, 1e-9)
}

func TestRun_Errors(t *testing.T) {
	reports := writeReports(t, fixtureReports())
	cases := map[string][]string{
		"missing reports": {},
		"unknown mode":    {"-reports", reports, "-mode", "heat"},
		"unknown format":  {"-reports", reports, "-format", "kml"},
		"missing file":    {"-reports", filepath.Join(t.TempDir(), "absent.json")},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, run(args, &bytes.Buffer{}))
		})
	}
}
