package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildingRow(cells map[int]string) string {
	row := make([]string, BuildingColumns)
	for i, v := range cells {
		if strings.Contains(v, ",") {
			v = `"` + v + `"`
		}
		row[i] = v
	}
	return strings.Join(row, ",")
}

func buildingSheet(rows ...map[int]string) string {
	header := make([]string, BuildingColumns)
	for i, label := range BuildingHeader {
		header[i] = label
	}
	lines := []string{strings.Join(header, ",")}
	for _, r := range rows {
		lines = append(lines, buildingRow(r))
	}
	return strings.Join(lines, "\n")
}

func TestParseBuildings(t *testing.T) {
	text := buildingSheet(
		map[int]string{
			bColSrNo:            "1",
			bColPlotNo:          "P-7",
			bColBuildingName:    "Tower A",
			bColTypology:        "Residential",
			bColStatus:          "Under Construction",
			bColGFATotal:        "10,000",
			bColSellableTotal:   "7,500",
			bColCarpetTotal:     "6000",
			bColTotalUnits:      "120",
			bColPassengerLifts:  "3",
			bColServiceLifts:    "1",
			bColParkingProvided: "150",
			bColFacadeArea:      "4000",
			bColGlazingArea:     "1000",
			bColElectricalLoad:  "1,200",
			bColCoolingLoad:     "300",
			bColBUATotal:        "12500",
			bColFARAchieved:     "-",
			bColRemarks:         "phase 1, podium done",
		},
		map[int]string{bColSrNo: "2", bColBuildingName: "No plot"},
		map[int]string{bColSrNo: "3", bColPlotNo: "P-8", bColProject: "Annex"},
	)

	buildings := ParseBuildings(text)
	require.Len(t, buildings, 2)

	a := buildings[0]
	assert.Equal(t, "Tower A", a.Identity.Name)
	assert.Equal(t, 10000.0, a.GFA.Total)
	assert.Equal(t, 4, a.Lifts.Total)
	assert.Nil(t, a.Plot.FARAchieved)
	assert.Equal(t, "phase 1, podium done", a.Meta.Remarks)

	require.NotNil(t, a.Ratios.Efficiency)
	assert.Equal(t, 0.75, *a.Ratios.Efficiency)
	require.NotNil(t, a.Ratios.CarpetToSellable)
	assert.Equal(t, 0.8, *a.Ratios.CarpetToSellable)
	require.NotNil(t, a.Ratios.UnitsPerLift)
	assert.Equal(t, 30.0, *a.Ratios.UnitsPerLift)
	require.NotNil(t, a.Ratios.WWR)
	assert.Equal(t, 0.25, *a.Ratios.WWR)
	require.NotNil(t, a.Ratios.ParkingPerUnit)
	assert.Equal(t, 1.25, *a.Ratios.ParkingPerUnit)

	// an empty building still parses, and its ratios are undefined rather than zero
	b := buildings[1]
	assert.Equal(t, "Annex", b.Identity.Name)
	assert.Nil(t, b.Ratios.Efficiency)
	assert.Nil(t, b.Ratios.UnitsPerLift)
	assert.Nil(t, b.Floors.FloorToFloorM)
}

func TestSummarizeBuildings(t *testing.T) {
	text := buildingSheet(
		map[int]string{bColPlotNo: "P-1", bColTypology: "Residential", bColGFATotal: "1000", bColSellableTotal: "800", bColTotalUnits: "10", bColParkingProvided: "12", bColElectricalLoad: "100"},
		map[int]string{bColPlotNo: "P-2", bColTypology: "Residential", bColGFATotal: "1000", bColSellableTotal: "600", bColTotalUnits: "5", bColParkingProvided: "4", bColCoolingLoad: "40"},
		map[int]string{bColPlotNo: "P-3", bColStatus: "Proposed"},
	)

	buildings := ParseBuildings(text)
	s := SummarizeBuildings(buildings)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2000.0, s.TotalGFA)
	assert.Equal(t, 1400.0, s.TotalSellable)
	assert.Equal(t, 15, s.TotalUnits)
	assert.Equal(t, 16, s.TotalCarParks)
	assert.Equal(t, 100.0, s.TotalElectricalKW)
	assert.Equal(t, 40.0, s.TotalCoolingTR)
	assert.Equal(t, 0.7, s.AverageEfficiency)
	assert.Equal(t, 2, s.ByTypology["Residential"])
	assert.Equal(t, 1, s.ByTypology["Unknown"])
	assert.Equal(t, 1, s.ByStatus["Proposed"])

	assert.Equal(t, s, SummarizeBuildings(ParseBuildings(text)))
}

func TestBuildingColumnsCoverSheet(t *testing.T) {
	assert.Equal(t, 96, BuildingColumns)
}
