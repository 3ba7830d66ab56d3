package ingest

import (
	"sort"

	"studio/sheets"
)

// Project execution tracker (PXT) columns.
const (
	pxtColSrNo = iota
	pxtColProject
	pxtColPhase
	pxtColOwner
	pxtColPlannedStart
	pxtColPlannedEnd
	pxtColPlanned
	pxtColActual
	pxtColRemarks
)

// PXTHeader is the header the tracker mapping expects.
var PXTHeader = map[int]string{
	pxtColSrNo:         "Sr. No",
	pxtColProject:      "Project",
	pxtColPhase:        "Phase",
	pxtColOwner:        "Owner",
	pxtColPlannedStart: "Planned Start",
	pxtColPlannedEnd:   "Planned End",
	pxtColPlanned:      "Planned %",
	pxtColActual:       "Actual %",
	pxtColRemarks:      "Remarks",
}

// PXTEntry is one phase line of the execution tracker.
type PXTEntry struct {
	SrNo         string  `json:"sr_no"`
	Project      string  `json:"project"`
	Phase        string  `json:"phase"`
	Owner        string  `json:"owner"`
	PlannedStart string  `json:"planned_start"`
	PlannedEnd   string  `json:"planned_end"`
	Planned      float64 `json:"planned_percent"`
	Actual       float64 `json:"actual_percent"`
	Variance     float64 `json:"variance"`
	Delayed      bool    `json:"delayed"`
	Remarks      string  `json:"remarks"`
}

// PXTProjectRollup summarizes the phases of one project.
type PXTProjectRollup struct {
	Project     string  `json:"project"`
	Phases      int     `json:"phases"`
	Delayed     int     `json:"delayed"`
	AvgPlanned  float64 `json:"average_planned"`
	AvgActual   float64 `json:"average_actual"`
	AvgVariance float64 `json:"average_variance"`
}

type pxtTotals struct {
	rollup  PXTProjectRollup
	planned float64
	actual  float64
}

// PXTSummary aggregates the tracker.
type PXTSummary struct {
	Rows            int                `json:"rows"`
	Delayed         int                `json:"delayed"`
	AveragePlanned  float64            `json:"average_planned"`
	AverageActual   float64            `json:"average_actual"`
	AverageVariance float64            `json:"average_variance"`
	ByPhase         map[string]int     `json:"by_phase"`
	Projects        []PXTProjectRollup `json:"projects"`
}

// ParsePXT parses the tracker. Rows without a serial number are dropped.
func ParsePXT(text string) []PXTEntry {
	rows := sheets.Rows(text)
	entries := make([]PXTEntry, 0, len(rows))
	for _, row := range rows {
		srNo := sheets.Cell(row, pxtColSrNo)
		if srNo == "" {
			continue
		}
		planned := sheets.Number(sheets.Cell(row, pxtColPlanned))
		actual := sheets.Number(sheets.Cell(row, pxtColActual))
		variance := actual - planned
		entries = append(entries, PXTEntry{
			SrNo:         srNo,
			Project:      sheets.Cell(row, pxtColProject),
			Phase:        sheets.Cell(row, pxtColPhase),
			Owner:        sheets.Cell(row, pxtColOwner),
			PlannedStart: sheets.Cell(row, pxtColPlannedStart),
			PlannedEnd:   sheets.Cell(row, pxtColPlannedEnd),
			Planned:      planned,
			Actual:       actual,
			Variance:     variance,
			Delayed:      variance < 0,
			Remarks:      sheets.Cell(row, pxtColRemarks),
		})
	}
	return entries
}

// SummarizePXT aggregates entries in one pass. Projects are listed by name.
func SummarizePXT(entries []PXTEntry) PXTSummary {
	s := PXTSummary{ByPhase: map[string]int{}, Projects: []PXTProjectRollup{}}
	byProject := map[string]*pxtTotals{}

	var planned, actual float64
	for _, e := range entries {
		s.Rows++
		planned += e.Planned
		actual += e.Actual
		if e.Delayed {
			s.Delayed++
		}
		s.ByPhase[orUnknown(e.Phase)]++

		name := orUnknown(e.Project)
		t, ok := byProject[name]
		if !ok {
			t = &pxtTotals{rollup: PXTProjectRollup{Project: name}}
			byProject[name] = t
		}
		t.rollup.Phases++
		t.planned += e.Planned
		t.actual += e.Actual
		if e.Delayed {
			t.rollup.Delayed++
		}
	}

	if s.Rows > 0 {
		s.AveragePlanned = round2(planned / float64(s.Rows))
		s.AverageActual = round2(actual / float64(s.Rows))
		s.AverageVariance = round2((actual - planned) / float64(s.Rows))
	}

	for _, t := range byProject {
		r := t.rollup
		n := float64(r.Phases)
		r.AvgPlanned = round2(t.planned / n)
		r.AvgActual = round2(t.actual / n)
		r.AvgVariance = round2((t.actual - t.planned) / n)
		s.Projects = append(s.Projects, r)
	}
	sort.Slice(s.Projects, func(i, j int) bool { return s.Projects[i].Project < s.Projects[j].Project })

	return s
}
