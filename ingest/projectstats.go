package ingest

import (
	"studio/sheets"
)

const (
	psColCode = iota
	psColName
	psColClient
	psColTypology
	psColStage
	psColStatus
	psColFee
	psColInvoiced
	psColCollected
	psColProgress
	psColArea
	psColLead
	psColStart
	psColTarget
)

// ProjectStatsHeader is the header the project statistics mapping expects.
var ProjectStatsHeader = map[int]string{
	psColCode:      "Project Code",
	psColName:      "Project Name",
	psColClient:    "Client",
	psColTypology:  "Typology",
	psColStage:     "Stage",
	psColStatus:    "Status",
	psColFee:       "Fee",
	psColInvoiced:  "Invoiced",
	psColCollected: "Collected",
	psColProgress:  "Progress",
	psColArea:      "Area (sq ft)",
	psColLead:      "Team Lead",
	psColStart:     "Start Date",
	psColTarget:    "Target Completion",
}

// ProjectStat is one row of the project statistics sheet.
type ProjectStat struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Client    string  `json:"client"`
	Typology  string  `json:"typology"`
	Stage     string  `json:"stage"`
	Status    string  `json:"status"`
	Fee       float64 `json:"fee"`
	Invoiced  float64 `json:"invoiced"`
	Collected float64 `json:"collected"`
	Progress  float64 `json:"progress"`
	AreaSqFt  float64 `json:"area_sqft"`
	TeamLead  string  `json:"team_lead"`
	StartDate string  `json:"start_date"`
	Target    string  `json:"target_completion"`
}

// ProjectStatsSummary aggregates the sheet.
type ProjectStatsSummary struct {
	Count           int            `json:"count"`
	TotalFee        float64        `json:"total_fee"`
	TotalInvoiced   float64        `json:"total_invoiced"`
	TotalCollected  float64        `json:"total_collected"`
	Outstanding     float64        `json:"outstanding"`
	Unbilled        float64        `json:"unbilled"`
	TotalAreaSqFt   float64        `json:"total_area_sqft"`
	AverageProgress float64        `json:"average_progress"`
	ByStage         map[string]int `json:"by_stage"`
	ByStatus        map[string]int `json:"by_status"`
	ByTypology      map[string]int `json:"by_typology"`
}

// ParseProjectStats parses the sheet. Rows without a project code are dropped.
func ParseProjectStats(text string) []ProjectStat {
	rows := sheets.Rows(text)
	stats := make([]ProjectStat, 0, len(rows))
	for _, row := range rows {
		code := sheets.Cell(row, psColCode)
		if code == "" {
			continue
		}
		stats = append(stats, ProjectStat{
			Code:      code,
			Name:      sheets.FirstNonEmpty(sheets.Cell(row, psColName), code),
			Client:    sheets.Cell(row, psColClient),
			Typology:  sheets.Cell(row, psColTypology),
			Stage:     sheets.Cell(row, psColStage),
			Status:    sheets.Cell(row, psColStatus),
			Fee:       sheets.Number(sheets.Cell(row, psColFee)),
			Invoiced:  sheets.Number(sheets.Cell(row, psColInvoiced)),
			Collected: sheets.Number(sheets.Cell(row, psColCollected)),
			Progress:  sheets.Number(sheets.Cell(row, psColProgress)),
			AreaSqFt:  sheets.Number(sheets.Cell(row, psColArea)),
			TeamLead:  sheets.Cell(row, psColLead),
			StartDate: sheets.Cell(row, psColStart),
			Target:    sheets.Cell(row, psColTarget),
		})
	}
	return stats
}

// SummarizeProjectStats aggregates stats in one pass.
func SummarizeProjectStats(stats []ProjectStat) ProjectStatsSummary {
	s := ProjectStatsSummary{
		ByStage:    map[string]int{},
		ByStatus:   map[string]int{},
		ByTypology: map[string]int{},
	}

	var progress float64
	for _, p := range stats {
		s.Count++
		s.TotalFee += p.Fee
		s.TotalInvoiced += p.Invoiced
		s.TotalCollected += p.Collected
		s.TotalAreaSqFt += p.AreaSqFt
		progress += p.Progress
		s.ByStage[orUnknown(p.Stage)]++
		s.ByStatus[orUnknown(p.Status)]++
		s.ByTypology[orUnknown(p.Typology)]++
	}

	s.Outstanding = s.TotalInvoiced - s.TotalCollected
	s.Unbilled = s.TotalFee - s.TotalInvoiced
	if s.Count > 0 {
		s.AverageProgress = round2(progress / float64(s.Count))
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
