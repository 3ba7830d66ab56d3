// Package ingest turns spreadsheet and Airtable exports into typed studio
// records and computes their summary statistics. Everything here is pure:
// the same input always produces the same records and the same summary.
package ingest

import (
	"math"
	"sort"
	"strings"

	"studio/sheets"
)

// HR roster columns.
const (
	hrColSrNo = iota
	hrColName
	hrColDesignation
	hrColDepartment
	hrColStatus
	hrColJoined
	hrColExperience
	hrColLocation
	hrColEmail
	hrColManager
	hrColAltName
)

// HRHeader is the header the HR column mapping was written against.
var HRHeader = map[int]string{
	hrColSrNo:        "Sr. No",
	hrColName:        "Name",
	hrColDesignation: "Designation",
	hrColDepartment:  "Department",
	hrColStatus:      "Status",
	hrColJoined:      "Date of Joining",
	hrColExperience:  "Experience",
	hrColLocation:    "Location",
	hrColEmail:       "Email",
	hrColManager:     "Reporting Manager",
}

// Employee statuses.
const (
	EmployeeActive = "active"
	EmployeeTBJ    = "tbj"
	EmployeeExited = "exited"
)

// Names containing any of these are subtotal or header rows, not people.
var hrExcludedKeywords = []string{"total", "overall", "sr.", "s.no", "s. no", "grand", "summary", "headcount"}

// Employee is one roster row.
type Employee struct {
	SrNo        string  `json:"sr_no"`
	Name        string  `json:"name"`
	Designation string  `json:"designation"`
	Department  string  `json:"department"`
	Status      string  `json:"status"`
	RawStatus   string  `json:"raw_status"`
	JoinedOn    string  `json:"joined_on"`
	Experience  float64 `json:"experience_years"`
	Location    string  `json:"location"`
	Email       string  `json:"email"`
	Manager     string  `json:"reporting_manager"`
}

// HRSummary aggregates a roster.
type HRSummary struct {
	Total             int            `json:"total"`
	Active            int            `json:"active"`
	TBJ               int            `json:"tbj"`
	Exited            int            `json:"exited"`
	ByDepartment      map[string]int `json:"by_department"`
	ByDesignation     map[string]int `json:"by_designation"`
	ByLocation        map[string]int `json:"by_location"`
	AverageExperience float64        `json:"average_experience"`
	TBJCandidates     []string       `json:"tbj_candidates"`
}

// IsSummaryName reports whether a name cell belongs to a header or subtotal
// row rather than a person.
func IsSummaryName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "name" || n == "employee name" {
		return true
	}
	for _, kw := range hrExcludedKeywords {
		if strings.Contains(n, kw) {
			return true
		}
	}
	return false
}

// ClassifyEmployeeStatus maps a free-text status cell to a status constant.
func ClassifyEmployeeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "tbj"), strings.Contains(s, "to be joined"), strings.Contains(s, "offer"):
		return EmployeeTBJ
	case strings.Contains(s, "resign"), strings.Contains(s, "exit"), strings.Contains(s, "left"), strings.Contains(s, "inactive"):
		return EmployeeExited
	default:
		return EmployeeActive
	}
}

// ParseHR parses a roster export. Rows without a name, or whose name looks
// like a header or subtotal, are dropped.
func ParseHR(text string) []Employee {
	rows := sheets.Rows(text)
	employees := make([]Employee, 0, len(rows))
	for _, row := range rows {
		name := sheets.FirstNonEmpty(sheets.Cell(row, hrColName), sheets.Cell(row, hrColAltName))
		if name == "" || IsSummaryName(name) {
			continue
		}
		raw := sheets.Cell(row, hrColStatus)
		employees = append(employees, Employee{
			SrNo:        sheets.Cell(row, hrColSrNo),
			Name:        name,
			Designation: sheets.Cell(row, hrColDesignation),
			Department:  sheets.FirstNonEmpty(sheets.Cell(row, hrColDepartment), "Unassigned"),
			Status:      ClassifyEmployeeStatus(raw),
			RawStatus:   raw,
			JoinedOn:    sheets.Cell(row, hrColJoined),
			Experience:  sheets.Number(sheets.Cell(row, hrColExperience)),
			Location:    sheets.Cell(row, hrColLocation),
			Email:       strings.ToLower(sheets.Cell(row, hrColEmail)),
			Manager:     sheets.Cell(row, hrColManager),
		})
	}
	return employees
}

// SummarizeHR aggregates employees in one pass. Average experience only
// counts active staff.
func SummarizeHR(employees []Employee) HRSummary {
	s := HRSummary{
		ByDepartment:  map[string]int{},
		ByDesignation: map[string]int{},
		ByLocation:    map[string]int{},
		TBJCandidates: []string{},
	}

	var expTotal float64
	for _, e := range employees {
		s.Total++
		switch e.Status {
		case EmployeeTBJ:
			s.TBJ++
			s.TBJCandidates = append(s.TBJCandidates, e.Name)
			continue
		case EmployeeExited:
			s.Exited++
			continue
		}
		s.Active++
		expTotal += e.Experience
		s.ByDepartment[e.Department]++
		if e.Designation != "" {
			s.ByDesignation[e.Designation]++
		}
		if e.Location != "" {
			s.ByLocation[e.Location]++
		}
	}

	if s.Active > 0 {
		s.AverageExperience = round2(expTotal / float64(s.Active))
	}
	sort.Strings(s.TBJCandidates)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
