package ingest

import (
	"sort"
	"strings"

	"studio/airtable"
	"studio/sheets"
)

// FlowStandard is one activity of the studio's standard delivery flow.
type FlowStandard struct {
	ID           string  `json:"id"`
	Stage        string  `json:"stage"`
	Activity     string  `json:"activity"`
	Owner        string  `json:"owner"`
	DurationDays float64 `json:"duration_days"`
	Sequence     float64 `json:"sequence"`
	Deliverable  string  `json:"deliverable"`
}

// FlowStage totals the activities of one stage.
type FlowStage struct {
	Stage        string  `json:"stage"`
	Activities   int     `json:"activities"`
	DurationDays float64 `json:"duration_days"`
}

// FlowStandardsSummary aggregates the flow.
type FlowStandardsSummary struct {
	Count        int         `json:"count"`
	DurationDays float64     `json:"duration_days"`
	Stages       []FlowStage `json:"stages"`
}

// FlowStandardsFromAirtable maps Airtable records to flow standards. Field
// names vary between bases, so each field is read from the first of several
// candidate columns that has a value. Records without an activity are
// dropped. The result is ordered by stage, then sequence.
func FlowStandardsFromAirtable(records []airtable.Record) []FlowStandard {
	flow := make([]FlowStandard, 0, len(records))
	for _, rec := range records {
		activity := rec.String("Activity", "Task", "Name")
		if activity == "" {
			continue
		}
		flow = append(flow, FlowStandard{
			ID:           rec.ID,
			Stage:        orUnknown(rec.String("Stage", "Phase")),
			Activity:     activity,
			Owner:        rec.String("Owner", "Responsible"),
			DurationDays: sheets.Number(rec.String("Duration (days)", "Duration", "Days")),
			Sequence:     sheets.Number(rec.String("Sequence", "Order", "#")),
			Deliverable:  rec.String("Deliverable", "Output"),
		})
	}

	sort.SliceStable(flow, func(i, j int) bool {
		si, sj := strings.ToLower(flow[i].Stage), strings.ToLower(flow[j].Stage)
		if si != sj {
			return si < sj
		}
		return flow[i].Sequence < flow[j].Sequence
	})
	return flow
}

// SummarizeFlowStandards totals durations overall and per stage. Stages keep
// the order in which they first appear.
func SummarizeFlowStandards(flow []FlowStandard) FlowStandardsSummary {
	s := FlowStandardsSummary{Stages: []FlowStage{}}
	index := map[string]int{}
	for _, f := range flow {
		s.Count++
		s.DurationDays += f.DurationDays

		i, ok := index[f.Stage]
		if !ok {
			i = len(s.Stages)
			index[f.Stage] = i
			s.Stages = append(s.Stages, FlowStage{Stage: f.Stage})
		}
		s.Stages[i].Activities++
		s.Stages[i].DurationDays += f.DurationDays
	}
	return s
}
