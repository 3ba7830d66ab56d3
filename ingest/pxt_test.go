package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pxtCSV = `Sr. No,Project,Phase,Owner,Planned Start,Planned End,Planned %,Actual %,Remarks
1,Zeta,Concept,Asha,2025-01-01,2025-02-01,100%,100%,
2,Zeta,DD,Asha,2025-02-01,2025-04-01,60%,40%,"late, client review"
3,Alpha,Concept,Dev,2025-01-01,2025-03-01,80,90,
,Alpha,Notes,,,,,,
`

func TestParsePXT(t *testing.T) {
	entries := ParsePXT(pxtCSV)
	require.Len(t, entries, 3)

	assert.Equal(t, -20.0, entries[1].Variance)
	assert.True(t, entries[1].Delayed)
	assert.Equal(t, "late, client review", entries[1].Remarks)
	assert.False(t, entries[2].Delayed)
}

func TestSummarizePXT(t *testing.T) {
	s := SummarizePXT(ParsePXT(pxtCSV))

	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 1, s.Delayed)
	assert.Equal(t, 80.0, s.AveragePlanned)
	assert.Equal(t, 76.67, s.AverageActual)
	assert.Equal(t, -3.33, s.AverageVariance)
	assert.Equal(t, 2, s.ByPhase["Concept"])

	require.Len(t, s.Projects, 2)
	assert.Equal(t, "Alpha", s.Projects[0].Project)
	zeta := s.Projects[1]
	assert.Equal(t, 2, zeta.Phases)
	assert.Equal(t, 1, zeta.Delayed)
	assert.Equal(t, 80.0, zeta.AvgPlanned)
	assert.Equal(t, 70.0, zeta.AvgActual)
	assert.Equal(t, -10.0, zeta.AvgVariance)
}
