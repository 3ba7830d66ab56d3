package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Run("quoted field keeps embedded commas", func(t *testing.T) {
		fields := ParseLine(`1,"Tower A, Block 2, East",500`)
		require.Len(t, fields, 3)
		assert.Equal(t, "Tower A, Block 2, East", fields[1])
	})

	t.Run("quoted number with thousands separator", func(t *testing.T) {
		fields := ParseLine(`P-01,"1,500",x`)
		assert.Equal(t, []string{"P-01", "1,500", "x"}, fields)
	})

	t.Run("doubled quote inside quotes is literal", func(t *testing.T) {
		fields := ParseLine(`"say ""hi""",b`)
		assert.Equal(t, []string{`say "hi"`, "b"}, fields)
	})

	t.Run("trailing comma yields empty field", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", ""}, ParseLine("a,b,"))
	})

	t.Run("fields are trimmed", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, ParseLine("  a ,  b  "))
	})
}

func TestParse(t *testing.T) {
	text := "h1,h2\r\n1,\"multi\nline\"\r\n\r\n2,plain\n"
	rows := Parse(text)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"h1", "h2"}, rows[0])
	assert.Equal(t, []string{"1", "multi\nline"}, rows[1])
	assert.Equal(t, []string{"2", "plain"}, rows[2])
}

func TestRowsDropsHeader(t *testing.T) {
	assert.Nil(t, Rows(""))
	assert.Nil(t, Rows("only,header"))
	assert.Equal(t, [][]string{{"1", "2"}}, Rows("a,b\n1,2"))
}

func TestCell(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "b", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "x", FirstNonEmpty("", "  ", "x", "y"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
}

func TestCheckHeader(t *testing.T) {
	header := []string{"Sr. No", "Name", "Dept"}
	drift := CheckHeader(header, map[int]string{0: "sr. no", 1: "Name", 2: "Department", 4: "Email"})
	require.Len(t, drift, 2)
	assert.Contains(t, drift[0], "column 2")
	assert.Contains(t, drift[1], "column 4")

	assert.Empty(t, CheckHeader(header, map[int]string{1: "NAME"}))
}
