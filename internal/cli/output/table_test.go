package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable(t *testing.T) {
	tbl := NewTable("email", "universal_id", "outcome")
	tbl.AddRow("alice@example.edu", "U-1", "created")
	tbl.AddRow("bob@example.edu", "", "skipped")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, tbl))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"EMAIL", "UNIVERSAL", "ID", "OUTCOME"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"alice@example.edu", "U-1", "created"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"bob@example.edu", "skipped"}, strings.Fields(lines[2]))
	assert.NotContains(t, buf.String(), "|")
	assert.NotContains(t, buf.String(), "+")
}

func TestTableAddRowPadsShortRows(t *testing.T) {
	tbl := NewTable("a", "b", "c")
	tbl.AddRow("1")

	require.Len(t, tbl.Rows(), 1)
	assert.Equal(t, []string{"1", "", ""}, tbl.Rows()[0])
}
