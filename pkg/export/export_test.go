package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRendersHeadersAndRows(t *testing.T) {
	table := Table{
		Headers: []string{"worker", "project", "hours"},
		Rows: []map[string]string{
			{"worker": "Maria Lopez", "project": "Miller Residential", "hours": "8.5"},
			{"worker": "Sam Porter", "hours": "7.0"},
		},
	}

	out, err := CSV(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "worker,project,hours", lines[0])
	assert.Equal(t, "Maria Lopez,Miller Residential,8.5", lines[1])
	// missing project cell renders as an empty column
	assert.Equal(t, "Sam Porter,,7.0", lines[2])
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := CSV(Table{})
	assert.Error(t, err)
}

func TestPDFRendersDocument(t *testing.T) {
	table := Table{
		Headers: []string{"worker", "hours"},
		Rows:    []map[string]string{{"worker": "Maria Lopez", "hours": "8.5"}},
	}

	out, err := PDF(table, "Payroll 2025-W14")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFRequiresHeaders(t *testing.T) {
	_, err := PDF(Table{}, "")
	assert.Error(t, err)
}
