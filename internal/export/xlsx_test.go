package export

import (
	"testing"
	"time"

	"retiro-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAge(t *testing.T) {
	birth := date("2000-06-15")

	tests := []struct {
		on   string
		want int
	}{
		{"2024-06-14", 23}, // day before the birthday
		{"2024-06-15", 24}, // on the birthday
		{"2024-12-31", 24},
		{"2024-01-01", 23}, // earlier month
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Age(birth, date(tt.on)), "on %s", tt.on)
	}
}

func TestWorkbookHeaderAndRows(t *testing.T) {
	birth, err := models.ParseDate("1960-03-01")
	require.NoError(t, err)
	retirement, err := models.ParseDate("2025-03-01")
	require.NoError(t, err)

	agents := []models.Agent{
		{
			FullName:        "Ana Lopez",
			DNI:             "30111222",
			CUIL:            "27-30111222-4",
			Gender:          "F",
			BirthDate:       birth,
			RetirementDate:  retirement,
			Status:          models.Status{Code: models.StatusInminente, Label: "INMINENTE (< 6 meses)"},
			Law:             "24.018",
			AffiliateStatus: "ACTIVO",
			Ministry:        "Salud",
			Branch:          "Enfermería",
			Location:        "Hospital Central",
			Seniority:       "30 años",
			Agreement:       "UPCN",
		},
		{FullName: "Sin Fechas", DNI: "99887766"},
	}

	f, err := Workbook(agents, date("2025-01-01"))
	require.NoError(t, err)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, HeaderRow, rows[0])

	assert.Equal(t, "Ana Lopez", rows[1][0])
	assert.Equal(t, "30111222", rows[1][1])
	assert.Equal(t, "1960-03-01", rows[1][4])
	assert.Equal(t, "2025-03-01", rows[1][5])
	assert.Equal(t, "64", rows[1][6])
	assert.Equal(t, "INMINENTE (< 6 meses)", rows[1][7])
	assert.Equal(t, "UPCN", rows[1][14])

	// record without dates leaves those cells empty
	assert.Equal(t, "Sin Fechas", rows[2][0])
	assert.Len(t, rows[2], 2) // GetRows trims trailing empty cells
}
