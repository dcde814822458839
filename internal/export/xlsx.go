package export

import (
	"time"

	"retiro-api/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Agentes"

// HeaderRow is the fixed first row of every export, in column order.
var HeaderRow = []string{
	"Nombre Completo", "DNI", "CUIL", "Género", "Fecha Nacimiento",
	"Fecha Jubilación", "Edad", "Estado", "Ley", "Estado Afiliación",
	"Ministerio", "Rama", "Ubicación", "Antigüedad", "Convenio",
}

// Age returns whole years elapsed from birth to the reference date:
// year difference, minus one when the reference month/day has not yet
// reached the birthday.
func Age(birth, on time.Time) int {
	years := on.Year() - birth.Year()
	if on.Month() < birth.Month() ||
		(on.Month() == birth.Month() && on.Day() < birth.Day()) {
		years--
	}
	return years
}

// Workbook renders the agents into a single-sheet spreadsheet, one row per
// record, ages computed relative to now.
func Workbook(agents []models.Agent, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	if err := setRow(f, 1, toAnySlice(HeaderRow)); err != nil {
		return nil, err
	}
	for i, a := range agents {
		if err := setRow(f, i+2, agentRow(a, now)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func agentRow(a models.Agent, now time.Time) []any {
	var birth, retirement, age any
	if a.BirthDate != nil {
		birth = a.BirthDate.String()
		age = Age(a.BirthDate.Time, now)
	}
	if a.RetirementDate != nil {
		retirement = a.RetirementDate.String()
	}
	return []any{
		a.FullName, a.DNI, a.CUIL, a.Gender, birth, retirement, age,
		a.Status.Label, a.Law, a.AffiliateStatus, a.Ministry, a.Branch,
		a.Location, a.Seniority, a.Agreement,
	}
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &values)
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
