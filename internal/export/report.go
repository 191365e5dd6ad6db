// Package export renders analytics views as downloadable spreadsheets.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/tourpulse/backend/internal/domain"
)

const footfallSheet = "Footfall"

// FootfallReport builds an xlsx workbook from a per-city summary. Cities and
// places are emitted in sorted order so repeated exports are comparable.
func FootfallReport(cities map[string][]domain.MergedPlaceEstimate) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(footfallSheet)
	if err != nil {
		return nil, fmt.Errorf("export: create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("export: drop default sheet: %w", err)
	}

	headers := []string{"State", "City", "District", "Place", "Telecom Footfall", "Ticket Footfall", "Crowd Count", "Crowd Level"}
	for i, hdr := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(footfallSheet, cell, hdr); err != nil {
			return nil, fmt.Errorf("export: write header: %w", err)
		}
	}

	names := make([]string, 0, len(cities))
	for city := range cities {
		names = append(names, city)
	}
	sort.Strings(names)

	row := 2
	for _, city := range names {
		ests := append([]domain.MergedPlaceEstimate(nil), cities[city]...)
		sort.Slice(ests, func(i, j int) bool { return ests[i].Place < ests[j].Place })

		for _, e := range ests {
			values := []any{e.State, e.City, e.District, e.Place, e.TelecomFootfall, e.TicketFootfall, e.CrowdCount, string(e.CrowdLevel)}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return nil, fmt.Errorf("export: data cell: %w", err)
				}
				if err := f.SetCellValue(footfallSheet, cell, v); err != nil {
					return nil, fmt.Errorf("export: write row: %w", err)
				}
			}
			row++
		}
	}

	return f, nil
}
