// Package export renders per-location rating statistics as an Excel
// workbook for operators.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/models"
	"github.com/SCSIExpress/subway-lettuce-tracker-sub001/internal/scoring"

	"github.com/xuri/excelize/v2"
)

// Store is the data the report reads.
type Store interface {
	AllLocations(ctx context.Context) ([]models.Location, error)
	RatingsFor(ctx context.Context, locationID string) ([]models.Rating, error)
}

// RatingsReport builds the ratings workbook.
type RatingsReport struct {
	store Store
}

func NewRatingsReport(store Store) *RatingsReport {
	return &RatingsReport{store: store}
}

var headers = []string{"Name", "Address", "Total Ratings", "Average Score", "Current Score", "Last Rated", "Recently Rated"}

// Write renders one sheet with a row per location.
func (r *RatingsReport) Write(ctx context.Context, w io.Writer) error {
	locations, err := r.store.AllLocations(ctx)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ratings"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for i, loc := range locations {
		ratings, err := r.store.RatingsFor(ctx, loc.ID)
		if err != nil {
			return fmt.Errorf("load ratings for %s: %w", loc.ID, err)
		}

		row := []any{
			loc.Name,
			loc.Address,
			len(ratings),
			average(ratings),
			cellScore(loc.CurrentScore),
			cellTime(loc),
			loc.RecentlyRated,
		}
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func average(ratings []models.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += float64(r.Score)
	}
	return scoring.Round2(sum / float64(len(ratings)))
}

func cellScore(score *float64) any {
	if score == nil {
		return ""
	}
	return *score
}

func cellTime(loc models.Location) any {
	if loc.LastRatedAt == nil {
		return ""
	}
	return loc.LastRatedAt.Format("2006-01-02 15:04")
}
