package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/manzanit0/kantomap/pkg/location"
	"github.com/manzanit0/kantomap/pkg/survey"
)

type submitter interface {
	Submit(ctx context.Context, place string) (*location.Record, error)
}

type importSummary struct {
	Added    []location.Record
	NotFound []string
	Failed   []string
}

// readPlaces skips blank lines and lines starting with #.
func readPlaces(r io.Reader) ([]string, error) {
	var places []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		places = append(places, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read places: %w", err)
	}

	return places, nil
}

// importPlaces submits places one by one. A failing place is recorded and
// the import carries on, just like a failed form submission doesn't affect
// the next one. bar may be nil.
func importPlaces(ctx context.Context, svc submitter, places []string, bar *progressbar.ProgressBar) importSummary {
	var summary importSummary

	for _, place := range places {
		if ctx.Err() != nil {
			summary.Failed = append(summary.Failed, place)
			continue
		}

		rec, err := svc.Submit(ctx, place)
		switch {
		case errors.Is(err, survey.ErrNoMatch), errors.Is(err, survey.ErrEmptyPlace):
			summary.NotFound = append(summary.NotFound, place)
		case err != nil:
			slog.ErrorContext(ctx, "import place", "place", place, "error", err.Error())
			summary.Failed = append(summary.Failed, place)
		default:
			summary.Added = append(summary.Added, *rec)
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return summary
}

func renderTable(w io.Writer, records []location.Record) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Place", "Lat", "Lon"})
	table.SetAutoFormatHeaders(false)

	for i, r := range records {
		table.Append([]string{
			fmt.Sprint(i + 1),
			r.Place,
			fmt.Sprintf("%.4f", r.Latitude),
			fmt.Sprintf("%.4f", r.Longitude),
		})
	}

	table.SetFooter([]string{"", fmt.Sprintf("%d locations", len(records)), "", ""})
	table.Render()

	return nil
}

func renderSummary(w io.Writer, s importSummary) error {
	if err := renderTable(w, s.Added); err != nil {
		return err
	}

	for _, p := range s.NotFound {
		fmt.Fprintf(w, "not found: %s\n", p)
	}

	for _, p := range s.Failed {
		fmt.Fprintf(w, "failed: %s\n", p)
	}

	if len(s.Failed) > 0 {
		return fmt.Errorf("%d places could not be geocoded", len(s.Failed))
	}

	return nil
}
