package location

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

var header = []string{"place", "lat", "lon"}

// CSVStore keeps records in a comma separated file with a place,lat,lon
// header. Writers in the same process are serialised by the store; it isn't
// safe to share the file between processes.
type CSVStore struct {
	path string
	mu   sync.RWMutex
}

var _ Store = (*CSVStore)(nil)

func NewCSVStore(path string) (*CSVStore, error) {
	s := &CSVStore{path: path}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		if err := s.writeEmpty(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return s, nil
}

func (s *CSVStore) Append(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	if err := w.Write(r.row()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}

	return f.Sync()
}

func (s *CSVStore) ReadAll(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}

	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records := []Record{}
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable csv row", "line", line, "error", err.Error())
			continue
		}

		if line == 1 && isHeader(row) {
			continue
		}

		rec, err := parseRow(row)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed location", "line", line, "error", err.Error())
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

func (s *CSVStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeEmpty()
}

func (s *CSVStore) Close() error {
	return nil
}

// writeEmpty replaces the file with one holding only the header. The rename
// makes readers see either the old or the new file, never a partial one.
func (s *CSVStore) writeEmpty() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".locations-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush header: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	return nil
}

func (r Record) row() []string {
	return []string{
		r.Place,
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
	}
}

func isHeader(row []string) bool {
	return len(row) == len(header) && row[0] == header[0] && row[1] == header[1] && row[2] == header[2]
}

func parseRow(row []string) (Record, error) {
	if len(row) != 3 {
		return Record{}, fmt.Errorf("expected 3 fields, got %d", len(row))
	}

	lat, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse lat: %w", err)
	}

	lon, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse lon: %w", err)
	}

	return Record{Place: row[0], Latitude: lat, Longitude: lon}, nil
}
