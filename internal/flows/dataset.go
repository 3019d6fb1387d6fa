package flows

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeColumn   = "date_time"
	DefaultVolumeColumn = "traffic_volume"
	DefaultTimeLayout   = "2006-01-02 15:04:05"

	ctxCheckEvery = 4096
)

// CSVDataset reads a traffic volume time series from a CSV file with a header row.
type CSVDataset struct {
	Path         string
	TimeColumn   string
	VolumeColumn string
	TimeLayout   string
}

func (d CSVDataset) columns() (string, string, string) {
	timeCol, volumeCol, layout := d.TimeColumn, d.VolumeColumn, d.TimeLayout
	if timeCol == "" {
		timeCol = DefaultTimeColumn
	}
	if volumeCol == "" {
		volumeCol = DefaultVolumeColumn
	}
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return timeCol, volumeCol, layout
}

// CacheKey identifies the file contents by path, size and modification time.
func (d CSVDataset) CacheKey() (string, error) {
	info, err := os.Stat(d.Path)
	if err != nil {
		return "", d.openError(err)
	}
	timeCol, volumeCol, _ := d.columns()
	return fmt.Sprintf("%s|%d|%d|%s|%s", d.Path, info.Size(), info.ModTime().UnixNano(), timeCol, volumeCol), nil
}

func (d CSVDataset) HourlyProfile(ctx context.Context) (HourlyProfile, error) {
	points, err := d.ReadPoints(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByHour(points), nil
}

// ReadPoints parses every row with a non-empty volume.
func (d CSVDataset) ReadPoints(ctx context.Context) ([]VolumePoint, error) {
	file, err := os.Open(d.Path)
	if err != nil {
		return nil, d.openError(err)
	}
	defer file.Close()

	return d.parse(ctx, file)
}

func (d CSVDataset) parse(ctx context.Context, r io.Reader) ([]VolumePoint, error) {
	timeCol, volumeCol, layout := d.columns()

	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewDatasetError(ErrorKindSchema, d.Path, errors.New("missing header row"))
		}
		return nil, NewDatasetError(ErrorKindIO, d.Path, err)
	}
	timeIdx, volumeIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case timeCol:
			timeIdx = i
		case volumeCol:
			volumeIdx = i
		}
	}
	if timeIdx < 0 || volumeIdx < 0 {
		return nil, NewDatasetError(ErrorKindSchema, d.Path, fmt.Errorf("columns %q and %q are required", timeCol, volumeCol))
	}

	var points []VolumePoint
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, NewDatasetLineError(ErrorKindInvalidData, d.Path, line, err)
		}
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if timeIdx >= len(record) || volumeIdx >= len(record) {
			return nil, NewDatasetLineError(ErrorKindInvalidData, d.Path, line, errors.New("row is missing columns"))
		}

		rawVolume := strings.TrimSpace(record[volumeIdx])
		if rawVolume == "" {
			continue
		}
		volume, err := strconv.ParseFloat(rawVolume, 64)
		if err != nil || volume < 0 {
			return nil, NewDatasetLineError(ErrorKindInvalidData, d.Path, line, fmt.Errorf("invalid volume %q", rawVolume))
		}
		ts, err := parseTimestamp(strings.TrimSpace(record[timeIdx]), layout)
		if err != nil {
			return nil, NewDatasetLineError(ErrorKindInvalidData, d.Path, line, err)
		}

		points = append(points, VolumePoint{Timestamp: ts, Volume: volume})
	}

	return points, nil
}

func parseTimestamp(raw string, layout string) (time.Time, error) {
	if ts, err := time.Parse(layout, raw); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (layout %q)", raw, layout)
}

func (d CSVDataset) openError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return NewDatasetError(ErrorKindNotFound, d.Path, err)
	}
	return NewDatasetError(ErrorKindIO, d.Path, err)
}
