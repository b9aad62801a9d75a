// Package waterdata loads the ancillary rivers and lakes reference tables.
// These are static files shipped alongside the server, not PX-Web tables:
// CSV or XLSX chosen by file extension, one header row, one record per row.
package waterdata

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// River is one row of the rivers reference table. Lengths are kilometres;
// TotalLengthKm covers the full course, LengthKm the section inside Georgia.
type River struct {
	Name          string  `json:"name"`
	NameKa        string  `json:"nameKa,omitempty"`
	LengthKm      float64 `json:"lengthKm"`
	TotalLengthKm float64 `json:"totalLengthKm,omitempty"`
	BasinAreaKm2  float64 `json:"basinAreaKm2,omitempty"`
}

// Lake is one row of the lakes reference table.
type Lake struct {
	Name      string  `json:"name"`
	NameKa    string  `json:"nameKa,omitempty"`
	AreaKm2   float64 `json:"areaKm2"`
	MaxDepthM float64 `json:"maxDepthM,omitempty"`
}

// Store holds the loaded reference tables. Loading happens once at startup;
// reads are concurrent.
type Store struct {
	mu     sync.RWMutex
	rivers []River
	lakes  []Lake
	logger *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// LoadRivers reads the rivers table from a CSV or XLSX file.
func (s *Store) LoadRivers(path string) error {
	records, err := readTable(path)
	if err != nil {
		return errors.Wrap(err, "waterdata", "LoadRivers", "read "+path)
	}

	rivers, err := parseRivers(records)
	if err != nil {
		return errors.Wrap(err, "waterdata", "LoadRivers", "parse "+path)
	}

	s.mu.Lock()
	s.rivers = rivers
	s.mu.Unlock()

	s.logger.Info("rivers table loaded", "path", path, "count", len(rivers))
	return nil
}

// LoadLakes reads the lakes table from a CSV or XLSX file.
func (s *Store) LoadLakes(path string) error {
	records, err := readTable(path)
	if err != nil {
		return errors.Wrap(err, "waterdata", "LoadLakes", "read "+path)
	}

	lakes, err := parseLakes(records)
	if err != nil {
		return errors.Wrap(err, "waterdata", "LoadLakes", "parse "+path)
	}

	s.mu.Lock()
	s.lakes = lakes
	s.mu.Unlock()

	s.logger.Info("lakes table loaded", "path", path, "count", len(lakes))
	return nil
}

// Rivers returns the loaded rivers sorted by descending length inside
// Georgia.
func (s *Store) Rivers() []River {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]River, len(s.rivers))
	copy(out, s.rivers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LengthKm > out[j].LengthKm })
	return out
}

// Lakes returns the loaded lakes sorted by descending surface area.
func (s *Store) Lakes() []Lake {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Lake, len(s.lakes))
	copy(out, s.lakes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AreaKm2 > out[j].AreaKm2 })
	return out
}

func parseRivers(records [][]string) ([]River, error) {
	cols, rows, err := splitHeader(records)
	if err != nil {
		return nil, err
	}

	rivers := make([]River, 0, len(rows))
	for i, row := range rows {
		name := cellString(row, cols, "name")
		if name == "" {
			continue
		}

		length, err := cellFloat(row, cols, "length_km", i)
		if err != nil {
			return nil, err
		}
		total, err := cellFloat(row, cols, "total_length_km", i)
		if err != nil {
			return nil, err
		}
		basin, err := cellFloat(row, cols, "basin_area_km2", i)
		if err != nil {
			return nil, err
		}

		rivers = append(rivers, River{
			Name:          name,
			NameKa:        cellString(row, cols, "name_ka"),
			LengthKm:      length,
			TotalLengthKm: total,
			BasinAreaKm2:  basin,
		})
	}
	return rivers, nil
}

func parseLakes(records [][]string) ([]Lake, error) {
	cols, rows, err := splitHeader(records)
	if err != nil {
		return nil, err
	}

	lakes := make([]Lake, 0, len(rows))
	for i, row := range rows {
		name := cellString(row, cols, "name")
		if name == "" {
			continue
		}

		area, err := cellFloat(row, cols, "area_km2", i)
		if err != nil {
			return nil, err
		}
		depth, err := cellFloat(row, cols, "max_depth_m", i)
		if err != nil {
			return nil, err
		}

		lakes = append(lakes, Lake{
			Name:      name,
			NameKa:    cellString(row, cols, "name_ka"),
			AreaKm2:   area,
			MaxDepthM: depth,
		})
	}
	return lakes, nil
}

// splitHeader maps normalized header names to column indexes and returns the
// data rows. A "name" column is mandatory; everything else is optional.
func splitHeader(records [][]string) (map[string]int, [][]string, error) {
	if len(records) == 0 {
		return nil, nil, errors.WrapInvalid(errors.ErrInvalidData, "waterdata", "splitHeader",
			"table has no header row")
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if key != "" {
			cols[key] = i
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, nil, errors.WrapInvalid(errors.ErrInvalidData, "waterdata", "splitHeader",
			"table has no name column")
	}

	return cols, records[1:], nil
}

func cellString(row []string, cols map[string]int, key string) string {
	i, ok := cols[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
