// Package store persists the taxi registry to a line-oriented flat file
// and loads the static location configuration. The file is a durability
// sink only; the in-memory registry stays authoritative during dispatch.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/easycab-sim/central/core/model"
	"github.com/easycab-sim/central/infra/logger"
)

// fieldSep separates the six taxi record fields:
// id#status#color#x#y#customer.
const fieldSep = "#"

// ErrIntegrity reports that a just-written taxi file failed to round-trip.
var ErrIntegrity = errors.New("taxi file integrity check failed")

// Config holds the flat-file paths.
type Config struct {
	TaxisFile     string `json:"taxis_file"`
	LocationsFile string `json:"locations_file"`
}

// SetDefaults applies the conventional data directory layout.
func (c *Config) SetDefaults() {
	if c.TaxisFile == "" {
		c.TaxisFile = "data/taxis.txt"
	}
	if c.LocationsFile == "" {
		c.LocationsFile = "data/map_config.txt"
	}
}

// FileStore reads and writes the persisted fleet state. Saves are
// serialized so overlapping writers cannot interleave the rename and
// the read-back check.
type FileStore struct {
	saveMu        sync.Mutex
	taxisPath     string
	locationsPath string
	log           logger.Logger
}

// New creates a FileStore over the configured paths.
func New(cfg Config, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &FileStore{taxisPath: cfg.TaxisFile, locationsPath: cfg.LocationsFile, log: log}
}

// LoadTaxis parses one taxi per line. Corrupt lines are logged and
// skipped; a missing file yields an empty fleet and a warning.
func (s *FileStore) LoadTaxis() (map[int]model.Taxi, error) {
	f, err := os.Open(s.taxisPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warnf("taxi file %s missing, starting with an empty fleet", s.taxisPath)
			return map[int]model.Taxi{}, nil
		}
		return nil, fmt.Errorf("open taxi file: %w", err)
	}
	defer f.Close()

	taxis := make(map[int]model.Taxi)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t, err := parseTaxiLine(line)
		if err != nil {
			s.log.Warnf("skipping corrupt record at %s:%d: %v", s.taxisPath, lineNo, err)
			continue
		}
		taxis[t.ID] = t
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read taxi file: %w", err)
	}
	return taxis, nil
}

// SaveTaxis serializes the full fleet, replacing the file atomically via
// a temp-file rename, then re-parses the result as a self-check. A
// round-trip mismatch returns ErrIntegrity. Safe for concurrent use.
func (s *FileStore) SaveTaxis(taxis map[int]model.Taxi) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	ids := make([]int, 0, len(taxis))
	for id := range taxis {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		t := taxis[id]
		fmt.Fprintf(&b, "%d%s%s%s%s%s%d%s%d%s%s\n",
			t.ID, fieldSep, t.Status, fieldSep, t.Color, fieldSep,
			t.Position.X, fieldSep, t.Position.Y, fieldSep, t.CustomerID)
	}

	dir := filepath.Dir(s.taxisPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.taxisPath)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.taxisPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace taxi file: %w", err)
	}

	reloaded, err := s.LoadTaxis()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if !reflect.DeepEqual(normalize(taxis), normalize(reloaded)) {
		return fmt.Errorf("%w: %d records written, %d read back", ErrIntegrity, len(taxis), len(reloaded))
	}
	return nil
}

func normalize(taxis map[int]model.Taxi) map[int]model.Taxi {
	if taxis == nil {
		return map[int]model.Taxi{}
	}
	return taxis
}

// LoadLocations parses whitespace-separated "id x y" triples. Every
// loaded location gets the BLUE static-waypoint marker. A missing file
// yields an empty map and a warning.
func (s *FileStore) LoadLocations() (map[string]model.Location, error) {
	f, err := os.Open(s.locationsPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warnf("location file %s missing, map has no static waypoints", s.locationsPath)
			return map[string]model.Location{}, nil
		}
		return nil, fmt.Errorf("open location file: %w", err)
	}
	defer f.Close()

	locations := make(map[string]model.Location)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			s.log.Warnf("skipping corrupt record at %s:%d: want 3 fields, got %d", s.locationsPath, lineNo, len(fields))
			continue
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX != nil || errY != nil {
			s.log.Warnf("skipping corrupt record at %s:%d: non-numeric coordinates", s.locationsPath, lineNo)
			continue
		}
		locations[fields[0]] = model.Location{
			ID:       fields[0],
			Position: model.Position{X: x, Y: y},
			Color:    model.ColorBlue,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read location file: %w", err)
	}
	return locations, nil
}

func parseTaxiLine(line string) (model.Taxi, error) {
	fields := strings.Split(line, fieldSep)
	if len(fields) != 6 {
		return model.Taxi{}, fmt.Errorf("want 6 fields, got %d", len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Taxi{}, fmt.Errorf("taxi id %q: %w", fields[0], err)
	}
	x, err := strconv.Atoi(fields[3])
	if err != nil {
		return model.Taxi{}, fmt.Errorf("x coordinate %q: %w", fields[3], err)
	}
	y, err := strconv.Atoi(fields[4])
	if err != nil {
		return model.Taxi{}, fmt.Errorf("y coordinate %q: %w", fields[4], err)
	}
	return model.Taxi{
		ID:         id,
		Status:     model.TaxiStatus(fields[1]),
		Color:      model.Color(fields[2]),
		Position:   model.Position{X: x, Y: y},
		CustomerID: fields[5],
	}, nil
}
