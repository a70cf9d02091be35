package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"vehicle-telemetry-monitor/internal/logger"
	"vehicle-telemetry-monitor/internal/models"
)

// ErrUnsupportedFormat is returned for an unknown input format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Parser handles parsing of raw telemetry files
type Parser struct {
	format string
}

// NewParser creates a new parser with the specified format (csv, json, log)
func NewParser(format string) *Parser {
	return &Parser{format: strings.ToLower(format)}
}

// ParseFile parses a raw telemetry file
func (p *Parser) ParseFile(filename string) ([]models.RawTelemetry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse parses raw telemetry from r
func (p *Parser) Parse(r io.Reader) ([]models.RawTelemetry, error) {
	switch p.format {
	case "csv":
		return p.parseCSV(r)
	case "json":
		return p.parseJSON(r)
	case "log":
		return p.parseLog(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.format)
	}
}

// parseCSV parses CSV with a header row. Empty cells are absent values.
func (p *Parser) parseCSV(r io.Reader) ([]models.RawTelemetry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	indices := make(map[string]int)
	for i, h := range header {
		indices[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var results []models.RawTelemetry
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return results, fmt.Errorf("error at line %d: %w", lineNum, err)
		}
		lineNum++

		data, err := recordToTelemetry(record, indices)
		if err != nil {
			logger.Warnf("line %d: %v", lineNum, err)
			continue
		}
		results = append(results, data)
	}

	return results, nil
}

// fieldReader pulls optional typed values out of one record and keeps the
// first conversion error.
type fieldReader struct {
	get func(key string) string
	err error
}

func (f *fieldReader) has(keys ...string) bool {
	for _, k := range keys {
		if f.get(k) != "" {
			return true
		}
	}
	return false
}

func (f *fieldReader) float(key string) *float64 {
	s := f.get(key)
	if s == "" || f.err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.err = fmt.Errorf("invalid %s %q: %w", key, s, err)
		return nil
	}
	return &v
}

func (f *fieldReader) int(key string) *int {
	s := f.get(key)
	if s == "" || f.err != nil {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f.err = fmt.Errorf("invalid %s %q: %w", key, s, err)
		return nil
	}
	n := int(v)
	return &n
}

// intOr returns def for an empty field.
func (f *fieldReader) intOr(key string, def int) int {
	if v := f.int(key); v != nil {
		return *v
	}
	return def
}

func (f *fieldReader) uint(key string, bits int) *uint64 {
	s := f.get(key)
	if s == "" || f.err != nil {
		return nil
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		f.err = fmt.Errorf("invalid %s %q: %w", key, s, err)
		return nil
	}
	return &v
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// recordToTelemetry converts a CSV record to RawTelemetry
func recordToTelemetry(record []string, indices map[string]int) (models.RawTelemetry, error) {
	var t models.RawTelemetry
	var err error

	f := &fieldReader{get: func(key string) string {
		if idx, ok := indices[key]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}}

	t.VehicleID = f.get("vehicle_id")
	if t.VehicleID == "" {
		return t, fmt.Errorf("missing vehicle_id")
	}

	if ts := f.get("timestamp"); ts != "" {
		t.Timestamp, err = parseTimestamp(ts)
		if err != nil {
			return t, fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	if v := f.uint("version", 32); v != nil {
		t.Version = models.Ptr(uint32(*v))
	}
	if v := f.uint("autopilot_type", 8); v != nil {
		t.AutopilotType = models.AutopilotType(*v)
	}
	if v := f.uint("vehicle_type", 8); v != nil {
		t.VehicleType = models.VehicleType(*v)
	}
	if v := f.uint("capabilities", 64); v != nil {
		t.Capabilities = *v
	}

	if f.has("battery_mv") {
		t.Battery = &models.RawBattery{
			VoltageMV: f.intOr("battery_mv", 0),
			Current:   f.intOr("battery_current", -1),
			Level:     f.intOr("battery_level", -1),
		}
	} else if f.has("battery_current", "battery_level") {
		logger.WithField("vehicle_id", t.VehicleID).Warn("battery current or level without battery_mv, battery dropped")
	}
	if f.has("rangefinder_distance", "rangefinder_voltage") {
		t.Rangefinder = &models.Rangefinder{
			Distance: f.float("rangefinder_distance"),
			Voltage:  f.float("rangefinder_voltage"),
		}
	}
	if f.has("gps_eph", "gps_epv", "gps_fix", "gps_sats") {
		t.GPS = &models.GPSInfo{
			EPH:               f.int("gps_eph"),
			EPV:               f.int("gps_epv"),
			FixType:           f.int("gps_fix"),
			SatellitesVisible: f.int("gps_sats"),
		}
	}
	if f.has("lat", "lon", "alt", "relative_alt") {
		t.Position = &models.RawPosition{
			Lat:         f.float("lat"),
			Lon:         f.float("lon"),
			Alt:         f.float("alt"),
			RelativeAlt: f.float("relative_alt"),
		}
	}
	if f.has("north", "east", "down") {
		t.Local = &models.LocationLocal{
			North: f.float("north"),
			East:  f.float("east"),
			Down:  f.float("down"),
		}
	}
	if f.has("pitch", "yaw", "roll") {
		t.Attitude = &models.Attitude{
			Pitch: orZero(f.float("pitch")),
			Yaw:   orZero(f.float("yaw")),
			Roll:  orZero(f.float("roll")),
		}
	}
	if f.has("wind_direction", "wind_speed", "wind_speed_z") {
		t.Wind = &models.Wind{
			Direction: orZero(f.float("wind_direction")),
			Speed:     orZero(f.float("wind_speed")),
			SpeedZ:    orZero(f.float("wind_speed_z")),
		}
	}

	t.Mode = f.get("mode")
	t.SystemStatus = f.get("system_status")

	return t, f.err
}

// parseJSON parses a JSON array, falling back to newline-delimited JSON
func (p *Parser) parseJSON(r io.Reader) ([]models.RawTelemetry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var results []models.RawTelemetry
	if err := json.Unmarshal(data, &results); err == nil {
		return results, nil
	}

	return p.parseJSONLines(bytes.NewReader(data))
}

// parseJSONLines parses newline-delimited JSON
func (p *Parser) parseJSONLines(r io.Reader) ([]models.RawTelemetry, error) {
	var results []models.RawTelemetry
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "[" || line == "]" {
			continue
		}

		line = strings.TrimSuffix(line, ",")

		var t models.RawTelemetry
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			logger.Warnf("line %d: %v", lineNum, err)
			continue
		}
		results = append(results, t)
	}

	return results, scanner.Err()
}

// logFieldCount is the number of fields in the pipe-delimited log format:
// timestamp|vehicle_id|version|capabilities|battery_mv,current,level|lat,lon,alt|mode|status
const logFieldCount = 8

// parseLog parses the pipe-delimited log format
func (p *Parser) parseLog(r io.Reader) ([]models.RawTelemetry, error) {
	var results []models.RawTelemetry
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < logFieldCount {
			logger.Warnf("line %d: insufficient fields", lineNum)
			continue
		}

		indices := map[string]int{
			"timestamp":     0,
			"vehicle_id":    1,
			"version":       2,
			"capabilities":  3,
			"mode":          6,
			"system_status": 7,
		}
		record := append([]string(nil), parts[:logFieldCount]...)

		battery := strings.Split(parts[4], ",")
		for i, key := range []string{"battery_mv", "battery_current", "battery_level"} {
			if i < len(battery) {
				indices[key] = len(record)
				record = append(record, battery[i])
			}
		}
		position := strings.Split(parts[5], ",")
		for i, key := range []string{"lat", "lon", "alt"} {
			if i < len(position) {
				indices[key] = len(record)
				record = append(record, position[i])
			}
		}

		t, err := recordToTelemetry(record, indices)
		if err != nil {
			logger.Warnf("line %d: %v", lineNum, err)
			continue
		}
		results = append(results, t)
	}

	return results, scanner.Err()
}

// parseTimestamp tries multiple timestamp formats
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
		"01/02/2006 15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}
