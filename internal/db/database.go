package db

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"vehicle-telemetry-monitor/internal/models"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Database wraps the SQLite connection
type Database struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*Database, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1) // single writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &Database{conn: conn}

	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize creates tables and indexes. Telemetry is stored as received;
// decoding happens on read.
func (db *Database) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		autopilot_type INTEGER NOT NULL,
		vehicle_type INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS telemetry (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		version INTEGER,
		autopilot_type INTEGER NOT NULL,
		vehicle_type INTEGER NOT NULL,
		capabilities INTEGER NOT NULL,
		battery_mv INTEGER,
		battery_current INTEGER,
		battery_level INTEGER,
		has_rangefinder INTEGER NOT NULL DEFAULT 0,
		rangefinder_distance REAL,
		rangefinder_voltage REAL,
		has_gps INTEGER NOT NULL DEFAULT 0,
		gps_eph INTEGER,
		gps_epv INTEGER,
		gps_fix INTEGER,
		gps_sats INTEGER,
		has_position INTEGER NOT NULL DEFAULT 0,
		lat REAL,
		lon REAL,
		alt REAL,
		relative_alt REAL,
		has_local INTEGER NOT NULL DEFAULT 0,
		north REAL,
		east REAL,
		down REAL,
		pitch REAL,
		yaw REAL,
		roll REAL,
		wind_direction REAL,
		wind_speed REAL,
		wind_speed_z REAL,
		mode TEXT NOT NULL DEFAULT '',
		system_status TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_telemetry_vehicle_id ON telemetry(vehicle_id);
	CREATE INDEX IF NOT EXISTS idx_telemetry_timestamp ON telemetry(timestamp);
	CREATE INDEX IF NOT EXISTS idx_telemetry_vehicle_timestamp ON telemetry(vehicle_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_telemetry_mode ON telemetry(mode);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// InsertVehicle adds a new vehicle
func (db *Database) InsertVehicle(v *models.Vehicle) error {
	query := `INSERT INTO vehicles (id, name, autopilot_type, vehicle_type) VALUES (?, ?, ?, ?)`
	_, err := db.conn.Exec(query, v.ID, v.Name, v.AutopilotType, v.VehicleType)
	return err
}

// GetVehicle retrieves a vehicle by ID
func (db *Database) GetVehicle(id string) (*models.Vehicle, error) {
	query := `SELECT id, name, autopilot_type, vehicle_type, created_at FROM vehicles WHERE id = ?`

	var v models.Vehicle
	err := db.conn.QueryRow(query, id).Scan(&v.ID, &v.Name, &v.AutopilotType, &v.VehicleType, &v.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// ListVehicles returns all vehicles
func (db *Database) ListVehicles() ([]models.Vehicle, error) {
	query := `SELECT id, name, autopilot_type, vehicle_type, created_at FROM vehicles ORDER BY name`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.AutopilotType, &v.VehicleType, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

const insertTelemetry = `
	INSERT INTO telemetry
	(id, vehicle_id, timestamp, version, autopilot_type, vehicle_type, capabilities,
	 battery_mv, battery_current, battery_level,
	 has_rangefinder, rangefinder_distance, rangefinder_voltage,
	 has_gps, gps_eph, gps_epv, gps_fix, gps_sats,
	 has_position, lat, lon, alt, relative_alt,
	 has_local, north, east, down,
	 pitch, yaw, roll, wind_direction, wind_speed, wind_speed_z,
	 mode, system_status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectTelemetry = `
	SELECT id, vehicle_id, timestamp, version, autopilot_type, vehicle_type, capabilities,
	       battery_mv, battery_current, battery_level,
	       has_rangefinder, rangefinder_distance, rangefinder_voltage,
	       has_gps, gps_eph, gps_epv, gps_fix, gps_sats,
	       has_position, lat, lon, alt, relative_alt,
	       has_local, north, east, down,
	       pitch, yaw, roll, wind_direction, wind_speed, wind_speed_z,
	       mode, system_status
	FROM telemetry
`

// alertCondition matches rows that may raise an alert: a known battery level
// under the threshold, or a known GPS fix type without a fix.
const alertCondition = `((battery_level IS NOT NULL AND battery_level != -1 AND battery_level < ?) OR (gps_fix IS NOT NULL AND gps_fix <= 1))`

// InsertTelemetry stores a single raw record, assigning an ID if it has none
func (db *Database) InsertTelemetry(t *models.RawTelemetry) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := db.conn.Exec(insertTelemetry, telemetryArgs(t)...)
	return err
}

// InsertTelemetryBatch inserts multiple raw records in one transaction
func (db *Database) InsertTelemetryBatch(records []models.RawTelemetry) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertTelemetry)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var count int64
	for i := range records {
		t := &records[i]
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if _, err := stmt.Exec(telemetryArgs(t)...); err != nil {
			return count, err
		}
		count++
	}

	return count, tx.Commit()
}

func telemetryArgs(t *models.RawTelemetry) []interface{} {
	var batteryMV, batteryCurrent, batteryLevel *int
	if t.Battery != nil {
		batteryMV = &t.Battery.VoltageMV
		batteryCurrent = &t.Battery.Current
		batteryLevel = &t.Battery.Level
	}

	rf := t.Rangefinder
	if rf == nil {
		rf = &models.Rangefinder{}
	}
	gps := t.GPS
	if gps == nil {
		gps = &models.GPSInfo{}
	}
	pos := t.Position
	if pos == nil {
		pos = &models.RawPosition{}
	}
	local := t.Local
	if local == nil {
		local = &models.LocationLocal{}
	}

	var pitch, yaw, roll *float64
	if t.Attitude != nil {
		pitch, yaw, roll = &t.Attitude.Pitch, &t.Attitude.Yaw, &t.Attitude.Roll
	}
	var windDir, windSpeed, windSpeedZ *float64
	if t.Wind != nil {
		windDir, windSpeed, windSpeedZ = &t.Wind.Direction, &t.Wind.Speed, &t.Wind.SpeedZ
	}

	var version *int64
	if t.Version != nil {
		v := int64(*t.Version)
		version = &v
	}

	return []interface{}{
		t.ID, t.VehicleID, t.Timestamp.UTC(), version, t.AutopilotType, t.VehicleType,
		int64(t.Capabilities), // sqlite integers are signed; the bits are kept as is
		batteryMV, batteryCurrent, batteryLevel,
		t.Rangefinder != nil, rf.Distance, rf.Voltage,
		t.GPS != nil, gps.EPH, gps.EPV, gps.FixType, gps.SatellitesVisible,
		t.Position != nil, pos.Lat, pos.Lon, pos.Alt, pos.RelativeAlt,
		t.Local != nil, local.North, local.East, local.Down,
		pitch, yaw, roll, windDir, windSpeed, windSpeedZ,
		t.Mode, t.SystemStatus,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTelemetry(row rowScanner) (models.RawTelemetry, error) {
	var (
		t                                       models.RawTelemetry
		version                                 sql.NullInt64
		capabilities                            int64
		batteryMV, batteryCurrent, batteryLevel sql.NullInt64
		hasRangefinder, hasGPS                  bool
		hasPosition, hasLocal                   bool
		rfDistance, rfVoltage                   sql.NullFloat64
		eph, epv, fix, sats                     sql.NullInt64
		lat, lon, alt, relativeAlt              sql.NullFloat64
		north, east, down                       sql.NullFloat64
		pitch, yaw, roll                        sql.NullFloat64
		windDir, windSpeed, windSpeedZ          sql.NullFloat64
	)

	err := row.Scan(
		&t.ID, &t.VehicleID, &t.Timestamp, &version, &t.AutopilotType, &t.VehicleType, &capabilities,
		&batteryMV, &batteryCurrent, &batteryLevel,
		&hasRangefinder, &rfDistance, &rfVoltage,
		&hasGPS, &eph, &epv, &fix, &sats,
		&hasPosition, &lat, &lon, &alt, &relativeAlt,
		&hasLocal, &north, &east, &down,
		&pitch, &yaw, &roll, &windDir, &windSpeed, &windSpeedZ,
		&t.Mode, &t.SystemStatus,
	)
	if err != nil {
		return t, err
	}

	if version.Valid {
		t.Version = models.Ptr(uint32(version.Int64))
	}
	t.Capabilities = uint64(capabilities)

	if batteryMV.Valid {
		t.Battery = &models.RawBattery{
			VoltageMV: int(batteryMV.Int64),
			Current:   int(batteryCurrent.Int64),
			Level:     int(batteryLevel.Int64),
		}
	}
	if hasRangefinder {
		t.Rangefinder = &models.Rangefinder{Distance: float(rfDistance), Voltage: float(rfVoltage)}
	}
	if hasGPS {
		t.GPS = &models.GPSInfo{EPH: integer(eph), EPV: integer(epv), FixType: integer(fix), SatellitesVisible: integer(sats)}
	}
	if hasPosition {
		t.Position = &models.RawPosition{Lat: float(lat), Lon: float(lon), Alt: float(alt), RelativeAlt: float(relativeAlt)}
	}
	if hasLocal {
		t.Local = &models.LocationLocal{North: float(north), East: float(east), Down: float(down)}
	}
	if pitch.Valid {
		t.Attitude = &models.Attitude{Pitch: pitch.Float64, Yaw: yaw.Float64, Roll: roll.Float64}
	}
	if windDir.Valid {
		t.Wind = &models.Wind{Direction: windDir.Float64, Speed: windSpeed.Float64, SpeedZ: windSpeedZ.Float64}
	}
	return t, nil
}

func float(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func integer(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (db *Database) queryRecords(query string, args ...interface{}) ([]models.RawTelemetry, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.RawTelemetry
	for rows.Next() {
		t, err := scanTelemetry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// QueryTelemetry retrieves raw records matching q, newest first
func (db *Database) QueryTelemetry(q models.TelemetryQuery) ([]models.RawTelemetry, error) {
	var conditions []string
	var args []interface{}

	query := selectTelemetry

	if q.VehicleID != "" {
		conditions = append(conditions, "vehicle_id = ?")
		args = append(args, q.VehicleID)
	}
	if !q.StartTime.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, q.StartTime.UTC())
	}
	if !q.EndTime.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, q.EndTime.UTC())
	}
	if q.Mode != "" {
		conditions = append(conditions, "mode = ?")
		args = append(args, q.Mode)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY timestamp DESC"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	}

	return db.queryRecords(query, args...)
}

// GetLatestTelemetry returns the most recent raw record for a vehicle
func (db *Database) GetLatestTelemetry(vehicleID string) (*models.RawTelemetry, error) {
	query := selectTelemetry + ` WHERE vehicle_id = ? ORDER BY timestamp DESC LIMIT 1`

	t, err := scanTelemetry(db.conn.QueryRow(query, vehicleID))
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// GetTelemetrySummary returns aggregated statistics for a vehicle
func (db *Database) GetTelemetrySummary(vehicleID string) (*models.TelemetrySummary, error) {
	query := `
		SELECT
			COUNT(*),
			AVG(battery_mv) / 1000.0,
			MIN(battery_mv) / 1000.0,
			MAX(north * north + east * east + COALESCE(down * down, 0))
		FROM telemetry
		WHERE vehicle_id = ?
	`

	var avgVoltage, minVoltage, maxDistanceSq sql.NullFloat64
	s := models.TelemetrySummary{VehicleID: vehicleID}
	err := db.conn.QueryRow(query, vehicleID).Scan(&s.TotalRecords, &avgVoltage, &minVoltage, &maxDistanceSq)
	if err != nil {
		return nil, err
	}
	if s.TotalRecords == 0 {
		return nil, ErrNotFound
	}

	s.AvgVoltage = float(avgVoltage)
	s.MinVoltage = float(minVoltage)
	if maxDistanceSq.Valid {
		s.MaxDistanceHome = models.Ptr(math.Sqrt(maxDistanceSq.Float64))
	}

	latest, err := db.GetLatestTelemetry(vehicleID)
	if err != nil {
		return nil, err
	}
	if latest.Version != nil {
		s.LatestFirmware = models.NewSnapshot(*latest).Version.String()
	}
	return &s, nil
}

// GetAlerts returns alerts raised by stored records, newest first. An empty
// vehicleID matches all vehicles.
func (db *Database) GetAlerts(vehicleID string, lowBatteryPercent, limit int) ([]models.Alert, error) {
	query := selectTelemetry + " WHERE " + alertCondition
	args := []interface{}{lowBatteryPercent}

	if vehicleID != "" {
		query += " AND vehicle_id = ?"
		args = append(args, vehicleID)
	}

	query += " ORDER BY timestamp DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	records, err := db.queryRecords(query, args...)
	if err != nil {
		return nil, err
	}

	alerts := []models.Alert{}
	for _, r := range records {
		alerts = append(alerts, models.NewSnapshot(r).Alerts(lowBatteryPercent)...)
	}
	return alerts, nil
}

// GetRecordCount returns total telemetry records
func (db *Database) GetRecordCount() (int64, error) {
	var count int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM telemetry").Scan(&count)
	return count, err
}

// GetStats returns database statistics
func (db *Database) GetStats(lowBatteryPercent int) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRecords, totalVehicles, alertRecords int64
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM telemetry").Scan(&totalRecords); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM vehicles").Scan(&totalVehicles); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM telemetry WHERE "+alertCondition, lowBatteryPercent).Scan(&alertRecords); err != nil {
		return nil, err
	}

	stats["total_telemetry_records"] = totalRecords
	stats["total_vehicles"] = totalVehicles
	stats["alert_records"] = alertRecords
	return stats, nil
}
