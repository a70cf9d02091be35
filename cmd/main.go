package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vehicle-telemetry-monitor/internal/api"
	"vehicle-telemetry-monitor/internal/cache"
	"vehicle-telemetry-monitor/internal/codec"
	"vehicle-telemetry-monitor/internal/config"
	"vehicle-telemetry-monitor/internal/db"
	"vehicle-telemetry-monitor/internal/logger"
	"vehicle-telemetry-monitor/internal/models"
	"vehicle-telemetry-monitor/internal/parser"
)

var (
	cfgFile  string
	v        = config.New()
	cfg      *config.Config
	database *db.Database
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vehicle-monitor",
		Short: "Vehicle Telemetry Monitor - autopilot telemetry decoding and analysis",
		Long: `A CLI tool for ingesting, decoding, and analyzing autopilot telemetry.
Decodes firmware version words and capability masks, converts battery and
sensor readings, stores raw records in SQLite and serves decoded snapshots
over a REST API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(v, cfgFile); err != nil {
				return err
			}
			return logger.Init(cfg.Logger)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("db", "vehicle_telemetry.db", "Path to SQLite database")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	v.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	v.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Add commands
	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(vehicleCmd())
	rootCmd.AddCommand(decodeCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initDB initializes database connection
func initDB() error {
	var err error
	database, err = db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

// initCache connects the latest-telemetry cache. A failed connection is
// logged and the command continues without it.
func initCache(ctx context.Context) *cache.Latest {
	latest, err := cache.NewLatest(ctx, cfg.Redis)
	if err != nil {
		logger.WithField("address", cfg.Redis.Address).Warn("latest telemetry cache disabled: ", err)
		return nil
	}
	return latest
}

// serverCmd starts the REST API server
func serverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			latest := initCache(cmd.Context())
			defer latest.Close()

			server := api.NewServer(database, latest, cfg.Ingest.LowBatteryPercent)
			addr := fmt.Sprintf(":%d", cfg.Server.Port)

			fmt.Printf("🚀 Vehicle Telemetry Monitor API Server\n")
			fmt.Printf("   Listening on http://localhost%s\n", addr)
			fmt.Printf("   Database: %s\n", cfg.Database.Path)
			if latest != nil {
				fmt.Printf("   Cache:    redis://%s\n", cfg.Redis.Address)
			}
			fmt.Println()
			fmt.Println("Available endpoints:")
			fmt.Println("  GET  /health")
			fmt.Println("  GET  /api/v1/vehicles")
			fmt.Println("  POST /api/v1/vehicles")
			fmt.Println("  GET  /api/v1/vehicles/{id}")
			fmt.Println("  GET  /api/v1/telemetry")
			fmt.Println("  POST /api/v1/telemetry")
			fmt.Println("  POST /api/v1/telemetry/batch")
			fmt.Println("  GET  /api/v1/telemetry/latest/{vehicle_id}")
			fmt.Println("  GET  /api/v1/telemetry/summary/{vehicle_id}")
			fmt.Println("  GET  /api/v1/alerts")
			fmt.Println("  GET  /api/v1/decode/version")
			fmt.Println("  GET  /api/v1/decode/capabilities")
			fmt.Println("  GET  /api/v1/stats")
			fmt.Println()

			logger.WithField("addr", addr).Info("api server starting")
			if err := http.ListenAndServe(addr, server.Router()); err != nil {
				logger.Error("api server stopped: ", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "Server port")
	v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

// ingestCmd ingests telemetry data from files
func ingestCmd() *cobra.Command {
	var format string
	var validate bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest raw telemetry from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			latest := initCache(cmd.Context())
			defer latest.Close()

			p := parser.NewParser(format)
			totalRecords := 0
			totalErrors := 0

			for _, file := range args {
				fmt.Printf("Processing %s...\n", file)
				start := time.Now()

				records, err := p.ParseFile(file)
				if err != nil {
					logger.WithFields(logrus.Fields{"file": file}).Error("parse failed: ", err)
					totalErrors++
					continue
				}

				if validate {
					var valid []models.RawTelemetry
					for i := range records {
						if errs := parser.ValidateTelemetry(&records[i]); len(errs) > 0 {
							logger.WithField("file", file).WithField("record", i).Warn(strings.Join(errs, "; "))
							totalErrors++
							continue
						}
						valid = append(valid, records[i])
					}
					records = valid
				}

				count, err := insertBatches(records, cfg.Ingest.BatchSize)
				if err != nil {
					logger.WithFields(logrus.Fields{"file": file, "inserted": count}).Error("database insert failed: ", err)
					totalErrors++
					continue
				}
				for _, r := range newestPerVehicle(records) {
					if err := latest.Put(cmd.Context(), r); err != nil {
						logger.WithField("vehicle_id", r.VehicleID).Warn("failed to cache latest telemetry: ", err)
					}
				}

				elapsed := time.Since(start)
				fmt.Printf("  ✓ Inserted %d records in %v (%.0f records/sec)\n",
					count, elapsed, float64(count)/elapsed.Seconds())
				totalRecords += count
			}

			fmt.Printf("\nTotal: %d records ingested", totalRecords)
			if totalErrors > 0 {
				fmt.Printf(", %d errors", totalErrors)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "File format (csv, json, log)")
	cmd.Flags().BoolVarP(&validate, "validate", "v", true, "Validate records before inserting")
	return cmd
}

// newestPerVehicle keeps the most recent record of each vehicle
func newestPerVehicle(records []models.RawTelemetry) []models.RawTelemetry {
	index := make(map[string]int)
	var out []models.RawTelemetry
	for _, r := range records {
		i, ok := index[r.VehicleID]
		if !ok {
			index[r.VehicleID] = len(out)
			out = append(out, r)
			continue
		}
		if r.Timestamp.After(out[i].Timestamp) {
			out[i] = r
		}
	}
	return out
}

// insertBatches stores records in transactions of at most batchSize rows
func insertBatches(records []models.RawTelemetry, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = len(records)
	}

	inserted := 0
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		count, err := database.InsertTelemetryBatch(records[i:end])
		if err != nil {
			return inserted, err
		}
		inserted += int(count)
	}
	return inserted, nil
}

// queryCmd queries telemetry data
func queryCmd() *cobra.Command {
	var q models.TelemetryQuery
	var startTime string
	var endTime string
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query decoded telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseTimeRange(&q, startTime, endTime); err != nil {
				return err
			}

			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			start := time.Now()
			results, err := database.QueryTelemetry(q)
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}
			elapsed := time.Since(start)

			if outputFormat != "table" {
				return codec.Encode(os.Stdout, outputFormat, reports(results))
			}

			fmt.Printf("Found %d records (query time: %v)\n\n", len(results), elapsed)
			for _, r := range results {
				printSnapshot(models.NewSnapshot(r))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&q.VehicleID, "vehicle", "V", "", "Filter by vehicle ID")
	cmd.Flags().StringVarP(&q.Mode, "mode", "m", "", "Filter by flight mode")
	cmd.Flags().StringVarP(&startTime, "start", "s", "", "Start time (RFC3339)")
	cmd.Flags().StringVarP(&endTime, "end", "e", "", "End time (RFC3339)")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", 100, "Maximum records to return")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml, cbor)")
	return cmd
}

func parseTimeRange(q *models.TelemetryQuery, startTime, endTime string) error {
	if startTime != "" {
		t, err := time.Parse(time.RFC3339, startTime)
		if err != nil {
			return fmt.Errorf("invalid start_time format (use RFC3339): %w", err)
		}
		q.StartTime = t
	}

	if endTime != "" {
		t, err := time.Parse(time.RFC3339, endTime)
		if err != nil {
			return fmt.Errorf("invalid end_time format (use RFC3339): %w", err)
		}
		q.EndTime = t
	}
	return nil
}

func reports(records []models.RawTelemetry) []models.Report {
	out := make([]models.Report, 0, len(records))
	for _, r := range records {
		out = append(out, models.NewSnapshot(r).Report())
	}
	return out
}

func printSnapshot(s models.Snapshot) {
	fmt.Printf("[%s] Vehicle: %s | %s | %s\n",
		s.Timestamp.Format("2006-01-02 15:04:05"), s.VehicleID, s.Version, s.Mode)
	if s.Battery != nil {
		fmt.Printf("     %s\n", s.Battery)
	}
	if s.GPS != nil {
		fmt.Printf("     %s (%s)\n", s.GPS, s.GPS.FixLabel())
	}
	if s.Location.Global != nil {
		fmt.Printf("     %s\n", s.Location.Global)
	}
	if d, ok := s.DistanceHome(); ok {
		fmt.Printf("     Distance home: %.1f m\n", d)
	}
	for _, a := range s.Alerts(cfg.Ingest.LowBatteryPercent) {
		fmt.Printf("     ⚠️  %s: %s\n", a.Kind, a.Description)
	}
}

// statsCmd shows database statistics
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			stats, err := database.GetStats(cfg.Ingest.LowBatteryPercent)
			if err != nil {
				return fmt.Errorf("error getting stats: %w", err)
			}

			fmt.Println("📊 Vehicle Telemetry Monitor Statistics")
			fmt.Println("=======================================")
			fmt.Printf("  Total Vehicles:     %v\n", stats["total_vehicles"])
			fmt.Printf("  Telemetry Records:  %v\n", stats["total_telemetry_records"])
			fmt.Printf("  Alert Records:      %v\n", stats["alert_records"])
			fmt.Printf("  Database:           %s\n", cfg.Database.Path)

			return nil
		},
	}
}

var (
	sampleAutopilots = []models.AutopilotType{models.AutopilotArduPilotMega, models.AutopilotPX4}
	sampleFrames     = []models.VehicleType{models.VehicleQuadrotor, models.VehicleFixedWing, models.VehicleGroundRover}
	sampleModes      = map[models.VehicleType][]string{
		models.VehicleQuadrotor:   {"STABILIZE", "LOITER", "GUIDED", "AUTO", "RTL", "LAND"},
		models.VehicleFixedWing:   {"MANUAL", "FBWA", "CRUISE", "AUTO", "RTL", "LOITER"},
		models.VehicleGroundRover: {"MANUAL", "HOLD", "GUIDED", "AUTO", "RTL"},
	}
	sampleStatuses = []string{"STANDBY", "ACTIVE", "ACTIVE", "ACTIVE", "CRITICAL"}
)

// sampleVersion packs a firmware version word with a random release byte:
// stable, or a dev/alpha/beta/rc build with a cycle number below 64.
func sampleVersion(rng *rand.Rand) uint32 {
	release := uint32(255)
	if rng.Intn(3) == 0 {
		release = uint32(rng.Intn(4))<<6 | uint32(rng.Intn(64))
	}
	return uint32(3+rng.Intn(2))<<24 | uint32(rng.Intn(10))<<16 | uint32(rng.Intn(10))<<8 | release
}

func sampleTelemetry(rng *rand.Rand, v models.Vehicle, version uint32, ts time.Time) models.RawTelemetry {
	level := rng.Intn(101)
	current := rng.Intn(3000)
	if rng.Intn(20) == 0 {
		level, current = -1, -1
	}

	modes := sampleModes[v.VehicleType]
	north := (rng.Float64() - 0.5) * 400
	east := (rng.Float64() - 0.5) * 400
	down := -rng.Float64() * 120
	alt := -down

	return models.RawTelemetry{
		VehicleID:     v.ID,
		Timestamp:     ts,
		Version:       models.Ptr(version),
		AutopilotType: v.AutopilotType,
		VehicleType:   v.VehicleType,
		Capabilities:  uint64(rng.Intn(1 << 13)),
		Battery: &models.RawBattery{
			VoltageMV: 10500 + rng.Intn(2100),
			Current:   current,
			Level:     level,
		},
		Rangefinder: &models.Rangefinder{
			Distance: models.Ptr(alt),
			Voltage:  models.Ptr(3.3),
		},
		GPS: &models.GPSInfo{
			EPH:               models.Ptr(80 + rng.Intn(200)),
			EPV:               models.Ptr(100 + rng.Intn(300)),
			FixType:           models.Ptr(rng.Intn(4)),
			SatellitesVisible: models.Ptr(rng.Intn(16)),
		},
		Position: &models.RawPosition{
			Lat:         models.Ptr(-35.3632 + north/111320),
			Lon:         models.Ptr(149.1652 + east/91000),
			Alt:         models.Ptr(584 + alt),
			RelativeAlt: models.Ptr(alt),
		},
		Local: &models.LocationLocal{
			North: models.Ptr(north),
			East:  models.Ptr(east),
			Down:  models.Ptr(down),
		},
		Attitude: &models.Attitude{
			Pitch: (rng.Float64() - 0.5) * 0.4,
			Yaw:   rng.Float64() * 6.28,
			Roll:  (rng.Float64() - 0.5) * 0.4,
		},
		Wind: &models.Wind{
			Direction: rng.Float64() * 360,
			Speed:     rng.Float64() * 12,
			SpeedZ:    (rng.Float64() - 0.5) * 2,
		},
		Mode:         modes[rng.Intn(len(modes))],
		SystemStatus: sampleStatuses[rng.Intn(len(sampleStatuses))],
	}
}

// generateCmd generates sample telemetry data
func generateCmd() *cobra.Command {
	var count int
	var vehicleCount int
	var output string
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample telemetry data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vehicleCount <= 0 {
				return errors.New("at least one vehicle is required")
			}

			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			vehicles := make([]models.Vehicle, 0, vehicleCount)
			versions := make(map[string]uint32, vehicleCount)
			for i := 1; i <= vehicleCount; i++ {
				veh := models.Vehicle{
					ID:            fmt.Sprintf("UAV-%03d", i),
					Name:          fmt.Sprintf("Vehicle %d", i),
					AutopilotType: sampleAutopilots[rng.Intn(len(sampleAutopilots))],
					VehicleType:   sampleFrames[rng.Intn(len(sampleFrames))],
				}
				if err := database.InsertVehicle(&veh); err != nil {
					return fmt.Errorf("error creating vehicle %s: %w", veh.ID, err)
				}
				vehicles = append(vehicles, veh)
				versions[veh.ID] = sampleVersion(rng)
			}

			fmt.Printf("Created %d vehicles\n", vehicleCount)

			records := make([]models.RawTelemetry, 0, count)
			baseTime := time.Now().UTC().Add(-24 * time.Hour)
			for i := 0; i < count; i++ {
				veh := vehicles[rng.Intn(len(vehicles))]
				ts := baseTime.Add(time.Duration(i) * time.Second)
				records = append(records, sampleTelemetry(rng, veh, versions[veh.ID], ts))
			}

			start := time.Now()
			inserted, err := insertBatches(records, cfg.Ingest.BatchSize)
			if err != nil {
				return fmt.Errorf("error inserting telemetry: %w", err)
			}

			elapsed := time.Since(start)
			fmt.Printf("✓ Generated %d telemetry records in %v (%.0f records/sec)\n",
				inserted, elapsed, float64(inserted)/elapsed.Seconds())

			if output != "" {
				if err := writeFile(output, codec.JSON, records); err != nil {
					return err
				}
				fmt.Printf("Raw data exported to %s\n", output)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "c", 10000, "Number of records to generate")
	cmd.Flags().IntVarP(&vehicleCount, "vehicles", "n", 10, "Number of vehicles to create")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Export generated raw data to JSON file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 uses the current time)")
	return cmd
}

// writeFile encodes data into path. A failed close is reported, since it can
// mean the final write never reached the disk.
func writeFile(path, format string, data any) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing %s: %w", path, cerr)
		}
	}()

	if err := codec.Encode(file, format, data); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

// vehicleCmd manages vehicles
func vehicleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Vehicle management commands",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			vehicles, err := database.ListVehicles()
			if err != nil {
				return fmt.Errorf("error listing vehicles: %w", err)
			}

			if len(vehicles) == 0 {
				fmt.Println("No vehicles found. Use 'vehicle-monitor generate' to create sample data.")
				return nil
			}

			fmt.Printf("%-10s %-20s %-18s\n", "ID", "Name", "Type")
			fmt.Println(strings.Repeat("-", 50))
			for _, veh := range vehicles {
				fmt.Printf("%-10s %-20s %-18s\n", veh.ID, veh.Name,
					strings.TrimSuffix(veh.AutopilotType.Prefix()+veh.VehicleType.Prefix(), "-"))
			}

			return nil
		},
	}

	var autopilot, frame uint8
	addCmd := &cobra.Command{
		Use:   "add [id] [name]",
		Short: "Register a vehicle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			veh := models.Vehicle{
				ID:            args[0],
				Name:          args[1],
				AutopilotType: models.AutopilotType(autopilot),
				VehicleType:   models.VehicleType(frame),
			}
			if err := database.InsertVehicle(&veh); err != nil {
				return fmt.Errorf("error adding vehicle: %w", err)
			}

			fmt.Printf("✓ Added %s (%s)\n", veh.ID, veh.Name)
			return nil
		},
	}
	addCmd.Flags().Uint8Var(&autopilot, "autopilot", uint8(models.AutopilotArduPilotMega), "Autopilot type code")
	addCmd.Flags().Uint8Var(&frame, "type", uint8(models.VehicleQuadrotor), "Vehicle type code")

	summaryCmd := &cobra.Command{
		Use:   "summary [vehicle_id]",
		Short: "Show vehicle telemetry summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			start := time.Now()
			summary, err := database.GetTelemetrySummary(args[0])
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("no telemetry found for %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("error getting summary: %w", err)
			}
			elapsed := time.Since(start)

			fmt.Printf("📈 Telemetry Summary for %s (query: %v)\n", args[0], elapsed)
			fmt.Println("==========================================")
			fmt.Printf("  Total Records:     %d\n", summary.TotalRecords)
			fmt.Printf("  Latest Firmware:   %s\n", summary.LatestFirmware)
			fmt.Printf("  Average Voltage:   %s\n", optVolts(summary.AvgVoltage))
			fmt.Printf("  Minimum Voltage:   %s\n", optVolts(summary.MinVoltage))
			if summary.MaxDistanceHome != nil {
				fmt.Printf("  Max Distance Home: %.1f m\n", *summary.MaxDistanceHome)
			}

			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, summaryCmd)
	return cmd
}

func optVolts(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f V", *f)
}

// decodeCmd decodes packed protocol fields without touching the database
func decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw protocol fields",
	}

	var autopilot, frame uint8
	var outputFormat string
	versionCmd := &cobra.Command{
		Use:   "version [raw]",
		Short: "Decode a 32-bit firmware version word (decimal or 0x hex)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid version word %q: %w", args[0], err)
			}

			ver := models.DecodeVersion(models.Ptr(uint32(n)), models.AutopilotType(autopilot), models.VehicleType(frame))
			if outputFormat != "table" {
				return codec.Encode(os.Stdout, outputFormat, ver)
			}

			fmt.Printf("Firmware:  %s\n", ver)
			fmt.Printf("Major:     %d\n", *ver.Major)
			fmt.Printf("Minor:     %d\n", *ver.Minor)
			fmt.Printf("Patch:     %d\n", *ver.Patch)
			label, rv := ver.ReleaseLabel()
			fmt.Printf("Release:   %s %d\n", label, *rv)
			return nil
		},
	}
	versionCmd.Flags().Uint8Var(&autopilot, "autopilot", uint8(models.AutopilotArduPilotMega), "Autopilot type code")
	versionCmd.Flags().Uint8Var(&frame, "type", uint8(models.VehicleQuadrotor), "Vehicle type code")
	versionCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, yaml, cbor)")

	capabilitiesCmd := &cobra.Command{
		Use:   "capabilities [raw]",
		Short: "Decode a capability bitmask (decimal or 0x hex)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid capability mask %q: %w", args[0], err)
			}

			caps := models.DecodeCapabilities(n)
			for c := models.CapMissionFloat; c <= models.CapCompassCalibration; c++ {
				mark := " "
				if caps.Has(c) {
					mark = "x"
				}
				fmt.Printf("[%s] %2d %s\n", mark, c, c)
			}
			return nil
		},
	}

	cmd.AddCommand(versionCmd, capabilitiesCmd)
	return cmd
}

// exportCmd writes decoded telemetry reports to a file
func exportCmd() *cobra.Command {
	var q models.TelemetryQuery
	var startTime string
	var endTime string
	var format string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export decoded telemetry to json, yaml or cbor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseTimeRange(&q, startTime, endTime); err != nil {
				return err
			}

			if err := initDB(); err != nil {
				return err
			}
			defer database.Close()

			results, err := database.QueryTelemetry(q)
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}

			if err := writeFile(args[0], format, reports(results)); err != nil {
				return err
			}
			logger.WithField("file", args[0]).WithField("records", len(results)).Info("telemetry exported")
			fmt.Printf("✓ Exported %d records to %s\n", len(results), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&q.VehicleID, "vehicle", "V", "", "Filter by vehicle ID")
	cmd.Flags().StringVarP(&startTime, "start", "s", "", "Start time (RFC3339)")
	cmd.Flags().StringVarP(&endTime, "end", "e", "", "End time (RFC3339)")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", 0, "Maximum records to export (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", codec.JSON, "Export format (json, yaml, cbor)")
	return cmd
}
