// Package store persists a lightweight fingerprint of the last parsed
// dataset so a reload can be skipped when the source hasn't changed,
// continuing build_graph's idempotence (spec §6) into the ingestion layer.
// It keeps no graph state itself, only row counts and a content hash,
// following the SQLite snapshot table the CSV parser in the reference
// stack uses to avoid re-reading unchanged GTFS feeds.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/antigravity/transitcore/internal/transit"
)

const schema = `
CREATE TABLE IF NOT EXISTS dataset_snapshot (
	source      TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	stop_areas  INTEGER NOT NULL,
	stop_points INTEGER NOT NULL,
	route_points INTEGER NOT NULL,
	stop_times  INTEGER NOT NULL,
	vehicle_journeys INTEGER NOT NULL
);
`

// Cache is a handle on the on-disk snapshot database.
type Cache struct {
	db *sql.DB
}

// Open creates (or reuses) a SQLite database at path and ensures the
// snapshot table exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }

// Fingerprint is the hash and row counts of a parsed dataset, cheap to
// compute and compare without touching the graph itself.
type Fingerprint struct {
	ContentHash     string
	StopAreas       int
	StopPoints      int
	RoutePoints     int
	StopTimes       int
	VehicleJourneys int
}

// Hash computes a Fingerprint from d's row contents. Field order is fixed
// so the same dataset always hashes identically regardless of map
// iteration elsewhere in the pipeline.
func Hash(d *transit.Dataset) Fingerprint {
	h := sha256.New()
	for _, sa := range d.StopAreas {
		fmt.Fprintf(h, "sa:%d:%s;", sa.ID, sa.Name)
	}
	for _, sp := range d.StopPoints {
		fmt.Fprintf(h, "sp:%d:%d;", sp.ID, sp.StopArea)
	}
	for _, rp := range d.RoutePoints {
		fmt.Fprintf(h, "rp:%d:%d;", rp.ID, rp.StopPoint)
	}
	for _, st := range d.StopTimes {
		fmt.Fprintf(h, "st:%d:%d:%d:%d;", st.ID, st.ArrivalTime, st.DepartureTime, st.RoutePoint)
	}
	for _, vj := range d.VehicleJourneys {
		fmt.Fprintf(h, "vj:%d:%d:%v;", vj.ID, vj.ValidityPattern, vj.StopTimeList)
	}
	sa, sp, rp, st := d.Sizes()
	return Fingerprint{
		ContentHash:     hex.EncodeToString(h.Sum(nil)),
		StopAreas:       sa,
		StopPoints:      sp,
		RoutePoints:     rp,
		StopTimes:       st,
		VehicleJourneys: len(d.VehicleJourneys),
	}
}

// Unchanged reports whether source's last recorded fingerprint matches fp
// exactly. A missing row is treated as "changed" (first load).
func (c *Cache) Unchanged(source string, fp Fingerprint) (bool, error) {
	var stored Fingerprint
	row := c.db.QueryRow(`
		SELECT content_hash, stop_areas, stop_points, route_points, stop_times, vehicle_journeys
		FROM dataset_snapshot WHERE source = ?
	`, source)
	err := row.Scan(&stored.ContentHash, &stored.StopAreas, &stored.StopPoints, &stored.RoutePoints, &stored.StopTimes, &stored.VehicleJourneys)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: read snapshot for %s: %w", source, err)
	}
	return stored == fp, nil
}

// Record upserts source's fingerprint after a successful build.
func (c *Cache) Record(source string, fp Fingerprint) error {
	_, err := c.db.Exec(`
		INSERT INTO dataset_snapshot (source, content_hash, stop_areas, stop_points, route_points, stop_times, vehicle_journeys)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			content_hash = excluded.content_hash,
			stop_areas = excluded.stop_areas,
			stop_points = excluded.stop_points,
			route_points = excluded.route_points,
			stop_times = excluded.stop_times,
			vehicle_journeys = excluded.vehicle_journeys
	`, source, fp.ContentHash, fp.StopAreas, fp.StopPoints, fp.RoutePoints, fp.StopTimes, fp.VehicleJourneys)
	if err != nil {
		return fmt.Errorf("store: record snapshot for %s: %w", source, err)
	}
	return nil
}
