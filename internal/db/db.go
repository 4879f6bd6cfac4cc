package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"transit-map/internal/dataset"
	"transit-map/internal/network"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

type stationRow struct {
	ID   int64
	Name string
	X, Y float64
}

type lineRow struct {
	ID    string
	Name  string
	Color string
}

type lineStopRow struct {
	LineID    string
	StationID int64
}

type tripRow struct {
	ID        string
	LineID    string
	Direction string
}

type tripTimeRow struct {
	TripID    string
	Arrival   string
	Departure string
}

// FetchDataset reads the whole network. Rows are ordered so that stops and
// trip times come out in sequence order.
func FetchDataset(ctx context.Context, db *sql.DB) (*dataset.Dataset, error) {
	var stations []stationRow
	err := query(ctx, db, `SELECT station_id, COALESCE(name, ''), x, y FROM stations ORDER BY station_id`,
		func(rows *sql.Rows) error {
			var r stationRow
			if err := rows.Scan(&r.ID, &r.Name, &r.X, &r.Y); err != nil {
				return err
			}
			stations = append(stations, r)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}

	var lines []lineRow
	err = query(ctx, db, `SELECT line_id, COALESCE(name, line_id), color FROM lines ORDER BY line_id`,
		func(rows *sql.Rows) error {
			var r lineRow
			if err := rows.Scan(&r.ID, &r.Name, &r.Color); err != nil {
				return err
			}
			lines = append(lines, r)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}

	var stops []lineStopRow
	err = query(ctx, db, `SELECT line_id, station_id FROM line_stops ORDER BY line_id, stop_sequence`,
		func(rows *sql.Rows) error {
			var r lineStopRow
			if err := rows.Scan(&r.LineID, &r.StationID); err != nil {
				return err
			}
			stops = append(stops, r)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query line_stops: %w", err)
	}

	var trips []tripRow
	err = query(ctx, db, `SELECT trip_id, line_id, direction FROM trips ORDER BY line_id, trip_id`,
		func(rows *sql.Rows) error {
			var r tripRow
			if err := rows.Scan(&r.ID, &r.LineID, &r.Direction); err != nil {
				return err
			}
			trips = append(trips, r)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}

	var times []tripTimeRow
	err = query(ctx, db, `SELECT trip_id, COALESCE(arrival_time::text, ''), COALESCE(departure_time::text, '')
		FROM trip_times ORDER BY trip_id, stop_sequence`,
		func(rows *sql.Rows) error {
			var r tripTimeRow
			if err := rows.Scan(&r.TripID, &r.Arrival, &r.Departure); err != nil {
				return err
			}
			times = append(times, r)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("query trip_times: %w", err)
	}

	ds, err := assemble(stations, lines, stops, trips, times)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func query(ctx context.Context, db *sql.DB, q string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// assemble turns table rows into a dataset, translating station ids into
// positions in the station list.
func assemble(stations []stationRow, lines []lineRow, stops []lineStopRow, trips []tripRow, times []tripTimeRow) (*dataset.Dataset, error) {
	ds := &dataset.Dataset{}
	index := make(map[int64]int, len(stations))
	for i, s := range stations {
		index[s.ID] = i
		ds.Stations = append(ds.Stations, dataset.Station{Name: s.Name, X: s.X, Y: s.Y})
	}

	lineIndex := make(map[string]int, len(lines))
	for i, l := range lines {
		color, err := network.ParseColor(l.Color)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", l.ID, err)
		}
		lineIndex[l.ID] = i
		ds.Lines = append(ds.Lines, dataset.Line{Name: l.Name, Color: dataset.Color(color)})
	}

	for _, s := range stops {
		li, ok := lineIndex[s.LineID]
		if !ok {
			return nil, fmt.Errorf("line_stops: unknown line %q", s.LineID)
		}
		si, ok := index[s.StationID]
		if !ok {
			return nil, fmt.Errorf("line_stops: line %q references unknown station %d", s.LineID, s.StationID)
		}
		ds.Lines[li].Stops = append(ds.Lines[li].Stops, si)
	}

	tripTimes := make(map[string][]tripTimeRow)
	for _, tt := range times {
		tripTimes[tt.TripID] = append(tripTimes[tt.TripID], tt)
	}
	for _, t := range trips {
		li, ok := lineIndex[t.LineID]
		if !ok {
			return nil, fmt.Errorf("trips: trip %q references unknown line %q", t.ID, t.LineID)
		}
		arrivals, departures, err := tripSchedule(tripTimes[t.ID])
		if err != nil {
			return nil, fmt.Errorf("trip %q: %w", t.ID, err)
		}
		ds.Lines[li].Trips = append(ds.Lines[li].Trips, dataset.Trip{
			Direction:  strings.ToLower(strings.TrimSpace(t.Direction)),
			Arrivals:   arrivals,
			Departures: departures,
		})
	}
	return ds, nil
}

// tripSchedule turns trip_times rows into arrival and departure seconds.
// GTFS-style feeds leave one of the two blank at the terminals, and both blank
// at stops that are not timepoints. Untimed stops are spread evenly between
// the surrounding timed stops.
func tripSchedule(rows []tripTimeRow) ([]float64, []float64, error) {
	arrivals := make([]float64, len(rows))
	departures := make([]float64, len(rows))
	timed := make([]bool, len(rows))
	for i, tt := range rows {
		arrival := strings.TrimSpace(tt.Arrival)
		departure := strings.TrimSpace(tt.Departure)
		if arrival == "" && departure == "" {
			continue
		}
		if arrival == "" {
			arrival = departure
		}
		if departure == "" {
			departure = arrival
		}
		arrivals[i] = float64(parseDaySeconds(arrival))
		departures[i] = float64(parseDaySeconds(departure))
		timed[i] = true
	}

	prev := -1
	for i := range rows {
		if !timed[i] {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			from, to := departures[prev], arrivals[i]
			span := float64(i - prev)
			for k := prev + 1; k < i; k++ {
				at := from + (to-from)*float64(k-prev)/span
				arrivals[k], departures[k] = at, at
			}
		}
		prev = i
	}

	for i := range rows {
		if !timed[i] && (i == 0 || i == len(rows)-1) {
			return nil, nil, fmt.Errorf("stop %d: terminal stop has no time", i)
		}
	}
	return arrivals, departures, nil
}

// parseDaySeconds parses HH:MM:SS possibly with hours >= 24.
func parseDaySeconds(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	sec := 0
	if len(parts) > 2 {
		sec, _ = strconv.Atoi(parts[2])
	}
	total := h*3600 + m*60 + sec
	if total < 0 {
		total = 0
	}
	return total
}
