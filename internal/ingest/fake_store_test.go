package ingest

import (
	"context"
	"time"

	"github.com/tecnolord/meteohub/internal/db"
)

// fakeStore mimics the conflict-clause semantics of the real store: email
// and code natural keys, insert-or-skip for weather readings, per-field
// coalesce merge for hydro readings.
type fakeStore struct {
	nextID int64

	principals map[string]int64
	stations   map[string]*fakeStation
	members    map[[2]int64]string
	points     map[string]*fakePoint

	weather map[weatherKey]*fakeWeatherRow
	hydro   map[hydroKey]*fakeHydroRow
}

type fakeStation struct {
	id        int64
	name      *string
	createdBy *int64
}

type fakePoint struct {
	id        int64
	pointType string
	name      *string
}

type weatherKey struct {
	stationID int64
	instant   time.Time
}

type hydroKey struct {
	pointID int64
	instant time.Time
}

type fakeWeatherRow struct {
	id      int64
	reading db.WeatherReading
}

type fakeHydroRow struct {
	id      int64
	reading db.HydroReading
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		principals: make(map[string]int64),
		stations:   make(map[string]*fakeStation),
		members:    make(map[[2]int64]string),
		points:     make(map[string]*fakePoint),
		weather:    make(map[weatherKey]*fakeWeatherRow),
		hydro:      make(map[hydroKey]*fakeHydroRow),
	}
}

func (f *fakeStore) nextSerial() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) EnsurePrincipal(_ context.Context, email string) (int64, error) {
	if id, ok := f.principals[email]; ok {
		return id, nil
	}
	id := f.nextSerial()
	f.principals[email] = id
	return id, nil
}

func (f *fakeStore) EnsureStation(_ context.Context, code string, name *string, createdBy *int64) (int64, error) {
	if st, ok := f.stations[code]; ok {
		if name != nil {
			st.name = name
		}
		return st.id, nil
	}
	st := &fakeStation{id: f.nextSerial(), name: name, createdBy: createdBy}
	f.stations[code] = st
	return st.id, nil
}

func (f *fakeStore) EnsureMembership(_ context.Context, userID, stationID int64, role string) error {
	key := [2]int64{userID, stationID}
	if _, ok := f.members[key]; !ok {
		f.members[key] = role
	}
	return nil
}

func (f *fakeStore) EnsureHydroPoint(_ context.Context, code, pointType string, name *string) (int64, error) {
	if p, ok := f.points[code]; ok {
		if name != nil {
			p.name = name
		}
		return p.id, nil
	}
	p := &fakePoint{id: f.nextSerial(), pointType: pointType, name: name}
	f.points[code] = p
	return p.id, nil
}

func (f *fakeStore) InsertWeatherReading(_ context.Context, r db.WeatherReading) (*int64, error) {
	key := weatherKey{stationID: r.StationID, instant: r.Instant}
	if _, ok := f.weather[key]; ok {
		return nil, nil
	}
	row := &fakeWeatherRow{id: f.nextSerial(), reading: r}
	f.weather[key] = row
	return &row.id, nil
}

func coalesceFloat(existing, incoming *float64) *float64 {
	if existing != nil {
		return existing
	}
	return incoming
}

func (f *fakeStore) UpsertHydroReading(_ context.Context, r db.HydroReading) (int64, error) {
	key := hydroKey{pointID: r.PointID, instant: r.Instant}
	if row, ok := f.hydro[key]; ok {
		row.reading.FlowM3s = coalesceFloat(row.reading.FlowM3s, r.FlowM3s)
		row.reading.CapacityPct = coalesceFloat(row.reading.CapacityPct, r.CapacityPct)
		row.reading.LevelM = coalesceFloat(row.reading.LevelM, r.LevelM)
		if row.reading.Extras == nil {
			row.reading.Extras = r.Extras
		}
		return row.id, nil
	}
	row := &fakeHydroRow{id: f.nextSerial(), reading: r}
	f.hydro[key] = row
	return row.id, nil
}
