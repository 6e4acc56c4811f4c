package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/busroute"
)

var busRouteColumns = map[string]string{
	"route_name":   "route_name",
	"route_number": "route_number",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

type busRouteRow struct {
	ID               string         `db:"id"`
	RouteName        string         `db:"route_name"`
	RouteNumber      string         `db:"route_number"`
	DriverName       string         `db:"driver_name"`
	DriverContact    string         `db:"driver_contact"`
	StartLocation    string         `db:"start_location"`
	EndLocation      string         `db:"end_location"`
	Stops            types.JSONText `db:"stops"`
	IsActive         bool           `db:"is_active"`
	BusCapacity      int            `db:"bus_capacity"`
	AssignedStudents pq.StringArray `db:"assigned_students"`
	DepartureTime    string         `db:"departure_time"`
	ArrivalTime      string         `db:"arrival_time"`
	OperationDays    pq.StringArray `db:"operation_days"`
	Announcements    types.JSONText `db:"announcements"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func newBusRouteRow(r busroute.BusRoute) (busRouteRow, error) {
	r = r.Clone()
	stops, err := jsonList(r.Stops)
	if err != nil {
		return busRouteRow{}, errors.Wrap(err, "encoding stops")
	}
	anns, err := jsonList(r.Announcements)
	if err != nil {
		return busRouteRow{}, errors.Wrap(err, "encoding announcements")
	}
	return busRouteRow{
		ID:               r.ID,
		RouteName:        r.RouteName,
		RouteNumber:      r.RouteNumber,
		DriverName:       r.DriverName,
		DriverContact:    r.DriverContact,
		StartLocation:    r.StartLocation,
		EndLocation:      r.EndLocation,
		Stops:            stops,
		IsActive:         r.IsActive,
		BusCapacity:      r.BusCapacity,
		AssignedStudents: r.AssignedStudents,
		DepartureTime:    r.DepartureTime,
		ArrivalTime:      r.ArrivalTime,
		OperationDays:    r.OperationDays,
		Announcements:    anns,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

func (row busRouteRow) busRoute() (busroute.BusRoute, error) {
	r := busroute.BusRoute{
		ID:               row.ID,
		RouteName:        row.RouteName,
		RouteNumber:      row.RouteNumber,
		DriverName:       row.DriverName,
		DriverContact:    row.DriverContact,
		StartLocation:    row.StartLocation,
		EndLocation:      row.EndLocation,
		IsActive:         row.IsActive,
		BusCapacity:      row.BusCapacity,
		AssignedStudents: row.AssignedStudents,
		DepartureTime:    row.DepartureTime,
		ArrivalTime:      row.ArrivalTime,
		OperationDays:    row.OperationDays,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
	if err := row.Stops.Unmarshal(&r.Stops); err != nil {
		return busroute.BusRoute{}, errors.Wrap(err, "decoding stops")
	}
	if err := row.Announcements.Unmarshal(&r.Announcements); err != nil {
		return busroute.BusRoute{}, errors.Wrap(err, "decoding announcements")
	}
	for i := range r.Announcements {
		r.Announcements[i].CreatedAt = r.Announcements[i].CreatedAt.UTC()
	}
	return r.Clone(), nil
}

type busRouteRepository struct {
	db *DB
}

func NewBusRouteRepository(db *DB) busroute.Repository {
	return &busRouteRepository{db: db}
}

func routeWriteError(err error) error {
	if isUniqueViolation(err, "bus_route_route_number_key") {
		return busroute.ErrRouteNumberExists
	}
	return errors.Wrap(err, "writing bus route")
}

func (repo *busRouteRepository) CreateRoute(ctx context.Context, r busroute.BusRoute) (busroute.BusRoute, error) {
	row, err := newBusRouteRow(r)
	if err != nil {
		return busroute.BusRoute{}, err
	}

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `INSERT INTO bus_route (
		id, route_name, route_number, driver_name, driver_contact, start_location, end_location, stops, is_active,
		bus_capacity, assigned_students, departure_time, arrival_time, operation_days, announcements, created_at, updated_at
	) VALUES (
		:id, :route_name, :route_number, :driver_name, :driver_contact, :start_location, :end_location, :stops, :is_active,
		:bus_capacity, :assigned_students, :departure_time, :arrival_time, :operation_days, :announcements, :created_at, :updated_at
	)`
	if _, err = repo.db.db.NamedExecContext(ctx, q, row); err != nil {
		return busroute.BusRoute{}, routeWriteError(err)
	}
	return r, nil
}

func (repo *busRouteRepository) GetRoute(ctx context.Context, id string) (busroute.BusRoute, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var row busRouteRow
	if err := repo.db.db.GetContext(ctx, &row, "SELECT * FROM bus_route WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return busroute.BusRoute{}, busroute.ErrNotFound
		}
		return busroute.BusRoute{}, errors.Wrap(err, "getting bus route")
	}
	return row.busRoute()
}

func routeWhere(qf *busroute.QueryFilter) where {
	var w where
	if qf == nil {
		return w
	}
	if qf.Search != "" {
		pattern := contains(qf.Search)
		w.add(`(route_name ILIKE ? OR route_number ILIKE ? OR EXISTS (
			SELECT 1 FROM jsonb_array_elements(stops) AS stop WHERE stop->>'name' ILIKE ?
		))`, pattern, pattern, pattern)
	}
	if qf.IsActive != nil {
		w.add("is_active = ?", *qf.IsActive)
	}
	if qf.Student != "" {
		w.add("? = ANY(assigned_students)", qf.Student)
	}
	if qf.OperationDay != "" {
		w.add("? = ANY(operation_days)", qf.OperationDay)
	}
	return w
}

func (repo *busRouteRepository) QueryRoutes(
	ctx context.Context,
	filter *busroute.QueryFilter,
	ordering ...core.DBOrdering,
) ([]busroute.BusRoute, error) {
	w := routeWhere(filter)

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	var rows []busRouteRow
	if err := repo.db.db.SelectContext(ctx, &rows, w.query(repo.db.db, "SELECT * FROM bus_route", busRouteColumns, ordering), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying bus routes")
	}
	routes := make([]busroute.BusRoute, 0, len(rows))
	for _, row := range rows {
		r, err := row.busRoute()
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func (repo *busRouteRepository) UpdateRoute(ctx context.Context, r busroute.BusRoute) (busroute.BusRoute, error) {
	row, err := newBusRouteRow(r)
	if err != nil {
		return busroute.BusRoute{}, err
	}

	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	q := `UPDATE bus_route SET
		route_name = :route_name, route_number = :route_number, driver_name = :driver_name,
		driver_contact = :driver_contact, start_location = :start_location, end_location = :end_location,
		stops = :stops, is_active = :is_active, bus_capacity = :bus_capacity, assigned_students = :assigned_students,
		departure_time = :departure_time, arrival_time = :arrival_time, operation_days = :operation_days,
		announcements = :announcements, updated_at = :updated_at
	WHERE id = :id`
	if err = namedExec(ctx, repo.db.db, q, row, busroute.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return busroute.BusRoute{}, err
		}
		return busroute.BusRoute{}, routeWriteError(err)
	}
	return r, nil
}
