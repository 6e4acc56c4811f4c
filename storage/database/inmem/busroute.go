package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/busroute"
)

var busRouteFields = comparer[busroute.BusRoute]{
	"route_name":   func(a, b busroute.BusRoute) int { return compareFold(a.RouteName, b.RouteName) },
	"route_number": func(a, b busroute.BusRoute) int { return compareFold(a.RouteNumber, b.RouteNumber) },
	"created_at":   func(a, b busroute.BusRoute) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at":   func(a, b busroute.BusRoute) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type busRouteRepository struct {
	db *table[busroute.BusRoute]
}

func NewBusRouteRepository(db *DB) busroute.Repository {
	return &busRouteRepository{db: db.busRoute}
}

// checkUniqueness must be called with the write lock held.
func (repo *busRouteRepository) checkUniqueness(r busroute.BusRoute) error {
	for _, existing := range repo.db.t {
		if existing.ID != r.ID && existing.RouteNumber == r.RouteNumber {
			return busroute.ErrRouteNumberExists
		}
	}
	return nil
}

func (repo *busRouteRepository) CreateRoute(_ context.Context, r busroute.BusRoute) (busroute.BusRoute, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(r); err != nil {
		return busroute.BusRoute{}, err
	}
	stored := r.Clone()
	repo.db.t[r.ID] = &stored
	return r.Clone(), nil
}

func (repo *busRouteRepository) GetRoute(_ context.Context, id string) (busroute.BusRoute, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.t[id]; ok {
		return r.Clone(), nil
	}
	return busroute.BusRoute{}, busroute.ErrNotFound
}

func (repo *busRouteRepository) QueryRoutes(
	_ context.Context,
	filter *busroute.QueryFilter,
	ordering ...core.DBOrdering,
) ([]busroute.BusRoute, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	routes := repo.db.rows(filter.Match)
	for i := range routes {
		routes[i] = routes[i].Clone()
	}
	sortRows(routes, busRouteFields, func(r busroute.BusRoute) string { return r.ID }, ordering)
	return routes, nil
}

func (repo *busRouteRepository) UpdateRoute(_ context.Context, r busroute.BusRoute) (busroute.BusRoute, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[r.ID]; !ok {
		return busroute.BusRoute{}, busroute.ErrNotFound
	}
	if err := repo.checkUniqueness(r); err != nil {
		return busroute.BusRoute{}, err
	}
	stored := r.Clone()
	repo.db.t[r.ID] = &stored
	return r.Clone(), nil
}
