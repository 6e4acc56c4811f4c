package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/busroute"
)

type busRouteRepository struct {
	db   *DB
	coll *mongo.Collection
}

func NewBusRouteRepository(db *DB) busroute.Repository {
	return &busRouteRepository{db: db, coll: db.collection(busRoutesColl)}
}

func routeWriteError(err error) error {
	if isDuplicateKey(err, idxRouteNumber) {
		return busroute.ErrRouteNumberExists
	}
	return errors.Wrap(err, "writing bus route")
}

func (repo *busRouteRepository) CreateRoute(ctx context.Context, r busroute.BusRoute) (busroute.BusRoute, error) {
	ctx, cancel := repo.db.withTimeout(ctx)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, r); err != nil {
		return busroute.BusRoute{}, routeWriteError(err)
	}
	return r, nil
}

func (repo *busRouteRepository) GetRoute(ctx context.Context, id string) (busroute.BusRoute, error) {
	r, err := findOne[busroute.BusRoute](ctx, repo.db, repo.coll, bson.M{"_id": id}, busroute.ErrNotFound)
	if err != nil {
		return busroute.BusRoute{}, err
	}
	return r.Clone(), nil
}

func routeFilter(qf *busroute.QueryFilter) bson.M {
	doc := bson.M{}
	if qf == nil {
		return doc
	}
	if qf.Search != "" {
		re := search(qf.Search)
		doc["$or"] = bson.A{bson.M{"route_name": re}, bson.M{"route_number": re}, bson.M{"stops.name": re}}
	}
	if qf.IsActive != nil {
		doc["is_active"] = *qf.IsActive
	}
	if qf.Student != "" {
		doc["assigned_students"] = qf.Student
	}
	if qf.OperationDay != "" {
		doc["operation_days"] = qf.OperationDay
	}
	return doc
}

func (repo *busRouteRepository) QueryRoutes(
	ctx context.Context,
	filter *busroute.QueryFilter,
	ordering ...core.DBOrdering,
) ([]busroute.BusRoute, error) {
	routes, err := find[busroute.BusRoute](ctx, repo.db, repo.coll, routeFilter(filter), ordering)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		routes[i] = routes[i].Clone()
	}
	return routes, nil
}

func (repo *busRouteRepository) UpdateRoute(ctx context.Context, r busroute.BusRoute) (busroute.BusRoute, error) {
	if err := replace(ctx, repo.db, repo.coll, r.ID, r, busroute.ErrNotFound); err != nil {
		if core.IsNotFound(err) {
			return busroute.BusRoute{}, err
		}
		return busroute.BusRoute{}, routeWriteError(err)
	}
	return r, nil
}
