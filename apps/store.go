package apps

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/storage/database/mongodb"
	"github.com/trezcool/campus/storage/database/postgres"
)

// Repositories are the repositories of one store.
type Repositories struct {
	Store      core.Store
	Users      user.Repository
	Attendance attendance.Repository
	Marks      mark.Repository
	BusRoutes  busroute.Repository
	Timetables timetable.Repository
}

// OpenStore opens the store selected by conf.Database.Driver.
// A postgres database is created when missing, and migrated up when migrate is set.
func OpenStore(ctx context.Context, conf *core.Config, migrate bool) (*Repositories, error) {
	switch conf.Database.Driver {
	case core.DriverMemory, "":
		db, err := inmemdb.Open()
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Store:      db,
			Users:      inmemdb.NewUserRepository(db),
			Attendance: inmemdb.NewAttendanceRepository(db),
			Marks:      inmemdb.NewMarkRepository(db),
			BusRoutes:  inmemdb.NewBusRouteRepository(db),
			Timetables: inmemdb.NewTimetableRepository(db),
		}, nil

	case core.DriverMongo:
		db, err := mongodb.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Store:      db,
			Users:      mongodb.NewUserRepository(db),
			Attendance: mongodb.NewAttendanceRepository(db),
			Marks:      mongodb.NewMarkRepository(db),
			BusRoutes:  mongodb.NewBusRouteRepository(db),
			Timetables: mongodb.NewTimetableRepository(db),
		}, nil

	case core.DriverPostgres:
		if err := postgres.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := postgres.Open(conf)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err = postgres.Migrate(db); err != nil {
				_ = db.Close(ctx)
				return nil, err
			}
		}
		return &Repositories{
			Store:      db,
			Users:      postgres.NewUserRepository(db),
			Attendance: postgres.NewAttendanceRepository(db),
			Marks:      postgres.NewMarkRepository(db),
			BusRoutes:  postgres.NewBusRouteRepository(db),
			Timetables: postgres.NewTimetableRepository(db),
		}, nil

	default:
		return nil, errors.Errorf("unknown database driver %q", conf.Database.Driver)
	}
}

// Services are the domain services built on one store.
type Services struct {
	Users      *user.Service
	Attendance *attendance.Service
	Marks      *mark.Service
	BusRoutes  *busroute.Service
	Timetables *timetable.Service
}

func NewServices(repos *Repositories, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) *Services {
	return &Services{
		Users:      user.NewService(repos.Users, mailSvc, validate, conf),
		Attendance: attendance.NewService(repos.Attendance, validate),
		Marks:      mark.NewService(repos.Marks, validate),
		BusRoutes:  busroute.NewService(repos.BusRoutes, validate),
		Timetables: timetable.NewService(repos.Timetables, validate),
	}
}
