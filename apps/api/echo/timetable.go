package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

// classDayRequest is the body of a class timetable upsert. Class and day come from the path.
type classDayRequest struct {
	Periods []timetable.Period `json:"periods"`
}

func (s *server) registerTimetableAPI(g *echo.Group) {
	admin := requireRoles(user.RoleAdmin)

	tg := g.Group("/timetables")
	tg.GET("", s.queryTimetables)
	tg.POST("", s.createTimetable, admin)
	tg.GET("/faculty/:facultyId", s.facultySchedule, selfOrRoles("facultyId", user.RoleAdmin))
	tg.GET("/class/:class", s.classSchedule)
	tg.GET("/:id", s.retrieveTimetable)
	tg.PUT("/:id", s.updateTimetable, admin)
	tg.DELETE("/:id", s.destroyTimetable, admin)

	cg := g.Group("/class-timetables")
	cg.GET("/:class", s.queryClassTimetables)
	cg.PUT("/:class/:day", s.upsertClassTimetable, admin)
	cg.DELETE("/:class/:day", s.destroyClassTimetable, admin)
}

func (s *server) createTimetable(ctx echo.Context) error {
	var data timetable.NewTimeTable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimeTable")
	}

	tt, err := s.deps.TimetableSvc.Create(ctx.Request().Context(), data, getContextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "creating timetable")
	}
	return ctx.JSON(http.StatusCreated, tt)
}

func (s *server) queryTimetables(ctx echo.Context) error {
	filter := new(timetable.QueryFilter)
	if err := bindQuery(ctx, filter); err != nil {
		return errors.Wrap(err, "binding to timetable.QueryFilter")
	}
	ordering := bindOrdering(ctx, timetable.OrderingFields, nil)

	tts, err := s.deps.TimetableSvc.Query(ctx.Request().Context(), filter, ordering...)
	if err != nil {
		return errors.Wrap(err, "querying timetables")
	}
	return ctx.JSON(http.StatusOK, tts)
}

func (s *server) retrieveTimetable(ctx echo.Context) error {
	tt, err := s.deps.TimetableSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding timetable by ID")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (s *server) updateTimetable(ctx echo.Context) error {
	var data timetable.UpdateTimeTable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTimeTable")
	}

	tt, err := s.deps.TimetableSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating timetable")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (s *server) destroyTimetable(ctx echo.Context) error {
	if err := s.deps.TimetableSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting timetable")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *server) facultySchedule(ctx echo.Context) error {
	entries, err := s.deps.TimetableSvc.FacultySchedule(ctx.Request().Context(), ctx.Param("facultyId"))
	if err != nil {
		return errors.Wrap(err, "building faculty schedule")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (s *server) classSchedule(ctx echo.Context) error {
	entries, err := s.deps.TimetableSvc.ClassSchedule(ctx.Request().Context(), ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "building class schedule")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (s *server) queryClassTimetables(ctx echo.Context) error {
	cts, err := s.deps.TimetableSvc.ListForClass(ctx.Request().Context(), ctx.Param("class"))
	if err != nil {
		return errors.Wrap(err, "listing class timetables")
	}
	return ctx.JSON(http.StatusOK, cts)
}

func (s *server) upsertClassTimetable(ctx echo.Context) error {
	var data classDayRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to classDayRequest")
	}

	ct, err := s.deps.TimetableSvc.UpsertClassTimetable(ctx.Request().Context(), timetable.ClassDay{
		Class:   ctx.Param("class"),
		Day:     ctx.Param("day"),
		Periods: data.Periods,
	})
	if err != nil {
		return errors.Wrap(err, "upserting class timetable")
	}
	return ctx.JSON(http.StatusOK, ct)
}

func (s *server) destroyClassTimetable(ctx echo.Context) error {
	if err := s.deps.TimetableSvc.DeleteClassTimetable(ctx.Request().Context(), ctx.Param("class"), ctx.Param("day")); err != nil {
		return errors.Wrap(err, "deleting class timetable")
	}
	return ctx.NoContent(http.StatusNoContent)
}
