package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/user"
)

func (s *server) registerBusRouteAPI(g *echo.Group) {
	operators := requireRoles(user.RoleAdmin, user.RoleBusStaff)

	bg := g.Group("/busroutes")
	bg.GET("", s.queryBusRoutes)
	bg.POST("", s.createBusRoute, operators)
	bg.GET("/student/:studentId", s.studentBusRoute, selfOrRoles("studentId", user.RoleAdmin, user.RoleFaculty, user.RoleBusStaff))

	dg := bg.Group("/:id")
	dg.GET("", s.retrieveBusRoute)
	dg.PUT("", s.updateBusRoute, operators)
	dg.DELETE("", s.deactivateBusRoute, requireRoles(user.RoleAdmin))
	dg.POST("/students/:studentId", s.assignStudent, operators)
	dg.DELETE("/students/:studentId", s.unassignStudent, operators)
	dg.GET("/announcements", s.queryAnnouncements)
	dg.POST("/announcements", s.createAnnouncement, operators)
	dg.DELETE("/announcements/:announcementId", s.destroyAnnouncement, operators)
	dg.POST("/announcements/:announcementId/read", s.readAnnouncement)
}

func (s *server) createBusRoute(ctx echo.Context) error {
	var data busroute.NewBusRoute
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBusRoute")
	}

	r, err := s.deps.BusRouteSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating bus route")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (s *server) queryBusRoutes(ctx echo.Context) error {
	filter := new(busroute.QueryFilter)
	if err := bindQuery(ctx, filter); err != nil {
		return errors.Wrap(err, "binding to busroute.QueryFilter")
	}
	ordering := bindOrdering(ctx, busroute.OrderingFields, nil)

	routes, err := s.deps.BusRouteSvc.Query(ctx.Request().Context(), filter, ordering...)
	if err != nil {
		return errors.Wrap(err, "querying bus routes")
	}
	return ctx.JSON(http.StatusOK, routes)
}

func (s *server) retrieveBusRoute(ctx echo.Context) error {
	r, err := s.deps.BusRouteSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding bus route by ID")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (s *server) updateBusRoute(ctx echo.Context) error {
	var data busroute.UpdateBusRoute
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBusRoute")
	}

	r, err := s.deps.BusRouteSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating bus route")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (s *server) deactivateBusRoute(ctx echo.Context) error {
	if _, err := s.deps.BusRouteSvc.Deactivate(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deactivating bus route")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *server) studentBusRoute(ctx echo.Context) error {
	r, err := s.deps.BusRouteSvc.RouteForStudent(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "finding student bus route")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (s *server) assignStudent(ctx echo.Context) error {
	studentID := ctx.Param("studentId")
	usr, err := s.deps.UserSvc.GetByID(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return core.NewValidationError(errors.New("only students can ride a bus route"),
			core.FieldError{Field: "studentId", Error: "not a student"})
	}

	r, err := s.deps.BusRouteSvc.AssignStudent(ctx.Request().Context(), ctx.Param("id"), studentID)
	if err != nil {
		return errors.Wrap(err, "assigning student")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (s *server) unassignStudent(ctx echo.Context) error {
	r, err := s.deps.BusRouteSvc.UnassignStudent(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "unassigning student")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (s *server) queryAnnouncements(ctx echo.Context) error {
	anns, err := s.deps.BusRouteSvc.Announcements(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (s *server) createAnnouncement(ctx echo.Context) error {
	var data busroute.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}

	ann, err := s.deps.BusRouteSvc.AddAnnouncement(ctx.Request().Context(), ctx.Param("id"), data, getContextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "adding announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (s *server) destroyAnnouncement(ctx echo.Context) error {
	err := s.deps.BusRouteSvc.DeleteAnnouncement(ctx.Request().Context(), ctx.Param("id"), ctx.Param("announcementId"))
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *server) readAnnouncement(ctx echo.Context) error {
	ann, err := s.deps.BusRouteSvc.MarkAnnouncementRead(
		ctx.Request().Context(), ctx.Param("id"), ctx.Param("announcementId"), getContextUser(ctx).ID,
	)
	if err != nil {
		return errors.Wrap(err, "marking announcement read")
	}
	return ctx.JSON(http.StatusOK, ann)
}
