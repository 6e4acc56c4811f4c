package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/user"
)

func (s *server) registerMarkAPI(g *echo.Group) {
	staff := requireRoles(user.RoleAdmin, user.RoleFaculty)
	selfOrStaff := selfOrRoles("studentId", user.RoleAdmin, user.RoleFaculty)

	mg := g.Group("/marks")
	mg.GET("", s.queryMarks, staff)
	mg.POST("", s.upsertMark, staff)
	mg.GET("/student/:studentId", s.studentMarks, selfOrStaff)
	mg.GET("/student/:studentId/report", s.reportCard, selfOrStaff)
	mg.GET("/:id", s.retrieveMark)
	mg.PUT("/:id", s.updateMark, staff)
	mg.DELETE("/:id", s.destroyMark, staff)
}

// upsertMark records the marks of a student for one subject exam, replacing any previous entry.
func (s *server) upsertMark(ctx echo.Context) error {
	var data mark.NewMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}

	m, _, err := s.deps.MarkSvc.Upsert(ctx.Request().Context(), data, getContextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "upserting mark")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (s *server) queryMarks(ctx echo.Context) error {
	filter := new(mark.QueryFilter)
	if err := bindQuery(ctx, filter); err != nil {
		return errors.Wrap(err, "binding to mark.QueryFilter")
	}
	ordering := bindOrdering(ctx, mark.OrderingFields, nil)

	marks, err := s.deps.MarkSvc.Query(ctx.Request().Context(), filter, ordering...)
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (s *server) studentMarks(ctx echo.Context) error {
	marks, err := s.deps.MarkSvc.ListByStudent(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "listing student marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (s *server) reportCard(ctx echo.Context) error {
	card, err := s.deps.MarkSvc.ReportCard(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "building report card")
	}
	return ctx.JSON(http.StatusOK, card)
}

func (s *server) retrieveMark(ctx echo.Context) error {
	m, err := s.deps.MarkSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding mark by ID")
	}
	if usr := getContextUser(ctx); !usr.IsStaff() && m.Student != usr.ID {
		return errForbidden
	}
	return ctx.JSON(http.StatusOK, m)
}

func (s *server) updateMark(ctx echo.Context) error {
	var data mark.UpdateMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMark")
	}

	m, err := s.deps.MarkSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating mark")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (s *server) destroyMark(ctx echo.Context) error {
	if err := s.deps.MarkSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting mark")
	}
	return ctx.NoContent(http.StatusNoContent)
}
