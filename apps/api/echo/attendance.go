package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/user"
)

type percentageResponse struct {
	Student    string  `json:"student"`
	Class      string  `json:"class"`
	Percentage float64 `json:"percentage"`
}

func (s *server) registerAttendanceAPI(g *echo.Group) {
	staff := requireRoles(user.RoleAdmin, user.RoleFaculty)

	ag := g.Group("/attendance")
	ag.GET("", s.queryAttendance)
	ag.POST("/mark/scanner", s.markByScanner, staff)
	ag.POST("/mark/code", s.markByCode)
	ag.POST("/mark/manual", s.markManual, staff)
	ag.GET("/student/:studentId", s.studentAttendance, selfOrRoles("studentId", user.RoleAdmin, user.RoleFaculty))
	ag.GET("/percentage/:studentId/:classId", s.attendancePercentage, selfOrRoles("studentId", user.RoleAdmin, user.RoleFaculty))
	ag.GET("/summary/:studentId", s.attendanceSummary, selfOrRoles("studentId", user.RoleAdmin, user.RoleFaculty))
	ag.GET("/:id", s.retrieveAttendance)
	ag.PUT("/:id", s.updateAttendance, staff)
}

func (s *server) markByScanner(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}

	a, err := s.deps.AttendanceSvc.MarkByScanner(ctx.Request().Context(), data, getContextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "marking attendance by scanner")
	}
	s.metrics.attendanceMarked.WithLabelValues(attendance.ViaScanner).Inc()
	return ctx.JSON(http.StatusCreated, a)
}

// markByCode lets a student check themselves in with a verification code; staff may do it for them.
func (s *server) markByCode(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	usr := getContextUser(ctx)
	if usr.IsStudent() && data.StudentID != usr.ID {
		return errForbidden
	}

	a, err := s.deps.AttendanceSvc.MarkByCode(ctx.Request().Context(), data, usr.ID)
	if err != nil {
		return errors.Wrap(err, "marking attendance by code")
	}
	s.metrics.attendanceMarked.WithLabelValues(attendance.ViaCode).Inc()
	return ctx.JSON(http.StatusCreated, a)
}

func (s *server) markManual(ctx echo.Context) error {
	var data attendance.ManualAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManualAttendance")
	}

	records, err := s.deps.AttendanceSvc.MarkManual(ctx.Request().Context(), data, getContextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "marking attendance manually")
	}
	s.metrics.attendanceMarked.WithLabelValues(attendance.ViaManual).Add(float64(len(records)))
	return ctx.JSON(http.StatusCreated, records)
}

func (s *server) queryAttendance(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := bindQuery(ctx, filter); err != nil {
		return errors.Wrap(err, "binding to attendance.QueryFilter")
	}
	// students only ever see their own records
	if usr := getContextUser(ctx); usr.IsStudent() {
		filter.Student = usr.ID
	}
	ordering := bindOrdering(ctx, attendance.OrderingFields, nil)

	records, err := s.deps.AttendanceSvc.Query(ctx.Request().Context(), filter, ordering...)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (s *server) studentAttendance(ctx echo.Context) error {
	records, err := s.deps.AttendanceSvc.ListByStudent(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "listing student attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (s *server) attendancePercentage(ctx echo.Context) error {
	studentID, classID := ctx.Param("studentId"), ctx.Param("classId")

	pct, err := s.deps.AttendanceSvc.Percentage(ctx.Request().Context(), studentID, classID)
	if err != nil {
		return errors.Wrap(err, "computing attendance percentage")
	}
	return ctx.JSON(http.StatusOK, percentageResponse{Student: studentID, Class: classID, Percentage: pct})
}

func (s *server) attendanceSummary(ctx echo.Context) error {
	summary, err := s.deps.AttendanceSvc.Summary(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	if summary == nil {
		summary = []attendance.ClassSummary{}
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (s *server) retrieveAttendance(ctx echo.Context) error {
	a, err := s.deps.AttendanceSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding attendance by ID")
	}
	if usr := getContextUser(ctx); usr.IsStudent() && a.Student != usr.ID {
		return errForbidden
	}
	return ctx.JSON(http.StatusOK, a)
}

func (s *server) updateAttendance(ctx echo.Context) error {
	var data attendance.UpdateAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}

	a, err := s.deps.AttendanceSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, a)
}
