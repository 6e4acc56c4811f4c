package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

func Test_timetableAPI(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Root", "root@college.edu", user.RoleAdmin)
	frank := app.createUser(t, "Frank", "frank@college.edu", user.RoleFaculty)
	grace := app.createUser(t, "Grace", "grace@college.edu", user.RoleFaculty)
	alice := app.createUser(t, "Alice", "alice@college.edu", user.RoleStudent)

	adminToken := app.token(t, admin)
	frankToken := app.token(t, frank)
	aliceToken := app.token(t, alice)

	nt := timetable.NewTimeTable{
		Name:         "CS Odd Semester",
		AcademicYear: "2025-26",
		Semester:     "1",
		Slots: []timetable.Slot{
			{Day: "wednesday", StartTime: "11:00", EndTime: "12:00", Subject: "Physics", Faculty: frank.ID, Class: "CS-A"},
			{Day: "monday", StartTime: "10:00", EndTime: "11:00", Subject: "Maths", Faculty: frank.ID, Class: "CS-B"},
			{Day: "monday", StartTime: "09:00", EndTime: "10:00", Subject: "Chemistry", Faculty: grace.ID, Class: "CS-A"},
		},
	}

	var tt timetable.TimeTable
	t.Run("create", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/timetables", frankToken, nt)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		bad := nt
		bad.Slots = []timetable.Slot{{Day: "monday", StartTime: "10:00", EndTime: "09:00", Subject: "Maths"}}
		rec = app.do(t, http.MethodPost, "/api/timetables", adminToken, bad)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Fields, "endTime")

		rec = app.do(t, http.MethodPost, "/api/timetables", adminToken, nt)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		tt = decode[timetable.TimeTable](t, rec)
		assert.Equal(t, admin.ID, tt.CreatedBy)
		assert.True(t, tt.IsActive)
		assert.Len(t, tt.Slots, 3)
	})

	t.Run("schedules", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/timetables/faculty/"+frank.ID, frankToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		entries := decode[[]timetable.ScheduleEntry](t, rec)
		require.Len(t, entries, 2)
		assert.Equal(t, "Maths", entries[0].Subject, "monday first")
		assert.Equal(t, "Physics", entries[1].Subject)
		assert.Equal(t, tt.ID, entries[0].TimetableID)

		rec = app.do(t, http.MethodGet, "/api/timetables/faculty/"+grace.ID, frankToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodGet, "/api/timetables/class/CS-A", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		entries = decode[[]timetable.ScheduleEntry](t, rec)
		require.Len(t, entries, 2)
		assert.Equal(t, "Chemistry", entries[0].Subject)

		rec = app.do(t, http.MethodGet, "/api/timetables/class/CS-Z", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	app.run(t, []httpTest{
		{name: "list", path: "/api/timetables", token: aliceToken, wantData: marshal(t, []timetable.TimeTable{tt})},
		{name: "filter by faculty", path: "/api/timetables?faculty=" + grace.ID, token: aliceToken, wantData: marshal(t, []timetable.TimeTable{tt})},
		{name: "filter by year", path: "/api/timetables?academic_year=2024-25", token: aliceToken, wantData: []byte("[]")},
		{name: "retrieve", path: "/api/timetables/" + tt.ID, token: aliceToken, wantData: marshal(t, tt)},
		{name: "retrieve unknown", path: "/api/timetables/nope", token: aliceToken, wantCode: http.StatusNotFound},
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(t, http.MethodPut, "/api/timetables/"+tt.ID, adminToken, map[string]interface{}{"isActive": false})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.False(t, decode[timetable.TimeTable](t, rec).IsActive)

		rec = app.do(t, http.MethodGet, "/api/timetables/faculty/"+frank.ID, frankToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String(), "inactive timetables are not scheduled")
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/api/timetables/"+tt.ID, adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = app.do(t, http.MethodDelete, "/api/timetables/"+tt.ID, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_classTimetableAPI(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Root", "root@college.edu", user.RoleAdmin)
	alice := app.createUser(t, "Alice", "alice@college.edu", user.RoleStudent)

	adminToken := app.token(t, admin)
	aliceToken := app.token(t, alice)

	periods := func(subject string) classDayRequest {
		return classDayRequest{Periods: []timetable.Period{
			{Period: 2, Subject: "Maths", StartTime: "10:00", EndTime: "11:00"},
			{Period: 1, Subject: subject, StartTime: "09:00", EndTime: "10:00"},
		}}
	}

	rec := app.do(t, http.MethodPut, "/api/class-timetables/CS-A/friday", aliceToken, periods("Physics"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/class-timetables/CS-A/someday", adminToken, periods("Physics"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	dup := periods("Physics")
	dup.Periods[1].Period = 2
	rec = app.do(t, http.MethodPut, "/api/class-timetables/CS-A/friday", adminToken, dup)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate period")

	rec = app.do(t, http.MethodPut, "/api/class-timetables/CS-A/friday", adminToken, periods("Physics"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	friday := decode[timetable.ClassTimetable](t, rec)
	assert.Equal(t, "Friday", friday.Day)
	require.Len(t, friday.Periods, 2)
	assert.Equal(t, 1, friday.Periods[0].Period, "sorted by period")

	// upserts replace the periods of the day
	rec = app.do(t, http.MethodPut, "/api/class-timetables/CS-A/Friday", adminToken, periods("Biology"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	again := decode[timetable.ClassTimetable](t, rec)
	assert.Equal(t, friday.ID, again.ID)
	assert.Equal(t, "Biology", again.Periods[0].Subject)

	rec = app.do(t, http.MethodPut, "/api/class-timetables/CS-A/monday", adminToken, periods("Physics"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/class-timetables/CS-A", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]timetable.ClassTimetable](t, rec)
	require.Len(t, days, 2)
	assert.Equal(t, "Monday", days[0].Day)
	assert.Equal(t, "Friday", days[1].Day)

	rec = app.do(t, http.MethodDelete, "/api/class-timetables/CS-A/friday", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodDelete, "/api/class-timetables/CS-A/friday", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
