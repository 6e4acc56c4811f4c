package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/user"
)

func Test_busRouteAPI(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Root", "root@college.edu", user.RoleAdmin)
	ravi := app.createUser(t, "Ravi", "ravi@college.edu", user.RoleBusStaff)
	frank := app.createUser(t, "Frank", "frank@college.edu", user.RoleFaculty)
	alice := app.createUser(t, "Alice", "alice@college.edu", user.RoleStudent)
	bob := app.createUser(t, "Bob", "bob@college.edu", user.RoleStudent)

	adminToken := app.token(t, admin)
	raviToken := app.token(t, ravi)
	aliceToken := app.token(t, alice)

	newRoute := func(number string, capacity int) busroute.NewBusRoute {
		return busroute.NewBusRoute{
			RouteName:     "Route " + number,
			RouteNumber:   number,
			DriverName:    "Ravi",
			DriverContact: "+91 98450 00000",
			StartLocation: "Depot",
			EndLocation:   "Campus",
			Stops:         []busroute.Stop{{Name: "Lake View", Time: "07:40"}},
			BusCapacity:   capacity,
			DepartureTime: "07:30",
			ArrivalTime:   "08:15",
			OperationDays: []string{"monday", "friday"},
		}
	}

	var north, south busroute.BusRoute
	t.Run("create", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/busroutes", aliceToken, newRoute("N1", 1))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodPost, "/api/busroutes", raviToken, newRoute("N1", 1))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		north = decode[busroute.BusRoute](t, rec)
		assert.True(t, north.IsActive)
		assert.Equal(t, []string{"Monday", "Friday"}, north.OperationDays)
		assert.Empty(t, north.AssignedStudents)

		rec = app.do(t, http.MethodPost, "/api/busroutes", raviToken, newRoute("N1", 0))
		assert.Equal(t, http.StatusConflict, rec.Code)

		bad := newRoute("S1", 0)
		bad.DepartureTime = "25:00"
		rec = app.do(t, http.MethodPost, "/api/busroutes", raviToken, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = app.do(t, http.MethodPost, "/api/busroutes", adminToken, newRoute("S1", 0))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		south = decode[busroute.BusRoute](t, rec)
	})

	t.Run("assign students", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/busroutes/"+north.ID+"/students/"+alice.ID, aliceToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodPost, "/api/busroutes/"+north.ID+"/students/"+frank.ID, raviToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "only students ride")

		rec = app.do(t, http.MethodPost, "/api/busroutes/"+north.ID+"/students/"+alice.ID, raviToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []string{alice.ID}, decode[busroute.BusRoute](t, rec).AssignedStudents)

		rec = app.do(t, http.MethodPost, "/api/busroutes/"+north.ID+"/students/"+bob.ID, raviToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, "route is full")

		rec = app.do(t, http.MethodPost, "/api/busroutes/"+south.ID+"/students/"+alice.ID, raviToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, "already riding another route")
	})

	t.Run("student route", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/busroutes/student/"+alice.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, north.ID, decode[busroute.BusRoute](t, rec).ID)

		rec = app.do(t, http.MethodGet, "/api/busroutes/student/"+bob.ID, app.token(t, bob), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.do(t, http.MethodGet, "/api/busroutes/student/"+bob.ID, aliceToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("query", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/busroutes?search=lake&ordering=-route_number", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		routes := decode[[]busroute.BusRoute](t, rec)
		require.Len(t, routes, 2)
		assert.Equal(t, south.ID, routes[0].ID)

		rec = app.do(t, http.MethodGet, "/api/busroutes?student="+alice.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]busroute.BusRoute](t, rec), 1)
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(t, http.MethodPut, "/api/busroutes/"+north.ID, raviToken, map[string]interface{}{
			"driverName":  "Kumar",
			"busCapacity": 2,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		r := decode[busroute.BusRoute](t, rec)
		assert.Equal(t, "Kumar", r.DriverName)
		assert.Equal(t, "N1", r.RouteNumber)

		rec = app.do(t, http.MethodPost, "/api/busroutes/"+north.ID+"/students/"+bob.ID, raviToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code, "room for one more")

		rec = app.do(t, http.MethodDelete, "/api/busroutes/"+north.ID+"/students/"+bob.ID, raviToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{alice.ID}, decode[busroute.BusRoute](t, rec).AssignedStudents)
	})

	t.Run("announcements", func(t *testing.T) {
		path := "/api/busroutes/" + north.ID + "/announcements"
		na := busroute.NewAnnouncement{Title: "Delay", Message: "Bus is 10 minutes late"}

		rec := app.do(t, http.MethodPost, path, aliceToken, na)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodPost, path, raviToken, na)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ann := decode[busroute.Announcement](t, rec)
		assert.Equal(t, busroute.PriorityMedium, ann.Priority)
		assert.Equal(t, ravi.ID, ann.CreatedBy)

		rec = app.do(t, http.MethodPost, path+"/"+ann.ID+"/read", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []string{alice.ID}, decode[busroute.Announcement](t, rec).ReadBy)

		// reading twice is a no-op
		rec = app.do(t, http.MethodPost, path+"/"+ann.ID+"/read", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{alice.ID}, decode[busroute.Announcement](t, rec).ReadBy)

		rec = app.do(t, http.MethodGet, path, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]busroute.Announcement](t, rec), 1)

		rec = app.do(t, http.MethodDelete, path+"/"+ann.ID, raviToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = app.do(t, http.MethodDelete, path+"/"+ann.ID, raviToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("deactivate", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/api/busroutes/"+north.ID, raviToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, "admins only")

		rec = app.do(t, http.MethodDelete, "/api/busroutes/"+north.ID, adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(t, http.MethodGet, "/api/busroutes/"+north.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		r := decode[busroute.BusRoute](t, rec)
		assert.False(t, r.IsActive)
		assert.Equal(t, []string{alice.ID}, r.AssignedStudents, "students are kept")

		rec = app.do(t, http.MethodGet, "/api/busroutes/student/"+alice.ID, aliceToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "inactive routes are not ridden")

		rec = app.do(t, http.MethodGet, "/api/busroutes/nope", aliceToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
