package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/user"
)

func Test_attendanceAPI(t *testing.T) {
	app := newTestApp(t)
	frank := app.createUser(t, "Frank", "frank@college.edu", user.RoleFaculty)
	alice := app.createUser(t, "Alice", "alice@college.edu", user.RoleStudent)
	bob := app.createUser(t, "Bob", "bob@college.edu", user.RoleStudent)

	frankToken := app.token(t, frank)
	aliceToken := app.token(t, alice)

	scan := attendance.NewAttendance{StudentID: alice.ID, ClassID: "CS-A", SubjectID: "math"}

	var scanned attendance.Attendance
	t.Run("scanner", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/attendance/mark/scanner", aliceToken, scan)
		assert.Equal(t, http.StatusForbidden, rec.Code, "students cannot scan")

		rec = app.do(t, http.MethodPost, "/api/attendance/mark/scanner", frankToken, scan)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		scanned = decode[attendance.Attendance](t, rec)
		assert.Equal(t, alice.ID, scanned.Student)
		assert.Equal(t, attendance.StatusPresent, scanned.Status)
		assert.Equal(t, attendance.ViaScanner, scanned.MarkedVia)
		assert.Equal(t, frank.ID, scanned.MarkedBy)

		rec = app.do(t, http.MethodPost, "/api/attendance/mark/scanner", frankToken, scan)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Fields, "studentId")

		rec = app.do(t, http.MethodPost, "/api/attendance/mark/scanner", frankToken, attendance.NewAttendance{StudentID: alice.ID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("code", func(t *testing.T) {
		na := attendance.NewAttendance{StudentID: alice.ID, ClassID: "CS-A", SubjectID: "chem"}
		rec := app.do(t, http.MethodPost, "/api/attendance/mark/code", aliceToken, na)
		require.Equal(t, http.StatusBadRequest, rec.Code, "verification media required")

		na.VerificationMedia = "https://media.college.edu/selfie.jpg"
		rec = app.do(t, http.MethodPost, "/api/attendance/mark/code", aliceToken, na)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, attendance.ViaCode, decode[attendance.Attendance](t, rec).MarkedVia)

		na.StudentID = bob.ID
		rec = app.do(t, http.MethodPost, "/api/attendance/mark/code", aliceToken, na)
		assert.Equal(t, http.StatusForbidden, rec.Code, "students only check themselves in")
	})

	var roll []attendance.Attendance
	t.Run("manual", func(t *testing.T) {
		ma := attendance.ManualAttendance{
			ClassID:   "CS-A",
			SubjectID: "phys",
			Records: []attendance.ManualRecord{
				{StudentID: alice.ID, Status: attendance.StatusAbsent},
				{StudentID: bob.ID, Status: attendance.StatusPresent},
			},
		}
		rec := app.do(t, http.MethodPost, "/api/attendance/mark/manual", frankToken, ma)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		roll = decode[[]attendance.Attendance](t, rec)
		require.Len(t, roll, 2)

		rec = app.do(t, http.MethodPost, "/api/attendance/mark/manual", frankToken, ma)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		body := app.do(t, http.MethodGet, metricsPath, "", nil).Body.String()
		assert.Contains(t, body, `campus_attendance_marked_total{via="scanner"} 1`)
		assert.Contains(t, body, `campus_attendance_marked_total{via="code"} 1`)
		assert.Contains(t, body, `campus_attendance_marked_total{via="manual"} 2`)
	})

	app.run(t, []httpTest{
		{
			name: "percentage", path: "/api/attendance/percentage/" + alice.ID + "/CS-A", token: aliceToken,
			wantData: marshal(t, percentageResponse{Student: alice.ID, Class: "CS-A", Percentage: 50}),
		},
		{
			name: "percentage as faculty", path: "/api/attendance/percentage/" + bob.ID + "/CS-A", token: frankToken,
			wantData: marshal(t, percentageResponse{Student: bob.ID, Class: "CS-A", Percentage: 25}),
		},
		{
			name: "percentage of an empty class", path: "/api/attendance/percentage/" + bob.ID + "/CS-Z", token: frankToken,
			wantData: marshal(t, percentageResponse{Student: bob.ID, Class: "CS-Z", Percentage: 0}),
		},
		{
			name: "percentage of another student", path: "/api/attendance/percentage/" + bob.ID + "/CS-A", token: aliceToken,
			wantCode: http.StatusForbidden,
		},
		{
			name: "summary", path: "/api/attendance/summary/" + alice.ID, token: aliceToken,
			wantData: marshal(t, []attendance.ClassSummary{{Class: "CS-A", Total: 4, Present: 2, Absent: 1, Percentage: 50}}),
		},
		{
			name: "summary without records", path: "/api/attendance/summary/" + frank.ID, token: frankToken,
			wantData: []byte("[]"),
		},
		{name: "retrieve", path: "/api/attendance/" + scanned.ID, token: aliceToken, wantData: marshal(t, scanned)},
		{name: "retrieve another student's", path: "/api/attendance/" + roll[1].ID, token: aliceToken, wantCode: http.StatusForbidden},
		{name: "retrieve unknown", path: "/api/attendance/nope", token: frankToken, wantCode: http.StatusNotFound},
		{name: "invalid filter", path: "/api/attendance?status=sleeping", token: frankToken, wantCode: http.StatusBadRequest},
	})

	t.Run("student records", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/attendance/student/"+alice.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]attendance.Attendance](t, rec), 3)

		rec = app.do(t, http.MethodGet, "/api/attendance/student/"+alice.ID, app.token(t, bob), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("query", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/attendance?subject=phys&ordering=student", frankToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]attendance.Attendance](t, rec), 2)

		// students are restricted to their own records
		rec = app.do(t, http.MethodGet, "/api/attendance?student="+bob.ID, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		records := decode[[]attendance.Attendance](t, rec)
		require.Len(t, records, 3)
		for _, a := range records {
			assert.Equal(t, alice.ID, a.Student)
		}
	})

	t.Run("update", func(t *testing.T) {
		body := map[string]string{"status": attendance.StatusLate, "note": "bus was late"}
		rec := app.do(t, http.MethodPut, "/api/attendance/"+roll[0].ID, aliceToken, body)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodPut, "/api/attendance/"+roll[0].ID, frankToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		a := decode[attendance.Attendance](t, rec)
		assert.Equal(t, attendance.StatusLate, a.Status)
		assert.Equal(t, "bus was late", a.Note)
	})
}
