package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/user"
)

func Test_markAPI(t *testing.T) {
	app := newTestApp(t)
	frank := app.createUser(t, "Frank", "frank@college.edu", user.RoleFaculty)
	alice := app.createUser(t, "Alice", "alice@college.edu", user.RoleStudent)
	bob := app.createUser(t, "Bob", "bob@college.edu", user.RoleStudent)

	frankToken := app.token(t, frank)
	aliceToken := app.token(t, alice)

	var maths mark.Mark
	t.Run("upsert", func(t *testing.T) {
		nm := mark.NewMark{Student: alice.ID, Subject: "Maths", Exam: "Final", Marks: 85, TotalMarks: 100}
		rec := app.do(t, http.MethodPost, "/api/marks", aliceToken, nm)
		assert.Equal(t, http.StatusForbidden, rec.Code, "students cannot grade")

		rec = app.do(t, http.MethodPost, "/api/marks", frankToken, nm)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		maths = decode[mark.Mark](t, rec)
		assert.Equal(t, 85.0, maths.Percentage)
		assert.Equal(t, "A", maths.Grade)
		assert.Equal(t, frank.ID, maths.AddedBy)

		// same student, subject and exam: updated in place
		nm.Marks = 39
		rec = app.do(t, http.MethodPost, "/api/marks", frankToken, nm)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		again := decode[mark.Mark](t, rec)
		assert.Equal(t, maths.ID, again.ID)
		assert.Equal(t, "F", again.Grade)
		maths = again

		nm.Marks = -1
		rec = app.do(t, http.MethodPost, "/api/marks", frankToken, nm)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "negative marks")
	})

	rec := app.do(t, http.MethodPost, "/api/marks", frankToken, mark.NewMark{
		Student: alice.ID, Subject: "Physics", Exam: "Final", Marks: 61, TotalMarks: 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	physics := decode[mark.Mark](t, rec)

	rec = app.do(t, http.MethodPost, "/api/marks", frankToken, mark.NewMark{
		Student: bob.ID, Subject: "Maths", Exam: "Final", Marks: 92, TotalMarks: 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bobs := decode[mark.Mark](t, rec)

	app.run(t, []httpTest{
		{name: "list: staff only", path: "/api/marks", token: aliceToken, wantCode: http.StatusForbidden},
		{name: "list", path: "/api/marks?subject=Maths&ordering=-marks", token: frankToken, wantData: marshal(t, []mark.Mark{bobs, maths})},
		{name: "search", path: "/api/marks?search=phys", token: frankToken, wantData: marshal(t, []mark.Mark{physics})},
		{name: "own marks", path: "/api/marks/student/" + alice.ID, token: aliceToken, wantData: marshal(t, []mark.Mark{maths, physics})},
		{name: "other's marks", path: "/api/marks/student/" + bob.ID, token: aliceToken, wantCode: http.StatusForbidden},
		{name: "retrieve", path: "/api/marks/" + physics.ID, token: aliceToken, wantData: marshal(t, physics)},
		{name: "retrieve other's", path: "/api/marks/" + bobs.ID, token: aliceToken, wantCode: http.StatusForbidden},
		{
			name: "report card", path: "/api/marks/student/" + alice.ID + "/report", token: aliceToken,
			wantData: marshal(t, mark.ReportCard{
				Student: alice.ID, Marks: []mark.Mark{maths, physics}, Obtained: 100, Total: 200, Percentage: 50, Grade: "C",
			}),
		},
		{
			name: "empty report card", path: "/api/marks/student/" + frank.ID + "/report", token: frankToken,
			wantData: marshal(t, mark.ReportCard{Student: frank.ID, Marks: []mark.Mark{}}),
		},
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(t, http.MethodPut, "/api/marks/"+physics.ID, frankToken, map[string]float64{"marks": 45, "totalMarks": 50})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		m := decode[mark.Mark](t, rec)
		assert.Equal(t, 90.0, m.Percentage)
		assert.Equal(t, "A+", m.Grade)

		rec = app.do(t, http.MethodPut, "/api/marks/"+physics.ID, frankToken, map[string]float64{"marks": 55})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		m = decode[mark.Mark](t, rec)
		assert.Equal(t, 110.0, m.Percentage, "bonus marks go past 100%")
		assert.Equal(t, "A+", m.Grade)

		rec = app.do(t, http.MethodPut, "/api/marks/"+physics.ID, frankToken, map[string]float64{"totalMarks": 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "zero total")
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/api/marks/"+physics.ID, aliceToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, http.MethodDelete, "/api/marks/"+physics.ID, frankToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = app.do(t, http.MethodDelete, "/api/marks/"+physics.ID, frankToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
