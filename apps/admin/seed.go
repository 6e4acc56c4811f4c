package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

const (
	seedClass        = "CS-A"
	seedAcademicYear = "2025-26"
	seedRouteNumber  = "R-01"
)

var seedUsers = []user.NewUser{
	{Name: "Campus Admin", Email: "admin@campus.local", Role: user.RoleAdmin},
	{Name: "Frank Faculty", Email: "faculty@campus.local", Role: user.RoleFaculty, Department: "Computer Science"},
	{Name: "Betty Bus", Email: "busstaff@campus.local", Role: user.RoleBusStaff},
	{
		Name: "Alice Student", Email: "alice@campus.local", Role: user.RoleStudent, IDCardNumber: "STU-0001",
		StudentClass: seedClass, Batch: "2025", RollNo: "CS-001", DOB: "2006-04-12",
	},
	{
		Name: "Bob Student", Email: "bob@campus.local", Role: user.RoleStudent, IDCardNumber: "STU-0002",
		StudentClass: seedClass, Batch: "2025", RollNo: "CS-002", DOB: "2006-09-30",
	},
}

// seed inserts demo data, every seeded user sharing pwd. Records that already exist are kept.
func (cli *commandLine) seed(pwd string) error {
	ctx := context.Background()

	users := make(map[string]user.User, len(seedUsers))
	for _, nu := range seedUsers {
		usr, err := cli.svcs.Users.GetByEmail(ctx, nu.Email)
		if core.IsNotFound(err) {
			nu.Password = pwd
			usr, err = cli.svcs.Users.Create(ctx, nu)
		}
		if err != nil {
			return errors.Wrapf(err, "seeding user %s", nu.Email)
		}
		users[usr.Role+":"+usr.RollNo] = usr
	}
	faculty := users[user.RoleFaculty+":"]
	alice := users[user.RoleStudent+":CS-001"]
	bob := users[user.RoleStudent+":CS-002"]

	if err := cli.seedMarks(ctx, faculty, alice, bob); err != nil {
		return err
	}
	if err := cli.seedAttendance(ctx, faculty, alice, bob); err != nil {
		return err
	}
	if err := cli.seedBusRoute(ctx, users[user.RoleBusStaff+":"], alice); err != nil {
		return err
	}
	if err := cli.seedTimetables(ctx, users[user.RoleAdmin+":"], faculty); err != nil {
		return err
	}

	fmt.Printf("seeded %d users, marks, today's attendance, bus route %s and the %s timetables\n",
		len(users), seedRouteNumber, seedClass)
	return nil
}

func (cli *commandLine) seedMarks(ctx context.Context, faculty user.User, students ...user.User) error {
	scores := [][]float64{{92, 78, 64}, {55, 38, 81}}
	subjects := []string{"Mathematics", "Physics", "Programming"}
	for i, stu := range students {
		for j, subject := range subjects {
			_, _, err := cli.svcs.Marks.Upsert(ctx, mark.NewMark{
				Student:    stu.ID,
				Subject:    subject,
				Exam:       "Midterm",
				Marks:      scores[i%len(scores)][j],
				TotalMarks: 100,
			}, faculty.ID)
			if err != nil {
				return errors.Wrapf(err, "seeding %s marks", subject)
			}
		}
	}
	return nil
}

func (cli *commandLine) seedAttendance(ctx context.Context, faculty user.User, present, absent user.User) error {
	_, err := cli.svcs.Attendance.MarkManual(ctx, attendance.ManualAttendance{
		ClassID:   seedClass,
		SubjectID: "Mathematics",
		Records: []attendance.ManualRecord{
			{StudentID: present.ID, Status: attendance.StatusPresent},
			{StudentID: absent.ID, Status: attendance.StatusAbsent},
		},
	}, faculty.ID)
	if err != nil && err != attendance.ErrAlreadyMarked {
		return errors.Wrap(err, "seeding attendance")
	}
	return nil
}

func (cli *commandLine) seedBusRoute(ctx context.Context, staff user.User, rider user.User) error {
	routes, err := cli.svcs.BusRoutes.Query(ctx, &busroute.QueryFilter{Search: seedRouteNumber})
	if err != nil {
		return errors.Wrap(err, "looking up seeded bus route")
	}
	if len(routes) > 0 {
		return nil
	}

	r, err := cli.svcs.BusRoutes.Create(ctx, busroute.NewBusRoute{
		RouteName:     "City Center Express",
		RouteNumber:   seedRouteNumber,
		DriverName:    "Ravi Kumar",
		DriverContact: "+1-555-0101",
		StartLocation: "Central Depot",
		EndLocation:   "Main Campus",
		Stops: []busroute.Stop{
			{Name: "City Center", Time: "07:30"},
			{Name: "Lake View", Time: "07:45"},
		},
		BusCapacity:   40,
		DepartureTime: "07:15",
		ArrivalTime:   "08:05",
		OperationDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	})
	if err != nil {
		return errors.Wrap(err, "seeding bus route")
	}
	if _, err = cli.svcs.BusRoutes.AssignStudent(ctx, r.ID, rider.ID); err != nil {
		return errors.Wrap(err, "assigning seeded rider")
	}
	_, err = cli.svcs.BusRoutes.AddAnnouncement(ctx, r.ID, busroute.NewAnnouncement{
		Title:   "Welcome aboard",
		Message: "The route runs every weekday. Please be at your stop five minutes early.",
	}, staff.ID)
	return errors.Wrap(err, "seeding announcement")
}

func (cli *commandLine) seedTimetables(ctx context.Context, admin, faculty user.User) error {
	tts, err := cli.svcs.Timetables.Query(ctx, &timetable.QueryFilter{Class: seedClass, AcademicYear: seedAcademicYear})
	if err != nil {
		return errors.Wrap(err, "looking up seeded timetable")
	}
	if len(tts) == 0 {
		_, err = cli.svcs.Timetables.Create(ctx, timetable.NewTimeTable{
			Name:         seedClass + " Odd Semester",
			AcademicYear: seedAcademicYear,
			Semester:     "1",
			Department:   faculty.Department,
			Slots: []timetable.Slot{
				{Day: "Monday", StartTime: "09:00", EndTime: "10:00", Subject: "Mathematics", Faculty: faculty.ID, Class: seedClass, Location: "Room 101"},
				{Day: "Monday", StartTime: "10:15", EndTime: "11:15", Subject: "Physics", Faculty: faculty.ID, Class: seedClass, Location: "Lab 2"},
				{Day: "Wednesday", StartTime: "09:00", EndTime: "10:00", Subject: "Programming", Faculty: faculty.ID, Class: seedClass, Location: "Lab 1"},
			},
		}, admin.ID)
		if err != nil {
			return errors.Wrap(err, "seeding timetable")
		}
	}

	for _, day := range []string{"Monday", "Wednesday"} {
		_, err = cli.svcs.Timetables.UpsertClassTimetable(ctx, timetable.ClassDay{
			Class: seedClass,
			Day:   day,
			Periods: []timetable.Period{
				{Period: 1, Subject: "Mathematics", Faculty: faculty.ID, StartTime: "09:00", EndTime: "10:00"},
				{Period: 2, Subject: "Physics", Faculty: faculty.ID, StartTime: "10:15", EndTime: "11:15"},
			},
		})
		if err != nil {
			return errors.Wrapf(err, "seeding %s class timetable", day)
		}
	}
	return nil
}
