package busroute

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Announcement priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" bson:"lng" validate:"gte=-180,lte=180"`
}

type Stop struct {
	Name        string       `json:"name" bson:"name" validate:"required,notblank"`
	Time        string       `json:"time,omitempty" bson:"time,omitempty" validate:"omitempty,clock"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

type Announcement struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Priority  string    `json:"priority" bson:"priority"`
	CreatedBy string    `json:"createdBy,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	ReadBy    []string  `json:"readBy" bson:"read_by"`
}

// IsReadBy reports whether userID marked the announcement read.
func (a Announcement) IsReadBy(userID string) bool {
	return contains(a.ReadBy, userID)
}

type BusRoute struct {
	ID               string         `json:"id" bson:"_id"`
	RouteName        string         `json:"routeName" bson:"route_name"`
	RouteNumber      string         `json:"routeNumber" bson:"route_number"`
	DriverName       string         `json:"driverName" bson:"driver_name"`
	DriverContact    string         `json:"driverContact" bson:"driver_contact"`
	StartLocation    string         `json:"startLocation" bson:"start_location"`
	EndLocation      string         `json:"endLocation" bson:"end_location"`
	Stops            []Stop         `json:"stops" bson:"stops"`
	IsActive         bool           `json:"isActive" bson:"is_active"`
	BusCapacity      int            `json:"busCapacity" bson:"bus_capacity"` // 0: unlimited
	AssignedStudents []string       `json:"assignedStudents" bson:"assigned_students"`
	DepartureTime    string         `json:"departureTime,omitempty" bson:"departure_time,omitempty"`
	ArrivalTime      string         `json:"arrivalTime,omitempty" bson:"arrival_time,omitempty"`
	OperationDays    []string       `json:"operationDays" bson:"operation_days"`
	Announcements    []Announcement `json:"announcements" bson:"announcements"`
	CreatedAt        time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time      `json:"updatedAt" bson:"updated_at"`
}

func (r BusRoute) HasStudent(studentID string) bool {
	return contains(r.AssignedStudents, studentID)
}

// IsFull reports whether no more students can be assigned.
func (r BusRoute) IsFull() bool {
	return r.BusCapacity > 0 && len(r.AssignedStudents) >= r.BusCapacity
}

// Clone returns a deep copy of r.
func (r BusRoute) Clone() BusRoute {
	r.Stops = append([]Stop(nil), r.Stops...)
	for i, s := range r.Stops {
		if s.Coordinates != nil {
			c := *s.Coordinates
			r.Stops[i].Coordinates = &c
		}
	}
	r.AssignedStudents = append([]string(nil), r.AssignedStudents...)
	r.OperationDays = append([]string(nil), r.OperationDays...)
	anns := make([]Announcement, len(r.Announcements))
	for i, a := range r.Announcements {
		a.ReadBy = append([]string(nil), a.ReadBy...)
		anns[i] = a
	}
	r.Announcements = anns
	r.normalize()
	return r
}

// normalize replaces nil lists with empty ones, so that every store returns the same shape.
func (r *BusRoute) normalize() {
	if r.Stops == nil {
		r.Stops = []Stop{}
	}
	if r.AssignedStudents == nil {
		r.AssignedStudents = []string{}
	}
	if r.OperationDays == nil {
		r.OperationDays = []string{}
	}
	if r.Announcements == nil {
		r.Announcements = []Announcement{}
	}
	for i := range r.Announcements {
		if r.Announcements[i].ReadBy == nil {
			r.Announcements[i].ReadBy = []string{}
		}
	}
}

type NewBusRoute struct {
	RouteName     string   `json:"routeName" validate:"required,notblank"`
	RouteNumber   string   `json:"routeNumber" validate:"required,notblank"`
	DriverName    string   `json:"driverName" validate:"required,notblank"`
	DriverContact string   `json:"driverContact" validate:"required,notblank"`
	StartLocation string   `json:"startLocation" validate:"required,notblank"`
	EndLocation   string   `json:"endLocation" validate:"required,notblank"`
	Stops         []Stop   `json:"stops" validate:"dive"`
	BusCapacity   int      `json:"busCapacity" validate:"gte=0"`
	DepartureTime string   `json:"departureTime" validate:"omitempty,clock"`
	ArrivalTime   string   `json:"arrivalTime" validate:"omitempty,clock"`
	OperationDays []string `json:"operationDays" validate:"dive,weekday"`
}

func (nr *NewBusRoute) Validate(validate *validator.Validate) error {
	nr.RouteName = core.CleanString(nr.RouteName)
	nr.RouteNumber = core.CleanString(nr.RouteNumber)
	nr.DriverName = core.CleanString(nr.DriverName)
	nr.DriverContact = core.CleanString(nr.DriverContact)
	nr.StartLocation = core.CleanString(nr.StartLocation)
	nr.EndLocation = core.CleanString(nr.EndLocation)
	nr.DepartureTime = core.CleanString(nr.DepartureTime)
	nr.ArrivalTime = core.CleanString(nr.ArrivalTime)
	cleanStops(nr.Stops)
	cleanDays(nr.OperationDays)
	return validate.Struct(nr)
}

// UpdateBusRoute holds the fields that may change. Nil fields are left untouched;
// Stops and OperationDays replace the whole list.
type UpdateBusRoute struct {
	RouteName     *string   `json:"routeName" validate:"omitempty,notblank"`
	RouteNumber   *string   `json:"routeNumber" validate:"omitempty,notblank"`
	DriverName    *string   `json:"driverName" validate:"omitempty,notblank"`
	DriverContact *string   `json:"driverContact" validate:"omitempty,notblank"`
	StartLocation *string   `json:"startLocation" validate:"omitempty,notblank"`
	EndLocation   *string   `json:"endLocation" validate:"omitempty,notblank"`
	Stops         *[]Stop   `json:"stops" validate:"omitempty,dive"`
	BusCapacity   *int      `json:"busCapacity" validate:"omitempty,gte=0"`
	DepartureTime *string   `json:"departureTime" validate:"omitempty,clock"`
	ArrivalTime   *string   `json:"arrivalTime" validate:"omitempty,clock"`
	OperationDays *[]string `json:"operationDays" validate:"omitempty,dive,weekday"`
	IsActive      *bool     `json:"isActive"`
}

func (ur *UpdateBusRoute) Validate(validate *validator.Validate) error {
	for _, s := range []*string{
		ur.RouteName, ur.RouteNumber, ur.DriverName, ur.DriverContact,
		ur.StartLocation, ur.EndLocation, ur.DepartureTime, ur.ArrivalTime,
	} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if ur.Stops != nil {
		cleanStops(*ur.Stops)
	}
	if ur.OperationDays != nil {
		cleanDays(*ur.OperationDays)
	}
	return validate.Struct(ur)
}

func (ur *UpdateBusRoute) Merge(r BusRoute) BusRoute {
	setIfSet := func(dst *string, val *string) {
		if val != nil {
			*dst = *val
		}
	}
	setIfSet(&r.RouteName, ur.RouteName)
	setIfSet(&r.RouteNumber, ur.RouteNumber)
	setIfSet(&r.DriverName, ur.DriverName)
	setIfSet(&r.DriverContact, ur.DriverContact)
	setIfSet(&r.StartLocation, ur.StartLocation)
	setIfSet(&r.EndLocation, ur.EndLocation)
	setIfSet(&r.DepartureTime, ur.DepartureTime)
	setIfSet(&r.ArrivalTime, ur.ArrivalTime)
	if ur.Stops != nil {
		r.Stops = *ur.Stops
	}
	if ur.OperationDays != nil {
		r.OperationDays = *ur.OperationDays
	}
	if ur.BusCapacity != nil {
		r.BusCapacity = *ur.BusCapacity
	}
	if ur.IsActive != nil {
		r.IsActive = *ur.IsActive
	}
	return r
}

type NewAnnouncement struct {
	Title    string `json:"title" validate:"required,notblank"`
	Message  string `json:"message" validate:"required,notblank"`
	Priority string `json:"priority" validate:"omitempty,priority"` // defaults to medium
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	na.Priority = core.CleanString(na.Priority, true /* lower */)
	return validate.Struct(na)
}

type QueryFilter struct {
	// Search does a case-insensitive match on RouteName, RouteNumber or a stop name.
	Search       string `query:"search"`
	IsActive     *bool  `query:"is_active"`
	Student      string `query:"student"`
	OperationDay string `query:"day"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Student = core.CleanString(qf.Student)
	qf.OperationDay = core.CapitalizeDay(qf.OperationDay)
}

func (qf *QueryFilter) Match(r BusRoute) bool {
	if qf == nil {
		return true
	}
	if qf.Search != "" && !(core.ContainsFold(r.RouteName, qf.Search) ||
		core.ContainsFold(r.RouteNumber, qf.Search) || stopMatches(r.Stops, qf.Search)) {
		return false
	}
	if qf.IsActive != nil && r.IsActive != *qf.IsActive {
		return false
	}
	if qf.Student != "" && !r.HasStudent(qf.Student) {
		return false
	}
	if qf.OperationDay != "" && !contains(r.OperationDays, qf.OperationDay) {
		return false
	}
	return true
}

// OrderingFields maps the public ordering names to stored field names.
var OrderingFields = map[string]string{
	"route_name":   "route_name",
	"route_number": "route_number",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

var DefaultOrdering = []core.DBOrdering{{Field: "route_number", Ascending: true}}

func stopMatches(stops []Stop, search string) bool {
	for _, s := range stops {
		if core.ContainsFold(s.Name, search) {
			return true
		}
	}
	return false
}

func cleanStops(stops []Stop) {
	for i := range stops {
		stops[i].Name = core.CleanString(stops[i].Name)
		stops[i].Time = core.CleanString(stops[i].Time)
	}
}

func cleanDays(days []string) {
	for i := range days {
		days[i] = core.CapitalizeDay(days[i])
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
