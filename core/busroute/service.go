package busroute

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("bus route not found")
	ErrAnnouncementNotFound = core.NewNotFoundError("announcement not found")
	ErrNoRouteForStudent    = core.NewNotFoundError("no active bus route is assigned to this student")
	ErrRouteNumberExists    = core.NewConflictError("a bus route with this number already exists", "routeNumber")
	ErrStudentAssigned      = core.NewConflictError("student is already assigned to another bus route", "studentId")
	ErrRouteFull            = core.NewConflictError("bus route is full", "busCapacity")
	ErrRouteInactive        = core.NewConflictError("bus route is not active")
)

type (
	Repository interface {
		// CreateRoute stores r. It fails with ErrRouteNumberExists when r.RouteNumber is taken.
		CreateRoute(ctx context.Context, r BusRoute) (BusRoute, error)
		GetRoute(ctx context.Context, id string) (BusRoute, error)
		QueryRoutes(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]BusRoute, error)
		// UpdateRoute replaces the stored route with r.
		UpdateRoute(ctx context.Context, r BusRoute) (BusRoute, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nr NewBusRoute) (BusRoute, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return BusRoute{}, err
	}

	now := core.Now()
	r := BusRoute{
		ID:            uuid.NewString(),
		RouteName:     nr.RouteName,
		RouteNumber:   nr.RouteNumber,
		DriverName:    nr.DriverName,
		DriverContact: nr.DriverContact,
		StartLocation: nr.StartLocation,
		EndLocation:   nr.EndLocation,
		Stops:         nr.Stops,
		IsActive:      true,
		BusCapacity:   nr.BusCapacity,
		DepartureTime: nr.DepartureTime,
		ArrivalTime:   nr.ArrivalTime,
		OperationDays: nr.OperationDays,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.normalize()
	return svc.repo.CreateRoute(ctx, r)
}

func (svc *Service) GetByID(ctx context.Context, id string) (BusRoute, error) {
	if id == "" {
		return BusRoute{}, ErrNotFound
	}
	return svc.repo.GetRoute(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]BusRoute, error) {
	if filter != nil {
		filter.Clean()
	}
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryRoutes(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, id string, ur UpdateBusRoute) (BusRoute, error) {
	if err := ur.Validate(svc.validate); err != nil {
		return BusRoute{}, err
	}
	return svc.modify(ctx, id, func(r *BusRoute) error {
		*r = ur.Merge(*r)
		return nil
	})
}

// Deactivate soft deletes the route. Its students and announcements are kept.
func (svc *Service) Deactivate(ctx context.Context, id string) (BusRoute, error) {
	return svc.modify(ctx, id, func(r *BusRoute) error {
		r.IsActive = false
		return nil
	})
}

// AssignStudent adds the student to the route. Assigning twice to the same route is a no-op.
func (svc *Service) AssignStudent(ctx context.Context, routeID, studentID string) (BusRoute, error) {
	others, err := svc.repo.QueryRoutes(ctx, &QueryFilter{Student: studentID})
	if err != nil {
		return BusRoute{}, err
	}
	for _, other := range others {
		if other.ID != routeID && other.IsActive {
			return BusRoute{}, ErrStudentAssigned
		}
	}

	return svc.modify(ctx, routeID, func(r *BusRoute) error {
		if r.HasStudent(studentID) {
			return nil
		}
		if !r.IsActive {
			return ErrRouteInactive
		}
		if r.IsFull() {
			return ErrRouteFull
		}
		r.AssignedStudents = append(r.AssignedStudents, studentID)
		return nil
	})
}

func (svc *Service) UnassignStudent(ctx context.Context, routeID, studentID string) (BusRoute, error) {
	return svc.modify(ctx, routeID, func(r *BusRoute) error {
		r.AssignedStudents = remove(r.AssignedStudents, studentID)
		return nil
	})
}

// RouteForStudent returns the active route the student rides.
func (svc *Service) RouteForStudent(ctx context.Context, studentID string) (BusRoute, error) {
	active := true
	routes, err := svc.repo.QueryRoutes(ctx, &QueryFilter{Student: studentID, IsActive: &active}, DefaultOrdering...)
	if err != nil {
		return BusRoute{}, err
	}
	if len(routes) == 0 {
		return BusRoute{}, ErrNoRouteForStudent
	}
	return routes[0], nil
}

func (svc *Service) AddAnnouncement(ctx context.Context, routeID string, na NewAnnouncement, createdBy string) (Announcement, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Announcement{}, err
	}
	if na.Priority == "" {
		na.Priority = PriorityMedium
	}

	ann := Announcement{
		ID:        uuid.NewString(),
		Title:     na.Title,
		Message:   na.Message,
		Priority:  na.Priority,
		CreatedBy: createdBy,
		CreatedAt: core.Now(),
		ReadBy:    []string{},
	}
	_, err := svc.modify(ctx, routeID, func(r *BusRoute) error {
		r.Announcements = append(r.Announcements, ann)
		return nil
	})
	if err != nil {
		return Announcement{}, err
	}
	return ann, nil
}

func (svc *Service) DeleteAnnouncement(ctx context.Context, routeID, announcementID string) error {
	_, err := svc.modify(ctx, routeID, func(r *BusRoute) error {
		for i, ann := range r.Announcements {
			if ann.ID == announcementID {
				r.Announcements = append(r.Announcements[:i], r.Announcements[i+1:]...)
				return nil
			}
		}
		return ErrAnnouncementNotFound
	})
	return err
}

// MarkAnnouncementRead records that userID has read the announcement.
func (svc *Service) MarkAnnouncementRead(ctx context.Context, routeID, announcementID, userID string) (Announcement, error) {
	var ann Announcement
	_, err := svc.modify(ctx, routeID, func(r *BusRoute) error {
		for i := range r.Announcements {
			if r.Announcements[i].ID != announcementID {
				continue
			}
			if !r.Announcements[i].IsReadBy(userID) {
				r.Announcements[i].ReadBy = append(r.Announcements[i].ReadBy, userID)
			}
			ann = r.Announcements[i]
			return nil
		}
		return ErrAnnouncementNotFound
	})
	return ann, err
}

// Announcements lists the route announcements, newest first.
func (svc *Service) Announcements(ctx context.Context, routeID string) ([]Announcement, error) {
	r, err := svc.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	anns := make([]Announcement, 0, len(r.Announcements))
	for i := len(r.Announcements) - 1; i >= 0; i-- {
		anns = append(anns, r.Announcements[i])
	}
	sort.SliceStable(anns, func(i, j int) bool { return anns[i].CreatedAt.After(anns[j].CreatedAt) })
	return anns, nil
}

// modify loads the route, applies fn and saves the result with a fresh UpdatedAt.
func (svc *Service) modify(ctx context.Context, id string, fn func(r *BusRoute) error) (BusRoute, error) {
	r, err := svc.GetByID(ctx, id)
	if err != nil {
		return BusRoute{}, err
	}
	if err = fn(&r); err != nil {
		return BusRoute{}, err
	}
	r.normalize()
	r.UpdatedAt = core.Now()
	return svc.repo.UpdateRoute(ctx, r)
}
