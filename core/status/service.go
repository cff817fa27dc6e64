package status

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/user"
)

// ErrNoEvents is returned when a user never reported any status.
var ErrNoEvents = errors.New("no status events")

type (
	Repository interface {
		CreateEvent(ctx context.Context, ev Event) (Event, error)
		// QueryEventsByRange returns events with CreatedAt in [start, end),
		// ordered newest first.
		QueryEventsByRange(ctx context.Context, start, end time.Time) ([]Event, error)
		// LatestEventForUser returns the user's single most recent event across
		// all history, or ErrNoEvents.
		LatestEventForUser(ctx context.Context, userID int) (Event, error)
		// LatestEventsByUser returns each listed user's most recent event;
		// users with no events are simply absent from the map.
		LatestEventsByUser(ctx context.Context, userIDs []int) (map[int]Event, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
		bcast   core.Broadcaster
		nowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository, usrRepo user.Repository, bcast core.Broadcaster) *Service {
	return &Service{
		repo:    repo,
		usrRepo: usrRepo,
		bcast:   bcast,
		nowFunc: time.Now,
	}
}

// Submit appends a new status event for the user and notifies the admins room.
func (svc *Service) Submit(ctx context.Context, usr user.User, ne NewEvent) (Event, error) {
	ev := Event{
		UserID:    usr.ID,
		Status:    ne.Status,
		Comment:   ne.Comment,
		ReturnAt:  ne.ReturnAt,
		FileID:    ne.FileID,
		CreatedAt: svc.nowFunc().UTC(),
	}
	ev, err := svc.repo.CreateEvent(ctx, ev)
	if err != nil {
		return Event{}, errors.Wrap(err, "creating status event")
	}

	svc.bcast.EmitToAdmins(core.EventStatusNew, NewEventPayload{
		UserID:   usr.ID,
		Status:   ev.Status,
		Comment:  ev.Comment,
		ReturnAt: ev.ReturnAt,
	})
	return ev, nil
}

// Today returns the current civil day's events, newest first.
func (svc *Service) Today(ctx context.Context) ([]Event, error) {
	start, end, _, err := dayWindow(ReportQuery{}, svc.nowFunc())
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryEventsByRange(ctx, start, end)
}

// Current returns the user's last known state; all-null when they never reported.
func (svc *Service) Current(ctx context.Context, userID int) (CurrentStatus, error) {
	ev, err := svc.repo.LatestEventForUser(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNoEvents {
			return CurrentStatus{}, nil
		}
		return CurrentStatus{}, errors.Wrap(err, "fetching latest event")
	}
	cur := CurrentStatus{Status: &ev.Status, ReturnAt: ev.ReturnAt}
	if ev.Comment != "" {
		cur.Comment = &ev.Comment
	}
	return cur, nil
}

// DailyReport aggregates one civil day of status history: the detailed event
// list, the hourly per-status histogram and the latest-status-per-user counts.
// An empty day yields a well-formed all-zero report.
func (svc *Service) DailyReport(ctx context.Context, q ReportQuery) (Report, error) {
	if err := q.Validate(); err != nil {
		return Report{}, err
	}
	start, end, loc, err := dayWindow(q, svc.nowFunc())
	if err != nil {
		return Report{}, err
	}

	events, err := svc.repo.QueryEventsByRange(ctx, start, end)
	if err != nil {
		return Report{}, errors.Wrap(err, "querying status events")
	}

	users, err := svc.usrRepo.QueryUsers(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "querying users")
	}
	usersByID := make(map[int]user.User, len(users))
	for _, usr := range users {
		usersByID[usr.ID] = usr
	}

	return Report{
		Items:   enrichItems(events, usersByID),
		Buckets: hourlyBuckets(events, loc),
		Counts:  dailyCounts(events),
	}, nil
}

// TeamView resolves each roster member's current status, defaulting members
// who never reported to ABSENT, ordered by status priority. Members with equal
// status keep the roster order.
func (svc *Service) TeamView(ctx context.Context) ([]TeamMember, error) {
	roster, err := svc.usrRepo.QueryRoster(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return svc.teamView(ctx, roster)
}

func (svc *Service) teamView(ctx context.Context, roster []user.User) ([]TeamMember, error) {
	ids := make([]int, 0, len(roster))
	for _, usr := range roster {
		ids = append(ids, usr.ID)
	}
	latest, err := svc.repo.LatestEventsByUser(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying latest events")
	}

	members := make([]TeamMember, 0, len(roster))
	for _, usr := range roster {
		st := Absent
		if ev, ok := latest[usr.ID]; ok {
			st = ev.Status
		}
		members = append(members, TeamMember{
			ID:        usr.ID,
			FirstName: usr.FirstName,
			LastName:  usr.LastName,
			Grade:     usr.Grade,
			Status:    st,
		})
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Status.Priority() < members[j].Status.Priority()
	})
	return members, nil
}
