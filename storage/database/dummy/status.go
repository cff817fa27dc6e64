package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/stationhq/firewatch/core/status"
)

type statusRepository struct {
	db *eventTable
}

var _ status.Repository = (*statusRepository)(nil) // interface compliance check

func NewStatusRepository(db *DB) status.Repository {
	return &statusRepository{db: db.event}
}

func (repo *statusRepository) query() []status.Event {
	events := make([]status.Event, 0, len(repo.db.table))
	for _, ev := range repo.db.table {
		events = append(events, *ev)
	}
	return events
}

func (repo *statusRepository) CreateEvent(ctx context.Context, ev status.Event) (status.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	ev.ID = repo.db.pkCount
	repo.db.table[ev.ID] = &ev
	return ev, nil
}

func (repo *statusRepository) QueryEventsByRange(ctx context.Context, start, end time.Time) ([]status.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var events []status.Event
	for _, ev := range repo.query() {
		if !ev.CreatedAt.Before(start) && ev.CreatedAt.Before(end) {
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID > events[j].ID
	})
	return events, nil
}

func (repo *statusRepository) LatestEventForUser(ctx context.Context, userID int) (status.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	latest, ok := repo.latest(userID)
	if !ok {
		return status.Event{}, status.ErrNoEvents
	}
	return latest, nil
}

func (repo *statusRepository) LatestEventsByUser(ctx context.Context, userIDs []int) (map[int]status.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make(map[int]status.Event, len(userIDs))
	for _, id := range userIDs {
		if latest, ok := repo.latest(id); ok {
			events[id] = latest
		}
	}
	return events, nil
}

func (repo *statusRepository) latest(userID int) (status.Event, bool) {
	var latest status.Event
	var found bool
	for _, ev := range repo.db.table {
		if ev.UserID != userID {
			continue
		}
		if !found || ev.After(latest) {
			latest = *ev
			found = true
		}
	}
	return latest, found
}
