package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stationhq/firewatch/core/status"
)

type eventRow struct {
	ID        int        `db:"id"`
	UserID    int        `db:"user_id"`
	Status    string     `db:"status"`
	Comment   string     `db:"comment"`
	ReturnAt  *time.Time `db:"return_at"`
	FileID    *int       `db:"file_id"`
	CreatedAt time.Time  `db:"created_at"`
}

func (r eventRow) unpack() status.Event {
	return status.Event{
		ID:        r.ID,
		UserID:    r.UserID,
		Status:    status.Status(r.Status),
		Comment:   r.Comment,
		ReturnAt:  r.ReturnAt,
		FileID:    r.FileID,
		CreatedAt: r.CreatedAt,
	}
}

type statusRepository struct {
	db *sqlx.DB
}

var _ status.Repository = (*statusRepository)(nil) // interface compliance check

func NewStatusRepository(db *sqlx.DB) *statusRepository {
	return &statusRepository{db: db}
}

func (repo statusRepository) CreateEvent(ctx context.Context, ev status.Event) (status.Event, error) {
	query := `
		INSERT INTO status_events (user_id, status, comment, return_at, file_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		ev.UserID, string(ev.Status), ev.Comment, ev.ReturnAt, ev.FileID, ev.CreatedAt,
	).Scan(&ev.ID)
	if err != nil {
		return status.Event{}, wrapErr(err,"inserting status event")
	}
	return ev, nil
}

func (repo statusRepository) QueryEventsByRange(ctx context.Context, start, end time.Time) ([]status.Event, error) {
	var rows []eventRow
	query := `
		SELECT * FROM status_events
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, start, end); err != nil {
		return nil, wrapErr(err,"querying status events by range")
	}
	events := make([]status.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.unpack())
	}
	return events, nil
}

func (repo statusRepository) LatestEventForUser(ctx context.Context, userID int) (status.Event, error) {
	var row eventRow
	query := `
		SELECT * FROM status_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return status.Event{}, status.ErrNoEvents
		}
		return status.Event{}, wrapErr(err,"fetching latest event")
	}
	return row.unpack(), nil
}

func (repo statusRepository) LatestEventsByUser(ctx context.Context, userIDs []int) (map[int]status.Event, error) {
	latest := make(map[int]status.Event, len(userIDs))
	if len(userIDs) == 0 {
		return latest, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT ON (user_id) * FROM status_events
		WHERE user_id IN (?)
		ORDER BY user_id, created_at DESC, id DESC`, userIDs)
	if err != nil {
		return nil, wrapErr(err,"binding user IDs")
	}

	var rows []eventRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, wrapErr(err,"querying latest events by user")
	}
	for _, r := range rows {
		latest[r.UserID] = r.unpack()
	}
	return latest, nil
}
