package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stationhq/firewatch/core/file"
)

type fileRow struct {
	ID           int       `db:"id"`
	UserID       int       `db:"user_id"`
	OriginalName string    `db:"original_name"`
	Mime         string    `db:"mime"`
	Size         int64     `db:"size"`
	StorageKey   string    `db:"storage_key"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r fileRow) unpack() file.File {
	return file.File{
		ID:           r.ID,
		UserID:       r.UserID,
		OriginalName: r.OriginalName,
		Mime:         r.Mime,
		Size:         r.Size,
		StorageKey:   r.StorageKey,
		CreatedAt:    r.CreatedAt,
	}
}

func unpackFiles(rows []fileRow) []file.File {
	files := make([]file.File, 0, len(rows))
	for _, r := range rows {
		files = append(files, r.unpack())
	}
	return files
}

type fileRepository struct {
	db *sqlx.DB
}

var _ file.Repository = (*fileRepository)(nil) // interface compliance check

func NewFileRepository(db *sqlx.DB) *fileRepository {
	return &fileRepository{db: db}
}

func (repo fileRepository) CreateFile(ctx context.Context, f file.File) (file.File, error) {
	query := `
		INSERT INTO files (user_id, original_name, mime, size, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		f.UserID, f.OriginalName, f.Mime, f.Size, f.StorageKey, f.CreatedAt,
	).Scan(&f.ID)
	if err != nil {
		return file.File{}, wrapErr(err,"inserting file")
	}
	return f, nil
}

func (repo fileRepository) GetFileByID(ctx context.Context, id int) (file.File, error) {
	var row fileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM files WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return file.File{}, file.ErrNotFound
		}
		return file.File{}, wrapErr(err,"fetching file by ID")
	}
	return row.unpack(), nil
}

func (repo fileRepository) QueryFiles(ctx context.Context) ([]file.File, error) {
	var rows []fileRow
	query := `SELECT * FROM files ORDER BY created_at DESC, id DESC`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapErr(err,"querying files")
	}
	return unpackFiles(rows), nil
}

func (repo fileRepository) QueryFilesByUser(ctx context.Context, userID int) ([]file.File, error) {
	var rows []fileRow
	query := `SELECT * FROM files WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, wrapErr(err,"querying files by user")
	}
	return unpackFiles(rows), nil
}
