package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stationhq/firewatch/core/user"
)

type userRow struct {
	ID            int       `db:"id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Email         string    `db:"email"`
	Grade         string    `db:"grade"`
	Role          string    `db:"role"`
	VisibleInList bool      `db:"visible_in_list"`
	PasswordHash  []byte    `db:"password_hash"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r userRow) unpack() user.User {
	return user.User{
		ID:            r.ID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Grade:         r.Grade,
		Role:          r.Role,
		VisibleInList: r.VisibleInList,
		PasswordHash:  r.PasswordHash,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func unpackUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unpack())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return wrapErr(err,msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, grade, role, visible_in_list, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		usr.FirstName, usr.LastName, usr.Email, usr.Grade, usr.Role,
		usr.VisibleInList, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, wrapErr(err,"inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	query := `
		SELECT * FROM users
		WHERE role IN ('user', 'admin')
		ORDER BY last_name ASC, first_name ASC`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapErr(err,"querying users")
	}
	return unpackUsers(rows), nil
}

func (repo userRepository) QueryRoster(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	query := `
		SELECT * FROM users
		WHERE role IN ('user', 'admin') AND visible_in_list
		ORDER BY last_name ASC, first_name ASC`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapErr(err,"querying roster")
	}
	return unpackUsers(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "fetching user by ID")
	}
	return row.unpack(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "fetching user by email")
	}
	return row.unpack(), nil
}

func (repo userRepository) GetFirstAdmin(ctx context.Context) (user.User, error) {
	var row userRow
	query := `SELECT * FROM users WHERE role = 'admin' ORDER BY id ASC LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, query); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "fetching first admin")
	}
	return row.unpack(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, visibleInList *bool) (user.User, error) {
	query := `
		UPDATE users SET
			first_name      = COALESCE(NULLIF($2, ''), first_name),
			last_name       = COALESCE(NULLIF($3, ''), last_name),
			grade           = COALESCE(NULLIF($4, ''), grade),
			role            = COALESCE(NULLIF($5, ''), role),
			password_hash   = COALESCE(NULLIF($6, ''::bytea), password_hash),
			visible_in_list = COALESCE($7, visible_in_list),
			updated_at      = $8
		WHERE id = $1
		RETURNING *`
	var row userRow
	err := repo.db.GetContext(ctx, &row, query,
		usr.ID, usr.FirstName, usr.LastName, usr.Grade, usr.Role,
		usr.PasswordHash, visibleInList, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return row.unpack(), nil
}
