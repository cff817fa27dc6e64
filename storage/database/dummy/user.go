package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/stationhq/firewatch/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func sortUsers(users []user.User) {
	sort.SliceStable(users, func(i, j int) bool {
		li, lj := strings.ToLower(users[i].LastName), strings.ToLower(users[j].LastName)
		if li != lj {
			return li < lj
		}
		return strings.ToLower(users[i].FirstName) < strings.ToLower(users[j].FirstName)
	})
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	usr.ID = repo.db.pkCount
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var users []user.User
	for _, u := range repo.query() {
		if u.Role == user.RoleUser || u.Role == user.RoleAdmin {
			users = append(users, u)
		}
	}
	sortUsers(users)
	return users, nil
}

func (repo *userRepository) QueryRoster(ctx context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var users []user.User
	for _, u := range repo.query() {
		if u.VisibleInList && (u.Role == user.RoleUser || u.Role == user.RoleAdmin) {
			users = append(users, u)
		}
	}
	sortUsers(users)
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetFirstAdmin(ctx context.Context) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var admin *user.User
	for _, usr := range repo.query() {
		if usr.Role != user.RoleAdmin {
			continue
		}
		if admin == nil || usr.ID < admin.ID {
			u := usr
			admin = &u
		}
	}
	if admin == nil {
		return user.User{}, user.ErrNotFound
	}
	return *admin, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, visibleInList *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.FirstName != "" {
		origUsr.FirstName = usr.FirstName
	}
	if usr.LastName != "" {
		origUsr.LastName = usr.LastName
	}
	if usr.Grade != "" {
		origUsr.Grade = usr.Grade
	}
	if usr.Role != "" {
		origUsr.Role = usr.Role
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if visibleInList != nil {
		origUsr.VisibleInList = *visibleInList
	}
	origUsr.UpdatedAt = usr.UpdatedAt

	repo.db.table[usr.ID] = origUsr
	return *origUsr, nil
}
