package dummydb

import (
	"context"
	"sort"

	"github.com/stationhq/firewatch/core/file"
)

type fileRepository struct {
	db *fileTable
}

var _ file.Repository = (*fileRepository)(nil) // interface compliance check

func NewFileRepository(db *DB) file.Repository {
	return &fileRepository{db: db.file}
}

func (repo *fileRepository) query() []file.File {
	files := make([]file.File, 0, len(repo.db.table))
	for _, f := range repo.db.table {
		files = append(files, *f)
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].ID > files[j].ID
	})
	return files
}

func (repo *fileRepository) CreateFile(ctx context.Context, f file.File) (file.File, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	f.ID = repo.db.pkCount
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *fileRepository) GetFileByID(ctx context.Context, id int) (file.File, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.table[id]; ok {
		return *f, nil
	}
	return file.File{}, file.ErrNotFound
}

func (repo *fileRepository) QueryFiles(ctx context.Context) ([]file.File, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *fileRepository) QueryFilesByUser(ctx context.Context, userID int) ([]file.File, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var files []file.File
	for _, f := range repo.query() {
		if f.UserID == userID {
			files = append(files, f)
		}
	}
	return files, nil
}
