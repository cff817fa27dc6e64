package file

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/user"
)

var ErrNotFound = errors.New("file not found")

type (
	Repository interface {
		CreateFile(ctx context.Context, f File) (File, error)
		GetFileByID(ctx context.Context, id int) (File, error)
		// QueryFiles returns all files newest first; QueryFilesByUser only the
		// given owner's.
		QueryFiles(ctx context.Context) ([]File, error)
		QueryFilesByUser(ctx context.Context, userID int) ([]File, error)
	}

	Service struct {
		repo    Repository
		storage Storage
		bcast   core.Broadcaster
	}
)

func NewService(repo Repository, storage Storage, bcast core.Broadcaster) *Service {
	return &Service{repo: repo, storage: storage, bcast: bcast}
}

// Save stores the upload's bytes and persists its metadata, then notifies the
// admins room so their inbox badge refreshes.
func (svc *Service) Save(ctx context.Context, usr user.User, up Upload) (File, error) {
	key, err := svc.storage.Save(ctx, "files", up)
	if err != nil {
		return File{}, errors.Wrap(err, "storing file")
	}

	f, err := svc.repo.CreateFile(ctx, File{
		UserID:       usr.ID,
		OriginalName: up.Name,
		Mime:         up.Mime,
		Size:         up.Size,
		StorageKey:   key,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return File{}, errors.Wrap(err, "creating file record")
	}

	svc.bcast.EmitToAdmins(core.EventFilesNew, NewFilePayload{UserID: usr.ID, FileID: f.ID})
	svc.bcast.EmitToAdmins(core.EventBadgeUpdate, nil)
	return f, nil
}

// List returns the inbox view: everything for admins, own files otherwise.
func (svc *Service) List(ctx context.Context, usr user.User) ([]File, error) {
	if usr.IsAdmin() {
		return svc.repo.QueryFiles(ctx)
	}
	return svc.repo.QueryFilesByUser(ctx, usr.ID)
}

func (svc *Service) GetByID(ctx context.Context, id int) (File, error) {
	return svc.repo.GetFileByID(ctx, id)
}

// URL resolves a file record to its public URL.
func (svc *Service) URL(f File) string {
	return svc.storage.PublicURL(f.StorageKey)
}
