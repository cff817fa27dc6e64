package storagesvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/file"
)

// localStorage writes uploads under a root directory on disk. Keys are
// "<prefix>/<uuid><ext>" so original names never leak into paths.
type localStorage struct {
	root    string
	baseURL string
}

var _ file.Storage = (*localStorage)(nil)

func NewLocalStorage(conf *core.Config) (*localStorage, error) {
	root := conf.Storage.Root
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &localStorage{
		root:    root,
		baseURL: conf.FrontendBaseURL + "/uploads",
	}, nil
}

func (st *localStorage) Save(ctx context.Context, prefix string, up file.Upload) (string, error) {
	key := path.Join(prefix, uuid.NewString()+filepath.Ext(up.Name))

	dst := filepath.Join(st.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer f.Close()

	if _, err = io.Copy(f, up.Body); err != nil {
		return "", errors.Wrap(err, "writing upload")
	}
	return key, nil
}

func (st *localStorage) Remove(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(st.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing upload")
	}
	return nil
}

func (st *localStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", st.baseURL, key)
}
