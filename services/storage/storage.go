package storagesvc

import (
	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/file"
)

// New picks the configured storage driver.
func New(conf *core.Config) (file.Storage, error) {
	switch conf.Storage.Driver {
	case "minio":
		return NewMinioStorage(conf)
	case "local", "":
		return NewLocalStorage(conf)
	default:
		return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
