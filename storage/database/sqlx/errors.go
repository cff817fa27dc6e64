package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
)

// SQLSTATE class 08, connection exceptions.
const pqConnectionException = "08"

// wrapErr annotates driver errors. A connection-class failure means the pool
// cannot recover on its own, so it converts to a shutdown error that the API
// error handler turns into a graceful server stop.
func wrapErr(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code.Class()) == pqConnectionException {
		return core.NewShutdownError(msg + ": database connection lost")
	}
	return errors.Wrap(err, msg)
}
