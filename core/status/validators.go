package status

import (
	"github.com/go-playground/validator/v10"

	"github.com/stationhq/firewatch/core"
)

var (
	statusTag  = "status"
	statusText = "must be one of AVAILABLE, INTERVENTION, UNAVAILABLE, ABSENT"

	// mirrored here for the report query's explicit parse errors
	dateText     = "must be a valid date in YYYY-MM-DD format"
	timezoneText = "must be a valid IANA timezone name"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}

func (ne *NewEvent) Validate() error {
	ne.Comment = core.CleanString(ne.Comment)
	return core.Validate.Struct(ne)
}

func (q *ReportQuery) Validate() error {
	q.Date = core.CleanString(q.Date)
	q.Timezone = core.CleanString(q.Timezone)
	return core.Validate.Struct(q)
}
