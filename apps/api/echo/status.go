package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/file"
	"github.com/stationhq/firewatch/core/status"
	"github.com/stationhq/firewatch/core/user"
)

type statusApi struct {
	svc     *status.Service
	fileSvc *file.Service
	usrSvc  *user.Service
}

func registerStatusAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *status.Service, fileSvc *file.Service, usrSvc *user.Service) {
	api := statusApi{svc: svc, fileSvc: fileSvc, usrSvc: usrSvc}

	sg := g.Group("/status", jwt)
	sg.POST("", api.submit)
	sg.GET("/today", api.today, adminMiddleware())
	sg.GET("/current", api.current)
	sg.GET("/team", api.team)

	g.GET("/reports/daily", api.dailyReport, jwt, adminMiddleware())
}

// Handlers

// submit accepts JSON or, when an attachment rides along, multipart form data.
func (api *statusApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data status.NewEvent
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if data, err = api.bindMultipart(ctx, usr); err != nil {
			return err
		}
	} else if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	ev, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "submitting status")
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *statusApi) bindMultipart(ctx echo.Context, usr user.User) (status.NewEvent, error) {
	data := status.NewEvent{
		Status:  status.Status(ctx.FormValue("status")),
		Comment: ctx.FormValue("comment"),
	}
	if raw := ctx.FormValue("return_at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return status.NewEvent{}, core.NewValidationError(err, core.FieldError{
				Field: "return_at", Error: "must be a valid RFC3339 timestamp",
			})
		}
		data.ReturnAt = &at
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return data, nil // no attachment
	}
	src, err := fh.Open()
	if err != nil {
		return status.NewEvent{}, errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	f, err := api.fileSvc.Save(ctx.Request().Context(), usr, file.Upload{
		Name: fh.Filename,
		Mime: fh.Header.Get(echo.HeaderContentType),
		Size: fh.Size,
		Body: src,
	})
	if err != nil {
		return status.NewEvent{}, errors.Wrap(err, "saving upload")
	}
	data.FileID = &f.ID
	return data, nil
}

func (api *statusApi) today(ctx echo.Context) error {
	events, err := api.svc.Today(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying today's events")
	}
	if events == nil {
		events = []status.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *statusApi) current(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := claims.UserID()
	if err != nil {
		return errUnauthorized
	}

	cur, err := api.svc.Current(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching current status")
	}
	return ctx.JSON(http.StatusOK, cur)
}

func (api *statusApi) team(ctx echo.Context) error {
	members, err := api.svc.TeamView(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resolving team view")
	}
	if members == nil {
		members = []status.TeamMember{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *statusApi) dailyReport(ctx echo.Context) error {
	var q status.ReportQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to ReportQuery")
	}

	report, err := api.svc.DailyReport(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "building daily report")
	}
	return ctx.JSON(http.StatusOK, report)
}
