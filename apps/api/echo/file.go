package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core/file"
	"github.com/stationhq/firewatch/core/user"
)

type fileApi struct {
	svc    *file.Service
	usrSvc *user.Service
}

func registerFileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *file.Service, usrSvc *user.Service) {
	api := fileApi{svc: svc, usrSvc: usrSvc}

	fg := g.Group("/files", jwt)
	fg.GET("", api.query)
	fg.GET("/:id", api.retrieve)
}

// Handlers

func (api *fileApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	files, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying files")
	}

	resp := make([]FileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, api.response(f))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *fileApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return errHttpNotFound
	}
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	f, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "fetching file")
	}
	if !usr.IsAdmin() && f.UserID != usr.ID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, api.response(f))
}

func (api *fileApi) response(f file.File) FileResponse {
	return FileResponse{
		ID:           f.ID,
		UserID:       f.UserID,
		OriginalName: f.OriginalName,
		Mime:         f.Mime,
		Size:         f.Size,
		URL:          api.svc.URL(f),
		CreatedAt:    f.CreatedAt,
	}
}

type FileResponse struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	OriginalName string    `json:"original_name"`
	Mime         string    `json:"mime"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}
