package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core/chat"
	"github.com/stationhq/firewatch/core/user"
)

type chatApi struct {
	svc    *chat.Service
	usrSvc *user.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *chat.Service, usrSvc *user.Service) {
	api := chatApi{svc: svc, usrSvc: usrSvc}

	cg := g.Group("/conversations", jwt)
	cg.GET("", api.list)
	cg.POST("", api.open)
	cg.GET("/:id/messages", api.messages)
	cg.POST("/:id/messages", api.send)

	mg := g.Group("/messages", jwt)
	mg.POST("/:id/read", api.markRead)
	mg.GET("/unread-count", api.unreadCount)
	mg.GET("/unread-map", api.unreadMap)
}

// Handlers

func (api *chatApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	convos, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	if convos == nil {
		convos = []chat.Conversation{}
	}
	return ctx.JSON(http.StatusOK, convos)
}

// open returns the caller's conversation, creating it on first contact. An
// admin picks the user to talk to; a plain user always lands on the staffed
// admin chosen for them.
func (api *chatApi) open(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var convo chat.Conversation
	if usr.IsAdmin() {
		var data OpenConversationRequest
		if err = ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to OpenConversationRequest")
		}
		if _, err = api.usrSvc.GetByID(ctx.Request().Context(), data.UserID); err != nil {
			return errors.Wrap(err, "finding user by ID")
		}
		convo, err = api.svc.GetOrCreateForPair(ctx.Request().Context(), usr.ID, data.UserID)
	} else {
		convo, err = api.svc.GetOrCreateForUser(ctx.Request().Context(), usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "opening conversation")
	}
	return ctx.JSON(http.StatusOK, convo)
}

func (api *chatApi) messages(ctx echo.Context) error {
	convo, err := api.getConversation(ctx)
	if err != nil {
		return err
	}

	msgs, err := api.svc.Messages(ctx.Request().Context(), convo.ID)
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) send(ctx echo.Context) error {
	convo, err := api.getConversation(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data chat.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	msg, err := api.svc.Send(ctx.Request().Context(), convo.ID, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) markRead(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return errHttpNotFound
	}

	if err = api.svc.MarkRead(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "marking message read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *chatApi) unreadCount(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	count, err := api.svc.UnreadCount(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

func (api *chatApi) unreadMap(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	unread, err := api.svc.UnreadMap(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "mapping unread conversations")
	}
	return ctx.JSON(http.StatusOK, unread)
}

// getConversation resolves the :id param to a conversation the caller takes
// part in; outsiders get a 404, never a hint the thread exists.
func (api *chatApi) getConversation(ctx echo.Context) (chat.Conversation, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return chat.Conversation{}, errHttpNotFound
	}
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return chat.Conversation{}, errors.Wrap(err, "getting context user")
	}

	convo, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return chat.Conversation{}, err
	}
	if usr.ID != convo.UserID && usr.ID != convo.AdminID {
		return chat.Conversation{}, errHttpNotFound
	}
	return convo, nil
}

type (
	OpenConversationRequest struct {
		UserID int `json:"user_id"`
	}

	UnreadCountResponse struct {
		Count int `json:"count"`
	}
)
