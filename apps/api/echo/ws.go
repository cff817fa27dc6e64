package echoapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	realtimesvc "github.com/stationhq/firewatch/services/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same-origin policy is enforced upstream by the frontend proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

func registerWsAPI(g *echo.Group, wsJWT echo.MiddlewareFunc, hub *realtimesvc.Hub) {
	api := wsApi{hub: hub}
	g.GET("/ws", api.connect, wsJWT)
}

type wsApi struct {
	hub *realtimesvc.Hub
}

// connect upgrades the request and hands the socket to the hub. The claims
// place the socket in its user room and, for admins, the admins room;
// conversation rooms are joined over the socket itself.
func (api *wsApi) connect(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := claims.UserID()
	if err != nil {
		return errUnauthorized
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}

	client := api.hub.NewClient(conn, id, claims.IsAdmin)
	api.hub.Register <- client
	go client.WritePump()
	go client.ReadPump()
	return nil
}
