package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/stationhq/firewatch/apps/api/echo"
	"github.com/stationhq/firewatch/core/chat"
	"github.com/stationhq/firewatch/core/user"
)

func TestConversationOpen(t *testing.T) {
	env := setup(t)
	admin1 := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	admin2 := createUser(t, env.usrRepo, "Mark", "Deputy", "mark.deputy@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	plainToken := getToken(t, plain)

	t.Run("plain user lands on the first admin", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/conversations", plainToken, []byte("{}"))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}

		var convo chat.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &convo); err != nil {
			t.Fatalf("unmarshalling conversation failed: %v", err)
		}
		if convo.UserID != plain.ID || convo.AdminID != admin1.ID {
			t.Errorf("conversation pair = (%v, %v); want (%v, %v)", convo.UserID, convo.AdminID, plain.ID, admin1.ID)
		}

		// reopening must land on the same thread
		req, rec = newAuthRequest(http.MethodPost, "/v1/conversations", plainToken, []byte("{}"))
		env.app.ServeHTTP(rec, req)
		var again chat.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &again); err != nil {
			t.Fatalf("unmarshalling conversation failed: %v", err)
		}
		if again.ID != convo.ID {
			t.Errorf("reopened conversation ID = %v; want %v", again.ID, convo.ID)
		}
	})

	t.Run("admin opens a thread with a chosen user", func(t *testing.T) {
		body := marchallObj(t, OpenConversationRequest{UserID: plain.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/conversations", getToken(t, admin2), body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}

		var convo chat.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &convo); err != nil {
			t.Fatalf("unmarshalling conversation failed: %v", err)
		}
		if convo.UserID != plain.ID || convo.AdminID != admin2.ID {
			t.Errorf("conversation pair = (%v, %v); want (%v, %v)", convo.UserID, convo.AdminID, plain.ID, admin2.ID)
		}
	})

	t.Run("admin opening with an unknown user gets a 404", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		}
		body := marchallObj(t, OpenConversationRequest{UserID: 999})
		req, rec := newAuthRequest(http.MethodPost, "/v1/conversations", getToken(t, admin1), body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestConversationOpenNoAdmin(t *testing.T) {
	env := setup(t)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)

	tt := httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: chat.ErrNoAdminAvailable.Error()}),
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/conversations", getToken(t, plain), []byte("{}"))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func TestConversationMessages(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	outsider := createUser(t, env.usrRepo, "Jack", "Smith", "jack.smith@station.test", user.RoleUser, true)

	convo, err := env.chatSvc.GetOrCreateForUser(ctx, plain.ID)
	if err != nil {
		t.Fatalf("GetOrCreateForUser() failed: %v", err)
	}

	t.Run("send and list", func(t *testing.T) {
		path := "/v1/conversations/" + itoa(convo.ID) + "/messages"

		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, plain), []byte(`{"content": "hello chief"}`))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
		}
		req, rec = newAuthRequest(http.MethodPost, path, getToken(t, admin), []byte(`{"content": "hello john"}`))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, path, getToken(t, plain))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var msgs []chat.Message
		if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("unmarshalling messages failed: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("len(msgs) = %v; want 2", len(msgs))
		}
		// chronological order
		if msgs[0].Content != "hello chief" || msgs[1].Content != "hello john" {
			t.Errorf("unexpected message order: %v, %v", msgs[0].Content, msgs[1].Content)
		}
	})

	t.Run("empty content rejected", func(t *testing.T) {
		path := "/v1/conversations/" + itoa(convo.ID) + "/messages"
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, plain), []byte(`{"content": ""}`))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("outsider gets a 404", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		}
		path := "/v1/conversations/" + itoa(convo.ID) + "/messages"
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, outsider))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: chat.ErrConversationNotFound.Error()}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/conversations/999/messages", getToken(t, plain))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestMessageRead(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)

	convo, err := env.chatSvc.GetOrCreateForUser(ctx, plain.ID)
	if err != nil {
		t.Fatalf("GetOrCreateForUser() failed: %v", err)
	}
	msg, err := env.chatSvc.Send(ctx, convo.ID, plain.ID, chat.NewMessage{Content: "hello"})
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "mark read",
			path:     "/v1/messages/" + itoa(msg.ID) + "/read",
			token:    getToken(t, plain),
			wantCode: http.StatusNoContent,
		},
		{
			name:     "marking again is a no-op",
			path:     "/v1/messages/" + itoa(msg.ID) + "/read",
			token:    getToken(t, plain),
			wantCode: http.StatusNoContent,
		},
		{
			name:     "unknown message",
			path:     "/v1/messages/999/read",
			token:    getToken(t, plain),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: chat.ErrMessageNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUnreadEndpoints(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	adminToken := getToken(t, admin)

	t.Run("fresh account has nothing unread", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, UnreadCountResponse{Count: 0}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages/unread-count", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	convo, err := env.chatSvc.GetOrCreateForUser(ctx, plain.ID)
	if err != nil {
		t.Fatalf("GetOrCreateForUser() failed: %v", err)
	}
	if _, err = env.chatSvc.Send(ctx, convo.ID, plain.ID, chat.NewMessage{Content: "hello"}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	t.Run("recipient sees the unread message", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, UnreadCountResponse{Count: 1}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages/unread-count", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("sender does not", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, UnreadCountResponse{Count: 0}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages/unread-count", getToken(t, plain))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unread map flags the conversation", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]bool{itoa(convo.ID): true}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages/unread-map", adminToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestConversationList(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain1 := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	plain2 := createUser(t, env.usrRepo, "Jack", "Smith", "jack.smith@station.test", user.RoleUser, true)

	convo1, err := env.chatSvc.GetOrCreateForUser(ctx, plain1.ID)
	if err != nil {
		t.Fatalf("GetOrCreateForUser() failed: %v", err)
	}
	convo2, err := env.chatSvc.GetOrCreateForUser(ctx, plain2.ID)
	if err != nil {
		t.Fatalf("GetOrCreateForUser() failed: %v", err)
	}
	// activity bumps convo1 above convo2
	if _, err = env.chatSvc.Send(ctx, convo1.ID, plain1.ID, chat.NewMessage{Content: "hello"}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	t.Run("admin sees all their threads, last active first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/conversations", getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
		}
		var convos []chat.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &convos); err != nil {
			t.Fatalf("unmarshalling conversations failed: %v", err)
		}
		if len(convos) != 2 {
			t.Fatalf("len(convos) = %v; want 2", len(convos))
		}
		if convos[0].ID != convo1.ID || convos[1].ID != convo2.ID {
			t.Errorf("conversation order = %v, %v; want %v, %v", convos[0].ID, convos[1].ID, convo1.ID, convo2.ID)
		}
	})

	t.Run("plain user sees only their own thread", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/conversations", getToken(t, plain2))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		var convos []chat.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &convos); err != nil {
			t.Fatalf("unmarshalling conversations failed: %v", err)
		}
		if len(convos) != 1 || convos[0].ID != convo2.ID {
			t.Errorf("convos = %+v; want only conversation %v", convos, convo2.ID)
		}
	})
}
