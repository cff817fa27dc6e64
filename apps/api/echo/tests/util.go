package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/stationhq/firewatch/apps/api/echo"
	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/chat"
	"github.com/stationhq/firewatch/core/file"
	"github.com/stationhq/firewatch/core/status"
	"github.com/stationhq/firewatch/core/user"
	emailsvc "github.com/stationhq/firewatch/services/email"
	realtimesvc "github.com/stationhq/firewatch/services/realtime"
	dummydb "github.com/stationhq/firewatch/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app       Server
	usrRepo   user.Repository
	statusSvc *status.Service
	chatSvc   *chat.Service
	fileSvc   *file.Service
	hub       *realtimesvc.Hub
}

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

type nopStorage struct{}

func (nopStorage) Save(ctx context.Context, prefix string, up file.Upload) (string, error) {
	return prefix + "/deadbeef", nil
}
func (nopStorage) Remove(ctx context.Context, key string) error { return nil }
func (nopStorage) PublicURL(key string) string                  { return "http://files.test/" + key }

func setup(t *testing.T) *testEnv {
	t.Helper()
	core.Conf.TestMode = true
	core.Conf.Debug = false

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)

	logger := testLogger{}
	hub := realtimesvc.NewHub(logger)
	go hub.Run()

	mailSvc := emailsvc.NewConsoleService()
	usrSvc := user.NewService(usrRepo, mailSvc)
	statusSvc := status.NewService(dummydb.NewStatusRepository(db), usrRepo, hub)
	chatSvc := chat.NewService(dummydb.NewChatRepository(db), usrRepo, hub, logger)
	fileSvc := file.NewService(dummydb.NewFileRepository(db), nopStorage{}, hub)

	app := NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Logger:    logger,
			UserSvc:   usrSvc,
			StatusSvc: statusSvc,
			ChatSvc:   chatSvc,
			FileSvc:   fileSvc,
			Hub:       hub,
		},
	)
	return &testEnv{app: app, usrRepo: usrRepo, statusSvc: statusSvc, chatSvc: chatSvc, fileSvc: fileSvc, hub: hub}
}

func createUser(t *testing.T, repo user.Repository, first, last, email, role string, visible bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		FirstName:     first,
		LastName:      last,
		Email:         email,
		Role:          role,
		VisibleInList: visible,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := usr.SetPassword("Str0ng!pwd"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func itoa(id int) string { return strconv.Itoa(id) }

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
