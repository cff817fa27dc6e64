package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	. "github.com/stationhq/firewatch/apps/api/echo"
	"github.com/stationhq/firewatch/core/file"
	"github.com/stationhq/firewatch/core/user"
)

func seedFile(t *testing.T, env *testEnv, owner user.User, name string) file.File {
	t.Helper()
	f, err := env.fileSvc.Save(context.Background(), owner, file.Upload{
		Name: name,
		Mime: "application/pdf",
		Size: 4,
		Body: strings.NewReader("%PDF"),
	})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	return f
}

func TestFileQuery(t *testing.T) {
	env := setup(t)
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain1 := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	plain2 := createUser(t, env.usrRepo, "Jack", "Smith", "jack.smith@station.test", user.RoleUser, true)

	seedFile(t, env, plain1, "sick-note.pdf")
	seedFile(t, env, plain2, "leave-request.pdf")

	tests := []struct {
		httpTest
		wantLen int
	}{
		{
			httpTest: httpTest{
				name:     "admin sees the whole inbox",
				token:    getToken(t, admin),
				wantCode: http.StatusOK,
			},
			wantLen: 2,
		},
		{
			httpTest: httpTest{
				name:     "plain user sees only their own",
				token:    getToken(t, plain1),
				wantCode: http.StatusOK,
			},
			wantLen: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/files", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			var files []FileResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
				t.Fatalf("unmarshalling files failed: %v", err)
			}
			if len(files) != tt.wantLen {
				t.Fatalf("len(files) = %v; want %v", len(files), tt.wantLen)
			}
			for _, f := range files {
				if f.URL == "" {
					t.Errorf("file %v has no URL", f.ID)
				}
				if f.OriginalName == "" {
					t.Errorf("file %v has no original name", f.ID)
				}
			}
		})
	}
}

func TestFileRetrieve(t *testing.T) {
	env := setup(t)
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	owner := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	outsider := createUser(t, env.usrRepo, "Jack", "Smith", "jack.smith@station.test", user.RoleUser, true)

	f := seedFile(t, env, owner, "sick-note.pdf")

	tests := []httpTest{
		{
			name:     "owner fetches their file",
			path:     "/v1/files/" + itoa(f.ID),
			token:    getToken(t, owner),
			wantCode: http.StatusOK,
		},
		{
			name:     "admin fetches any file",
			path:     "/v1/files/" + itoa(f.ID),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
		},
		{
			name:     "outsider gets a 404",
			path:     "/v1/files/" + itoa(f.ID),
			token:    getToken(t, outsider),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "unknown file",
			path:     "/v1/files/999",
			token:    getToken(t, owner),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: file.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
