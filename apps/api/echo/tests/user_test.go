package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stationhq/firewatch/core/user"
)

func TestLogin(t *testing.T) {
	env := setup(t)
	createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email": "nobody@station.test", "password": "whatever"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email": "john.doe@station.test", "password": "wrong"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "valid credentials",
			body:     []byte(`{"email": "John.Doe@station.test", "password": "Str0ng!pwd"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling login response failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token, got none")
				}
			}
		})
	}
}

func TestUserMe(t *testing.T) {
	env := setup(t)
	usr := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	token := getToken(t, usr)

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "authed",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, usr),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserCreate(t *testing.T) {
	env := setup(t)
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	adminToken := getToken(t, admin)
	plainToken := getToken(t, plain)

	valid := []byte(`{
		"first_name": "New",
		"last_name": "Guy",
		"email": "new.guy@station.test",
		"grade": "Sergeant",
		"role": "user",
		"password": "Str0ng!pwd"
	}`)

	tests := []httpTest{
		{
			name:     "no token",
			body:     valid,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "plain user forbidden",
			body:     valid,
			token:    plainToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "super_admin not assignable",
			body:     []byte(`{"first_name": "X", "last_name": "Y", "email": "x.y@station.test", "role": "super_admin", "password": "Str0ng!pwd"}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "weak password",
			body:     []byte(`{"first_name": "X", "last_name": "Y", "email": "x.y@station.test", "role": "user", "password": "abc"}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "admin creates user",
			body:     valid,
			token:    adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate email rejected",
			body:     valid,
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserQuery(t *testing.T) {
	env := setup(t)
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	// super admins are hidden from user management
	createUser(t, env.usrRepo, "Root", "Seed", "root@station.test", user.RoleSuperAdmin, false)

	tests := []httpTest{
		{
			name:     "plain user forbidden",
			token:    getToken(t, plain),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "admin lists users",
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []user.User{admin, plain}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserQueryRoles(t *testing.T) {
	env := setup(t)
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)

	tt := httpTest{
		name:     "assignable roles",
		token:    getToken(t, admin),
		wantCode: http.StatusOK,
		wantData: marchallObj(t, user.AssignableRoles),
	}
	req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", tt.token)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func TestUserUpdate(t *testing.T) {
	env := setup(t)
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	other := createUser(t, env.usrRepo, "Jack", "Smith", "jack.smith@station.test", user.RoleUser, true)
	adminToken := getToken(t, admin)
	plainToken := getToken(t, plain)

	tests := []struct {
		httpTest
		userID int
	}{
		{
			httpTest: httpTest{
				name:     "plain user cannot edit others",
				body:     []byte(`{"first_name": "Hacked"}`),
				token:    plainToken,
				wantCode: http.StatusForbidden,
			},
			userID: other.ID,
		},
		{
			httpTest: httpTest{
				name:     "plain user cannot change role",
				body:     []byte(`{"role": "admin"}`),
				token:    plainToken,
				wantCode: http.StatusForbidden,
			},
			userID: plain.ID,
		},
		{
			httpTest: httpTest{
				name:     "plain user cannot change visibility",
				body:     []byte(`{"visible_in_list": false}`),
				token:    plainToken,
				wantCode: http.StatusForbidden,
			},
			userID: plain.ID,
		},
		{
			httpTest: httpTest{
				name:     "plain user edits own name",
				body:     []byte(`{"first_name": "Johnny"}`),
				token:    plainToken,
				wantCode: http.StatusOK,
			},
			userID: plain.ID,
		},
		{
			httpTest: httpTest{
				name:     "admin promotes user",
				body:     []byte(`{"role": "admin"}`),
				token:    adminToken,
				wantCode: http.StatusOK,
			},
			userID: other.ID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/v1/users/" + itoa(tt.userID)
			req, rec := newAuthRequest(http.MethodPut, path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			if tt.wantCode == http.StatusOK {
				var got user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling user failed: %v", err)
				}
				if got.ID != tt.userID {
					t.Errorf("updated user ID = %v; want %v", got.ID, tt.userID)
				}
			}
		})
	}
}
