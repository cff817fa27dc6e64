package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stationhq/firewatch/core/status"
	"github.com/stationhq/firewatch/core/user"
)

func TestStatusSubmit(t *testing.T) {
	env := setup(t)
	usr := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	token := getToken(t, usr)

	tests := []httpTest{
		{
			name:     "no token",
			body:     []byte(`{"status": "AVAILABLE"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "missing status",
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown status",
			body:     []byte(`{"status": "NAPPING"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "valid",
			body:     []byte(`{"status": "UNAVAILABLE", "comment": "on leave", "return_at": "2026-09-01T08:00:00Z"}`),
			token:    token,
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/status", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var ev status.Event
				if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
					t.Fatalf("unmarshalling event failed: %v", err)
				}
				if ev.UserID != usr.ID {
					t.Errorf("event UserID = %v; want %v", ev.UserID, usr.ID)
				}
				if ev.Status != status.Unavailable {
					t.Errorf("event Status = %v; want %v", ev.Status, status.Unavailable)
				}
				if ev.ReturnAt == nil {
					t.Error("expected a return date on the event")
				}
			}
		})
	}
}

func TestStatusToday(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)

	if _, err := env.statusSvc.Submit(ctx, plain, status.NewEvent{Status: status.Available}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if _, err := env.statusSvc.Submit(ctx, plain, status.NewEvent{Status: status.Intervention}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "plain user forbidden",
			token:    getToken(t, plain),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "admin sees the day's events newest first",
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/status/today", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var events []status.Event
				if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
					t.Fatalf("unmarshalling events failed: %v", err)
				}
				if len(events) != 2 {
					t.Fatalf("len(events) = %v; want 2", len(events))
				}
				if events[0].Status != status.Intervention {
					t.Errorf("first event Status = %v; want %v", events[0].Status, status.Intervention)
				}
			}
		})
	}
}

func TestStatusCurrent(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	token := getToken(t, usr)

	t.Run("never reported", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"status": null, "comment": null, "return_at": null}`),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/status/current", token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("after reporting", func(t *testing.T) {
		if _, err := env.statusSvc.Submit(ctx, usr, status.NewEvent{Status: status.Available, Comment: "at the station"}); err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"status": "AVAILABLE", "comment": "at the station", "return_at": null}`),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/status/current", token)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func TestStatusTeam(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	hidden := createUser(t, env.usrRepo, "Ghost", "Member", "ghost@station.test", user.RoleUser, false)
	alpha := createUser(t, env.usrRepo, "Al", "Alpha", "al.alpha@station.test", user.RoleUser, true)
	bravo := createUser(t, env.usrRepo, "Bo", "Bravo", "bo.bravo@station.test", user.RoleUser, true)
	charlie := createUser(t, env.usrRepo, "Cy", "Charlie", "cy.charlie@station.test", user.RoleUser, true)

	if _, err := env.statusSvc.Submit(ctx, bravo, status.NewEvent{Status: status.Available}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if _, err := env.statusSvc.Submit(ctx, alpha, status.NewEvent{Status: status.Unavailable}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	// the hidden member reports but must never surface in the team view
	if _, err := env.statusSvc.Submit(ctx, hidden, status.NewEvent{Status: status.Available}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	tt := httpTest{
		token:    getToken(t, alpha),
		wantCode: http.StatusOK,
		wantData: marchallObj(t, []status.TeamMember{
			{ID: bravo.ID, FirstName: "Bo", LastName: "Bravo", Status: status.Available},
			{ID: alpha.ID, FirstName: "Al", LastName: "Alpha", Status: status.Unavailable},
			{ID: charlie.ID, FirstName: "Cy", LastName: "Charlie", Status: status.Absent},
		}),
	}
	req, rec := newAuthRequest(http.MethodGet, "/v1/status/team", tt.token)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func TestDailyReport(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := createUser(t, env.usrRepo, "Jane", "Chief", "jane.chief@station.test", user.RoleAdmin, true)
	plain := createUser(t, env.usrRepo, "John", "Doe", "john.doe@station.test", user.RoleUser, true)
	adminToken := getToken(t, admin)

	if _, err := env.statusSvc.Submit(ctx, plain, status.NewEvent{Status: status.Available}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if _, err := env.statusSvc.Submit(ctx, plain, status.NewEvent{Status: status.Intervention}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "plain user forbidden",
			path:     "/v1/reports/daily",
			token:    getToken(t, plain),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "bad date",
			path:     "/v1/reports/daily?date=not-a-date",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad timezone",
			path:     "/v1/reports/daily?tz=Mars%2FOlympus",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "today's report",
			path:     "/v1/reports/daily",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var report status.Report
				if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
					t.Fatalf("unmarshalling report failed: %v", err)
				}
				if len(report.Items) != 2 {
					t.Errorf("len(report.Items) = %v; want 2", len(report.Items))
				}
				// the superseding event wins the day's tally
				if report.Counts.Intervention != 1 || report.Counts.Available != 0 {
					t.Errorf("counts = %+v; want a single INTERVENTION", report.Counts)
				}
			}
		})
	}
}
