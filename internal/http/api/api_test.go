package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caregrid/caregrid/internal/config"
	"github.com/caregrid/caregrid/internal/db"
	"github.com/caregrid/caregrid/internal/groups"
	"github.com/caregrid/caregrid/internal/models"
	"github.com/caregrid/caregrid/internal/ratelimit"
	"github.com/caregrid/caregrid/internal/security"
	"github.com/caregrid/caregrid/internal/settings"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testSecret = "api-test-secret"

var apiDBSeq atomic.Int64

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := fmt.Sprintf("api_%s_%d", strings.ReplaceAll(t.Name(), "/", "_"), apiDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	r := gin.New()
	svc := groups.NewService(conn)
	RegisterRoutes(r, conn, svc, config.JWTConfig{Secret: testSecret}, ratelimit.NewMemoryLimiter())
	return r, conn
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any, userID uint64) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, errSign := security.SignUserToken(testSecret, userID, time.Hour)
		if errSign != nil {
			t.Fatalf("sign token: %v", errSign)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), errDecode)
	}
	return out
}

func TestAuthMiddleware(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/v0/groups", nil, 0)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v0/groups", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d, want 401", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doRequest(t, r, http.MethodGet, "/healthz", nil, 0)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", w.Code)
	}
}

func TestGroupLifecycleOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodPost, "/v0/groups", gin.H{"name": "Ward HTTP", "max_members": 2}, 1)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	groupID := uint64(created["id"].(float64))

	// Issue an invitation and redeem it as another user.
	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/v0/groups/%d/invitations", groupID),
		gin.H{"email": "peer@clinic.test", "role": "member"}, 1)
	if w.Code != http.StatusCreated {
		t.Fatalf("invite: got %d body=%s", w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["token"].(string)
	if token == "" {
		t.Fatal("invite response should carry the redemption token")
	}

	w = doRequest(t, r, http.MethodPost, "/v0/invitations/accept", gin.H{"token": token}, 2)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: got %d body=%s", w.Code, w.Body.String())
	}

	// Replaying the token conflicts.
	w = doRequest(t, r, http.MethodPost, "/v0/invitations/accept", gin.H{"token": token}, 3)
	if w.Code != http.StatusConflict {
		t.Fatalf("re-accept: got %d, want 409", w.Code)
	}

	// The group is full now; another invitation conflicts.
	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/v0/groups/%d/invitations", groupID),
		gin.H{"email": "extra@clinic.test", "role": "member"}, 1)
	if w.Code != http.StatusConflict {
		t.Fatalf("invite into full group: got %d, want 409", w.Code)
	}

	// Non-admin management attempts are 403.
	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/v0/groups/%d", groupID), nil, 2)
	if w.Code != http.StatusForbidden {
		t.Fatalf("member delete: got %d, want 403", w.Code)
	}

	// Sole-admin self-removal is a conflict.
	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/v0/groups/%d/members/1", groupID), nil, 1)
	if w.Code != http.StatusConflict {
		t.Fatalf("sole admin removal: got %d, want 409", w.Code)
	}

	// Roster reads work for members.
	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/v0/groups/%d/members", groupID), nil, 2)
	if w.Code != http.StatusOK {
		t.Fatalf("list members: got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/v0/groups/%d", groupID), nil, 1)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d body=%s", w.Code, w.Body.String())
	}
	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/v0/groups/%d", groupID), nil, 1)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: got %d, want 404", w.Code)
	}
}

func TestPatientEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodPost, "/v0/groups", gin.H{"name": "Ward P"}, 1)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}
	groupID := uint64(decodeBody(t, w)["id"].(float64))

	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/v0/groups/%d/patients", groupID), gin.H{"patient_id": 42}, 1)
	if w.Code != http.StatusCreated {
		t.Fatalf("assign: got %d body=%s", w.Code, w.Body.String())
	}
	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/v0/groups/%d/patients", groupID), gin.H{"patient_id": 42}, 1)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate assign: got %d, want 409", w.Code)
	}
	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/v0/groups/%d/patients", groupID), gin.H{"patient_id": 43}, 9)
	if w.Code != http.StatusForbidden {
		t.Fatalf("outsider assign: got %d, want 403", w.Code)
	}

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/v0/groups/%d/patients/42", groupID), nil, 1)
	if w.Code != http.StatusNoContent {
		t.Fatalf("unassign: got %d", w.Code)
	}
	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/v0/groups/%d/patients/42", groupID), nil, 1)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unassign absent: got %d, want 404", w.Code)
	}
}

func TestInviteRateLimit(t *testing.T) {
	r, conn := newTestRouter(t)

	if errSave := conn.Create(&models.Setting{Key: settings.InviteRateLimitKey, Value: "2"}).Error; errSave != nil {
		t.Fatalf("save setting: %v", errSave)
	}

	w := doRequest(t, r, http.MethodPost, "/v0/groups", gin.H{"name": "Ward RL"}, 1)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}
	groupID := uint64(decodeBody(t, w)["id"].(float64))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/v0/groups/%d/invitations", groupID),
			gin.H{"email": fmt.Sprintf("u%d@clinic.test", i), "role": "member"}, 1)
		statuses = append(statuses, w.Code)
	}
	// Two fit in the window; the third may land in the next second on a
	// slow run, so only assert the limited path when it triggers.
	if statuses[0] != http.StatusCreated || statuses[1] != http.StatusCreated {
		t.Fatalf("first two invites should pass, got %v", statuses)
	}
	if statuses[2] != http.StatusCreated && statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("third invite: got %d", statuses[2])
	}
}

func TestValidationErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodPost, "/v0/groups", gin.H{"name": "   "}, 1)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank name: got %d, want 400", w.Code)
	}
	w = doRequest(t, r, http.MethodGet, "/v0/groups/abc", nil, 1)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: got %d, want 400", w.Code)
	}
	w = doRequest(t, r, http.MethodPost, "/v0/invitations/accept", gin.H{"token": ""}, 1)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty token: got %d, want 400", w.Code)
	}
	w = doRequest(t, r, http.MethodPost, "/v0/invitations/accept", gin.H{"token": "unknown"}, 1)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown token: got %d, want 404", w.Code)
	}
}
