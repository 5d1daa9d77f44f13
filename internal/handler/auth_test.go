package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/sqlbay/sqlbay/internal/middleware"
	"github.com/sqlbay/sqlbay/internal/model"
	"github.com/sqlbay/sqlbay/internal/utils"
)

const validPassword = "Abc12345!"

func registerBody(email string) string {
	return `{"email":"` + email + `","password":"` + validPassword + `","passwordCheck":"` + validPassword + `"}`
}

func TestRegisterSuccess(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	events := &fakeEvents{}
	h := NewAuthHandler(testConfig(), users, events)

	rec := doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("Alice@Test.com"), 0, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["accessToken"] == "" || body["accessToken"] == nil {
		t.Fatal("expected an access token")
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", body["user"])
	}
	if user["email"] != "alice@test.com" {
		t.Fatalf("expected normalized email, got %v", user["email"])
	}
	if user["status"] != string(model.StatusActive) || user["provider"] != string(model.ProviderLocal) {
		t.Fatalf("unexpected account defaults: %v", user)
	}
	if strings.Contains(rec.Body.String(), "passwordHash") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatal("password hash leaked into the response")
	}

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			cookie = ck
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a session cookie")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}

	if len(events.events) != 1 || events.events[0].Type != "user.registered" {
		t.Fatalf("expected a user.registered event, got %+v", events.events)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(testConfig(), newFakeUserStore(), nil)

	body := `{"email":"a@b.com","password":"` + validPassword + `","passwordCheck":"Other123!"}`
	rec := doJSON(e, h.Register, http.MethodPost, "/user/register", body, 0, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", resp["code"])
	}
	if !strings.Contains(rec.Body.String(), "passwordCheck") {
		t.Fatalf("expected field detail for passwordCheck: %s", rec.Body.String())
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(testConfig(), newFakeUserStore(), nil)

	for _, pw := range []string{"short1!A", "alllowercase1!", "ALLUPPER1!", "NoSpecial123"} {
		body := `{"email":"a@b.com","password":"` + pw + `","passwordCheck":"` + pw + `"}`
		rec := doJSON(e, h.Register, http.MethodPost, "/user/register", body, 0, "")
		if pw == "short1!A" {
			// 8 chars with all classes is actually acceptable
			if rec.Code != http.StatusCreated {
				t.Fatalf("%q: expected 201, got %d: %s", pw, rec.Code, rec.Body.String())
			}
			continue
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", pw, rec.Code)
		}
	}
}

func TestRegisterDuplicateEmailAnyCasing(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	h := NewAuthHandler(testConfig(), users, nil)

	if rec := doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("alice@test.com"), 0, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first registration failed: %d", rec.Code)
	}
	rec := doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("ALICE@test.com"), 0, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["code"] != "EMAIL_IN_USE" {
		t.Fatalf("expected EMAIL_IN_USE, got %v", resp["code"])
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	h := NewAuthHandler(testConfig(), users, nil)
	doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("alice@test.com"), 0, "")

	wrongPw := doJSON(e, h.Login, http.MethodPost, "/user/login",
		`{"email":"alice@test.com","password":"Wrong123!"}`, 0, "")
	unknown := doJSON(e, h.Login, http.MethodPost, "/user/login",
		`{"email":"nobody@test.com","password":"Wrong123!"}`, 0, "")

	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPw.Code, unknown.Code)
	}
	a, b := decodeBody(t, wrongPw), decodeBody(t, unknown)
	if a["message"] != b["message"] || a["code"] != b["code"] {
		t.Fatalf("login failures leak information: %v vs %v", a, b)
	}
}

func TestLoginBannedAccount(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	h := NewAuthHandler(testConfig(), users, nil)
	doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("banned@test.com"), 0, "")

	u, _ := users.GetByEmail(context.Background(), "banned@test.com")
	u.Status = model.StatusBanned
	if err := users.Update(context.Background(), u); err != nil {
		t.Fatalf("fake update failed: %v", err)
	}

	rec := doJSON(e, h.Login, http.MethodPost, "/user/login",
		`{"email":"banned@test.com","password":"`+validPassword+`"}`, 0, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for banned account, got %d", rec.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	h := NewAuthHandler(testConfig(), users, nil)
	doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("alice@test.com"), 0, "")

	rec := doJSON(e, h.Login, http.MethodPost, "/user/login",
		`{"email":"alice@test.com","password":"`+validPassword+`"}`, 0, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["accessToken"].(string)
	claims, err := utils.VerifyAccessToken("test-secret", token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != 1 {
		t.Fatalf("expected subject 1, got %d", claims.UserID)
	}
}

func TestMeRequiresExistingUser(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	h := NewAuthHandler(testConfig(), users, nil)
	doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("alice@test.com"), 0, "")

	rec := doJSON(e, h.Me, http.MethodGet, "/user/me", "", 1, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Fatal("password hash leaked")
	}

	if rec := doJSON(e, h.Me, http.MethodGet, "/user/me", "", 99, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for vanished user, got %d", rec.Code)
	}
}

func TestUpdateMePasswordRules(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	h := NewAuthHandler(testConfig(), users, nil)
	doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("alice@test.com"), 0, "")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"only current", `{"currentPassword":"` + validPassword + `"}`, http.StatusBadRequest},
		{"only new", `{"newPassword":"Newpass123!"}`, http.StatusBadRequest},
		{"wrong current", `{"currentPassword":"Wrong123!","newPassword":"Newpass123!"}`, http.StatusBadRequest},
		{"identical new", `{"currentPassword":"` + validPassword + `","newPassword":"` + validPassword + `"}`, http.StatusBadRequest},
		{"valid change", `{"currentPassword":"` + validPassword + `","newPassword":"Newpass123!"}`, http.StatusOK},
	}
	for _, tc := range cases {
		rec := doJSON(e, h.UpdateMe, http.MethodPatch, "/user/me/update", tc.body, 1, "")
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}

	u, _ := users.GetByID(context.Background(), 1)
	if !utils.VerifyPassword(u.PasswordHash, "Newpass123!") {
		t.Fatal("password change did not persist")
	}
}

func TestUpdateMeEmailTaken(t *testing.T) {
	e := newTestEcho()
	users := newFakeUserStore()
	h := NewAuthHandler(testConfig(), users, nil)
	doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("alice@test.com"), 0, "")
	doJSON(e, h.Register, http.MethodPost, "/user/register", registerBody("bob@test.com"), 0, "")

	rec := doJSON(e, h.UpdateMe, http.MethodPatch, "/user/me/update", `{"email":"BOB@test.com"}`, 1, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(testConfig(), newFakeUserStore(), nil)

	rec := doJSON(e, h.Logout, http.MethodPost, "/user/logout", "", 1, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			if ck.Value == "" && ck.MaxAge < 0 {
				return
			}
		}
	}
	t.Fatal("expected an expired session cookie")
}
