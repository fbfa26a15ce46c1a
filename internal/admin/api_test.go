package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/store"
)

const (
	testAdmin    = "root"
	testPassword = "correct horse"
	testToken    = "session-token-1"
)

type testEnv struct {
	handler http.Handler
	hook    *logtest.Hook

	categories   *fakeCategories
	coupons      *fakeCoupons
	referrals    *fakeReferrals
	settings     *fakeSettings
	interactions *fakeInteractions
	stats        *fakeStats
	accounts     *fakeAccounts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	prevToken := newToken
	newToken = func() (string, error) { return testToken, nil }
	t.Cleanup(func() { newToken = prevToken })

	logger, hook := logtest.NewNullLogger()
	env := &testEnv{
		hook:         hook,
		categories:   &fakeCategories{},
		coupons:      &fakeCoupons{},
		referrals:    &fakeReferrals{},
		settings:     &fakeSettings{},
		interactions: &fakeInteractions{},
		stats:        &fakeStats{},
		accounts: &fakeAccounts{
			users:    map[string]domain.AdminUser{testAdmin: {Username: testAdmin, PasswordHash: string(hash), IsActive: true}},
			sessions: map[string]string{},
		},
	}

	api, err := NewAPI(Dependencies{
		Categories:   env.categories,
		Coupons:      env.coupons,
		Referrals:    env.referrals,
		Settings:     env.settings,
		Interactions: env.interactions,
		Stats:        env.stats,
		Accounts:     env.accounts,
	},
		WithLogger(logrus.NewEntry(logger)),
		WithSecureCookies(true),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("NewAPI returned error: %v", err)
	}

	env.handler = api.Routes()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/login", fmt.Sprintf(`{"username":%q,"password":%q}`, testAdmin, testPassword), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rr.Code, rr.Body.String())
	}

	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("login did not set %s cookie", SessionCookie)
	return nil
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

func TestNewAPIRequiresDependencies(t *testing.T) {
	if _, err := NewAPI(Dependencies{}); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
}

func TestGatedRoutesRejectMissingOrUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{"/check", "/categories", "/coupons", "/referrals", "/settings", "/stats", "/analytics", "/referrals/r1/qr.png"}
	cookies := []*http.Cookie{nil, {Name: SessionCookie, Value: "forged"}}

	for _, path := range paths {
		for _, cookie := range cookies {
			rr := env.do(t, http.MethodGet, path, "", cookie)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("GET %s (cookie %v): expected 401, got %d", path, cookie, rr.Code)
			}
			if body := strings.TrimSpace(rr.Body.String()); body != `{"error":"Unauthorized"}` {
				t.Fatalf("GET %s: unexpected body %s", path, body)
			}
		}
	}
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	cookie := env.login(t)

	if cookie.Value != testToken {
		t.Fatalf("expected token %q, got %q", testToken, cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes %+v", cookie)
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("expected 7 day max age, got %d", cookie.MaxAge)
	}
	if env.accounts.sessions[testToken] != testAdmin {
		t.Fatalf("expected session to be persisted, got %v", env.accounts.sessions)
	}

	rr := env.do(t, http.MethodGet, "/check", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /check, got %d", rr.Code)
	}
	var body map[string]interface{}
	decode(t, rr, &body)
	if body["authenticated"] != true || body["username"] != testAdmin {
		t.Fatalf("unexpected /check body %v", body)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrong password", body: `{"username":"root","password":"nope"}`, want: http.StatusUnauthorized},
		{name: "unknown user", body: `{"username":"ghost","password":"x"}`, want: http.StatusUnauthorized},
		{name: "missing fields", body: `{"username":"root"}`, want: http.StatusBadRequest},
		{name: "malformed", body: `{`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/login", tt.body, nil)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}

	if len(env.accounts.sessions) != 0 {
		t.Fatalf("expected no sessions, got %v", env.accounts.sessions)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	rr := env.do(t, http.MethodPost, "/logout", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected session cookie to be cleared")
	}

	if rr := env.do(t, http.MethodGet, "/check", "", cookie); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rr.Code)
	}
}

func TestCreateCouponRequiresExistingCategory(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	rr := env.do(t, http.MethodPost, "/coupons", `{"category_id":"pw_batches","code":"PW10"}`, cookie)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rr.Code)
	}
	if len(env.coupons.items) != 0 {
		t.Fatalf("expected no coupon to be created")
	}

	env.categories.items = []domain.Category{{ID: "pw_batches", Name: "PW Batches", IsActive: true}}

	rr = env.do(t, http.MethodPost, "/coupons", `{"category_id":"pw_batches","code":" PW10 ","discount":"10%","description":"JEE batch"}`, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created domain.Coupon
	decode(t, rr, &created)
	if created.Code != "PW10" || !created.IsActive || created.ID == "" {
		t.Fatalf("unexpected created coupon %+v", created)
	}

	if entry := env.hook.LastEntry(); entry == nil || entry.Data["event"] != "admin_change" || entry.Data["admin"] != testAdmin {
		t.Fatalf("expected admin_change audit log, got %+v", entry)
	}
}

func TestCouponUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.categories.items = []domain.Category{{ID: "pw_store", Name: "Store", IsActive: true}}
	env.coupons.items = []domain.Coupon{{ID: "c1", CategoryID: "pw_store", Code: "OLD", IsActive: true}}

	rr := env.do(t, http.MethodPut, "/coupons/c1", `{"category_id":"pw_store","code":"NEW","is_active":false}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if env.coupons.items[0].Code != "NEW" || env.coupons.items[0].IsActive {
		t.Fatalf("expected coupon to be updated, got %+v", env.coupons.items[0])
	}

	if rr := env.do(t, http.MethodPut, "/coupons/missing", `{"category_id":"pw_store","code":"X"}`, cookie); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing coupon, got %d", rr.Code)
	}

	if rr := env.do(t, http.MethodDelete, "/coupons/c1", "", cookie); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rr.Code)
	}
	if len(env.coupons.items) != 0 {
		t.Fatalf("expected coupon to be removed")
	}
	if rr := env.do(t, http.MethodDelete, "/coupons/c1", "", cookie); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestCategoryValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	if rr := env.do(t, http.MethodPost, "/categories", `{"id":"jee","name":"JEE","parent_id":"nowhere"}`, cookie); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown parent, got %d", rr.Code)
	}

	if rr := env.do(t, http.MethodPost, "/categories", `{"id":"jee","name":""}`, cookie); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid category, got %d", rr.Code)
	}

	if rr := env.do(t, http.MethodPost, "/categories", `{"id":"jee","name":"JEE","bogus":1}`, cookie); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rr.Code)
	}

	rr := env.do(t, http.MethodPost, "/categories", `{"id":"jee","name":"JEE","emoji":"🎯","parent_id":""}`, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if env.categories.items[0].ParentID != nil {
		t.Fatalf("expected blank parent to become top-level, got %v", *env.categories.items[0].ParentID)
	}

	rr = env.do(t, http.MethodPost, "/categories", `{"id":"jee_2025","name":"2025","parent_id":"jee"}`, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 for child, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/categories", "", cookie)
	var listed []domain.Category
	decode(t, rr, &listed)
	if len(listed) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(listed))
	}
}

func TestDeleteCategoryKeepsReferencedRows(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	pw := "pw"
	env.categories.items = []domain.Category{
		{ID: "pw", Name: "PW", IsActive: true},
		{ID: "pw_store", Name: "Store", ParentID: &pw, IsActive: true},
	}
	env.coupons.items = []domain.Coupon{{ID: "c1", CategoryID: "pw_store", Code: "STORE1", IsActive: true}}

	if rr := env.do(t, http.MethodDelete, "/categories/pw_store", "", cookie); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while coupons reference the category, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/categories/pw", "", cookie); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while subcategories reference the category, got %d", rr.Code)
	}
	if len(env.categories.items) != 2 {
		t.Fatalf("expected both categories to survive, got %d", len(env.categories.items))
	}

	env.coupons.items = nil
	if rr := env.do(t, http.MethodDelete, "/categories/pw_store", "", cookie); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 once the category is empty, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := env.do(t, http.MethodDelete, "/categories/pw", "", cookie); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 once the children are gone, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(env.categories.items) != 0 {
		t.Fatalf("expected categories to be removed, got %+v", env.categories.items)
	}
}

func TestUpdateCategoryRejectsParentLoops(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	a, b := "a", "b"
	env.categories.items = []domain.Category{
		{ID: "a", Name: "A", IsActive: true},
		{ID: "b", Name: "B", ParentID: &a, IsActive: true},
		{ID: "c", Name: "C", ParentID: &b, IsActive: true},
	}

	cases := []struct {
		name string
		path string
		body string
	}{
		{name: "self", path: "/categories/a", body: `{"name":"A","parent_id":"a"}`},
		{name: "direct child", path: "/categories/a", body: `{"name":"A","parent_id":"b"}`},
		{name: "grandchild", path: "/categories/a", body: `{"name":"A","parent_id":"c"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := env.do(t, http.MethodPut, tc.path, tc.body, cookie); rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if env.categories.items[0].ParentID != nil {
				t.Fatalf("expected a to stay top-level, got parent %q", *env.categories.items[0].ParentID)
			}
		})
	}

	if rr := env.do(t, http.MethodPut, "/categories/c", `{"name":"C","parent_id":"a"}`, cookie); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when moving c under a, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestReferralQRCode(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.referrals.items = []domain.Referral{
		{ID: "r1", Name: "Paytm", ReferralCode: "ABC", Link: "https://example.com/ref/ABC", IsActive: true},
		{ID: "r2", Name: "NoLink", ReferralCode: "XYZ", IsActive: true},
	}

	rr := env.do(t, http.MethodGet, "/referrals/r1/qr.png", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG signature")
	}

	if rr := env.do(t, http.MethodGet, "/referrals/r2/qr.png", "", cookie); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for referral without link, got %d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/referrals/nope/qr.png", "", cookie); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown referral, got %d", rr.Code)
	}
}

func TestReferralCRUD(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	if rr := env.do(t, http.MethodPost, "/referrals", `{"name":"Paytm"}`, cookie); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing code, got %d", rr.Code)
	}

	rr := env.do(t, http.MethodPost, "/referrals", `{"name":"Paytm","referral_code":"ABC","emoji":"💸"}`, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var created domain.Referral
	decode(t, rr, &created)

	if rr := env.do(t, http.MethodPut, "/referrals/"+created.ID, `{"name":"Paytm","referral_code":"DEF"}`, cookie); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", rr.Code)
	}
	if env.referrals.items[0].ReferralCode != "DEF" {
		t.Fatalf("expected referral code to be updated")
	}

	if rr := env.do(t, http.MethodDelete, "/referrals/"+created.ID, "", cookie); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rr.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	rr := env.do(t, http.MethodGet, "/settings", "", cookie)
	var initial domain.Settings
	decode(t, rr, &initial)
	if initial != domain.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", initial)
	}

	for _, body := range []string{`{"unknown":"x"}`, `{"support_mode":"email"}`, `{}`} {
		if rr := env.do(t, http.MethodPut, "/settings", body, cookie); rr.Code != http.StatusBadRequest {
			t.Fatalf("PUT %s: expected 400, got %d", body, rr.Code)
		}
	}
	if len(env.settings.rows) != 0 {
		t.Fatalf("expected rejected updates to write nothing, got %v", env.settings.rows)
	}

	rr = env.do(t, http.MethodPut, "/settings", `{"support_mode":"link","admin_username":"@helpdesk","greeting_message":"Hi {first_name}"}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var updated domain.Settings
	decode(t, rr, &updated)
	want := domain.Settings{GreetingMessage: "Hi {first_name}", AdminUsername: "helpdesk", SupportMode: domain.SupportModeLink}
	if updated != want {
		t.Fatalf("expected %+v, got %+v", want, updated)
	}
}

func TestStatsAndAnalytics(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.stats.summary = store.Summary{TotalCoupons: 4, ActiveCoupons: 3, TotalUsers: 2, TodayInteractions: 9}
	env.stats.top = []domain.ActionCount{{Action: "start", Count: 5}}
	env.interactions.items = []domain.Interaction{{TelegramID: 1, Action: "start"}}

	rr := env.do(t, http.MethodGet, "/stats", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"total_coupons":4,"active_coupons":3,"total_users":2,"today_interactions":9}` {
		t.Fatalf("unexpected stats body %s", body)
	}
	if !env.stats.summarizedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected injected clock, got %v", env.stats.summarizedAt)
	}

	rr = env.do(t, http.MethodGet, "/analytics", "", cookie)
	var analytics analyticsResponse
	decode(t, rr, &analytics)
	if len(analytics.Recent) != 1 || len(analytics.TopActions) != 1 {
		t.Fatalf("unexpected analytics %+v", analytics)
	}
	if env.interactions.limit != 50 || env.stats.topLimit != 10 {
		t.Fatalf("expected limits 50/10, got %d/%d", env.interactions.limit, env.stats.topLimit)
	}
}

func TestStoreFailuresReturn500(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.coupons.err = errors.New("mongo unavailable")

	rr := env.do(t, http.MethodGet, "/coupons", "", cookie)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "mongo") {
		t.Fatalf("expected internal error details to stay out of the response, got %s", rr.Body.String())
	}
	if entry := env.hook.LastEntry(); entry == nil || entry.Data["event"] != "admin_store_error" {
		t.Fatalf("expected admin_store_error log, got %+v", entry)
	}
}

type fakeCategories struct {
	items []domain.Category
}

func (f *fakeCategories) List(context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), f.items...), nil
}

func (f *fakeCategories) Get(_ context.Context, id string) (domain.Category, error) {
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrNotFound
}

func (f *fakeCategories) Create(_ context.Context, c domain.Category) (domain.Category, error) {
	if c.Name == "" {
		return domain.Category{}, fmt.Errorf("%w: name is required", domain.ErrInvalid)
	}
	f.items = append(f.items, c)
	return c, nil
}

func (f *fakeCategories) Update(_ context.Context, id string, c domain.Category) (domain.Category, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			c.ID = id
			f.items[i] = c
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrNotFound
}

func (f *fakeCategories) Delete(_ context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeCategories) CountChildren(_ context.Context, id string) (int64, error) {
	var n int64
	for _, c := range f.items {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

type fakeCoupons struct {
	items []domain.Coupon
	err   error
}

func (f *fakeCoupons) List(context.Context) ([]domain.Coupon, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Coupon(nil), f.items...), nil
}

func (f *fakeCoupons) Create(_ context.Context, c domain.Coupon) (domain.Coupon, error) {
	c.ID = fmt.Sprintf("c%d", len(f.items)+1)
	f.items = append(f.items, c)
	return c, nil
}

func (f *fakeCoupons) Update(_ context.Context, id string, c domain.Coupon) (domain.Coupon, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			c.ID = id
			f.items[i] = c
			return c, nil
		}
	}
	return domain.Coupon{}, domain.ErrNotFound
}

func (f *fakeCoupons) Delete(_ context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeCoupons) CountByCategory(_ context.Context, categoryID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, c := range f.items {
		if c.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

type fakeReferrals struct {
	items []domain.Referral
}

func (f *fakeReferrals) List(context.Context) ([]domain.Referral, error) {
	return append([]domain.Referral(nil), f.items...), nil
}

func (f *fakeReferrals) Get(_ context.Context, id string) (domain.Referral, error) {
	for _, r := range f.items {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Referral{}, domain.ErrNotFound
}

func (f *fakeReferrals) Create(_ context.Context, r domain.Referral) (domain.Referral, error) {
	if r.Name == "" || r.ReferralCode == "" {
		return domain.Referral{}, fmt.Errorf("%w: name and referral_code are required", domain.ErrInvalid)
	}
	r.ID = fmt.Sprintf("r%d", len(f.items)+1)
	f.items = append(f.items, r)
	return r, nil
}

func (f *fakeReferrals) Update(_ context.Context, id string, r domain.Referral) (domain.Referral, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			r.ID = id
			f.items[i] = r
			return r, nil
		}
	}
	return domain.Referral{}, domain.ErrNotFound
}

func (f *fakeReferrals) Delete(_ context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeSettings struct {
	rows []domain.Setting
}

func (f *fakeSettings) All(context.Context) ([]domain.Setting, error) {
	return append([]domain.Setting(nil), f.rows...), nil
}

func (f *fakeSettings) Upsert(_ context.Context, key, value string) error {
	for i := range f.rows {
		if f.rows[i].Key == key {
			f.rows[i].Value = value
			return nil
		}
	}
	f.rows = append(f.rows, domain.Setting{Key: key, Value: value})
	return nil
}

type fakeInteractions struct {
	items []domain.Interaction
	limit int64
}

func (f *fakeInteractions) Recent(_ context.Context, limit int64) ([]domain.Interaction, error) {
	f.limit = limit
	return f.items, nil
}

type fakeStats struct {
	summary      store.Summary
	summarizedAt time.Time
	top          []domain.ActionCount
	topLimit     int64
}

func (f *fakeStats) Summarize(_ context.Context, now time.Time) (store.Summary, error) {
	f.summarizedAt = now
	return f.summary, nil
}

func (f *fakeStats) TopActions(_ context.Context, limit int64) ([]domain.ActionCount, error) {
	f.topLimit = limit
	return f.top, nil
}

type fakeAccounts struct {
	users    map[string]domain.AdminUser
	sessions map[string]string
}

func (f *fakeAccounts) FindActive(_ context.Context, username string) (domain.AdminUser, error) {
	user, ok := f.users[username]
	if !ok || !user.IsActive {
		return domain.AdminUser{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeAccounts) CreateSession(_ context.Context, token, username string, ttl time.Duration) (domain.AdminSession, error) {
	f.sessions[token] = username
	return domain.AdminSession{Token: token, Username: username, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (f *fakeAccounts) SessionUsername(_ context.Context, token string) (string, error) {
	username, ok := f.sessions[token]
	if !ok {
		return "", domain.ErrNotFound
	}
	return username, nil
}

func (f *fakeAccounts) DeleteSession(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}
