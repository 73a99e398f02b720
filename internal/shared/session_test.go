package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronak-creation/storefront/internal/shared"
	_ "github.com/ronak-creation/storefront/testing"
)

func newSessions(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "sid", time.Hour, false), mr
}

func setCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	return (&http.Response{Header: rec.Header()}).Cookies()
}

func requestWith(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestUntouchedSessionIsNotPersisted(t *testing.T) {
	sm, mr := newSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWith(nil))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	assert.Empty(t, setCookies(rec))
	assert.Empty(t, mr.Keys())
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWith(nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	sess.SetUser(shared.AdminUser)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Saved"})
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookies := setCookies(rec)
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	loaded, err := sm.Load(ctx, requestWith(cookies))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "v", loaded.Get("k"))
	assert.True(t, loaded.IsAdmin())
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Saved", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestUnknownSessionIDIsReplaced(t *testing.T) {
	sm, _ := newSessions(t)

	sess, err := sm.Load(context.Background(), requestWith([]*http.Cookie{{Name: "sid", Value: "attacker-chosen"}}))
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", sess.ID)
	assert.False(t, sess.IsAdmin())
}

func TestRenewDropsOldRecord(t *testing.T) {
	sm, mr := newSessions(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWith(nil))
	sess.Set("k", "v")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	oldID := sess.ID

	loaded, err := sm.Load(ctx, requestWith(setCookies(rec)))
	require.NoError(t, err)
	sm.Renew(loaded)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), loaded))

	assert.NotEqual(t, oldID, loaded.ID)
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+loaded.ID))
	assert.Equal(t, "v", loaded.Get("k"))
}

func TestDestroyExpiresCookie(t *testing.T) {
	sm, mr := newSessions(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, requestWith(nil))
	sess.SetUser(shared.AdminUser)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	assert.False(t, mr.Exists("session:"+sess.ID))
	cookies := setCookies(rec)
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestNilSessionIsNotAdmin(t *testing.T) {
	var sess *shared.Session
	assert.False(t, sess.IsAdmin())
	assert.False(t, shared.IsAdmin(context.Background()))
}

func TestCSRFTokens(t *testing.T) {
	sm, _ := newSessions(t)
	csrf := shared.NewCSRFManager("secret")
	ctx := context.Background()
	sess, _ := sm.Load(ctx, requestWith(nil))

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, token+"x"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), shared.ErrCSRFTokenMissing)

	_, err = csrf.EnsureToken(ctx, nil)
	assert.Error(t, err)

	other := shared.NewCSRFManager("rotated")
	assert.ErrorIs(t, other.VerifyToken(ctx, sess, token), shared.ErrCSRFTokenMismatch)
	fresh, err := other.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)

	other.RotateToken(sess)
	assert.ErrorIs(t, other.VerifyToken(ctx, sess, fresh), shared.ErrCSRFTokenMissing)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader("csrf_token=form-token"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, "form-token", shared.TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader("csrf_token=form-token"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set(shared.CSRFHeader, "header-token")
	assert.Equal(t, "header-token", shared.TokenFromRequest(r))
}

func TestPagination(t *testing.T) {
	pg := shared.NewPagination(2, 20, 45)
	assert.Equal(t, 3, pg.TotalPages)
	assert.True(t, pg.HasPrev())
	assert.True(t, pg.HasNext())

	last := shared.NewPagination(3, 20, 45)
	assert.False(t, last.HasNext())

	empty := shared.NewPagination(0, 0, 0)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 20, empty.PerPage)
	assert.False(t, empty.HasNext())

	base, err := url.Parse("/catalog?fabrics=net&page=2")
	require.NoError(t, err)
	assert.Equal(t, "/catalog?fabrics=net&page=3", pg.PageURL(*base, 3))
}
