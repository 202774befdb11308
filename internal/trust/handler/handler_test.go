package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustfundbaby/trustfund/internal/trust"
	"github.com/trustfundbaby/trustfund/internal/trust/repository"
	"github.com/trustfundbaby/trustfund/internal/trust/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(opts ...service.Option) *gin.Engine {
	n := 0
	base := []service.Option{
		service.WithIDGenerator(func() string { n++; return fmt.Sprintf("id%d", n) }),
		service.WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }),
	}
	g := gin.New()
	RegisterTrustRoutes(g, service.NewService(repository.NewMemoryRepo(), append(base, opts...)...))
	return g
}

func do(t *testing.T, g *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestTrustHandler_Scenario(t *testing.T) {
	g := newRouter()

	// register
	w := do(t, g, http.MethodPost, "/register?email=a@x.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	u := decode[trust.User](t, w)
	require.Equal(t, "a@x.com", u.Email)
	require.Equal(t, "id1", u.ID)

	// create
	w = do(t, g, http.MethodPost, "/trusts?user_id="+u.ID, `{"name":"Car","target_amount":5000}`)
	require.Equal(t, http.StatusOK, w.Code)
	raw := decode[map[string]interface{}](t, w)
	assert.Equal(t, "id2", raw["id"])
	assert.Equal(t, u.ID, raw["user_id"])
	assert.Equal(t, "", raw["description"])
	assert.Equal(t, 5000.0, raw["target_amount"])
	assert.Equal(t, 0.0, raw["current_balance"])
	assert.Equal(t, false, raw["is_real"])
	assert.Equal(t, "2024-01-02T03:04:05Z", raw["created_at"])
	id := raw["id"].(string)

	// deposits
	w = do(t, g, http.MethodPost, "/trusts/"+id+"/deposit?amount=100", "")
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[trust.Deposit](t, w)
	assert.Equal(t, 100.0, d.Amount)
	assert.Equal(t, id, d.TrustID)

	w = do(t, g, http.MethodPost, "/trusts/"+id+"/deposit", `{"amount":50}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, g, http.MethodGet, "/trusts/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 150.0, decode[trust.Goal](t, w).CurrentBalance)

	// note
	w = do(t, g, http.MethodPost, "/trusts/"+id+"/note?content="+url.QueryEscape("for college"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "for college", decode[trust.Note](t, w).Content)

	// make real twice
	for i := 0; i < 2; i++ {
		w = do(t, g, http.MethodPatch, "/trusts/"+id+"/make_real", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Trust marked as real.", decode[map[string]string](t, w)["message"])
	}
	w = do(t, g, http.MethodGet, "/trusts/"+id, "")
	assert.True(t, decode[trust.Goal](t, w).IsReal)

	// list
	w = do(t, g, http.MethodGet, "/trusts?user_id="+u.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]trust.Goal](t, w), 1)

	// statement
	w = do(t, g, http.MethodGet, "/trusts/"+id+"/statement", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[trust.Statement](t, w)
	assert.Len(t, st.Deposits, 2)
	assert.Len(t, st.Notes, 1)
	assert.Equal(t, 150.0, st.DepositTotal)
}

func TestTrustHandler_NotFound(t *testing.T) {
	g := newRouter()
	cases := []struct{ method, target string }{
		{http.MethodGet, "/trusts/nonexistent"},
		{http.MethodPost, "/trusts/nonexistent/deposit?amount=1"},
		{http.MethodPost, "/trusts/nonexistent/note?content=x"},
		{http.MethodPatch, "/trusts/nonexistent/make_real"},
		{http.MethodGet, "/trusts/nonexistent/statement"},
	}
	for _, tc := range cases {
		w := do(t, g, tc.method, tc.target, "")
		require.Equal(t, http.StatusNotFound, w.Code, tc.target)
		require.Equal(t, "Trust not found", decode[map[string]string](t, w)["detail"])
	}
}

func TestTrustHandler_ListEmptyIsArray(t *testing.T) {
	g := newRouter()
	w := do(t, g, http.MethodGet, "/trusts?user_id=nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestTrustHandler_ListOnlyOwnGoals(t *testing.T) {
	g := newRouter()
	for _, owner := range []string{"alice", "bob", "alice"} {
		w := do(t, g, http.MethodPost, "/trusts?user_id="+owner, `{"name":"g","target_amount":1}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(t, g, http.MethodGet, "/trusts?user_id=bob", "")
	list := decode[[]trust.Goal](t, w)
	require.Len(t, list, 1)
	require.Equal(t, "bob", list[0].UserID)
}

func TestTrustHandler_Validation(t *testing.T) {
	g := newRouter()
	w := do(t, g, http.MethodPost, "/trusts?user_id=u", `{"name":"Car","target_amount":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[trust.Goal](t, w).ID

	cases := []struct {
		name, method, target, body string
	}{
		{"register without email", http.MethodPost, "/register", ""},
		{"register with empty JSON", http.MethodPost, "/register", `{}`},
		{"register with broken JSON", http.MethodPost, "/register?email=a@x.com", `{"email":`},
		{"create without user", http.MethodPost, "/trusts", `{"name":"Car","target_amount":1}`},
		{"create without name", http.MethodPost, "/trusts?user_id=u", `{"target_amount":1}`},
		{"create without target", http.MethodPost, "/trusts?user_id=u", `{"name":"Car"}`},
		{"create with text target", http.MethodPost, "/trusts?user_id=u", `{"name":"Car","target_amount":"lots"}`},
		{"create without body", http.MethodPost, "/trusts?user_id=u", ""},
		{"list without user", http.MethodGet, "/trusts", ""},
		{"deposit without amount", http.MethodPost, "/trusts/" + id + "/deposit", ""},
		{"deposit non numeric", http.MethodPost, "/trusts/" + id + "/deposit?amount=abc", ""},
		{"deposit NaN", http.MethodPost, "/trusts/" + id + "/deposit?amount=NaN", ""},
		{"note without content", http.MethodPost, "/trusts/" + id + "/note", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, g, tc.method, tc.target, tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			require.NotEmpty(t, decode[map[string]string](t, w)["detail"])
		})
	}

	// rejected deposits never touch the balance
	w = do(t, g, http.MethodGet, "/trusts/"+id, "")
	require.Zero(t, decode[trust.Goal](t, w).CurrentBalance)
}

func TestTrustHandler_NegativeAndZeroDeposits(t *testing.T) {
	g := newRouter()
	w := do(t, g, http.MethodPost, "/trusts?user_id=u", `{"name":"Car","target_amount":10}`)
	id := decode[trust.Goal](t, w).ID

	for _, a := range []string{"0", "-25.5", "10"} {
		w = do(t, g, http.MethodPost, "/trusts/"+id+"/deposit?amount="+a, "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w = do(t, g, http.MethodGet, "/trusts/"+id, "")
	require.Equal(t, -15.5, decode[trust.Goal](t, w).CurrentBalance)
}

func TestTrustHandler_FormBody(t *testing.T) {
	g := newRouter()
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("email=form%40x.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "form@x.com", decode[trust.User](t, w).Email)
}

func TestTrustHandler_QueryAlongsideJSONBody(t *testing.T) {
	g := newRouter()
	w := do(t, g, http.MethodPost, "/register?email=q%40x.com", `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "q@x.com", decode[trust.User](t, w).Email)

	w = do(t, g, http.MethodPost, "/register", `{"email":"body@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "body@x.com", decode[trust.User](t, w).Email)

	w = do(t, g, http.MethodPost, "/trusts?user_id=u", `{"name":"Car","target_amount":10}`)
	id := decode[trust.Goal](t, w).ID

	w = do(t, g, http.MethodPost, "/trusts/"+id+"/deposit?amount=5", `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 5.0, decode[trust.Deposit](t, w).Amount)

	// the query string wins over a conflicting body value
	w = do(t, g, http.MethodPost, "/trusts/"+id+"/deposit?amount=2", `{"amount":100}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2.0, decode[trust.Deposit](t, w).Amount)

	w = do(t, g, http.MethodPost, "/trusts/"+id+"/note?content=hi", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hi", decode[trust.Note](t, w).Content)

	w = do(t, g, http.MethodGet, "/trusts/"+id, "")
	require.Equal(t, 7.0, decode[trust.Goal](t, w).CurrentBalance)
}

func TestTrustHandler_RequireKnownUser(t *testing.T) {
	g := newRouter(service.WithRequireKnownUser(true))
	w := do(t, g, http.MethodPost, "/trusts?user_id=ghost", `{"name":"Car","target_amount":1}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "User not found", decode[map[string]string](t, w)["detail"])
}

type stubArchiver struct{}

func (stubArchiver) UploadFile(context.Context, string, io.Reader, int64, string) error { return nil }
func (stubArchiver) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.local/" + key, nil
}

func TestTrustHandler_Archive(t *testing.T) {
	g := newRouter()
	w := do(t, g, http.MethodPost, "/trusts?user_id=u", `{"name":"Car","target_amount":1}`)
	id := decode[trust.Goal](t, w).ID
	w = do(t, g, http.MethodPost, "/trusts/"+id+"/statement/archive", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	g = newRouter(service.WithArchiver(stubArchiver{}, time.Minute))
	w = do(t, g, http.MethodPost, "/trusts?user_id=u", `{"name":"Car","target_amount":1}`)
	id = decode[trust.Goal](t, w).ID
	w = do(t, g, http.MethodPost, "/trusts/"+id+"/statement/archive", "")
	require.Equal(t, http.StatusOK, w.Code)
	a := decode[service.Archive](t, w)
	require.True(t, strings.HasPrefix(a.Key, "statements/"+id+"/"))
	require.Equal(t, "https://objects.local/"+a.Key, a.URL)

	w = do(t, g, http.MethodPost, "/trusts/missing/statement/archive", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
