package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"checklist-api/internal/domain"
	resp "checklist-api/internal/transport/http/response"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.NotFound("checklist", "findById", "c1"), resp.CodeNotFound},
		{fmt.Errorf("wrapped: %w", domain.NotFound("item", "update", "i1")), resp.CodeNotFound},
		{domain.NotFoundAfterWrite("item", "insert", "i1"), resp.CodeServerError},
		{domain.Persistence("user", "insert", "u1", errors.New("UNIQUE constraint failed")), resp.CodeServerError},
		{Unauthorized("nope"), resp.CodeUnauthorized},
		{errors.New("boom"), resp.CodeServerError},
	}
	for _, tc := range cases {
		if code, _ := CodeOf(tc.err); code != tc.code {
			t.Errorf("%v: got %d want %d", tc.err, code, tc.code)
		}
	}
	if _, msg := CodeOf(domain.Persistence("user", "insert", "u1", errors.New("secret dsn"))); strings.Contains(msg, "secret") {
		t.Errorf("store cause leaked: %s", msg)
	}
}

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

func serve(t *testing.T, r *gin.Engine, method, path, body string) resp.Resp {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status %d", w.Code)
	}
	var out resp.Resp
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestRegisterAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("", func(c *gin.Context) { c.Set("role", c.GetHeader("X-Role")) })
	e := New(g)

	RegisterAction(e, Action[echoIn, gin.H]{
		Method: http.MethodPatch, Path: "/echo/:id", Binder: BindJSON,
		Handler: func(c *gin.Context, in *echoIn) (gin.H, error) {
			if c.Param("id") == "missing" {
				return nil, domain.NotFound("echo", "update", "missing")
			}
			return gin.H{"id": c.Param("id"), "name": in.Name}, nil
		},
	})
	RegisterAction(e, Action[struct{}, string]{
		Method: http.MethodGet, Path: "/admin", Binder: BindNone, Roles: []string{domain.RoleAdmin},
		Handler: func(*gin.Context, *struct{}) (string, error) { return "ok", nil },
	})

	if out := serve(t, r, http.MethodPatch, "/echo/1", `{"name":"a"}`); out.Code != resp.CodeOK {
		t.Errorf("ok: %+v", out)
	}
	if out := serve(t, r, http.MethodPatch, "/echo/1", `{}`); out.Code != resp.CodeBadRequest {
		t.Errorf("bind: %+v", out)
	}
	if out := serve(t, r, http.MethodPatch, "/echo/missing", `{"name":"a"}`); out.Code != resp.CodeNotFound {
		t.Errorf("not found: %+v", out)
	}
	if out := serve(t, r, http.MethodGet, "/admin", ""); out.Code != resp.CodeForbidden {
		t.Errorf("role: %+v", out)
	}
}
