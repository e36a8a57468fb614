package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnvelope(t *testing.T) {
	if r := Error(CodeNotFound, ""); r.Msg != "Not Found" || r.Code != 404 {
		t.Errorf("default msg: %+v", r)
	}
	if r := Error(CodeBadRequest, "bad name"); r.Msg != "bad name" {
		t.Errorf("custom msg: %+v", r)
	}
	b, _ := json.Marshal(OK(nil))
	if string(b) != `{"code":0,"msg":"OK","data":{}}` {
		t.Errorf("nil data should render as object: %s", b)
	}
}

func TestAbortKeepsHTTP200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Abort(c, CodeTooManyRequests, "")
	if w.Code != http.StatusOK || !c.IsAborted() {
		t.Fatalf("status=%d aborted=%v", w.Code, c.IsAborted())
	}
	var r Resp
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil || r.Code != CodeTooManyRequests {
		t.Fatalf("body %s: %v", w.Body.String(), err)
	}
}
