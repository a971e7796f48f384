package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/nuhgnoej/weDive/utils"
)

func buildJoinTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	app.Post("/api/rooms/{id:uint}/join", accessTokenVerifierMiddleware, RequestJoin)
	return app
}

func TestRequestJoinRejectsOversizedMessage(t *testing.T) {
	app := buildJoinTestApp()
	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}

	body := `{"message":"` + strings.Repeat("x", 501) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/10/join", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signTestToken(7))
	req.Header.Set("Content-Type", "application/json")
	// httptest.NewRequest sets only the ContentLength field; real server
	// requests carry the header, which iris's GetContentLength reads.
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a 501-char message, got %d", resp.Code)
	}
}

func TestRequestJoinRejectsMalformedBody(t *testing.T) {
	app := buildJoinTestApp()
	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/10/join", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+signTestToken(7))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", strconv.Itoa(len("{not json")))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code < 400 {
		t.Fatalf("expected an error status for malformed JSON, got %d", resp.Code)
	}
}
