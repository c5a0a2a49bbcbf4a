package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/dto"
	"github.com/chempartner/paperdesk/internal/middleware"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testUser = &model.User{ID: 7, Username: "alice", Email: "alice@example.com", IsActive: true}

// stubAuth embeds the interface so each test only implements what it calls.
type stubAuth struct {
	service.AuthService
	login func(dto.TokenRequest) (*dto.TokenResponse, error)
}

func (s *stubAuth) Authenticate(token string) (*model.User, error) {
	if token != "good" {
		return nil, apperror.ErrInvalidToken
	}
	return testUser, nil
}

func (s *stubAuth) Register(req dto.RegisterRequest) (*dto.UserResponse, error) {
	if req.Email == "taken@example.com" {
		return nil, apperror.New(apperror.KindConflict, "Email already registered")
	}
	return &dto.UserResponse{ID: 1, Username: req.Username, Email: req.Email, IsActive: true}, nil
}

func (s *stubAuth) Login(req dto.TokenRequest) (*dto.TokenResponse, error) {
	return s.login(req)
}

func (s *stubAuth) GetByUsername(username string) (*dto.UserResponse, error) {
	if username != "bob" {
		return nil, apperror.New(apperror.KindNotFound, "User not found")
	}
	return &dto.UserResponse{ID: 2, Username: "bob"}, nil
}

type stubAssets struct {
	service.PDFAssetService
	body string
	err  error
}

func (s *stubAssets) Open(_ context.Context, paperID uint) (*service.PDFStream, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.PDFStream{
		Body:     io.NopCloser(strings.NewReader(s.body)),
		Size:     int64(len(s.body)),
		Filename: "paper_3.pdf",
	}, nil
}

type stubSubmissions struct {
	service.SubmissionService
	recorded []uint
}

func (s *stubSubmissions) Record(paperID, userID uint, req dto.SubmissionCreateRequest) (*dto.SubmissionResponse, error) {
	if paperID == 404 {
		return nil, apperror.New(apperror.KindNotFound, "Paper not found")
	}
	s.recorded = append(s.recorded, userID)
	return &dto.SubmissionResponse{ID: 1, PaperID: paperID, UserID: userID, Marks: *req.Marks, TimeSpent: *req.TimeSpent, SubmittedAt: time.Now()}, nil
}

func do(r *gin.Engine, method, target, contentType, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Message
}

func TestRegister(t *testing.T) {
	ctrl := NewAuthController(&stubAuth{})
	r := gin.New()
	r.POST("/register", ctrl.Register)

	w := do(r, http.MethodPost, "/register", "application/json",
		`{"email":"new@example.com","username":"newbie","password":"secret1"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/register", "application/json",
		`{"email":"taken@example.com","username":"newbie","password":"secret1"}`, "")
	if w.Code != http.StatusBadRequest || detail(t, w) != "Email already registered" {
		t.Fatalf("expected 400 conflict, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/register", "application/json", `{"email":"not-an-email","username":"x","password":"1"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on validation failure, got %d", w.Code)
	}
	var resp dto.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Details) != 3 {
		t.Fatalf("expected one detail per invalid field, got %v", resp.Details)
	}
}

func TestToken(t *testing.T) {
	auth := &stubAuth{login: func(req dto.TokenRequest) (*dto.TokenResponse, error) {
		if req.Password != "pw" {
			return nil, apperror.New(apperror.KindUnauthenticated, "Incorrect username or password")
		}
		return &dto.TokenResponse{AccessToken: "tok", TokenType: "bearer", Username: req.Username}, nil
	}}
	r := gin.New()
	r.POST("/token", NewAuthController(auth).Token)

	form := url.Values{"username": {"alice"}, "password": {"pw"}}.Encode()
	w := do(r, http.MethodPost, "/token", "application/x-www-form-urlencoded", form, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var tok dto.TokenResponse
	json.Unmarshal(w.Body.Bytes(), &tok)
	if tok.AccessToken != "tok" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token response %+v", tok)
	}

	form = url.Values{"username": {"alice"}, "password": {"wrong"}}.Encode()
	w = do(r, http.MethodPost, "/token", "application/x-www-form-urlencoded", form, "")
	if w.Code != http.StatusUnauthorized || w.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected 401 with challenge, got %d %v", w.Code, w.Header())
	}
}

func TestUserRoutes(t *testing.T) {
	auth := &stubAuth{}
	ctrl := NewAuthController(auth)
	r := gin.New()
	users := r.Group("/users", middleware.ActiveUser(auth))
	users.GET("/me", ctrl.Me)
	users.GET("/:username", ctrl.GetUser)

	w := do(r, http.MethodGet, "/users/me", "", "", "good")
	var me dto.UserResponse
	json.Unmarshal(w.Body.Bytes(), &me)
	if w.Code != http.StatusOK || me.Username != "alice" || me.ID != 7 {
		t.Fatalf("me: got %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodGet, "/users/bob", "", "", "good"); w.Code != http.StatusOK {
		t.Fatalf("lookup: got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/users/carol", "", "", "good"); w.Code != http.StatusNotFound {
		t.Fatalf("missing user: got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/users/me", "", "", "bad"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", w.Code)
	}
}

func TestDownloadPDF(t *testing.T) {
	auth := &stubAuth{}
	assets := &stubAssets{body: "%PDF-1.4 body"}
	r := gin.New()
	r.GET("/papers/:id/pdf", middleware.QueryTokenUser(auth), NewPaperController(nil, assets, nil).DownloadPDF)

	w := do(r, http.MethodGet, "/papers/3/pdf?token=good", "", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="paper_3.pdf"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if w.Body.String() != "%PDF-1.4 body" {
		t.Fatalf("body mismatch: %q", w.Body.String())
	}

	assets.err = apperror.Wrap(apperror.KindAssetMissing, apperror.ErrAssetMissing.Message, nil)
	w = do(r, http.MethodGet, "/papers/3/pdf?token=good", "", "", "")
	if w.Code != http.StatusNotFound || detail(t, w) != "PDF file not found on server" {
		t.Fatalf("asset missing: got %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodGet, "/papers/abc/pdf?token=good", "", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: got %d", w.Code)
	}
}

func TestSubmitUsesAuthenticatedUser(t *testing.T) {
	auth := &stubAuth{}
	subs := &stubSubmissions{}
	r := gin.New()
	r.POST("/papers/:id/submit", middleware.ActiveUser(auth), NewSubmissionController(subs).Submit)

	w := do(r, http.MethodPost, "/papers/1/submit", "application/json", `{"marks":40,"time_spent":1200,"user_id":99}`, "good")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(subs.recorded) != 1 || subs.recorded[0] != testUser.ID {
		t.Fatalf("submission must use the caller's id, got %v", subs.recorded)
	}

	if w := do(r, http.MethodPost, "/papers/404/submit", "application/json", `{"marks":1,"time_spent":1}`, "good"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown paper: got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/papers/1/submit", "application/json", `{"time_spent":1}`, "good"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing marks: got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/papers/1/submit", "application/json", `{"marks":1,"time_spent":1}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", w.Code)
	}
}
