package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
	"github.com/shaan-hospital/apiserver/internal/session"
	"github.com/shaan-hospital/apiserver/internal/store/memory"
	"github.com/stretchr/testify/require"
)

const (
	seedAdminEmail    = "admin@hospital.com"
	seedAdminPassword = "Admin@123"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeObjects struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeObjects) URL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeObjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

type testEnv struct {
	router  *chi.Mux
	users   *services.UserService
	news    *services.NewsService
	objects *fakeObjects
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard()
	issuer, err := session.NewIssuer(session.Options{Secret: "test-secret", CookieExpireDays: 7})
	require.NoError(t, err)

	objects := &fakeObjects{}
	images := services.NewImages(objects, nil)
	users := services.NewUserService(memory.NewUserRepository(), images)
	departments := services.NewDepartmentService(memory.NewDepartmentRepository(), images)
	news := services.NewNewsService(memory.NewNewsRepository(), images)
	messages := services.NewMessageService(memory.NewMessageRepository())
	appointments := services.NewAppointmentService(memory.NewAppointmentRepository(), users)
	guard := NewGuard(issuer, users, log)

	_, _, err = users.EnsureAdmin(context.Background(), services.AdminSeed{Email: seedAdminEmail, Password: seedAdminPassword})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/", Root)
	r.Route("/user", func(r chi.Router) { UserRouter(r, users, issuer, guard, log) })
	r.Route("/department", func(r chi.Router) { DepartmentRouter(r, departments, guard, log) })
	r.Route("/news", func(r chi.Router) { NewsRouter(r, news, guard, log) })
	r.Route("/message", func(r chi.Router) { MessageRouter(r, messages, guard, log) })
	r.Route("/appointment", func(r chi.Router) { AppointmentRouter(r, appointments, guard, log) })

	return &testEnv{router: r, users: users, news: news, objects: objects}
}

type response struct {
	code    int
	body    map[string]any
	cookies []*http.Cookie
}

func (e *testEnv) do(t *testing.T, req *http.Request) response {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return response{code: rec.Code, body: body, cookies: rec.Result().Cookies()}
}

func (e *testEnv) json(t *testing.T, method, path, token string, payload any) response {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

type upload struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func (e *testEnv) multipart(t *testing.T, method, path, token string, fields map[string]string, file *upload) response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func (e *testEnv) login(t *testing.T, email, password, role string) string {
	t.Helper()
	res := e.json(t, http.MethodPost, "/user/login", "", map[string]any{
		"email":    email,
		"password": password,
		"role":     role,
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	token, _ := res.body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) adminToken(t *testing.T) string {
	return e.login(t, seedAdminEmail, seedAdminPassword, "Admin")
}

func (e *testEnv) registerPatient(t *testing.T, email string) string {
	t.Helper()
	res := e.json(t, http.MethodPost, "/user/patient/register", "", patientPayload(email))
	require.Equal(t, http.StatusOK, res.code, res.body)
	return res.body["token"].(string)
}

func patientPayload(email string) map[string]any {
	return map[string]any{
		"firstName": "Alice",
		"lastName":  "Smith",
		"email":     email,
		"phone":     "03001234567",
		"aadhar":    "123412341234",
		"dob":       "1995-04-02",
		"gender":    "Female",
		"password":  "password123",
	}
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
