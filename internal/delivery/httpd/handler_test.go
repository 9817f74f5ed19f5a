package httpd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/auth"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/config"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/metrics"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository/memory"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service/integration"
)

type stubMedia struct{}

func (stubMedia) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	_, err := io.Copy(io.Discard, r)
	return "http://media.local/bucket/" + key, err
}

func (stubMedia) Delete(context.Context, string) error { return nil }

type stubAssistant struct{}

func (stubAssistant) Reply(_ context.Context, history []models.ChatMessage) (string, error) {
	return "You said: " + history[len(history)-1].Content, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	router http.Handler
	store  *memory.Store
	tokens  *auth.TokenIssuer
	prompts service.PromptService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := zerolog.Nop()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	courses := memory.NewCourseRepository(store)
	tokens := auth.NewTokenIssuer(config.AuthConfig{JWTSecret: "test-secret", JWTTTL: time.Hour, Issuer: "test"})
	publisher := integration.NewNoopPublisher(log)
	prompts := service.NewPromptService(memory.NewPromptRepository(store), log)

	handler := NewHandler(Services{
		Users: service.NewUserService(users, tokens, log),
		Projects: service.NewProjectService(memory.NewProjectRepository(store), users, publisher,
			config.ProjectsConfig{EnforceDeadline: true, DefaultPageSize: 60, MaxPageSize: 200}, log),
		Courses:  service.NewCourseService(courses, users, publisher, log),
		Contents: service.NewContentService(memory.NewContentRepository(store), users, stubMedia{}, 1<<20, log),
		Wishlist: service.NewWishlistService(memory.NewWishlistRepository(store), courses, log),
		Chat:     service.NewChatService(stubAssistant{}, config.AssistantConfig{MaxHistory: 20}, log),
		Prompts:  prompts,
	}, nil, 1<<20, log)

	router := chi.NewRouter()
	router.Use(Recovery(log))
	router.Use(Metrics)
	handler.RegisterRoutes(router)

	s := &testServer{router: router, store: store, tokens: tokens, prompts: prompts}
	for _, u := range []*models.User{
		{ID: "u1", FullName: "Asha Rao", Email: "asha@example.com", Role: models.RoleEntrepreneur, Status: models.UserStatusActive},
		{ID: "u2", FullName: "Ravi Kumar", Email: "ravi@example.com", Role: models.RoleUser, Status: models.UserStatusActive},
		{ID: "u3", FullName: "Meera Nair", Email: "meera@example.com", Role: models.RoleUser, Status: models.UserStatusActive},
		{ID: "u4", FullName: "Kiran Das", Email: "kiran@example.com", Role: models.RoleFreelancer, Status: models.UserStatusActive},
		{ID: "u9", FullName: "Gone Quiet", Email: "quiet@example.com", Role: models.RoleEntrepreneur, Status: models.UserStatusSuspended},
	} {
		require.NoError(t, users.Create(context.Background(), u))
	}
	return s
}

func (s *testServer) token(t *testing.T, id string) string {
	t.Helper()
	user, err := memory.NewUserRepository(s.store).GetByID(context.Background(), id)
	require.NoError(t, err)
	token, err := s.tokens.Issue(user)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestProjectWorkflowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	u1, u2, u3 := s.token(t, "u1"), s.token(t, "u2"), s.token(t, "u3")

	status, env := s.do(t, http.MethodPost, "/project", u1, map[string]interface{}{
		"title":      "Landing Page",
		"difficulty": "Easy",
		"deadline":   "2099-01-01",
		"club":       "Design Club",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var project models.Project
	decodeData(t, env, &project)

	status, env = s.do(t, http.MethodGet, "/project/"+project.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var view struct {
		SubmissionLink []json.RawMessage `json:"submission_link"`
		State          string            `json:"state"`
		Creator        struct {
			FullName string `json:"full_name"`
		} `json:"creator"`
	}
	decodeData(t, env, &view)
	assert.NotNil(t, view.SubmissionLink)
	assert.Empty(t, view.SubmissionLink)
	assert.Equal(t, "open", view.State)
	assert.Equal(t, "Asha Rao", view.Creator.FullName)

	submit := map[string]string{"link": "http://x", "description": "done"}
	status, env = s.do(t, http.MethodPost, "/project/"+project.ID+"/submit-link", u2, submit)
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = s.do(t, http.MethodGet, "/project/"+project.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	decodeData(t, env, &view)
	assert.Len(t, view.SubmissionLink, 1)

	status, env = s.do(t, http.MethodPost, "/project/"+project.ID+"/submit-link", u2, submit)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Message, "already submitted")

	grade := map[string]interface{}{
		"user_id": "u2",
		"grades":  []map[string]interface{}{{"factor": "quality", "grade": 8}},
	}
	status, env = s.do(t, http.MethodPost, "/project/"+project.ID+"/give-grade", u1, grade)
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, _ = s.do(t, http.MethodPost, "/project/"+project.ID+"/give-grade", u3, grade)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPost, "/project/"+project.ID+"/give-grade", u1, grade)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Message, "grades already exist")

	status, env = s.do(t, http.MethodGet, "/project/"+project.ID+"/grades/u2", "", nil)
	require.Equal(t, http.StatusOK, status)
	var record models.GradeRecord
	decodeData(t, env, &record)
	assert.Equal(t, "u1", record.GradedBy)

	status, _ = s.do(t, http.MethodPut, "/project/"+project.ID, u2, map[string]string{"deadline": "2100-01-01"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPut, "/project/"+project.ID, u1, map[string]string{"deadline": "2100-01-01"})
	require.Equal(t, http.StatusOK, status)
	decodeData(t, env, &project)
	assert.Equal(t, 2100, project.Deadline.Year())

	status, env = s.do(t, http.MethodGet, "/project?title=landing", "", nil)
	require.Equal(t, http.StatusOK, status)
	var list models.ProjectsResponse
	decodeData(t, env, &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 60, list.Limit)

	status, _ = s.do(t, http.MethodDelete, "/project/"+project.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodDelete, "/project/"+project.ID, u3, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/project/"+project.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListRoutesAcceptHugePageNumbers(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "u2")

	for _, path := range []string{
		"/project?page=9223372036854775807",
		"/user?page=9223372036854775807",
		"/course?page=9223372036854775807&limit=1",
		"/blog?page=9223372036854775807",
		"/promptLibrary?page=9223372036854775807",
	} {
		status, env := s.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusOK, status, path+": "+env.Message)
	}
}

func TestValidationErrorsCarryFields(t *testing.T) {
	s := newTestServer(t)
	u1, u2 := s.token(t, "u1"), s.token(t, "u2")

	status, env := s.do(t, http.MethodPost, "/project", u1, map[string]interface{}{
		"title":      "Landing Page",
		"difficulty": "Trivial",
		"deadline":   "2099-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Bad Request", env.Error)
	assert.Contains(t, env.Fields, "difficulty")

	status, env = s.do(t, http.MethodPost, "/project/any/submit-link", u2, map[string]string{"link": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Fields, "link")

	req := httptest.NewRequest(http.MethodPost, "/project/any/submit-link", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+u2)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/project", "", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", env.Error)

	status, _ = s.do(t, http.MethodPost, "/project", "not-a-jwt", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = s.do(t, http.MethodPost, "/project", s.token(t, "u9"), map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, env.Message, "suspended")

	status, _ = s.do(t, http.MethodPost, "/project", s.token(t, "u2"), map[string]interface{}{
		"title": "x", "difficulty": "Easy", "deadline": "2099-01-01",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCapabilityCheckedBeforeBody(t *testing.T) {
	s := newTestServer(t)
	learner, entrepreneur, freelancer := s.token(t, "u2"), s.token(t, "u1"), s.token(t, "u4")

	status, env := s.do(t, http.MethodPost, "/project", learner, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "only entrepreneurs can create projects", env.Message)

	status, env = s.do(t, http.MethodPost, "/course", learner, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "only freelancers can create courses", env.Message)

	status, env = s.do(t, http.MethodPost, "/project", entrepreneur, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Request body is required", env.Message)

	status, _ = s.do(t, http.MethodPost, "/course", freelancer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"full_name": "Lata Menon",
		"email":     "lata@example.com",
		"password":  "secret123",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.NotContains(t, string(env.Data), "password")

	status, env = s.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"email": "lata@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "incorrect email or password", env.Message)

	status, env = s.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"email": "lata@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	var login models.LoginResponse
	decodeData(t, env, &login)

	status, env = s.do(t, http.MethodGet, "/user?search=lata", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var users models.UsersResponse
	decodeData(t, env, &users)
	assert.Equal(t, 1, users.Total)

	status, _ = s.do(t, http.MethodPut, "/user/editUser/u2", login.Token, map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCourseEnrollAndWishlist(t *testing.T) {
	s := newTestServer(t)
	freelancer, learner := s.token(t, "u4"), s.token(t, "u2")

	status, env := s.do(t, http.MethodPost, "/course", freelancer, map[string]interface{}{
		"course_name": "Go for Builders",
		"course_type": "Video Course",
		"category":    "Programming",
		"price":       1000,
		"discount":    10,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var course models.Course
	decodeData(t, env, &course)
	assert.InDelta(t, 900.0, course.Price, 0.0001)

	status, _ = s.do(t, http.MethodPut, "/course/enroll/"+course.ID, learner, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPut, "/course/enroll/"+course.ID, learner, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Message, "already enrolled")

	status, env = s.do(t, http.MethodGet, "/course/myEnrolledCourses", learner, nil)
	require.Equal(t, http.StatusOK, status)
	var enrolled []models.Course
	decodeData(t, env, &enrolled)
	assert.Len(t, enrolled, 1)

	status, _ = s.do(t, http.MethodPost, "/course/"+course.ID+"/topics", learner, map[string]string{"title": "Intro"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/course/"+course.ID+"/topics", freelancer, map[string]string{"title": "Intro"})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = s.do(t, http.MethodPost, "/wishlist/"+course.ID, learner, nil)
	require.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/wishlist/"+course.ID, learner, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, env = s.do(t, http.MethodGet, "/wishlist", learner, nil)
	require.Equal(t, http.StatusOK, status)
	var wishlist models.Wishlist
	decodeData(t, env, &wishlist)
	require.Len(t, wishlist.Courses, 1)
	assert.Equal(t, "Go for Builders", wishlist.Courses[0].CourseName)

	status, _ = s.do(t, http.MethodGet, "/course", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestContentRoutes(t *testing.T) {
	s := newTestServer(t)
	author, reader := s.token(t, "u2"), s.token(t, "u3")

	status, env := s.do(t, http.MethodPost, "/caseStudy", author, map[string]string{"title": "Village solar"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var study models.Content
	decodeData(t, env, &study)
	assert.Equal(t, models.ContentKindCaseStudy, study.Kind)

	status, env = s.do(t, http.MethodGet, "/blog/"+study.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Blog not found", env.Message)

	status, _ = s.do(t, http.MethodPost, "/caseStudy/"+study.ID+"/comments", reader, map[string]string{"comment": "Inspiring"})
	require.Equal(t, http.StatusCreated, status)

	status, env = s.do(t, http.MethodGet, "/caseStudy?author=ravi", "", nil)
	require.Equal(t, http.StatusOK, status)
	var list models.ContentsResponse
	decodeData(t, env, &list)
	assert.Equal(t, 1, list.Total)

	// multipart cover upload
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="cover"; filename="cover.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/caseStudy/"+study.ID+"/cover", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+author)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "covers/case_study/")

	status, _ = s.do(t, http.MethodDelete, "/caseStudy/"+study.ID, reader, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodDelete, "/caseStudy/"+study.ID, author, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestPromptLibraryRoutes(t *testing.T) {
	s := newTestServer(t)
	_, err := s.prompts.Import(context.Background(), []models.Prompt{
		{Title: "Write a Cold Email", Category: "Marketing", Prompts: []string{"Draft a cold email to [client]"}},
		{Title: "Email Subject Lines", Category: "Marketing", Prompts: []string{"Give me 10 subject lines for [topic]"}},
		{Title: "Explain a Concept", Category: "Learning", Prompts: []string{"Explain [concept] to a beginner"}, Tips: []string{"Name the audience"}},
	})
	require.NoError(t, err)

	status, env := s.do(t, http.MethodGet, "/promptLibrary?title=email&category=Marketing&limit=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	var list models.PromptsResponse
	decodeData(t, env, &list)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 2, list.Pages)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Write a Cold Email", list.Items[0].Title)

	status, env = s.do(t, http.MethodGet, "/promptLibrary?category=Learning", "", nil)
	require.Equal(t, http.StatusOK, status)
	decodeData(t, env, &list)
	require.Len(t, list.Items, 1)
	id := list.Items[0].ID

	status, env = s.do(t, http.MethodGet, "/promptLibrary/"+id, "", nil)
	require.Equal(t, http.StatusOK, status)
	var prompt models.Prompt
	decodeData(t, env, &prompt)
	assert.Equal(t, []string{"Name the audience"}, prompt.Tips)

	status, env = s.do(t, http.MethodGet, "/promptLibrary/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Prompt not found", env.Message)

	status, _ = s.do(t, http.MethodPost, "/promptLibrary", s.token(t, "u1"), map[string]string{"title": "x"})
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestChatRoutes(t *testing.T) {
	s := newTestServer(t)
	owner, other := s.token(t, "u2"), s.token(t, "u3")

	status, env := s.do(t, http.MethodPost, "/chat/sessions", owner, nil)
	require.Equal(t, http.StatusCreated, status)
	var session models.ChatSession
	decodeData(t, env, &session)

	status, env = s.do(t, http.MethodPost, "/chat/sessions/"+session.ID+"/messages", owner, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var reply models.ChatReply
	decodeData(t, env, &reply)
	assert.Equal(t, "You said: hello", reply.Reply.Content)

	status, _ = s.do(t, http.MethodGet, "/chat/sessions/"+session.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodDelete, "/chat/sessions/"+session.ID, owner, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/chat/sessions/"+session.ID, owner, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	h := NewHandler(Services{}, failingPinger{}, 0, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestRecovery(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Recovery(zerolog.Nop()))
	router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	s := newTestServer(t)
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/project/{id}", "404")
	before := testutil.ToFloat64(counter)

	s.do(t, http.MethodGet, "/project/missing-one", "", nil)
	s.do(t, http.MethodGet, "/project/missing-two", "", nil)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
