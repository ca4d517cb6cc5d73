package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"educontrol/internal/account"
	"educontrol/internal/assistant"
	"educontrol/internal/attendance"
	"educontrol/internal/auth"
	"educontrol/internal/cloudinary"
	"educontrol/internal/model"
	"educontrol/internal/queue"
	"educontrol/internal/rating"
	"educontrol/internal/repository"
	"educontrol/internal/store"
)

// monday 2024-09-02
var now = time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)

type env struct {
	t      *testing.T
	router *gin.Engine
	repos  *repository.Repositories
	runner *assistant.Runner
	signer *auth.Signer
	server *Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := store.NewMemory()
	repos := repository.New(gw)
	runner := assistant.NewRunner(repos.Jobs, repos.AIChat, assistant.Offline{}, queue.NewInMemory(16), time.Second)
	signer := auth.NewSigner("test-key", "educontrol", time.Hour, 24*time.Hour)
	s := New(Deps{
		Gateway:    gw,
		Repos:      repos,
		Accounts:   account.NewService(repos.Users, repos.Groups, "ADMIN123"),
		Attendance: attendance.NewService(repos.Schedule, repos.Users, repos.Attendance),
		Ratings: rating.NewEngine(rating.Sources{
			Students:   repos.Users,
			Groups:     repos.Groups,
			Attendance: repos.Attendance,
			Grades:     repos.Grades,
			Discipline: repos.Discipline,
			Scores:     repos.Scores,
		}),
		Assistant: runner,
		Signer:    signer,
	})
	s.now = func() time.Time { return now }

	r := gin.New()
	s.Register(r)
	return &env{t: t, router: r, repos: repos, runner: runner, signer: signer, server: s}
}

func (e *env) user(u model.User) string {
	e.t.Helper()
	require.NoError(e.t, e.repos.Users.Add(context.Background(), u))
	pair, err := e.signer.Issue(u.ID, u.Role())
	require.NoError(e.t, err)
	return pair.AccessToken
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func student(id, name, group string) model.User {
	return model.User{ID: id, FullName: name, Email: id + "@edu.kg", Profile: model.Student{Group: group, Course: 1}}
}

func teacher(id string) model.User {
	return model.User{ID: id, FullName: "Teacher " + id, Email: id + "@edu.kg", Profile: model.Teacher{Subjects: []string{"Mathematics"}}}
}

func TestPublicRoutes(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/test", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/me", "", nil).Code)
}

func TestRegisterLoginAndRefresh(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{"fullName": "Aida", "email": "aida@edu.kg", "role": "student"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "students need a group")

	w = e.do(http.MethodPost, "/api/auth/register", "", gin.H{"fullName": "Aida", "email": "not-an-email", "role": "student", "group": "CS-101"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w).Fields
	assert.Contains(t, fields, "email")

	w = e.do(http.MethodPost, "/api/auth/register", "", gin.H{"fullName": "Aida", "email": "aida@edu.kg", "role": "student", "group": "CS-101"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@edu.kg"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "aida@edu.kg"})
	require.Equal(t, http.StatusOK, w.Code)
	sess := decode[session](t, w)
	assert.Equal(t, model.RoleStudent, sess.User.Role())
	assert.NotEmpty(t, sess.Tokens.AccessToken)

	w = e.do(http.MethodGet, "/api/me", sess.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		Profile rating.StudentProfile `json:"profile"`
	}](t, w)
	assert.Equal(t, 100, me.Profile.AttendanceRate)
	assert.Equal(t, 20, me.Profile.Rating)

	w = e.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": sess.Tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": sess.Tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoleGuards(t *testing.T) {
	e := newEnv(t)
	st := e.user(student("s1", "Aida", "CS-101"))
	tc := e.user(teacher("t1"))

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPut, "/api/ratings/s1/score", st, gin.H{"score": 90}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/groups", tc, gin.H{"name": "X", "course": 1}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/admin/import", tc, gin.H{}).Code)
}

func TestAttendanceSessionFlow(t *testing.T) {
	e := newEnv(t)
	tc := e.user(teacher("t1"))
	e.user(student("a", "Aida", "CS-101"))
	e.user(student("b", "Bek", "CS-101"))
	e.user(student("c", "Chyngyz", "IT-303"))

	w := e.do(http.MethodGet, "/api/attendance/session?group=CS-101&date=02.09.2024", tc, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/attendance/session?group=CS-101&date=2024-09-02", tc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	opened := decode[struct {
		Session attendance.Session `json:"session"`
		CanMark bool               `json:"canMark"`
	}](t, w)
	assert.True(t, opened.CanMark)
	require.NotNil(t, opened.Session.Active)
	assert.Equal(t, "Mathematics", opened.Session.Active.Subject)
	assert.Len(t, opened.Session.Marks, 2)

	w = e.do(http.MethodPost, "/api/attendance/session", tc, gin.H{
		"group": "CS-101", "date": "2024-09-02", "marks": gin.H{"a": "excused"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/attendance/session", tc, gin.H{
		"group": "CS-101", "date": "2024-09-03", "marks": gin.H{"a": "late"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no lesson on tuesday")

	w = e.do(http.MethodPost, "/api/attendance/session", tc, gin.H{
		"group": "CS-101", "date": "2024-09-02", "marks": gin.H{"a": "late"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["saved"])

	all, err := e.repos.Attendance.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sa, err := e.signer.Issue("a", model.RoleStudent)
	require.NoError(t, err)
	w = e.do(http.MethodGet, "/api/attendance/mine", sa.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), decode[map[string]any](t, w)["rate"])
}

func TestRatingsAndScore(t *testing.T) {
	e := newEnv(t)
	tc := e.user(teacher("t1"))
	e.user(student("a", "Aida", "CS-101"))
	e.user(student("b", "Bek", "IT-303"))

	w := e.do(http.MethodPut, "/api/ratings/a/score", tc, gin.H{"score": 150})
	require.Equal(t, http.StatusOK, w.Code)
	upd := decode[struct {
		Score   model.Score           `json:"score"`
		Profile rating.StudentProfile `json:"profile"`
	}](t, w)
	assert.Equal(t, model.Score{Current: 100, Previous: 0}, upd.Score)
	assert.Equal(t, 100, upd.Profile.Rating)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPut, "/api/ratings/t1/score", tc, gin.H{"score": 50}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, "/api/ratings/a/score", tc, gin.H{}).Code)

	w = e.do(http.MethodGet, "/api/ratings", tc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[struct {
		Students []rating.StudentProfile `json:"students"`
	}](t, w)
	require.Len(t, board.Students, 2)
	assert.Equal(t, "a", board.Students[0].User.ID)

	w = e.do(http.MethodGet, "/api/ratings?group=IT-303", tc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	board = decode[struct {
		Students []rating.StudentProfile `json:"students"`
	}](t, w)
	require.Len(t, board.Students, 1)
	assert.Equal(t, "b", board.Students[0].User.ID)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/ratings?bucket=medium", tc, nil).Code)

	w = e.do(http.MethodGet, "/api/ratings/groups", tc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[rating.CollectiveReport](t, w)
	assert.Equal(t, 2, report.CollegeSummary.TotalStudents)
	assert.Len(t, report.GroupsStats, 4)
}

func TestExportLeaderboard(t *testing.T) {
	e := newEnv(t)
	tc := e.user(teacher("t1"))
	e.user(student("a", "Aida", "CS-101"))

	w := e.do(http.MethodGet, "/api/ratings/export", tc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ratings_2024-09-02.xlsx")
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(ratingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ratingsHeader, rows[0])
	assert.Equal(t, "Aida", rows[1][1])
	assert.Equal(t, "CS-101", rows[1][2])
}

func TestBuildLeaderboardRanksRows(t *testing.T) {
	profiles := []rating.StudentProfile{
		{User: model.User{FullName: "Aida", Profile: model.Student{Group: "CS-101"}}, AcademicScore: 90, AttendanceRate: 100, Rating: 92, Grade: 5},
		{User: model.User{FullName: "Bakyt", Profile: model.Student{Group: "IT-303"}}, AcademicScore: 50, AttendanceRate: 50, Rating: 50, Grade: 2},
	}
	buf, err := buildLeaderboard(profiles)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{ratingsSheet}, f.GetSheetList())
	rows, err := f.GetRows(ratingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2", "Bakyt", "IT-303", "50", "50", "50", "2"}, rows[2])
}

func TestCatalogCRUD(t *testing.T) {
	e := newEnv(t)
	admin := e.user(model.User{ID: "ad", FullName: "Admin", Email: "ad@edu.kg", Profile: model.Admin{}})

	w := e.do(http.MethodPost, "/api/schedule", admin, gin.H{"group": "CS-101", "subject": "Physics", "day": 0, "time": "10:10 - 11:40"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.ScheduleEntry](t, w)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/schedule", admin, gin.H{"group": "CS-101", "subject": "Physics", "day": 6, "time": "x"}).Code)

	w = e.do(http.MethodGet, "/api/schedule?group=CS-101", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]model.ScheduleEntry](t, w)["schedule"], 2)

	w = e.do(http.MethodGet, "/api/schedule/today?group=CS-101", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	today := decode[struct {
		Lessons []model.ScheduleEntry `json:"lessons"`
	}](t, w)
	require.Len(t, today.Lessons, 2)
	assert.Equal(t, "Mathematics", today.Lessons[0].Subject)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, "/api/schedule/"+created.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/api/schedule/"+created.ID, admin, nil).Code)

	w = e.do(http.MethodPost, "/api/news", admin, gin.H{"title": "Exams", "content": "Next week"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Admin", decode[model.NewsItem](t, w).AuthorName)

	w = e.do(http.MethodPost, "/api/groups", admin, gin.H{"name": "LAW-105", "department": "Law", "course": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	w = e.do(http.MethodGet, "/api/groups", admin, nil)
	assert.Len(t, decode[map[string][]model.Group](t, w)["groups"], 5)

	w = e.do(http.MethodPost, "/api/library", admin, gin.H{"title": "SICP", "author": "Abelson", "url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDirectMessages(t *testing.T) {
	e := newEnv(t)
	a := e.user(student("a", "Aida", "CS-101"))
	b := e.user(teacher("t1"))

	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/messages/t1", a, gin.H{"text": "hello"}).Code)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/messages/a", b, gin.H{"text": "hi"}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/messages/ghost", a, gin.H{"text": "?"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/messages/t1", a, gin.H{"text": "  "}).Code)

	w := e.do(http.MethodGet, "/api/messages/t1", a, nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode[map[string][]model.ChatMessage](t, w)["messages"]
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestAIChatJob(t *testing.T) {
	e := newEnv(t)
	a := e.user(student("a", "Aida", "CS-101"))
	other := e.user(student("b", "Bek", "CS-101"))

	w := e.do(http.MethodPost, "/api/ai/chat", a, gin.H{"message": "What is a derivative?"})
	require.Equal(t, http.StatusAccepted, w.Code)
	job := decode[struct {
		Job model.Job `json:"job"`
	}](t, w).Job
	assert.Equal(t, model.JobPending, job.State)

	require.NoError(t, e.runner.Process(context.Background(), job.ID))

	w = e.do(http.MethodGet, "/api/ai/jobs/"+job.ID, a, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.JobSucceeded, decode[model.Job](t, w).State)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/ai/jobs/"+job.ID, other, nil).Code)

	w = e.do(http.MethodGet, "/api/ai/chat", a, nil)
	assert.Len(t, decode[map[string][]model.Turn](t, w)["history"], 2)

	assert.Equal(t, http.StatusNoContent, e.do(http.MethodDelete, "/api/ai/chat", a, nil).Code)
	w = e.do(http.MethodGet, "/api/ai/chat", a, nil)
	assert.Empty(t, decode[map[string][]model.Turn](t, w)["history"])
}

func TestAIReports(t *testing.T) {
	e := newEnv(t)
	a := e.user(student("a", "Aida", "CS-101"))
	e.user(student("b", "Bek", "CS-101"))
	dir := e.user(model.User{ID: "d", FullName: "Director", Email: "d@edu.kg", Profile: model.Director{}})

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/ai/report/student", a, gin.H{"studentId": "b"}).Code)
	assert.Equal(t, http.StatusAccepted, e.do(http.MethodPost, "/api/ai/report/student", a, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/ai/report/collective", a, nil).Code)

	w := e.do(http.MethodPost, "/api/ai/report/collective", dir, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	first := decode[struct {
		Job     model.Job `json:"job"`
		Created bool      `json:"created"`
	}](t, w)
	assert.True(t, first.Created)

	w = e.do(http.MethodPost, "/api/ai/report/collective", dir, nil)
	second := decode[struct {
		Job     model.Job `json:"job"`
		Created bool      `json:"created"`
	}](t, w)
	assert.False(t, second.Created)
	assert.Equal(t, first.Job.ID, second.Job.ID)
}

func TestAdminImport(t *testing.T) {
	e := newEnv(t)
	admin := e.user(model.User{ID: "ad", FullName: "Admin", Email: "ad@edu.kg", Profile: model.Admin{}})

	w := e.do(http.MethodPost, "/api/admin/import", admin, gin.H{
		"edu_library": []gin.H{{"id": "1", "title": "SICP", "author": "Abelson"}},
		"edu_theme":   "dark",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Imported []string `json:"imported"`
		Skipped  []string `json:"skipped"`
	}](t, w)
	assert.Equal(t, []string{"edu_library"}, res.Imported)
	assert.Equal(t, []string{"edu_theme"}, res.Skipped)

	books, err := e.repos.Library.All(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "SICP", books[0].Title)

	w = e.do(http.MethodPost, "/api/admin/import", admin, gin.H{"edu_attendance": gin.H{"present": 3}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	_, err = e.repos.Attendance.All(context.Background())
	assert.NoError(t, err)
}

type fakeAvatars struct{ err error }

func (f fakeAvatars) UploadDataURL(_ context.Context, _, publicID string) (cloudinary.Image, error) {
	if f.err != nil {
		return cloudinary.Image{}, f.err
	}
	return cloudinary.Image{SecureURL: "https://cdn.example/" + publicID + ".png"}, nil
}

func TestSetAvatar(t *testing.T) {
	e := newEnv(t)
	a := e.user(student("a", "Aida", "CS-101"))
	img := gin.H{"image": "data:image/png;base64,AAAA"}

	assert.Equal(t, http.StatusServiceUnavailable, e.do(http.MethodPut, "/api/me/avatar", a, img).Code)

	e.server.Avatars = fakeAvatars{err: errors.New("boom")}
	assert.Equal(t, http.StatusBadGateway, e.do(http.MethodPut, "/api/me/avatar", a, img).Code)

	e.server.Avatars = fakeAvatars{}
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, "/api/me/avatar", a, gin.H{"image": "hello"}).Code)
	w := e.do(http.MethodPut, "/api/me/avatar", a, img)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := e.repos.Users.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.png", u.Avatar)
}
