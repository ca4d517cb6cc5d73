package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"educontrol/internal/model"
)

func (s *Server) listGroups(c *gin.Context) {
	groups, err := s.Repos.Groups.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (s *Server) createGroup(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required,notblank"`
		Department string `json:"department"`
		Course     int    `json:"course" binding:"required,min=1,max=4"`
	}
	if !bind(c, &req) {
		return
	}
	g := model.Group{ID: uuid.NewString(), Name: req.Name, Department: req.Department, Course: req.Course}
	if err := s.Repos.Groups.Add(c.Request.Context(), g); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (s *Server) deleteGroup(c *gin.Context) {
	if err := s.Repos.Groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type lessonRequest struct {
	Group   string `json:"group" binding:"required,notblank"`
	Subject string `json:"subject" binding:"required,notblank"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
	Day     *int   `json:"day" binding:"required,min=0,max=5"`
	Time    string `json:"time" binding:"required,notblank"`
}

func (r lessonRequest) entry(id string) model.ScheduleEntry {
	return model.ScheduleEntry{ID: id, Group: r.Group, Subject: r.Subject, Teacher: r.Teacher, Room: r.Room, Day: *r.Day, Time: r.Time}
}

// listSchedule returns the whole timetable, or one group's when ?group is set.
func (s *Server) listSchedule(c *gin.Context) {
	all, err := s.Repos.Schedule.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	group := c.Query("group")
	if group == "" {
		c.JSON(http.StatusOK, gin.H{"schedule": all})
		return
	}
	out := make([]model.ScheduleEntry, 0)
	for _, e := range all {
		if e.Group == group {
			out = append(out, e)
		}
	}
	c.JSON(http.StatusOK, gin.H{"schedule": out})
}

// today lists today's lessons of ?group, defaulting to the caller's own group.
func (s *Server) today(c *gin.Context) {
	group := c.Query("group")
	if group == "" {
		u, ok := s.caller(c)
		if !ok {
			return
		}
		if st, isStudent := u.StudentInfo(); isStudent {
			group = st.Group
		}
	}
	lessons, err := s.Attendance.Today(c.Request.Context(), group, s.now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group, "lessons": lessons})
}

func (s *Server) createLesson(c *gin.Context) {
	var req lessonRequest
	if !bind(c, &req) {
		return
	}
	e := req.entry(uuid.NewString())
	if err := s.Repos.Schedule.Add(c.Request.Context(), e); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) updateLesson(c *gin.Context) {
	var req lessonRequest
	if !bind(c, &req) {
		return
	}
	e := req.entry(c.Param("id"))
	if err := s.Repos.Schedule.Update(c.Request.Context(), e); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) deleteLesson(c *gin.Context) {
	if err := s.Repos.Schedule.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bookRequest struct {
	Title       string `json:"title" binding:"required,notblank"`
	Author      string `json:"author" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
	URL         string `json:"url" binding:"omitempty,url"`
}

func (r bookRequest) book(id string) model.LibraryBook {
	return model.LibraryBook{ID: id, Title: r.Title, Author: r.Author, Category: r.Category, Description: r.Description, URL: r.URL}
}

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.Repos.Library.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

func (s *Server) createBook(c *gin.Context) {
	var req bookRequest
	if !bind(c, &req) {
		return
	}
	b := req.book(uuid.NewString())
	if err := s.Repos.Library.Add(c.Request.Context(), b); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBook(c *gin.Context) {
	var req bookRequest
	if !bind(c, &req) {
		return
	}
	b := req.book(c.Param("id"))
	if err := s.Repos.Library.Update(c.Request.Context(), b); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBook(c *gin.Context) {
	if err := s.Repos.Library.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listNews(c *gin.Context) {
	news, err := s.Repos.News.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": news})
}

func (s *Server) createNews(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,notblank"`
		Content string `json:"content" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	u, ok := s.caller(c)
	if !ok {
		return
	}
	n := model.NewsItem{ID: uuid.NewString(), Title: req.Title, Content: req.Content, Date: s.now().UnixMilli(), AuthorName: u.FullName}
	if err := s.Repos.News.Prepend(c.Request.Context(), n); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) deleteNews(c *gin.Context) {
	if err := s.Repos.News.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
