package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"educontrol/internal/metrics"
	"educontrol/internal/rating"
)

type leaderboardQuery struct {
	Course int    `form:"course" binding:"min=0,max=4"`
	Group  string `form:"group"`
	Bucket string `form:"bucket" binding:"omitempty,oneof=all high low"`
}

func (q leaderboardQuery) filter() rating.Filter {
	b, _ := rating.ParseBucket(q.Bucket)
	return rating.Filter{Course: q.Course, Group: q.Group, Bucket: b}
}

func (s *Server) rankings(c *gin.Context) ([]rating.StudentProfile, bool) {
	var q leaderboardQuery
	if !bindQuery(c, &q) {
		return nil, false
	}
	out, err := s.Ratings.Leaderboard(c.Request.Context(), q.filter())
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return out, true
}

func (s *Server) leaderboard(c *gin.Context) {
	out, ok := s.rankings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": out})
}

func (s *Server) exportLeaderboard(c *gin.Context) {
	out, ok := s.rankings(c)
	if !ok {
		return
	}
	buf, err := buildLeaderboard(out)
	if err != nil {
		fail(c, err)
		return
	}
	fileName := fmt.Sprintf("ratings_%s.xlsx", s.now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

const (
	ratingsSheet    = "Ratings"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ratingsHeader = []string{"#", "Student", "Group", "Academic score", "Attendance %", "Rating", "Grade"}

// buildLeaderboard renders ranked profiles as an XLSX workbook held in memory, so a
// failure surfaces before anything is sent.
func buildLeaderboard(profiles []rating.StudentProfile) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ratingsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	header := make([]any, len(ratingsHeader))
	for i, h := range ratingsHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ratingsSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, p := range profiles {
		row := []any{i + 1, p.User.FullName, p.Group(), p.AcademicScore, p.AttendanceRate, p.Rating, p.Grade}
		if err := f.SetSheetRow(ratingsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, fmt.Errorf("ratings row %d: %w", i+2, err)
		}
	}
	return f.WriteToBuffer()
}

func (s *Server) groupStats(c *gin.Context) {
	report, err := s.Ratings.Overview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) updateScore(c *gin.Context) {
	var req struct {
		Score *int `json:"score" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	score, profile, err := s.Ratings.UpdateScore(c.Request.Context(), c.Param("studentId"), *req.Score)
	if err != nil {
		fail(c, err)
		return
	}
	metrics.ScoreUpdates.Inc()
	c.JSON(http.StatusOK, gin.H{"score": score, "profile": profile})
}
