package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/robert-crandall/journal-app/internal/engine"
)

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) createUser(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	u, err := s.svc.CreateUser(c.Request.Context(), body.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := s.svc.DeleteUser(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createStat(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	stat, err := s.svc.CreateStat(c.Request.Context(), engine.CreateStatInput{
		UserID:      uid,
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, stat)
}

func (s *Server) listStats(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	snaps, err := s.svc.SnapshotAll(c.Request.Context(), uid)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snaps)
}

func (s *Server) getStat(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	snap, err := s.svc.SnapshotStat(c.Request.Context(), uid, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) acknowledgeLevelUp(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	snap, err := s.svc.AcknowledgeLevelUp(c.Request.Context(), uid, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) deleteStat(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteStat(c.Request.Context(), uid, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listGrants(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	from, ok := optionalTime(c, "from")
	if !ok {
		return
	}
	to, ok := optionalTime(c, "to")
	if !ok {
		return
	}
	grants, err := s.svc.GrantsForStat(c.Request.Context(), uid, id, from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grants)
}

func (s *Server) appendGrant(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body struct {
		StatID int64  `json:"stat_id"`
		Amount int    `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	id, err := s.svc.AppendGrant(c.Request.Context(), engine.GrantInput{
		UserID: uid,
		StatID: body.StatID,
		Amount: body.Amount,
		Source: engine.SourceManualOverride,
		Reason: body.Reason,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"grant_id": id})
}

func (s *Server) createTask(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body struct {
		Title          string `json:"title"`
		SourceType     string `json:"source_type"`
		QuestID        *int64 `json:"quest_id"`
		StatID         *int64 `json:"stat_id"`
		EstimatedXP    *int   `json:"estimated_xp"`
		FamilyMemberID *int64 `json:"family_member_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	source, err := engine.ParseSourceType(body.SourceType)
	if err != nil {
		s.fail(c, err)
		return
	}
	task, err := s.svc.CreateTask(c.Request.Context(), engine.CreateTaskInput{
		UserID:         uid,
		Title:          body.Title,
		Source:         source,
		QuestID:        body.QuestID,
		StatID:         body.StatID,
		EstimatedXP:    body.EstimatedXP,
		FamilyMemberID: body.FamilyMemberID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) completeTask(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Feedback string `json:"feedback"`
	}
	// Body is optional; completion without feedback is the common case.
	_ = c.ShouldBindJSON(&body)

	res, err := s.svc.CompleteTask(c.Request.Context(), uid, id, body.Feedback)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) archiveTask(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.ArchiveTask(c.Request.Context(), uid, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) dashboard(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
		date = parsed
	}
	tasks, err := s.svc.DashboardTasks(c.Request.Context(), uid, date)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) createQuest(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body struct {
		Kind        string     `json:"kind"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Goal        *string    `json:"goal"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	q, err := s.svc.CreateQuest(c.Request.Context(), engine.CreateQuestInput{
		UserID:      uid,
		Kind:        body.Kind,
		Title:       body.Title,
		Description: body.Description,
		Goal:        body.Goal,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (s *Server) deleteQuest(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteQuest(c.Request.Context(), uid, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) saveDraft(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body struct {
		InitialMessage string `json:"initial_message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	entry, err := s.svc.SaveDraft(c.Request.Context(), uid, c.Param("date"), body.InitialMessage)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) getJournal(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	entry, err := s.svc.GetJournalEntry(c.Request.Context(), uid, c.Param("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) beginReview(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	entry, err := s.svc.BeginReview(c.Request.Context(), uid, c.Param("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) appendTurn(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var body struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	if err := s.svc.AppendTurn(c.Request.Context(), uid, c.Param("date"), body.Role, body.Content); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) finalizeJournal(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	res, err := s.svc.FinalizeEntry(c.Request.Context(), uid, c.Param("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) periodMetrics(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	start, ok := requiredTime(c, "start")
	if !ok {
		return
	}
	end, ok := requiredTime(c, "end")
	if !ok {
		return
	}
	m, err := s.svc.ComputePeriodMetrics(c.Request.Context(), uid, start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) generationContext(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	asOf := time.Now().UTC()
	if t, ok := optionalTime(c, "as_of"); !ok {
		return
	} else if t != nil {
		asOf = *t
	}
	gc, err := s.svc.BuildGenerationContext(c.Request.Context(), uid, asOf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gc)
}

func optionalTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := parseTimeParam(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ", want RFC 3339 or YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}

func requiredTime(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " is required"})
		return time.Time{}, false
	}
	t, err := parseTimeParam(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + ", want RFC 3339 or YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
