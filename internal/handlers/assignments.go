package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classhub/api/internal/ability"
	"classhub/api/internal/authctx"
	"classhub/api/internal/ids"
	"classhub/api/internal/models"
	"classhub/api/internal/repository"
)

type createAssignmentRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"dueAt"`
}

func (h HandlerSet) CreateAssignment(c *gin.Context) {
	req := authctx.From(c)

	var body createAssignmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment := models.Assignment{
		ID:          ids.New(),
		GroupID:     req.Membership.GroupID,
		Title:       body.Title,
		Description: body.Description,
		CreatedBy:   req.User.ID,
		DueAt:       body.DueAt,
	}

	if err := h.assignments.Create(c.Request.Context(), assignment); err != nil {
		h.log.Error().Err(err).Msg("create assignment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusCreated, assignmentResponse(assignment))
}

func (h HandlerSet) ListAssignments(c *gin.Context) {
	req := authctx.From(c)

	assignments, err := h.assignments.ListByGroup(c.Request.Context(), req.Membership.GroupID)
	if err != nil {
		h.log.Error().Err(err).Msg("list assignments failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	out := make([]gin.H, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, assignmentResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"assignments": out})
}

// DeleteAssignment narrows the coarse subject-level grant to the concrete
// row: group admins of the assignment's group and the teacher who created it
// pass, everyone else is denied.
func (h HandlerSet) DeleteAssignment(c *gin.Context) {
	req := authctx.From(c)

	assignment, ok := h.loadAssignment(c)
	if !ok {
		return
	}

	inst := ability.Instance{
		ID:        assignment.ID,
		GroupID:   assignment.GroupID,
		CreatedBy: assignment.CreatedBy,
	}
	if !req.Ability.Permits(ability.ActionDelete, ability.ResourceAssignment, inst) {
		c.JSON(http.StatusForbidden, gin.H{"error": "missing permission: delete assignment", "code": "FORBIDDEN"})
		return
	}

	if err := h.assignments.Delete(c.Request.Context(), assignment.ID); err != nil {
		h.log.Error().Err(err).Msg("delete assignment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

const maxSubmissionSize = 32 << 20 // 32 MiB

// UploadSubmission stores a student's attachment. Any group member may
// submit; the stored submission is owned by the submitter, so their
// unconditional ownership grant covers later reads and deletes.
func (h HandlerSet) UploadSubmission(c *gin.Context) {
	req := authctx.From(c)

	assignment, ok := h.loadAssignment(c)
	if !ok {
		return
	}

	member := false
	for _, m := range req.Memberships {
		if m.GroupID == assignment.GroupID {
			member = true
			break
		}
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group", "code": "FORBIDDEN"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxSubmissionSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}
	defer reader.Close()

	submission := models.Submission{
		ID:           ids.New(),
		AssignmentID: assignment.ID,
		GroupID:      assignment.GroupID,
		OwnerID:      req.User.ID,
		ObjectKey:    fmt.Sprintf("submissions/%s/%s", assignment.ID, ids.New()),
		ContentType:  file.Header.Get("Content-Type"),
		Size:         file.Size,
	}

	if err := h.store.PutSubmission(c.Request.Context(), submission.ObjectKey, reader, file.Size, submission.ContentType); err != nil {
		h.log.Error().Err(err).Msg("store submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	if err := h.assignments.CreateSubmission(c.Request.Context(), submission); err != nil {
		h.log.Error().Err(err).Msg("record submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           submission.ID,
		"assignmentId": submission.AssignmentID,
	})
}

func (h HandlerSet) loadAssignment(c *gin.Context) (models.Assignment, bool) {
	assignment, err := h.assignments.GetByID(c.Request.Context(), c.Param("assignmentId"))
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
			return models.Assignment{}, false
		}
		h.log.Error().Err(err).Msg("assignment lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return models.Assignment{}, false
	}
	return assignment, true
}

func assignmentResponse(a models.Assignment) gin.H {
	resp := gin.H{
		"id":          a.ID,
		"groupId":     a.GroupID,
		"title":       a.Title,
		"description": a.Description,
		"createdBy":   a.CreatedBy,
	}
	if a.DueAt != nil {
		resp["dueAt"] = a.DueAt.Format(time.RFC3339)
	}
	return resp
}
