package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-hub/helpdesk-service/internal/repositories"
	"github.com/campus-hub/helpdesk-service/internal/services"
	"github.com/campus-hub/helpdesk-service/internal/utils"
)

type ContentHandler struct {
	BaseHandler
	contentService    services.ContentService
	visibilityService services.VisibilityService
}

func NewContentHandler(contentService services.ContentService, visibilityService services.VisibilityService, logger utils.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler:       NewBaseHandler(logger),
		contentService:    contentService,
		visibilityService: visibilityService,
	}
}

// CreateQuestion posts a new question.
// @Summary Create a question
// @Tags content
// @Accept json
// @Produce json
// @Param request body services.CreateQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Router /questions [post]
func (h *ContentHandler) CreateQuestion(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	question, err := h.contentService.CreateQuestion(c.Request.Context(), &req, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// CreateAnswer posts an answer to a question.
// @Summary Create an answer
// @Tags content
// @Accept json
// @Produce json
// @Param request body services.CreateAnswerRequest true "Answer"
// @Success 201 {object} models.Answer
// @Router /answers [post]
func (h *ContentHandler) CreateAnswer(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	var req services.CreateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	answer, err := h.contentService.CreateAnswer(c.Request.Context(), &req, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, answer)
}

// CreateReply posts a discussion reply on a question.
// @Summary Create a reply
// @Tags content
// @Accept json
// @Produce json
// @Param request body services.CreateReplyRequest true "Reply"
// @Success 201 {object} models.Reply
// @Router /replies [post]
func (h *ContentHandler) CreateReply(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	var req services.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	reply, err := h.contentService.CreateReply(c.Request.Context(), &req, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// CreateReview posts a review on an answer. Requires the reviewer role.
// @Summary Create a review
// @Tags content
// @Accept json
// @Produce json
// @Param request body services.CreateReviewRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 403 {object} ErrorResponse "Reviewer role required"
// @Router /reviews [post]
func (h *ContentHandler) CreateReview(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	review, err := h.contentService.CreateReview(c.Request.Context(), &req, userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListQuestions lists questions in the requested view mode.
// @Summary List questions
// @Tags content
// @Produce json
// @Param mode query string false "View mode (public, moderation)"
// @Param author query string false "Filter by author"
// @Param flagged query bool false "Flagged only (moderation mode)"
// @Param hidden query bool false "Hidden only (moderation mode)"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.ContentListResponse[models.Question]
// @Failure 403 {object} ErrorResponse "Moderation mode requires staff or instructor"
// @Router /questions [get]
func (h *ContentHandler) ListQuestions(c *gin.Context) {
	filters, viewer := h.parseContentFilters(c)
	response, err := h.visibilityService.ListQuestions(c.Request.Context(), filters, viewer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListAnswers lists answers, optionally scoped to one question.
// @Summary List answers
// @Tags content
// @Produce json
// @Param question_id query int false "Scope to a question"
// @Param mode query string false "View mode (public, moderation)"
// @Success 200 {object} services.ContentListResponse[models.Answer]
// @Router /answers [get]
func (h *ContentHandler) ListAnswers(c *gin.Context) {
	filters, viewer := h.parseContentFilters(c)
	if qid, err := strconv.ParseUint(c.Query("question_id"), 10, 32); err == nil {
		id := uint(qid)
		filters.QuestionID = &id
	}

	response, err := h.visibilityService.ListAnswers(c.Request.Context(), filters, viewer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListReplies lists replies, optionally scoped to one question.
// @Summary List replies
// @Tags content
// @Produce json
// @Param question_id query int false "Scope to a question"
// @Param mode query string false "View mode (public, moderation)"
// @Success 200 {object} services.ContentListResponse[models.Reply]
// @Router /replies [get]
func (h *ContentHandler) ListReplies(c *gin.Context) {
	filters, viewer := h.parseContentFilters(c)
	if qid, err := strconv.ParseUint(c.Query("question_id"), 10, 32); err == nil {
		id := uint(qid)
		filters.QuestionID = &id
	}

	response, err := h.visibilityService.ListReplies(c.Request.Context(), filters, viewer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListReviews lists reviews, optionally scoped to one answer.
// @Summary List reviews
// @Tags content
// @Produce json
// @Param answer_id query int false "Scope to an answer"
// @Param mode query string false "View mode (public, moderation)"
// @Success 200 {object} services.ContentListResponse[models.Review]
// @Router /reviews [get]
func (h *ContentHandler) ListReviews(c *gin.Context) {
	filters, viewer := h.parseContentFilters(c)
	if aid, err := strconv.ParseUint(c.Query("answer_id"), 10, 32); err == nil {
		id := uint(aid)
		filters.AnswerID = &id
	}

	response, err := h.visibilityService.ListReviews(c.Request.Context(), filters, viewer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListTrustedReviews returns public reviews by the caller's trusted
// reviewers, heaviest trust edge first.
// @Summary List reviews from trusted reviewers
// @Tags content
// @Produce json
// @Success 200 {array} models.Review
// @Router /reviews/trusted [get]
func (h *ContentHandler) ListTrustedReviews(c *gin.Context) {
	userName, ok := h.currentUserName(c)
	if !ok {
		return
	}

	reviews, err := h.visibilityService.VisibleReviewsForTrusted(c.Request.Context(), userName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ContentHandler) parseContentFilters(c *gin.Context) (repositories.ContentFilters, string) {
	filters := repositories.ContentFilters{
		Mode:      repositories.ViewMode(c.DefaultQuery("mode", string(repositories.ViewPublic))),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	filters.Limit, filters.Offset = parsePagination(c)

	if author := c.Query("author"); author != "" {
		filters.Author = &author
	}
	if flagged, err := strconv.ParseBool(c.Query("flagged")); err == nil {
		filters.FlaggedOnly = flagged
	}
	if hidden, err := strconv.ParseBool(c.Query("hidden")); err == nil {
		filters.HiddenOnly = hidden
	}

	// empty viewer means anonymous; the visibility service forces the
	// public slice in that case
	viewer := c.GetString("user_name")
	return filters, viewer
}

func (h *BaseHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: "Invalid request body",
		Details: err.Error(),
	})
}
