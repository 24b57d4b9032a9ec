package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

// memoryRepository is an in-memory Repository for service tests. It keeps
// the same semantics the Postgres layer guarantees (CAS on MarkUsed,
// upsert on trust edges, reason-scoped unhide) without a database.
type memoryRepository struct {
	mu sync.Mutex

	users       map[string]*models.User
	invitations map[string]*models.InvitationCode
	requests    map[uint]*models.RoleRequest
	nextReqID   uint
	trust       map[string]map[string]*models.TrustedReviewer // student -> reviewer -> edge

	questions map[uint]*models.Question
	answers   map[uint]*models.Answer
	replies   map[uint]*models.Reply
	reviews   map[uint]*models.Review
	nextID    uint
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users:       make(map[string]*models.User),
		invitations: make(map[string]*models.InvitationCode),
		requests:    make(map[uint]*models.RoleRequest),
		trust:       make(map[string]map[string]*models.TrustedReviewer),
		questions:   make(map[uint]*models.Question),
		answers:     make(map[uint]*models.Answer),
		replies:     make(map[uint]*models.Reply),
		reviews:     make(map[uint]*models.Review),
		nextReqID:   1,
		nextID:      1,
	}
}

func (m *memoryRepository) addUser(userName string, roles models.RoleSet) *models.User {
	u := &models.User{UserName: userName, Roles: roles, Email: userName + "@example.edu"}
	m.users[userName] = u
	return u
}

func (m *memoryRepository) User() repositories.UserRepository               { return (*memUserRepo)(m) }
func (m *memoryRepository) Invitation() repositories.InvitationRepository   { return (*memInvitationRepo)(m) }
func (m *memoryRepository) RoleRequest() repositories.RoleRequestRepository { return (*memRoleRequestRepo)(m) }
func (m *memoryRepository) Trust() repositories.TrustRepository             { return (*memTrustRepo)(m) }
func (m *memoryRepository) Question() repositories.QuestionRepository       { return &memQuestionRepo{m} }
func (m *memoryRepository) Answer() repositories.AnswerRepository           { return &memAnswerRepo{m} }
func (m *memoryRepository) Reply() repositories.ReplyRepository             { return &memReplyRepo{m} }
func (m *memoryRepository) Review() repositories.ReviewRepository           { return &memReviewRepo{m} }

func (m *memoryRepository) ContentOps() []repositories.KindOps {
	return []repositories.KindOps{
		{Kind: string(models.KindQuestion), Ops: m.Question()},
		{Kind: string(models.KindAnswer), Ops: m.Answer()},
		{Kind: string(models.KindReply), Ops: m.Reply()},
		{Kind: string(models.KindReview), Ops: m.Review()},
	}
}

func (m *memoryRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
func (m *memoryRepository) Ping(ctx context.Context) error { return nil }
func (m *memoryRepository) Close() error                   { return nil }

// ----- users -----

type memUserRepo memoryRepository

func (r *memUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserName] = user
	return nil
}

func (r *memUserRepo) GetByUserName(ctx context.Context, tx *gorm.DB, userName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userName]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, int64(len(out)), nil
}

func (r *memUserRepo) ExistsByUserName(ctx context.Context, tx *gorm.DB, userName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userName]
	return ok, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) GetRoleSet(ctx context.Context, tx *gorm.DB, userName string) (models.RoleSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userName]; ok {
		return u.Roles, nil
	}
	return 0, gorm.ErrRecordNotFound
}

func (r *memUserRepo) UpdateRoles(ctx context.Context, tx *gorm.DB, userName string, roles models.RoleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userName]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Roles = roles
	return nil
}

func (r *memUserRepo) SetMuted(ctx context.Context, tx *gorm.DB, userName string, muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userName]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsMuted = muted
	return nil
}

// ----- invitations -----

type memInvitationRepo memoryRepository

func (r *memInvitationRepo) Create(ctx context.Context, tx *gorm.DB, code *models.InvitationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invitations[code.Code] = code
	return nil
}

func (r *memInvitationRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.InvitationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invitations[code]; ok {
		copied := *inv
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memInvitationRepo) GetByEmailAndCode(ctx context.Context, tx *gorm.DB, email, code string) (*models.InvitationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invitations[code]; ok && strings.EqualFold(inv.Email, email) {
		copied := *inv
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memInvitationRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.InvitationFilters) ([]*models.InvitationCode, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.InvitationCode
	for _, inv := range r.invitations {
		if filters.Email != nil && !strings.EqualFold(inv.Email, *filters.Email) {
			continue
		}
		if filters.IsUsed != nil && inv.IsUsed != *filters.IsUsed {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, int64(len(out)), nil
}

func (r *memInvitationRepo) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.invitations[code]
	return ok, nil
}

func (r *memInvitationRepo) MarkUsed(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invitations[code]
	if !ok || inv.IsUsed {
		return false, nil
	}
	inv.IsUsed = true
	return true, nil
}

func (r *memInvitationRepo) Delete(ctx context.Context, tx *gorm.DB, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invitations[code]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.invitations, code)
	return nil
}

// ----- role requests -----

type memRoleRequestRepo memoryRepository

func (r *memRoleRequestRepo) Create(ctx context.Context, tx *gorm.DB, req *models.RoleRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = r.nextReqID
	r.nextReqID++
	r.requests[req.ID] = req
	return nil
}

func (r *memRoleRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.RoleRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRoleRequestRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.RoleRequestFilters) ([]*models.RoleRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RoleRequest
	for _, req := range r.requests {
		if filters.Status != nil && req.Status != *filters.Status {
			continue
		}
		if filters.UserName != nil && req.UserName != *filters.UserName {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memRoleRequestRepo) ListByUser(ctx context.Context, tx *gorm.DB, userName string) ([]*models.RoleRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RoleRequest
	for _, req := range r.requests {
		if req.UserName == userName {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRoleRequestRepo) FindBlocking(ctx context.Context, tx *gorm.DB, userName string, requested models.RoleSet, statuses []models.RequestStatus) ([]*models.RoleRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RoleRequest
	for _, req := range r.requests {
		if req.UserName != userName || !req.Requested.Intersects(requested) {
			continue
		}
		for _, s := range statuses {
			if req.Status == s {
				out = append(out, req)
				break
			}
		}
	}
	return out, nil
}

func (r *memRoleRequestRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.RequestStatus, decidedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.Status = status
	req.DecidedBy = &decidedBy
	return nil
}

// ----- trust -----

type memTrustRepo memoryRepository

func (r *memTrustRepo) Upsert(ctx context.Context, tx *gorm.DB, edge *models.TrustedReviewer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	edges, ok := r.trust[edge.StudentUserName]
	if !ok {
		edges = make(map[string]*models.TrustedReviewer)
		r.trust[edge.StudentUserName] = edges
	}
	edges[edge.ReviewerUserName] = edge
	return nil
}

func (r *memTrustRepo) Remove(ctx context.Context, tx *gorm.DB, student, reviewer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trust[student][reviewer]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.trust[student], reviewer)
	return nil
}

func (r *memTrustRepo) UpdateWeight(ctx context.Context, tx *gorm.DB, student, reviewer string, weight int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	edge, ok := r.trust[student][reviewer]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	edge.Weight = weight
	return nil
}

func (r *memTrustRepo) ListByStudent(ctx context.Context, tx *gorm.DB, student string) ([]*models.TrustedReviewer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TrustedReviewer
	for _, edge := range r.trust[student] {
		out = append(out, edge)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].ReviewerUserName < out[j].ReviewerUserName
	})
	return out, nil
}

func (r *memTrustRepo) Exists(ctx context.Context, tx *gorm.DB, student, reviewer string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.trust[student][reviewer]
	return ok, nil
}

func (r *memTrustRepo) ReviewerExists(ctx context.Context, tx *gorm.DB, reviewer string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, edges := range r.trust {
		if _, ok := edges[reviewer]; ok {
			return true, nil
		}
	}
	return false, nil
}

// ----- content -----

// memModeration implements the shared flag/hide surface over a map of
// moderation states keyed by item ID.
func memSetFlag(state *models.ModerationState, reason string) {
	state.IsFlagged = true
	state.FlagReason = reason
}

type memQuestionRepo struct{ m *memoryRepository }

func (r *memQuestionRepo) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q.ID = r.m.nextID
	r.m.nextID++
	r.m.questions[q.ID] = q
	return nil
}

func (r *memQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if q, ok := r.m.questions[id]; ok {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memQuestionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Question, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Question
	for _, q := range r.m.questions {
		if contentVisible(&q.ModerationState, q.AuthorUserName, filters) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memQuestionRepo) SetFlag(ctx context.Context, tx *gorm.DB, id uint, reason string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.questions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	memSetFlag(&q.ModerationState, reason)
	return nil
}

func (r *memQuestionRepo) ClearFlag(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.questions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	q.IsFlagged = false
	q.FlagReason = ""
	return nil
}

func (r *memQuestionRepo) SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool, reason models.HideReason) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.questions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	q.IsHidden = hidden
	q.HideReason = reason
	return nil
}

func (r *memQuestionRepo) HideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, reason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, q := range r.m.questions {
		if q.AuthorUserName == author && !q.IsHidden {
			q.IsHidden = true
			q.HideReason = reason
			n++
		}
	}
	return n, nil
}

func (r *memQuestionRepo) UnhideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, onlyReason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, q := range r.m.questions {
		if q.AuthorUserName == author && q.IsHidden && (onlyReason == models.HideReasonNone || q.HideReason == onlyReason) {
			q.IsHidden = false
			q.HideReason = models.HideReasonNone
			n++
		}
	}
	return n, nil
}

type memAnswerRepo struct{ m *memoryRepository }

func (r *memAnswerRepo) Create(ctx context.Context, tx *gorm.DB, a *models.Answer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a.ID = r.m.nextID
	r.m.nextID++
	r.m.answers[a.ID] = a
	return nil
}

func (r *memAnswerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if a, ok := r.m.answers[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAnswerRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Answer, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Answer
	for _, a := range r.m.answers {
		if contentVisible(&a.ModerationState, a.AuthorUserName, filters) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memAnswerRepo) SetFlag(ctx context.Context, tx *gorm.DB, id uint, reason string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	memSetFlag(&a.ModerationState, reason)
	return nil
}

func (r *memAnswerRepo) ClearFlag(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.IsFlagged = false
	a.FlagReason = ""
	return nil
}

func (r *memAnswerRepo) SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool, reason models.HideReason) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.IsHidden = hidden
	a.HideReason = reason
	return nil
}

func (r *memAnswerRepo) HideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, reason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, a := range r.m.answers {
		if a.AuthorUserName == author && !a.IsHidden {
			a.IsHidden = true
			a.HideReason = reason
			n++
		}
	}
	return n, nil
}

func (r *memAnswerRepo) UnhideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, onlyReason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, a := range r.m.answers {
		if a.AuthorUserName == author && a.IsHidden && (onlyReason == models.HideReasonNone || a.HideReason == onlyReason) {
			a.IsHidden = false
			a.HideReason = models.HideReasonNone
			n++
		}
	}
	return n, nil
}

type memReplyRepo struct{ m *memoryRepository }

func (r *memReplyRepo) Create(ctx context.Context, tx *gorm.DB, reply *models.Reply) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reply.ID = r.m.nextID
	r.m.nextID++
	r.m.replies[reply.ID] = reply
	return nil
}

func (r *memReplyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Reply, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if reply, ok := r.m.replies[id]; ok {
		return reply, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memReplyRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Reply, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Reply
	for _, reply := range r.m.replies {
		if contentVisible(&reply.ModerationState, reply.AuthorUserName, filters) {
			out = append(out, reply)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memReplyRepo) SetFlag(ctx context.Context, tx *gorm.DB, id uint, reason string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reply, ok := r.m.replies[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	memSetFlag(&reply.ModerationState, reason)
	return nil
}

func (r *memReplyRepo) ClearFlag(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reply, ok := r.m.replies[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	reply.IsFlagged = false
	reply.FlagReason = ""
	return nil
}

func (r *memReplyRepo) SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool, reason models.HideReason) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reply, ok := r.m.replies[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	reply.IsHidden = hidden
	reply.HideReason = reason
	return nil
}

func (r *memReplyRepo) HideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, reason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, reply := range r.m.replies {
		if reply.AuthorUserName == author && !reply.IsHidden {
			reply.IsHidden = true
			reply.HideReason = reason
			n++
		}
	}
	return n, nil
}

func (r *memReplyRepo) UnhideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, onlyReason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, reply := range r.m.replies {
		if reply.AuthorUserName == author && reply.IsHidden && (onlyReason == models.HideReasonNone || reply.HideReason == onlyReason) {
			reply.IsHidden = false
			reply.HideReason = models.HideReasonNone
			n++
		}
	}
	return n, nil
}

type memReviewRepo struct{ m *memoryRepository }

func (r *memReviewRepo) Create(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	review.ID = r.m.nextID
	r.m.nextID++
	r.m.reviews[review.ID] = review
	return nil
}

func (r *memReviewRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if review, ok := r.m.reviews[id]; ok {
		return review, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memReviewRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ContentFilters) ([]*models.Review, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Review
	for _, review := range r.m.reviews {
		if contentVisible(&review.ModerationState, review.AuthorUserName, filters) {
			out = append(out, review)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memReviewRepo) ListByTrustedReviewers(ctx context.Context, tx *gorm.DB, student string) ([]*models.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	edges := r.m.trust[student]
	var out []*models.Review
	for _, review := range r.m.reviews {
		if review.IsHidden {
			continue
		}
		if _, trusted := edges[review.AuthorUserName]; trusted {
			out = append(out, review)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := edges[out[i].AuthorUserName].Weight, edges[out[j].AuthorUserName].Weight
		if wi != wj {
			return wi > wj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memReviewRepo) SetFlag(ctx context.Context, tx *gorm.DB, id uint, reason string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	review, ok := r.m.reviews[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	memSetFlag(&review.ModerationState, reason)
	return nil
}

func (r *memReviewRepo) ClearFlag(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	review, ok := r.m.reviews[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	review.IsFlagged = false
	review.FlagReason = ""
	return nil
}

func (r *memReviewRepo) SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool, reason models.HideReason) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	review, ok := r.m.reviews[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	review.IsHidden = hidden
	review.HideReason = reason
	return nil
}

func (r *memReviewRepo) HideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, reason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, review := range r.m.reviews {
		if review.AuthorUserName == author && !review.IsHidden {
			review.IsHidden = true
			review.HideReason = reason
			n++
		}
	}
	return n, nil
}

func (r *memReviewRepo) UnhideAllByAuthor(ctx context.Context, tx *gorm.DB, author string, onlyReason models.HideReason) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, review := range r.m.reviews {
		if review.AuthorUserName == author && review.IsHidden && (onlyReason == models.HideReasonNone || review.HideReason == onlyReason) {
			review.IsHidden = false
			review.HideReason = models.HideReasonNone
			n++
		}
	}
	return n, nil
}

func contentVisible(state *models.ModerationState, author string, filters repositories.ContentFilters) bool {
	if filters.Mode != repositories.ViewModeration && state.IsHidden {
		return false
	}
	if filters.Mode == repositories.ViewModeration {
		if filters.FlaggedOnly && !state.IsFlagged {
			return false
		}
		if filters.HiddenOnly && !state.IsHidden {
			return false
		}
	}
	if filters.Author != nil && author != *filters.Author {
		return false
	}
	return true
}
