package models

import (
	"time"

	"gorm.io/gorm"
)

// ContentKind identifies one of the four moderated content tables.
type ContentKind string

const (
	KindQuestion ContentKind = "question"
	KindAnswer   ContentKind = "answer"
	KindReply    ContentKind = "reply"
	KindReview   ContentKind = "review"
)

// AllContentKinds in cascade order. The mute cascade touches every kind.
var AllContentKinds = []ContentKind{KindQuestion, KindAnswer, KindReply, KindReview}

// HideReason tags why an item is hidden so that unmute can restore only
// what the mute cascade hid, leaving independent moderation hides alone.
type HideReason string

const (
	HideReasonNone       HideReason = ""
	HideReasonModeration HideReason = "moderation"
	HideReasonMute       HideReason = "mute"
)

// ModerationState is the uniform flag/hide state carried by every content
// kind. IsFlagged and IsHidden are independent axes; either may be set
// without the other.
type ModerationState struct {
	IsFlagged  bool       `json:"is_flagged" gorm:"not null;default:false;index"`
	FlagReason string     `json:"flag_reason" gorm:"not null;default:'';size:500"`
	IsHidden   bool       `json:"is_hidden" gorm:"not null;default:false;index"`
	HideReason HideReason `json:"hide_reason" gorm:"not null;default:'';size:16"`
}

type Question struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	AuthorUserName string `json:"author_user_name" gorm:"not null;index;size:32"`
	Title          string `json:"title" gorm:"not null;size:200"`
	Body           string `json:"body" gorm:"type:text;not null"`
	IsResolved     bool   `json:"is_resolved" gorm:"not null;default:false"`

	ModerationState

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author  User     `json:"author" gorm:"foreignKey:AuthorUserName;references:UserName"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:QuestionID"`
	Replies []Reply  `json:"replies,omitempty" gorm:"foreignKey:QuestionID"`
}

type Answer struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	QuestionID     uint   `json:"question_id" gorm:"not null;index"`
	AuthorUserName string `json:"author_user_name" gorm:"not null;index;size:32"`
	Body           string `json:"body" gorm:"type:text;not null"`
	IsAccepted     bool   `json:"is_accepted" gorm:"not null;default:false"`

	ModerationState

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author  User     `json:"author" gorm:"foreignKey:AuthorUserName;references:UserName"`
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:AnswerID"`
}

type Reply struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	QuestionID     uint   `json:"question_id" gorm:"not null;index"`
	AuthorUserName string `json:"author_user_name" gorm:"not null;index;size:32"`
	Body           string `json:"body" gorm:"type:text;not null"`

	ModerationState

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author User `json:"author" gorm:"foreignKey:AuthorUserName;references:UserName"`
}

type Review struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	AnswerID       uint   `json:"answer_id" gorm:"not null;index"`
	AuthorUserName string `json:"author_user_name" gorm:"not null;index;size:32"`
	Body           string `json:"body" gorm:"type:text;not null"`

	ModerationState

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author User `json:"author" gorm:"foreignKey:AuthorUserName;references:UserName"`
}

func (Question) TableName() string { return "questions" }
func (Answer) TableName() string   { return "answers" }
func (Reply) TableName() string    { return "replies" }
func (Review) TableName() string   { return "reviews" }
