package models

import "time"

// ============================================
// Auth DTOs
// ============================================

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Profile     Profile `json:"profile"`
	AccessToken string  `json:"accessToken"`
}

// Profile is the upstream manager identity cached in the session.
type Profile struct {
	UserID   int64  `json:"userId"`
	RealName string `json:"realName"`
	Position string `json:"position"`
}

// ============================================
// User list entities
// ============================================

// User is one row of the user list widget. Selected is client state only and
// never round-trips to the upstream API.
type User struct {
	ID           int64      `json:"id"`
	RealName     string     `json:"real_name"`
	Nickname     string     `json:"nickname"`
	MemberType   string     `json:"member_type"`
	CompanyName  string     `json:"company_name"`
	LastModified *time.Time `json:"last_modified"`
	VerifiedDate *time.Time `json:"verified_date"`
	EntryCount   int        `json:"entry_count"`
	SoldCount    int        `json:"sold_count"`
	IsReceived   string     `json:"is_received"`
	Phone        string     `json:"phone,omitempty"`
	Selected     bool       `json:"selected"`
}

// Status projects IsReceived into the enabled/disabled label the board shows.
// It is derived, never authoritative.
func (u User) Status() string {
	if u.IsReceived == "Y" {
		return "enabled"
	}
	return "disabled"
}

type SMSRecipient struct {
	ID         int64  `json:"id"`
	RealName   string `json:"real_name"`
	Phone      string `json:"phone"`
	IsReceived string `json:"is_received"`
}

// ============================================
// Note aggregate
// ============================================

type TodoItem struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Note struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	TodoItems []TodoItem `json:"todoItems"`
	MemberIDs []int64    `json:"memberIds"`
	Status    string     `json:"status"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Tag is a named alias over a note's identity used for quick selection.
type Tag struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ============================================
// List controller DTOs
// ============================================

type SearchRequest struct {
	Term  string `json:"term"`
	Limit int    `json:"limit"`
}

type SortRequest struct {
	Field string `json:"field" binding:"required"`
}

type SelectRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

type ToggleStatusRequest struct {
	Reason string `json:"reason" binding:"required"`
	// UserID set for the single-row path; empty means "all selected rows".
	UserID int64 `json:"userId"`
}

// ============================================
// Note DTOs
// ============================================

type AddTodoRequest struct {
	Text string `json:"text" binding:"required"`
}

type MembersRequest struct {
	UserIDs []int64 `json:"userIds" binding:"required"`
}

type MemberSearchRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateTagRequest struct {
	Name string `json:"name" binding:"required"`
}

type SelectTagRequest struct {
	TagID int64  `json:"tagId" binding:"required"`
	Name  string `json:"name"`
}

// ============================================
// Widget / SMS / maintenance DTOs
// ============================================

type VisibilityRequest struct {
	IsVisible *bool `json:"isVisible" binding:"required"`
}

type BroadcastRequest struct {
	Message string `json:"message" binding:"required"`
}
