package upstream

import "time"

// envelope is the standard upstream response wrapper.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SearchQuery is the user search endpoint's query contract.
type SearchQuery struct {
	Term           string
	Limit          int
	Offset         int
	OrderBy        string
	OrderDirection string
}

// NoteRecord is the note aggregate as the upstream API stores it. TodoList and
// CompletedMap are independently serialized string fields; MemberList is the
// encoded membership id array. Decoding lives in the note package.
type NoteRecord struct {
	ID           int64      `json:"id"`
	Content      string     `json:"content"`
	TodoList     string     `json:"todo_list"`
	CompletedMap string     `json:"completed_map"`
	MemberList   string     `json:"member_list"`
	Status       string     `json:"status"`
	CreatorID    int64      `json:"creator_id"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// NoteUpdate carries the writable note fields for update calls. Nil pointers
// leave the upstream value untouched.
type NoteUpdate struct {
	Content      *string `json:"content,omitempty"`
	TodoList     *string `json:"todo_list,omitempty"`
	CompletedMap *string `json:"completed_map,omitempty"`
	MemberList   *string `json:"member_list,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// BulkToggleResult is the authoritative outcome of a bulk subscription toggle.
// Succeeded lists only the ids the upstream actually applied; callers must not
// touch rows outside it.
type BulkToggleResult struct {
	Succeeded []int64
	Failed    []int64
}

// LoginResult is the upstream auth response.
type LoginResult struct {
	Token    string
	UserID   int64
	RealName string
	Position string
}

// SMSResult reports how many recipients the upstream SMS gateway accepted.
type SMSResult struct {
	Accepted int
	Rejected int
}
