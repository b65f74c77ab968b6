// internal/note/controller.go
package note

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/bus"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/repository"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
)

const (
	// MaxTodoLength is enforced before any network call.
	MaxTodoLength = 15

	// DefaultTitle names a note created implicitly by a pending mutation when
	// no tag is active.
	DefaultTitle = "할일 메모"
)

var (
	ErrTodoTooLong  = fmt.Errorf("todo text exceeds %d characters", MaxTodoLength)
	ErrTodoEmpty    = errors.New("todo text is required")
	ErrTodoNotFound = errors.New("todo item not found")
	ErrDuplicateTag = errors.New("tag name already exists")
	ErrTagNotFound  = errors.New("tag not found")
	ErrNoActiveNote = errors.New("no active note")
	ErrNameRequired = errors.New("member name is required")
)

// API is the slice of the upstream client the controller consumes.
type API interface {
	GetNote(ctx context.Context, token string, id int64) (*upstream.NoteRecord, error)
	LatestOngoingNote(ctx context.Context, token string, creatorID int64) (*upstream.NoteRecord, error)
	ListNotes(ctx context.Context, token string, creatorID int64) ([]upstream.NoteRecord, error)
	CreateNote(ctx context.Context, token string, rec *upstream.NoteRecord) (*upstream.NoteRecord, error)
	UpdateNote(ctx context.Context, token string, id int64, upd *upstream.NoteUpdate) error
	MembersByID(ctx context.Context, token string, ids []int64) (json.RawMessage, error)
}

// Controller keeps exactly one active note per session (optionally pinned to
// a tag) and runs every mutation as read-modify-write over the whole
// aggregate: the full todo array is serialized on each write and the note is
// refetched after the write succeeds.
type Controller struct {
	api       API
	audit     repository.AuditRepository
	bus       *bus.Bus
	token     string
	creatorID int64

	mu            sync.Mutex
	note          *models.Note
	hasNoNotes    bool
	activeTagID   int64
	activeTagName string
	// highWater tracks the largest todo id ever assigned this session so a
	// deleted id is never reused.
	highWater int64

	unsubs []func()
}

// Snapshot is the read view for the REST layer.
type Snapshot struct {
	Note          *models.Note `json:"note"`
	HasNoNotes    bool         `json:"hasNoNotes"`
	ActiveTagID   int64        `json:"activeTagId,omitempty"`
	ActiveTagName string       `json:"activeTagName,omitempty"`
	MemberTotal   int          `json:"memberTotal"`
}

func NewController(api API, audit repository.AuditRepository, b *bus.Bus, token string, creatorID int64) *Controller {
	c := &Controller{api: api, audit: audit, bus: b, token: token, creatorID: creatorID}

	if b != nil {
		c.unsubs = append(c.unsubs,
			b.AddMembersToNote.Subscribe(func(ids []int64) {
				if err := c.AddMembers(context.Background(), ids); err != nil {
					log.Printf("[Note] add members from bus failed: %v", err)
				}
			}),
			b.RemoveMembersFromNote.Subscribe(func(ids []int64) {
				if err := c.RemoveMembers(context.Background(), ids); err != nil {
					log.Printf("[Note] remove members from bus failed: %v", err)
				}
			}),
		)
	}
	return c
}

// Close detaches the controller from its bus.
func (c *Controller) Close() {
	for _, u := range c.unsubs {
		u()
	}
	c.unsubs = nil
}

// ============================================
// Fetching
// ============================================

// Fetch loads the active note: the selected tag's note when one is pinned,
// else the creator's latest ongoing note. "No posts" is a valid terminal
// state, not an error.
func (c *Controller) Fetch(ctx context.Context) error {
	c.mu.Lock()
	tagID := c.activeTagID
	c.mu.Unlock()

	var rec *upstream.NoteRecord
	var err error
	if tagID != 0 {
		rec, err = c.api.GetNote(ctx, c.token, tagID)
	} else {
		rec, err = c.api.LatestOngoingNote(ctx, c.token, c.creatorID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if errors.Is(err, upstream.ErrNoNotes) {
			c.note = nil
			c.hasNoNotes = true
			return nil
		}
		return err
	}
	c.setNoteLocked(rec)
	return nil
}

func (c *Controller) setNoteLocked(rec *upstream.NoteRecord) {
	n := &models.Note{
		ID:        rec.ID,
		Content:   rec.Content,
		TodoItems: DecodeTodos(rec.TodoList, rec.CompletedMap),
		MemberIDs: DecodeMembers(rec.MemberList),
		Status:    rec.Status,
		UpdatedAt: rec.UpdatedAt,
	}
	c.note = n
	c.hasNoNotes = false
	for _, item := range n.TodoItems {
		if item.ID > c.highWater {
			c.highWater = item.ID
		}
	}
}

// ============================================
// Todo mutations
// ============================================

// nextIDLocked assigns max(existing)+1, floor 1, and never hands out an id
// below the session high-water mark.
func (c *Controller) nextIDLocked() int64 {
	next := c.highWater + 1
	for _, item := range c.note.TodoItems {
		if item.ID >= next {
			next = item.ID + 1
		}
	}
	c.highWater = next
	return next
}

// AddTodo validates, then runs the optimistic apply/commit/revert cycle.
func (c *Controller) AddTodo(ctx context.Context, text string) (*models.TodoItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTodoEmpty
	}
	if utf8.RuneCountInString(text) > MaxTodoLength {
		return nil, ErrTodoTooLong
	}

	if err := c.ensureNote(ctx); err != nil {
		return nil, err
	}

	var added models.TodoItem
	err := c.mutateTodos(ctx, func(items []models.TodoItem) []models.TodoItem {
		added = models.TodoItem{ID: c.nextIDLocked(), Text: text, Completed: false}
		return append(items, added)
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// ToggleTodo flips one item's completed flag.
func (c *Controller) ToggleTodo(ctx context.Context, id int64) error {
	return c.mutateExisting(ctx, id, func(items []models.TodoItem, idx int) []models.TodoItem {
		items[idx].Completed = !items[idx].Completed
		return items
	})
}

// RemoveTodo deletes one item. Its id is never reassigned this session.
func (c *Controller) RemoveTodo(ctx context.Context, id int64) error {
	return c.mutateExisting(ctx, id, func(items []models.TodoItem, idx int) []models.TodoItem {
		return append(items[:idx], items[idx+1:]...)
	})
}

func (c *Controller) mutateExisting(ctx context.Context, id int64, apply func([]models.TodoItem, int) []models.TodoItem) error {
	if err := c.ensureNote(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	exists := false
	for _, item := range c.note.TodoItems {
		if item.ID == id {
			exists = true
			break
		}
	}
	c.mu.Unlock()
	if !exists {
		return ErrTodoNotFound
	}

	return c.mutateTodos(ctx, func(items []models.TodoItem) []models.TodoItem {
		for i := range items {
			if items[i].ID == id {
				return apply(items, i)
			}
		}
		return items
	})
}

// mutateTodos is the two-phase write: tentative local apply, PUT of the whole
// serialized array plus the legacy placeholder, refetch on success, revert on
// failure.
func (c *Controller) mutateTodos(ctx context.Context, apply func([]models.TodoItem) []models.TodoItem) error {
	c.mu.Lock()
	prev := make([]models.TodoItem, len(c.note.TodoItems))
	copy(prev, c.note.TodoItems)

	working := make([]models.TodoItem, len(prev))
	copy(working, prev)
	c.note.TodoItems = apply(working)

	noteID := c.note.ID
	encoded := EncodeTodos(c.note.TodoItems)
	c.mu.Unlock()

	completed := EmptyCompletedMap
	upd := &upstream.NoteUpdate{TodoList: &encoded, CompletedMap: &completed}
	if err := c.api.UpdateNote(ctx, c.token, noteID, upd); err != nil {
		c.mu.Lock()
		c.note.TodoItems = prev
		c.mu.Unlock()
		return err
	}

	// reconcile server-assigned fields; a failed refetch keeps the optimistic
	// state rather than discarding a committed write
	if err := c.Fetch(ctx); err != nil {
		log.Printf("[Note] refetch after write failed: %v", err)
	}
	return nil
}

// ensureNote creates the note lazily so a first mutation on an empty session
// can proceed: create (titled after the active tag, or the default), then the
// pending mutation replays against the new id.
func (c *Controller) ensureNote(ctx context.Context) error {
	c.mu.Lock()
	if c.note != nil {
		c.mu.Unlock()
		return nil
	}
	title := c.activeTagName
	if title == "" {
		title = DefaultTitle
	}
	c.mu.Unlock()

	rec, err := c.api.CreateNote(ctx, c.token, &upstream.NoteRecord{
		Content:      title,
		TodoList:     "[]",
		CompletedMap: EmptyCompletedMap,
		MemberList:   "[]",
		Status:       types.NoteOngoing,
		CreatorID:    c.creatorID,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.setNoteLocked(rec)
	c.mu.Unlock()
	return nil
}

// ============================================
// Membership
// ============================================

// AddMembers unions the ids into the membership set (never replaces) and
// writes the encoded set back.
func (c *Controller) AddMembers(ctx context.Context, ids []int64) error {
	if err := c.ensureNote(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	present := make(map[int64]bool, len(c.note.MemberIDs))
	for _, id := range c.note.MemberIDs {
		present[id] = true
	}
	merged := c.note.MemberIDs
	for _, id := range ids {
		if !present[id] {
			present[id] = true
			merged = append(merged, id)
		}
	}
	c.note.MemberIDs = merged
	noteID := c.note.ID
	encoded := EncodeMembers(merged)
	c.mu.Unlock()

	if err := c.api.UpdateNote(ctx, c.token, noteID, &upstream.NoteUpdate{MemberList: &encoded}); err != nil {
		return err
	}
	if err := c.Fetch(ctx); err != nil {
		log.Printf("[Note] refetch after member add failed: %v", err)
	}
	return nil
}

// RemoveMembers drops the ids from the visible set immediately, before the
// server call resolves. The removal is not rolled back on upstream failure;
// the error only surfaces. This mirrors the original console's behavior and
// is a known consistency tradeoff.
func (c *Controller) RemoveMembers(ctx context.Context, ids []int64) error {
	c.mu.Lock()
	if c.note == nil {
		c.mu.Unlock()
		return nil
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := c.note.MemberIDs[:0]
	for _, id := range c.note.MemberIDs {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	c.note.MemberIDs = kept
	noteID := c.note.ID
	encoded := EncodeMembers(kept)
	c.mu.Unlock()

	return c.api.UpdateNote(ctx, c.token, noteID, &upstream.NoteUpdate{MemberList: &encoded})
}

// DisplayMembers resolves the active note's membership to full user rows and
// hands them to the user list over the bus. Returns how many rows shipped.
func (c *Controller) DisplayMembers(ctx context.Context) (int, error) {
	c.mu.Lock()
	missing := c.note == nil
	c.mu.Unlock()
	if missing {
		if err := c.Fetch(ctx); err != nil {
			return 0, err
		}
	}

	c.mu.Lock()
	if c.note == nil {
		c.mu.Unlock()
		return 0, ErrNoActiveNote
	}
	ids := append([]int64(nil), c.note.MemberIDs...)
	c.mu.Unlock()

	if len(ids) == 0 {
		if c.bus != nil {
			c.bus.DisplayUsers.Publish(nil)
		}
		return 0, nil
	}

	raw, err := c.api.MembersByID(ctx, c.token, ids)
	if err != nil {
		return 0, err
	}
	users, err := upstream.Normalize(raw)
	if err != nil {
		return 0, err
	}
	if c.bus != nil {
		c.bus.DisplayUsers.Publish(users)
	}
	return len(users), nil
}

// SearchMember asks the user list to run a name search on the note's behalf.
func (c *Controller) SearchMember(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if c.bus != nil {
		c.bus.SearchUsers.Publish(name)
	}
	return nil
}

// ============================================
// Tags
// ============================================

// Tags lists the creator's non-deleted notes as tag aliases.
func (c *Controller) Tags(ctx context.Context) ([]models.Tag, error) {
	recs, err := c.api.ListNotes(ctx, c.token, c.creatorID)
	if err != nil {
		if errors.Is(err, upstream.ErrNoNotes) {
			return nil, nil
		}
		return nil, err
	}
	tags := make([]models.Tag, 0, len(recs))
	for _, r := range recs {
		if r.Status == types.NoteDeleted {
			continue
		}
		tags = append(tags, models.Tag{ID: r.ID, Name: r.Content, Status: r.Status})
	}
	return tags, nil
}

// CreateTag creates a new note named after the tag. Names are unique per
// creator, case-insensitively.
func (c *Controller) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name is required")
	}

	existing, err := c.Tags(ctx)
	if err != nil {
		return nil, err
	}
	for _, tg := range existing {
		if strings.EqualFold(tg.Name, name) {
			return nil, ErrDuplicateTag
		}
	}

	rec, err := c.api.CreateNote(ctx, c.token, &upstream.NoteRecord{
		Content:      name,
		TodoList:     "[]",
		CompletedMap: EmptyCompletedMap,
		MemberList:   "[]",
		Status:       types.NoteOngoing,
		CreatorID:    c.creatorID,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.activeTagID = rec.ID
	c.activeTagName = rec.Content
	c.setNoteLocked(rec)
	c.mu.Unlock()

	return &models.Tag{ID: rec.ID, Name: rec.Content, Status: rec.Status}, nil
}

// SelectTag pins the active note to a tag and fetches it. Zero unpins.
func (c *Controller) SelectTag(ctx context.Context, tagID int64, name string) error {
	c.mu.Lock()
	c.activeTagID = tagID
	c.activeTagName = name
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// DeleteTag soft-deletes the underlying note (status -> deleted). Never a
// hard delete.
func (c *Controller) DeleteTag(ctx context.Context, tagID int64) error {
	status := types.NoteDeleted
	if err := c.api.UpdateNote(ctx, c.token, tagID, &upstream.NoteUpdate{Status: &status}); err != nil {
		return err
	}

	if c.audit != nil {
		entry := &repository.AuditEntry{
			ActorID:   c.creatorID,
			Action:    repository.ActionTagDeleted,
			TargetIDs: []int64{tagID},
		}
		if err := c.audit.Record(ctx, entry); err != nil {
			log.Printf("[Note] audit record failed: %v", err)
		}
	}

	c.mu.Lock()
	wasActive := c.activeTagID == tagID
	if wasActive {
		c.activeTagID = 0
		c.activeTagName = ""
		c.note = nil
	}
	c.mu.Unlock()

	if wasActive {
		return c.Fetch(ctx)
	}
	return nil
}

// ============================================
// Read view
// ============================================

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		HasNoNotes:    c.hasNoNotes,
		ActiveTagID:   c.activeTagID,
		ActiveTagName: c.activeTagName,
	}
	if c.note != nil {
		n := *c.note
		n.TodoItems = append([]models.TodoItem(nil), c.note.TodoItems...)
		n.MemberIDs = append([]int64(nil), c.note.MemberIDs...)
		snap.Note = &n
		snap.MemberTotal = len(n.MemberIDs)
	}
	return snap
}
