// internal/userlist/controller.go
package userlist

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/bus"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/repository"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
)

// Data sources of the list. In search mode rows come from the paginated
// remote endpoint and sorting is server-side; in members mode the full set is
// already in memory, sorting is local and pagination never happens again.
const (
	SourceSearch  = "search"
	SourceMembers = "members"
)

const DefaultLimit = 20

// API is the slice of the upstream client the controller consumes.
type API interface {
	SearchUsers(ctx context.Context, token string, q upstream.SearchQuery) ([]models.User, int, error)
	ToggleSubscription(ctx context.Context, token string, userID, managerID int64, note string) error
	BulkToggleSubscription(ctx context.Context, token string, userIDs []int64, managerID int64, note string) (*upstream.BulkToggleResult, error)
}

// Controller drives one session's user list widget.
type Controller struct {
	api       API
	audit     repository.AuditRepository
	bus       *bus.Bus
	token     string
	managerID int64

	mu         sync.Mutex
	dataSource string
	term       string
	limit      int
	rows       []models.User
	seen       map[int64]bool
	offset     int
	hasMore    bool
	totalCount int
	sortField  string
	sortDir    string
	isLoading  bool

	unsubs []func()
}

// Snapshot is the read view handed to the REST layer.
type Snapshot struct {
	DataSource string        `json:"dataSource"`
	Rows       []models.User `json:"rows"`
	Offset     int           `json:"offset"`
	HasMore    bool          `json:"hasMore"`
	TotalCount int           `json:"totalCount"`
	SortField  string        `json:"sortField,omitempty"`
	SortDir    string        `json:"sortDirection,omitempty"`
}

func NewController(api API, audit repository.AuditRepository, b *bus.Bus, token string, managerID int64) *Controller {
	c := &Controller{
		api:        api,
		audit:      audit,
		bus:        b,
		token:      token,
		managerID:  managerID,
		dataSource: SourceSearch,
		limit:      DefaultLimit,
		seen:       make(map[int64]bool),
	}

	if b != nil {
		c.unsubs = append(c.unsubs,
			b.SearchUsers.Subscribe(func(term string) {
				if err := c.Search(context.Background(), term, 0); err != nil {
					log.Printf("[UserList] search from bus failed: %v", err)
				}
			}),
			b.DisplayUsers.Subscribe(func(users []models.User) {
				c.DisplayMembers(users)
			}),
			b.SelectUser.Subscribe(func(id int64) {
				c.Select(id)
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

// Search enters search mode and loads the first page. Prior rows are replaced
// only on success.
func (c *Controller) Search(ctx context.Context, term string, limit int) error {
	c.mu.Lock()
	if c.isLoading {
		c.mu.Unlock()
		return nil
	}
	c.isLoading = true
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := upstream.SearchQuery{
		Term:           term,
		Limit:          limit,
		Offset:         0,
		OrderBy:        c.sortField,
		OrderDirection: c.sortDir,
	}
	c.mu.Unlock()

	users, total, err := c.api.SearchUsers(ctx, c.token, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.isLoading = false
	if err != nil {
		return err
	}

	c.dataSource = SourceSearch
	c.term = term
	c.limit = limit
	c.replaceRows(users)
	c.offset = limit
	c.totalCount = total
	c.hasMore = c.offset < total
	return nil
}

// LoadMore appends the next page in search mode. Duplicate ids the server
// hands back under concurrent writes are dropped, first-seen rows win. A
// failed fetch terminates pagination.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.dataSource != SourceSearch || !c.hasMore || c.isLoading {
		c.mu.Unlock()
		return nil
	}
	c.isLoading = true
	q := upstream.SearchQuery{
		Term:           c.term,
		Limit:          c.limit,
		Offset:         c.offset,
		OrderBy:        c.sortField,
		OrderDirection: c.sortDir,
	}
	c.mu.Unlock()

	users, total, err := c.api.SearchUsers(ctx, c.token, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.isLoading = false
	if err != nil {
		c.hasMore = false
		return err
	}

	for _, u := range users {
		if c.seen[u.ID] {
			continue
		}
		c.seen[u.ID] = true
		c.rows = append(c.rows, u)
	}
	c.offset += c.limit
	c.totalCount = total
	c.hasMore = c.offset < total
	return nil
}

// DisplayMembers enters members mode with an already-known row set. No
// further pagination fetches happen until the next search.
func (c *Controller) DisplayMembers(users []models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dataSource = SourceMembers
	c.replaceRows(users)
	c.offset = 0
	c.totalCount = len(c.rows)
	c.hasMore = false
	c.sortField = ""
	c.sortDir = ""
}

// replaceRows swaps the row set wholesale, keeping the id-uniqueness
// invariant (first occurrence wins).
func (c *Controller) replaceRows(users []models.User) {
	c.rows = c.rows[:0]
	c.seen = make(map[int64]bool)
	for _, u := range users {
		if c.seen[u.ID] {
			continue
		}
		c.seen[u.ID] = true
		c.rows = append(c.rows, u)
	}
}

// ============================================
// Sorting
// ============================================

// CycleSort applies one header click. Repeated clicks on the same field walk
// DESC, ASC, then clear; a different field always starts at DESC. In search
// mode a real state change refetches from offset 0; in members mode it
// re-sorts in memory, and clearing is a no-op reorder.
func (c *Controller) CycleSort(ctx context.Context, field string) error {
	c.mu.Lock()

	prevField, prevDir := c.sortField, c.sortDir
	var nextField, nextDir string
	if field == prevField {
		switch prevDir {
		case types.SortDesc:
			nextField, nextDir = field, types.SortAsc
		case types.SortAsc:
			nextField, nextDir = "", ""
		default:
			nextField, nextDir = field, types.SortDesc
		}
	} else {
		nextField, nextDir = field, types.SortDesc
	}

	if nextField == prevField && nextDir == prevDir {
		c.mu.Unlock()
		return nil
	}
	c.sortField, c.sortDir = nextField, nextDir

	if c.dataSource == SourceMembers {
		if nextField != "" {
			c.sortRowsLocked()
		}
		c.mu.Unlock()
		return nil
	}

	term, limit := c.term, c.limit
	c.mu.Unlock()
	return c.Search(ctx, term, limit)
}

// sortRowsLocked re-sorts the in-memory rows by case-insensitive string
// coercion of the sort field; nil and empty values compare as "".
func (c *Controller) sortRowsLocked() {
	field, dir := c.sortField, c.sortDir
	sort.SliceStable(c.rows, func(i, j int) bool {
		a := coerce(c.rows[i], field)
		b := coerce(c.rows[j], field)
		if dir == types.SortDesc {
			return a > b
		}
		return a < b
	})
}

func coerce(u models.User, field string) string {
	var v string
	switch field {
	case types.SortRealName:
		v = u.RealName
	case types.SortNickname:
		v = u.Nickname
	case types.SortMemberType:
		v = u.MemberType
	case types.SortCompanyName:
		v = u.CompanyName
	case types.SortLastModified:
		v = coerceTime(u.LastModified)
	case types.SortVerifiedDate:
		v = coerceTime(u.VerifiedDate)
	case types.SortEntryCount:
		v = strconv.Itoa(u.EntryCount)
	case types.SortSoldCount:
		v = strconv.Itoa(u.SoldCount)
	}
	return strings.ToLower(v)
}

func coerceTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ============================================
// Selection
// ============================================

// Select toggles one row's transient selection flag.
func (c *Controller) Select(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rows {
		if c.rows[i].ID == id {
			c.rows[i].Selected = !c.rows[i].Selected
			return
		}
	}
}

// SelectAll sets every row to the negation of "all currently selected".
func (c *Controller) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rows) == 0 {
		return
	}
	all := true
	for i := range c.rows {
		if !c.rows[i].Selected {
			all = false
			break
		}
	}
	for i := range c.rows {
		c.rows[i].Selected = !all
	}
}

// SelectedIDs returns the ids of selected rows in display order.
func (c *Controller) SelectedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []int64
	for _, r := range c.rows {
		if r.Selected {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// PublishSMSSelection republishes the selected rows to the SMS widget.
func (c *Controller) PublishSMSSelection() []models.SMSRecipient {
	c.mu.Lock()
	var recipients []models.SMSRecipient
	for _, r := range c.rows {
		if r.Selected {
			recipients = append(recipients, models.SMSRecipient{
				ID: r.ID, RealName: r.RealName, Phone: r.Phone, IsReceived: r.IsReceived,
			})
		}
	}
	b := c.bus
	c.mu.Unlock()

	if b != nil {
		b.SMSSelectedUsers.Publish(recipients)
	}
	return recipients
}

// AddSelectedToNote ships the selected ids to the note widget's membership
// set over the bus. Returns the ids that were published, nil when nothing is
// selected.
func (c *Controller) AddSelectedToNote() []int64 {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return nil
	}
	if c.bus != nil {
		c.bus.AddMembersToNote.Publish(ids)
	}
	return ids
}

// RemoveSelectedFromNote asks the note widget to drop the selected ids from
// its membership set.
func (c *Controller) RemoveSelectedFromNote() []int64 {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return nil
	}
	if c.bus != nil {
		c.bus.RemoveMembersFromNote.Publish(ids)
	}
	return ids
}

// ============================================
// Status toggles
// ============================================

func flip(isReceived string) string {
	if isReceived == types.ReceiveYes {
		return types.ReceiveNo
	}
	return types.ReceiveYes
}

// ToggleStatus flips one row's subscription state after the confirmation
// reason was collected. Local state changes only on upstream success.
func (c *Controller) ToggleStatus(ctx context.Context, userID int64, reason string) error {
	if reason == "" {
		return fmt.Errorf("reason is required")
	}
	if err := c.api.ToggleSubscription(ctx, c.token, userID, c.managerID, reason); err != nil {
		return err
	}

	c.mu.Lock()
	for i := range c.rows {
		if c.rows[i].ID == userID {
			c.rows[i].IsReceived = flip(c.rows[i].IsReceived)
			break
		}
	}
	c.mu.Unlock()

	c.recordAudit(ctx, []int64{userID}, reason)
	return nil
}

// BulkToggleStatus flips the selected rows. Only ids in the server's success
// list are flipped (and deselected) locally; rows the upstream skipped keep
// their prior value and stay selected so partial failure is visible.
func (c *Controller) BulkToggleStatus(ctx context.Context, reason string) (*upstream.BulkToggleResult, error) {
	if reason == "" {
		return nil, fmt.Errorf("reason is required")
	}
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return &upstream.BulkToggleResult{}, nil
	}

	res, err := c.api.BulkToggleSubscription(ctx, c.token, ids, c.managerID, reason)
	if err != nil {
		return nil, err
	}

	succeeded := make(map[int64]bool, len(res.Succeeded))
	for _, id := range res.Succeeded {
		succeeded[id] = true
	}

	c.mu.Lock()
	for i := range c.rows {
		if succeeded[c.rows[i].ID] {
			c.rows[i].IsReceived = flip(c.rows[i].IsReceived)
			c.rows[i].Selected = false
		}
	}
	c.mu.Unlock()

	if len(res.Succeeded) > 0 {
		c.recordAudit(ctx, res.Succeeded, reason)
	}
	return res, nil
}

func (c *Controller) recordAudit(ctx context.Context, ids []int64, reason string) {
	if c.audit == nil {
		return
	}
	entry := &repository.AuditEntry{
		ActorID:   c.managerID,
		Action:    repository.ActionToggleStatus,
		TargetIDs: ids,
		Reason:    reason,
	}
	if err := c.audit.Record(ctx, entry); err != nil {
		log.Printf("[UserList] audit record failed: %v", err)
	}
}

// ============================================
// Read view
// ============================================

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]models.User, len(c.rows))
	copy(rows, c.rows)
	return Snapshot{
		DataSource: c.dataSource,
		Rows:       rows,
		Offset:     c.offset,
		HasMore:    c.hasMore,
		TotalCount: c.totalCount,
		SortField:  c.sortField,
		SortDir:    c.sortDir,
	}
}
