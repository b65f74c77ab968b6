package userlist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/bus"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
)

// fakeAPI scripts search pages keyed by offset and records calls.
type fakeAPI struct {
	pages      map[int][]models.User
	total      int
	searchErr  error
	queries    []upstream.SearchQuery
	toggleErr  error
	toggled    []int64
	bulkResult *upstream.BulkToggleResult
	bulkErr    error
	bulkIDs    []int64
}

func (f *fakeAPI) SearchUsers(ctx context.Context, token string, q upstream.SearchQuery) ([]models.User, int, error) {
	f.queries = append(f.queries, q)
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	return f.pages[q.Offset], f.total, nil
}

func (f *fakeAPI) ToggleSubscription(ctx context.Context, token string, userID, managerID int64, note string) error {
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.toggled = append(f.toggled, userID)
	return nil
}

func (f *fakeAPI) BulkToggleSubscription(ctx context.Context, token string, userIDs []int64, managerID int64, note string) (*upstream.BulkToggleResult, error) {
	f.bulkIDs = userIDs
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	return f.bulkResult, nil
}

func usersRange(from, to int) []models.User {
	var out []models.User
	for i := from; i <= to; i++ {
		out = append(out, models.User{ID: int64(i), RealName: fmt.Sprintf("user%03d", i), IsReceived: "Y"})
	}
	return out
}

func TestPaginationWalk(t *testing.T) {
	// limit=20, total=45, three pages
	api := &fakeAPI{
		total: 45,
		pages: map[int][]models.User{
			0:  usersRange(1, 20),
			20: usersRange(21, 40),
			40: usersRange(41, 45),
		},
	}
	c := NewController(api, nil, nil, "tok", 9)
	ctx := context.Background()

	require.NoError(t, c.Search(ctx, "kim", 20))
	snap := c.Snapshot()
	assert.Equal(t, 20, snap.Offset)
	assert.True(t, snap.HasMore)
	assert.Equal(t, 45, snap.TotalCount)
	assert.Len(t, snap.Rows, 20)

	require.NoError(t, c.LoadMore(ctx))
	snap = c.Snapshot()
	assert.Equal(t, 40, snap.Offset)
	assert.True(t, snap.HasMore)
	assert.Len(t, snap.Rows, 40)

	require.NoError(t, c.LoadMore(ctx))
	snap = c.Snapshot()
	assert.False(t, snap.HasMore)
	assert.Len(t, snap.Rows, 45)

	// further LoadMore is a no-op
	require.NoError(t, c.LoadMore(ctx))
	assert.Len(t, api.queries, 3)
}

func TestOverlappingPagesDeduplicatedFirstSeenWins(t *testing.T) {
	overlap := usersRange(15, 34)
	overlap[0].RealName = "changed-upstream" // id 15 arrives again, mutated
	api := &fakeAPI{
		total: 34,
		pages: map[int][]models.User{
			0:  usersRange(1, 20),
			20: overlap,
		},
	}
	c := NewController(api, nil, nil, "tok", 9)
	ctx := context.Background()

	require.NoError(t, c.Search(ctx, "kim", 20))
	require.NoError(t, c.LoadMore(ctx))

	snap := c.Snapshot()
	seen := map[int64]int{}
	for _, r := range snap.Rows {
		seen[r.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %d appears %d times", id, n)
	}
	// the earlier row must not be overwritten
	assert.Equal(t, "user015", snap.Rows[14].RealName)
}

func TestFailedLoadMoreTerminatesPagination(t *testing.T) {
	api := &fakeAPI{total: 45, pages: map[int][]models.User{0: usersRange(1, 20)}}
	c := NewController(api, nil, nil, "tok", 9)
	ctx := context.Background()

	require.NoError(t, c.Search(ctx, "kim", 20))
	api.searchErr = errors.New("boom")
	require.Error(t, c.LoadMore(ctx))

	snap := c.Snapshot()
	assert.False(t, snap.HasMore)
	assert.Len(t, snap.Rows, 20, "rows untouched on failure")

	// pagination stays terminated
	api.searchErr = nil
	require.NoError(t, c.LoadMore(ctx))
	assert.Len(t, api.queries, 2)
}

func TestDisplayUsersEntersMembersMode(t *testing.T) {
	api := &fakeAPI{total: 45, pages: map[int][]models.User{0: usersRange(1, 20)}}
	b := bus.New()
	c := NewController(api, nil, b, "tok", 9)
	defer c.Close()

	// display-users payload with one user
	raw := []models.User{{ID: 1, RealName: "김철수"}}
	b.DisplayUsers.Publish(raw)

	snap := c.Snapshot()
	assert.Equal(t, SourceMembers, snap.DataSource)
	assert.Equal(t, 1, snap.TotalCount)
	assert.False(t, snap.HasMore)

	// P2: no pagination fetch happens in members mode, ever
	require.NoError(t, c.LoadMore(context.Background()))
	assert.Empty(t, api.queries)
}

func TestSortCycleOnSameField(t *testing.T) {
	api := &fakeAPI{total: 2, pages: map[int][]models.User{0: usersRange(1, 2)}}
	c := NewController(api, nil, nil, "tok", 9)
	ctx := context.Background()
	require.NoError(t, c.Search(ctx, "kim", 20))

	require.NoError(t, c.CycleSort(ctx, types.SortRealName))
	snap := c.Snapshot()
	assert.Equal(t, types.SortRealName, snap.SortField)
	assert.Equal(t, types.SortDesc, snap.SortDir)

	require.NoError(t, c.CycleSort(ctx, types.SortRealName))
	snap = c.Snapshot()
	assert.Equal(t, types.SortAsc, snap.SortDir)

	require.NoError(t, c.CycleSort(ctx, types.SortRealName))
	snap = c.Snapshot()
	assert.Empty(t, snap.SortField)
	assert.Empty(t, snap.SortDir)
}

func TestSortDifferentFieldAlwaysStartsDesc(t *testing.T) {
	api := &fakeAPI{total: 2, pages: map[int][]models.User{0: usersRange(1, 2)}}
	c := NewController(api, nil, nil, "tok", 9)
	ctx := context.Background()
	require.NoError(t, c.Search(ctx, "kim", 20))

	require.NoError(t, c.CycleSort(ctx, types.SortRealName))
	require.NoError(t, c.CycleSort(ctx, types.SortRealName)) // now ASC
	require.NoError(t, c.CycleSort(ctx, types.SortEntryCount))

	snap := c.Snapshot()
	assert.Equal(t, types.SortEntryCount, snap.SortField)
	assert.Equal(t, types.SortDesc, snap.SortDir)
}

func TestSearchModeSortChangeRefetchesFromZero(t *testing.T) {
	api := &fakeAPI{total: 45, pages: map[int][]models.User{0: usersRange(1, 20), 20: usersRange(21, 40)}}
	c := NewController(api, nil, nil, "tok", 9)
	ctx := context.Background()

	require.NoError(t, c.Search(ctx, "kim", 20))
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.CycleSort(ctx, types.SortSoldCount))

	last := api.queries[len(api.queries)-1]
	assert.Equal(t, 0, last.Offset)
	assert.Equal(t, types.SortSoldCount, last.OrderBy)
	assert.Equal(t, types.SortDesc, last.OrderDirection)
	assert.Len(t, c.Snapshot().Rows, 20, "rows replaced, not appended")
}

func TestMembersModeSortIsLocalAndClearIsNoop(t *testing.T) {
	api := &fakeAPI{}
	c := NewController(api, nil, nil, "tok", 9)
	ctx := context.Background()

	c.DisplayMembers([]models.User{
		{ID: 1, RealName: "banana"},
		{ID: 2, RealName: ""},
		{ID: 3, RealName: "Apple"},
	})

	// DESC: case-insensitive, empty sorts first when reversed last
	require.NoError(t, c.CycleSort(ctx, types.SortRealName))
	snap := c.Snapshot()
	assert.Equal(t, []int64{1, 3, 2}, rowIDs(snap.Rows))

	// ASC
	require.NoError(t, c.CycleSort(ctx, types.SortRealName))
	snap = c.Snapshot()
	assert.Equal(t, []int64{2, 3, 1}, rowIDs(snap.Rows))

	// clearing leaves the last order untouched
	require.NoError(t, c.CycleSort(ctx, types.SortRealName))
	snap = c.Snapshot()
	assert.Equal(t, []int64{2, 3, 1}, rowIDs(snap.Rows))

	assert.Empty(t, api.queries, "members mode never touches the network")
}

func rowIDs(rows []models.User) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestSelectAllTogglesNegation(t *testing.T) {
	api := &fakeAPI{}
	c := NewController(api, nil, nil, "tok", 9)
	c.DisplayMembers(usersRange(1, 3))

	c.Select(2)
	c.SelectAll() // not all selected -> select all
	assert.Equal(t, []int64{1, 2, 3}, c.SelectedIDs())

	c.SelectAll() // all selected -> clear
	assert.Empty(t, c.SelectedIDs())
}

func TestBulkTogglePartialSuccess(t *testing.T) {
	api := &fakeAPI{
		bulkResult: &upstream.BulkToggleResult{Succeeded: []int64{1, 3}, Failed: []int64{2}},
	}
	c := NewController(api, nil, nil, "tok", 9)
	c.DisplayMembers(usersRange(1, 3))
	c.SelectAll()

	res, err := c.BulkToggleStatus(context.Background(), "사유 입력")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, api.bulkIDs)
	assert.Equal(t, []int64{1, 3}, res.Succeeded)

	snap := c.Snapshot()
	byID := map[int64]models.User{}
	for _, r := range snap.Rows {
		byID[r.ID] = r
	}
	assert.Equal(t, "N", byID[1].IsReceived)
	assert.Equal(t, "N", byID[3].IsReceived)
	assert.Equal(t, "Y", byID[2].IsReceived, "failed id keeps prior value")
	assert.True(t, byID[2].Selected, "failed id stays selected")
	assert.False(t, byID[1].Selected)
}

func TestBulkToggleRequiresReason(t *testing.T) {
	c := NewController(&fakeAPI{}, nil, nil, "tok", 9)
	_, err := c.BulkToggleStatus(context.Background(), "")
	assert.Error(t, err)
}

func TestSingleToggleFlipsOnlyOnSuccess(t *testing.T) {
	api := &fakeAPI{}
	c := NewController(api, nil, nil, "tok", 9)
	c.DisplayMembers(usersRange(1, 2))

	require.NoError(t, c.ToggleStatus(context.Background(), 1, "미수신 요청"))
	snap := c.Snapshot()
	assert.Equal(t, "N", snap.Rows[0].IsReceived)

	api.toggleErr = errors.New("upstream down")
	require.Error(t, c.ToggleStatus(context.Background(), 2, "사유"))
	snap = c.Snapshot()
	assert.Equal(t, "Y", snap.Rows[1].IsReceived)
}

func TestPublishSMSSelection(t *testing.T) {
	b := bus.New()
	c := NewController(&fakeAPI{}, nil, b, "tok", 9)
	defer c.Close()

	var got []models.SMSRecipient
	b.SMSSelectedUsers.Subscribe(func(rs []models.SMSRecipient) { got = rs })

	c.DisplayMembers([]models.User{
		{ID: 1, RealName: "김철수", Phone: "010-1111-2222", IsReceived: "Y"},
		{ID: 2, RealName: "이영희", Phone: "010-3333-4444", IsReceived: "N"},
	})
	c.Select(1)
	c.Select(2)
	c.PublishSMSSelection()

	require.Len(t, got, 2)
	assert.Equal(t, "010-1111-2222", got[0].Phone)
}

func TestSearchFromBusEvent(t *testing.T) {
	api := &fakeAPI{total: 1, pages: map[int][]models.User{0: usersRange(1, 1)}}
	b := bus.New()
	c := NewController(api, nil, b, "tok", 9)
	defer c.Close()

	b.SearchUsers.Publish("kim")

	snap := c.Snapshot()
	assert.Equal(t, SourceSearch, snap.DataSource)
	assert.Len(t, snap.Rows, 1)
	assert.Equal(t, "kim", api.queries[0].Term)
}

func TestSelectedRowsShipToNote(t *testing.T) {
	b := bus.New()
	c := NewController(&fakeAPI{}, nil, b, "tok", 9)
	defer c.Close()

	var added, removed [][]int64
	b.AddMembersToNote.Subscribe(func(ids []int64) { added = append(added, ids) })
	b.RemoveMembersFromNote.Subscribe(func(ids []int64) { removed = append(removed, ids) })

	c.DisplayMembers(usersRange(1, 3))
	c.Select(1)
	c.Select(3)

	got := c.AddSelectedToNote()
	assert.Equal(t, []int64{1, 3}, got)
	require.Len(t, added, 1)
	assert.Equal(t, []int64{1, 3}, added[0])

	got = c.RemoveSelectedFromNote()
	assert.Equal(t, []int64{1, 3}, got)
	require.Len(t, removed, 1)
	assert.Equal(t, []int64{1, 3}, removed[0])
}

func TestEmptySelectionNeverPublishes(t *testing.T) {
	b := bus.New()
	c := NewController(&fakeAPI{}, nil, b, "tok", 9)
	defer c.Close()

	published := 0
	b.AddMembersToNote.Subscribe(func([]int64) { published++ })
	b.RemoveMembersFromNote.Subscribe(func([]int64) { published++ })

	assert.Nil(t, c.AddSelectedToNote())
	assert.Nil(t, c.RemoveSelectedFromNote())
	assert.Zero(t, published)
}
