package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

func TestDecodeTodosArrayFormStringIDs(t *testing.T) {
	items := DecodeTodos(`[{"id":"1","text":"세차","completed":false},{"id":"2","text":"정비","completed":true}]`, "")

	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "세차", items[0].Text)
	assert.True(t, items[1].Completed)
}

func TestDecodeTodosArrayFormNumericIDs(t *testing.T) {
	items := DecodeTodos(`[{"id":3,"text":"입고 확인","completed":false}]`, "")

	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].ID)
}

func TestDecodeTodosLegacyEncoding(t *testing.T) {
	items := DecodeTodos(`{"2":"정비","1":"세차"}`, `{"2":true}`)

	require.Len(t, items, 2)
	// ordered by id
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "세차", items[0].Text)
	assert.False(t, items[0].Completed)
	assert.True(t, items[1].Completed)
}

func TestDecodeTodosLegacyBrokenCompletedMap(t *testing.T) {
	items := DecodeTodos(`{"1":"세차"}`, `not json`)

	require.Len(t, items, 1)
	assert.False(t, items[0].Completed)
}

func TestDecodeTodosGarbageDegradesToEmpty(t *testing.T) {
	assert.Empty(t, DecodeTodos(`certainly not json`, ""))
	assert.Empty(t, DecodeTodos(`[]`, ""))
	assert.Empty(t, DecodeTodos(``, ""))
}

func TestEncodeTodosSerializesIDsAsStrings(t *testing.T) {
	// one three-char Korean item
	encoded := EncodeTodos([]models.TodoItem{{ID: 1, Text: "세차", Completed: false}})

	assert.Equal(t, `[{"id":"1","text":"세차","completed":false}]`, encoded)
}

func TestEncodeDecodeMembers(t *testing.T) {
	assert.Equal(t, "[1,2,3]", EncodeMembers([]int64{1, 2, 3}))
	assert.Equal(t, "[]", EncodeMembers(nil))
	assert.Equal(t, []int64{4, 5}, DecodeMembers("[4,5]"))
	assert.Nil(t, DecodeMembers("oops"))
	assert.Nil(t, DecodeMembers(""))
}
