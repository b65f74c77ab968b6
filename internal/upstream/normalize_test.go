package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDataUsersShape(t *testing.T) {
	raw := json.RawMessage(`{"status":"success","data":{"users":[{"id":1,"real_name":"김철수"}],"total":1}}`)

	users, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, "김철수", users[0].RealName)
}

func TestNormalizeDataArrayShape(t *testing.T) {
	raw := json.RawMessage(`{"data":[{"id":2,"nickname":"dealer2"}]}`)

	users, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(2), users[0].ID)
}

func TestNormalizeBareArrayShape(t *testing.T) {
	raw := json.RawMessage(`[{"id":3},{"id":4}]`)

	users, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestNormalizeUnrecognizedShape(t *testing.T) {
	raw := json.RawMessage(`{"data":{"count":5}}`)

	_, err := Normalize(raw)
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestNormalizePrefersNestedUsersOverDataArray(t *testing.T) {
	// data.users wins when both interpretations could apply
	raw := json.RawMessage(`{"data":{"users":[{"id":9}]}}`)

	users, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(9), users[0].ID)
}
