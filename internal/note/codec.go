// internal/note/codec.go
package note

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

// The todo field has two encodings in the wild: the current array form
// [{"id":"1","text":"...","completed":false}] and a legacy pair of an
// object keyed by id ({"1":"세차"}) plus a separate completed map
// ({"1":true}). Both normalize to []models.TodoItem; anything undecodable
// degrades to an empty list instead of failing the whole note.

// flexID tolerates both string and numeric id encodings.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

type wireTodo struct {
	ID        flexID `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DecodeTodos normalizes a serialized todo field.
func DecodeTodos(todoField, completedField string) []models.TodoItem {
	if todoField == "" || todoField == "[]" || todoField == "{}" {
		return nil
	}

	var wire []wireTodo
	if err := json.Unmarshal([]byte(todoField), &wire); err == nil {
		items := make([]models.TodoItem, 0, len(wire))
		for _, w := range wire {
			items = append(items, models.TodoItem{ID: int64(w.ID), Text: w.Text, Completed: w.Completed})
		}
		return items
	}

	// legacy encoding
	var byID map[string]string
	if err := json.Unmarshal([]byte(todoField), &byID); err != nil {
		return nil
	}
	completed := map[string]bool{}
	if completedField != "" {
		// a broken completed map degrades to "nothing completed"
		_ = json.Unmarshal([]byte(completedField), &completed)
	}

	items := make([]models.TodoItem, 0, len(byID))
	for k, text := range byID {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		items = append(items, models.TodoItem{ID: id, Text: text, Completed: completed[k]})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// EncodeTodos serializes the entire todo array (never a diff) in the current
// form, ids as strings.
func EncodeTodos(items []models.TodoItem) string {
	type encTodo struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
	}
	wire := make([]encTodo, len(items))
	for i, item := range items {
		wire[i] = encTodo{
			ID:        strconv.FormatInt(item.ID, 10),
			Text:      item.Text,
			Completed: item.Completed,
		}
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// EmptyCompletedMap is the placeholder written into the legacy field on every
// mutation.
const EmptyCompletedMap = "[]"

// DecodeMembers parses the encoded membership id array. Undecodable input
// degrades to an empty set.
func DecodeMembers(field string) []int64 {
	if field == "" {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(field), &ids); err != nil {
		return nil
	}
	return ids
}

// EncodeMembers serializes the membership set.
func EncodeMembers(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}
