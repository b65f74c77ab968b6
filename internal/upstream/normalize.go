package upstream

import (
	"encoding/json"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

// Normalize extracts a user array from the loosely shaped payloads the
// upstream hands back. Shapes are tried in order: {data:{users:[...]}},
// {data:[...]}, then the payload itself as an array. This is the only place
// shape sniffing happens; consumers past this point see []models.User.
func Normalize(raw json.RawMessage) ([]models.User, error) {
	var withUsers struct {
		Data struct {
			Users json.RawMessage `json:"users"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &withUsers); err == nil && len(withUsers.Data.Users) > 0 {
		var users []models.User
		if err := json.Unmarshal(withUsers.Data.Users, &users); err == nil {
			return users, nil
		}
	}

	var withData struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &withData); err == nil && len(withData.Data) > 0 {
		var users []models.User
		if err := json.Unmarshal(withData.Data, &users); err == nil {
			return users, nil
		}
	}

	var users []models.User
	if err := json.Unmarshal(raw, &users); err == nil {
		return users, nil
	}

	return nil, ErrUnrecognizedShape
}
