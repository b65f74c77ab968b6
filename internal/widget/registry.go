// internal/widget/registry.go
package widget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/db"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
)

var ErrUnknownWidget = errors.New("unknown widget")

// Descriptor is one dashboard panel: its stored visibility toggle and the
// positions allowed to see it at all.
type Descriptor struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	IsVisible        bool     `json:"isVisible"`
	AllowedPositions []string `json:"allowedPositions"`
}

// defaults seeds the table on first run. Stored copies win afterwards.
var defaults = []Descriptor{
	{ID: types.WidgetUserList, Name: "회원 목록", IsVisible: true,
		AllowedPositions: []string{types.PositionAdmin, types.PositionManager}},
	{ID: types.WidgetBidBoard, Name: "입찰 현황판", IsVisible: true,
		AllowedPositions: []string{types.PositionAdmin, types.PositionManager, types.PositionDealer}},
	{ID: types.WidgetSMSBroadcast, Name: "SMS 발송", IsVisible: false,
		AllowedPositions: []string{types.PositionAdmin, types.PositionManager}},
	{ID: types.WidgetDiskPanel, Name: "디스크 관리", IsVisible: false,
		AllowedPositions: []string{types.PositionAdmin}},
	{ID: types.WidgetServicePanel, Name: "서비스 관리", IsVisible: false,
		AllowedPositions: []string{types.PositionAdmin}},
	{ID: types.WidgetNotes, Name: "노트/할일", IsVisible: true,
		AllowedPositions: []string{types.PositionAdmin, types.PositionManager, types.PositionDealer}},
}

// Registry persists one widget table per owner in the KV store.
type Registry struct {
	kv *db.RedisDB
}

func NewRegistry(kv *db.RedisDB) *Registry {
	return &Registry{kv: kv}
}

func key(ownerID int64) string {
	return fmt.Sprintf("widgets:%d", ownerID)
}

// load returns the owner's stored table, seeding defaults on first run.
func (r *Registry) load(ctx context.Context, ownerID int64) ([]Descriptor, error) {
	var stored []Descriptor
	err := r.kv.Get(ctx, key(ownerID), &stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	seeded := make([]Descriptor, len(defaults))
	copy(seeded, defaults)
	if err := r.kv.Set(ctx, key(ownerID), seeded, 0); err != nil {
		return nil, err
	}
	return seeded, nil
}

// VisibleFor returns the widgets the given position may currently see. A
// widget whose position is not allow-listed is invisible regardless of its
// stored toggle.
func (r *Registry) VisibleFor(ctx context.Context, ownerID int64, position string) ([]Descriptor, error) {
	table, err := r.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	visible := make([]Descriptor, 0, len(table))
	for _, w := range table {
		if w.IsVisible && allowed(w, position) {
			visible = append(visible, w)
		}
	}
	return visible, nil
}

// Setting is one settings-panel row: the stored descriptor plus the
// visibility that actually takes effect for the viewing position.
type Setting struct {
	Descriptor
	Effective bool `json:"effective"`
}

// All returns the owner's full table for the settings panel. Gated widgets
// still list, with Effective showing the stored toggle after the role gate.
func (r *Registry) All(ctx context.Context, ownerID int64, position string) ([]Setting, error) {
	table, err := r.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]Setting, 0, len(table))
	for _, w := range table {
		out = append(out, Setting{Descriptor: w, Effective: w.IsVisible && allowed(w, position)})
	}
	return out, nil
}

// SetVisible persists a visibility toggle.
func (r *Registry) SetVisible(ctx context.Context, ownerID int64, widgetID string, visible bool) error {
	table, err := r.load(ctx, ownerID)
	if err != nil {
		return err
	}

	found := false
	for i := range table {
		if table[i].ID == widgetID {
			table[i].IsVisible = visible
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, widgetID)
	}
	return r.kv.Set(ctx, key(ownerID), table, time.Duration(0))
}

func allowed(w Descriptor, position string) bool {
	for _, p := range w.AllowedPositions {
		if p == position {
			return true
		}
	}
	return false
}
