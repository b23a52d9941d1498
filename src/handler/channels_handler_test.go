package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signaltracker/src/model"
	"signaltracker/src/stats"
)

type mockChannelLister struct {
	channels   []model.Channel
	created    []*model.Channel
	createErr  error
	activeOnly *bool
}

func (m *mockChannelLister) FindAll(_ context.Context, activeOnly bool) ([]model.Channel, error) {
	m.activeOnly = &activeOnly
	if activeOnly {
		var out []model.Channel
		for _, c := range m.channels {
			if c.IsActive {
				out = append(out, c)
			}
		}
		return out, nil
	}
	return m.channels, nil
}

func (m *mockChannelLister) Create(_ context.Context, channel *model.Channel) error {
	if m.createErr != nil {
		return m.createErr
	}
	channel.ID = model.ChannelIDForName(channel.Name)
	m.created = append(m.created, channel)
	return nil
}

func TestListChannelsHandler(t *testing.T) {
	lister := &mockChannelLister{channels: []model.Channel{
		{ID: "channel#a", Name: "vip", IsActive: true},
		{ID: "channel#b", Name: "retired", IsActive: false},
	}}
	provider := &mockStatsProvider{
		channelStats: map[string]*model.ChannelStatistics{
			"vip": {ChannelName: "vip", TotalSignals: 10, Winrate: 70.0},
		},
	}
	cache := stats.NewCache(time.Minute)

	rec := httptest.NewRecorder()
	ListChannelsHandler(lister, newKeeper(provider, &fakeSnapshotStore{}, cache))(
		rec, httptest.NewRequest(http.MethodGet, "/channels", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload []channelWithStats
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(payload) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(payload))
	}
	if payload[0].Statistics == nil || payload[0].Statistics.Winrate != 70.0 {
		t.Fatalf("expected embedded stats, got %+v", payload[0])
	}

	// stats are cached after the first listing
	if _, ok := cache.Get("vip"); !ok {
		t.Fatalf("expected vip stats cached")
	}
}

func TestListChannelsHandlerServesFreshSnapshots(t *testing.T) {
	lister := &mockChannelLister{channels: []model.Channel{
		{ID: "channel#a", Name: "vip", IsActive: true},
	}}
	provider := &mockStatsProvider{}
	snapshots := &fakeSnapshotStore{byChannel: map[string]*model.ChannelStatistics{
		"vip": {ChannelName: "vip", TotalSignals: 5, Winrate: 80.0, LastUpdated: time.Now()},
	}}

	rec := httptest.NewRecorder()
	ListChannelsHandler(lister, newKeeper(provider, snapshots, stats.NewCache(time.Minute)))(
		rec, httptest.NewRequest(http.MethodGet, "/channels", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload []channelWithStats
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(payload) != 1 || payload[0].Statistics == nil || payload[0].Statistics.Winrate != 80.0 {
		t.Fatalf("expected stats served from the snapshot, got %+v", payload)
	}
	if provider.channelCalls != 0 {
		t.Fatalf("fresh snapshot must not trigger a recomputation, got %d", provider.channelCalls)
	}
}

func TestListChannelsHandlerActiveFilter(t *testing.T) {
	lister := &mockChannelLister{channels: []model.Channel{
		{Name: "vip", IsActive: true},
		{Name: "retired", IsActive: false},
	}}

	rec := httptest.NewRecorder()
	ListChannelsHandler(lister, newKeeper(&mockStatsProvider{}, &fakeSnapshotStore{}, stats.NewCache(time.Minute)))(
		rec, httptest.NewRequest(http.MethodGet, "/channels?active=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if lister.activeOnly == nil || !*lister.activeOnly {
		t.Fatalf("active filter not forwarded")
	}

	var payload []channelWithStats
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(payload) != 1 || payload[0].Name != "vip" {
		t.Fatalf("expected only active channels, got %+v", payload)
	}
}

func TestCreateChannelHandler(t *testing.T) {
	lister := &mockChannelLister{}

	payload, _ := json.Marshal(map[string]string{
		"name":         "VIP Crypto Signals",
		"telegram_url": "https://t.me/vip_crypto_signals",
		"description":  "Premium signals",
	})

	rec := httptest.NewRecorder()
	CreateChannelHandler(lister)(rec, httptest.NewRequest(http.MethodPost, "/channels", bytes.NewReader(payload)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(lister.created) != 1 {
		t.Fatalf("expected 1 channel created, got %d", len(lister.created))
	}

	var created model.Channel
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if created.ID != model.ChannelIDForName("VIP Crypto Signals") {
		t.Fatalf("expected deterministic id in response, got %q", created.ID)
	}
	if !created.IsActive {
		t.Fatalf("new channels start active")
	}
}

func TestCreateChannelHandlerMissingName(t *testing.T) {
	rec := httptest.NewRecorder()
	CreateChannelHandler(&mockChannelLister{})(
		rec, httptest.NewRequest(http.MethodPost, "/channels", bytes.NewReader([]byte(`{}`))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
