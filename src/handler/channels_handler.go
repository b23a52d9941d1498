package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"signaltracker/src/model"
)

type channelLister interface {
	FindAll(ctx context.Context, activeOnly bool) ([]model.Channel, error)
	Create(ctx context.Context, channel *model.Channel) error
}

type channelWithStats struct {
	model.Channel
	Statistics *model.ChannelStatistics `json:"statistics,omitempty"`
}

// ListChannelsHandler returns a handler that lists channels with their
// current statistics. ?active=true restricts to active channels. Persisted
// snapshots are prefetched in one query so a listing right after a checker
// cycle does not recompute every channel.
func ListChannelsHandler(channels channelLister, keeper StatsKeeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := r.URL.Query().Get("active") == "true"

		all, err := channels.FindAll(r.Context(), activeOnly)
		if err != nil {
			writeError(w, err)
			return
		}

		snapshots := keeper.snapshotIndex(r.Context())

		out := make([]channelWithStats, 0, len(all))
		for _, ch := range all {
			entry := channelWithStats{Channel: ch}

			if cached, ok := keeper.Cache.Get(ch.Name); ok {
				entry.Statistics = &cached
			} else if snap, ok := snapshots[ch.Name]; ok && keeper.Cache.Fresh(snap.LastUpdated) {
				keeper.Cache.Put(snap)
				entry.Statistics = &snap
			} else {
				fresh, err := keeper.recompute(r.Context(), ch.Name)
				if err != nil {
					writeError(w, err)
					return
				}
				entry.Statistics = fresh
			}

			out = append(out, entry)
		}

		writeJSON(w, http.StatusOK, out)
	}
}

type createChannelRequest struct {
	Name        string `json:"name" validate:"required"`
	TelegramURL string `json:"telegram_url"`
	Description string `json:"description" validate:"max=500"`
}

// CreateChannelHandler returns a handler for explicit channel creation.
// Duplicate names are a validation error: the ID derives from the name.
func CreateChannelHandler(channels channelLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createChannelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		channel := &model.Channel{
			Name:        req.Name,
			TelegramURL: req.TelegramURL,
			Description: req.Description,
			IsActive:    true,
		}

		if err := channels.Create(r.Context(), channel); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, channel)
	}
}
