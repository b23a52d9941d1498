package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signaltracker/src/model"
	"signaltracker/src/stats"
)

type statsProvider interface {
	CalculateChannelStats(ctx context.Context, channelName string) (*model.ChannelStatistics, error)
	CalculateAllStats(ctx context.Context) (map[string]*model.ChannelStatistics, error)
	OverallStats(ctx context.Context) (*model.ChannelStatistics, error)
	BestChannel(ctx context.Context) (*stats.ChannelRank, error)
	WorstChannel(ctx context.Context) (*stats.ChannelRank, error)
}

// ChannelStatsHandler returns one channel's statistics, served from the
// cache or a fresh-enough persisted snapshot when possible.
func ChannelStatsHandler(keeper StatsKeeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelName := chi.URLParam(r, "channel")

		s, err := keeper.channelStats(r.Context(), channelName)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, s)
	}
}

// AllStatsHandler recomputes statistics for every channel with signals.
func AllStatsHandler(calculator statsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := calculator.CalculateAllStats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}

// OverallStatsHandler aggregates every signal in the system.
func OverallStatsHandler(calculator statsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overall, err := calculator.OverallStats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, overall)
	}
}

type summaryResponse struct {
	TotalChannels  int                 `json:"total_channels"`
	TotalSignals   int                 `json:"total_signals"`
	TotalWins      int                 `json:"total_wins"`
	TotalLosses    int                 `json:"total_losses"`
	TotalPending   int                 `json:"total_pending"`
	OverallWinrate float64             `json:"overall_winrate"`
	BestChannel    *stats.ChannelRank  `json:"best_channel"`
	WorstChannel   *stats.ChannelRank  `json:"worst_channel"`
}

// SummaryStatsHandler mirrors the dashboard header: system totals plus the
// best and worst ranked channels. Channels without closed signals never
// rank; both fields are null when nothing has closed yet.
func SummaryStatsHandler(calculator statsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := calculator.CalculateAllStats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		summary := summaryResponse{TotalChannels: len(all)}
		for _, channelStats := range all {
			summary.TotalSignals += channelStats.TotalSignals
			summary.TotalWins += channelStats.Wins
			summary.TotalLosses += channelStats.Losses
			summary.TotalPending += channelStats.Pending
		}

		overall, err := calculator.OverallStats(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		summary.OverallWinrate = overall.Winrate

		if summary.BestChannel, err = calculator.BestChannel(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		if summary.WorstChannel, err = calculator.WorstChannel(r.Context()); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
