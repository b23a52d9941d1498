package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"signaltracker/src/model"
	"signaltracker/src/repository"
	"signaltracker/src/resolution"
)

var validate = validator.New()

type signalSearcher interface {
	Search(ctx context.Context, options repository.SignalSearchOptions) ([]model.Signal, error)
}

type signalWriter interface {
	Create(ctx context.Context, sig *model.Signal) error
	FindByID(ctx context.Context, id string) (*model.Signal, error)
	UpdateResolved(ctx context.Context, sig *model.Signal, prevUpdatedAt time.Time) error
}

type channelEnsurer interface {
	FindByName(ctx context.Context, name string) (*model.Channel, error)
	Create(ctx context.Context, channel *model.Channel) error
}

// SearchSignalsHandler returns a handler that lists signals.
// Supports pagination and filters (channel, symbol, exchange, status, outcome).
func SearchSignalsHandler(repo signalSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := repository.SignalSearchOptions{
			ChannelName: r.URL.Query().Get("channel"),
			Symbol:      r.URL.Query().Get("symbol"),
			Exchange:    model.ExchangeType(r.URL.Query().Get("exchange")),
			Status:      model.SignalStatus(r.URL.Query().Get("status")),
			Outcome:     model.SignalOutcome(r.URL.Query().Get("outcome")),
		}

		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err := strconv.Atoi(limitParam)
			if err != nil || limit < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			options.Limit = limit
		}
		if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
			offset, err := strconv.Atoi(offsetParam)
			if err != nil || offset < 0 {
				http.Error(w, "invalid offset", http.StatusBadRequest)
				return
			}
			options.Offset = offset
		}

		signals, err := repo.Search(r.Context(), options)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, signals)
	}
}

type createSignalRequest struct {
	Name              string            `json:"name"`
	ChannelName       string            `json:"channel_name" validate:"required"`
	Symbol            string            `json:"symbol" validate:"required,uppercase"`
	Exchange          string            `json:"exchange" validate:"omitempty,oneof=binance bybit coinbase okex kraken"`
	TargetPrice       *decimal.Decimal  `json:"target_price"`
	Condition         string            `json:"condition" validate:"omitempty,oneof=above below equal percent_change"`
	PercentThreshold  *decimal.Decimal  `json:"percent_threshold"`
	TakeProfit        *decimal.Decimal  `json:"take_profit"`
	TakeProfitTargets []decimal.Decimal `json:"take_profit_targets"`
	StopLoss          *decimal.Decimal  `json:"stop_loss"`
	MaxTriggers       *int              `json:"max_triggers" validate:"omitempty,gt=0"`
	Notes             string            `json:"notes" validate:"max=500"`
}

// CreateSignalHandler returns a handler for the add-signal write path.
// The owning channel is created on first use so a form submission with a
// brand new channel name just works.
func CreateSignalHandler(signals signalWriter, channels channelEnsurer, keeper StatsKeeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSignalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		sig := &model.Signal{
			Name:             req.Name,
			ChannelName:      req.ChannelName,
			Symbol:           req.Symbol,
			Exchange:         model.ExchangeType(req.Exchange),
			TargetPrice:      req.TargetPrice,
			Condition:        model.SignalCondition(req.Condition),
			PercentThreshold: req.PercentThreshold,
			TakeProfit:       req.TakeProfit,
			StopLoss:         req.StopLoss,
			MaxTriggers:      req.MaxTriggers,
			Notes:            req.Notes,
		}
		for _, price := range req.TakeProfitTargets {
			sig.Targets = append(sig.Targets, model.TakeProfitTarget{Price: price})
		}
		if sig.Name == "" {
			sig.Name = fmt.Sprintf("%s - %s", sig.Symbol, sig.ChannelName)
		}

		if err := ensureChannel(r.Context(), channels, sig.ChannelName); err != nil {
			writeError(w, err)
			return
		}

		if err := signals.Create(r.Context(), sig); err != nil {
			writeError(w, err)
			return
		}

		keeper.refresh(r.Context(), sig.ChannelName)

		writeJSON(w, http.StatusCreated, sig)
	}
}

type closeSignalRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=win loss"`
}

// CloseSignalHandler returns a handler for the manual close write path.
// The close still flows through the engine's transition rules, so a signal
// that is already terminal stays untouched.
func CloseSignalHandler(signals signalWriter, keeper StatsKeeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req closeSignalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		sig, err := signals.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if sig == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "signal not found"})
			return
		}

		if sig.IsTerminal() {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "signal is no longer open"})
			return
		}

		transition := resolution.CloseAsWin
		if req.Outcome == string(model.OutcomeLoss) {
			transition = resolution.CloseAsLoss
		}

		prevUpdatedAt := sig.UpdatedAt
		resolution.Apply(sig, decimal.Zero, resolution.Decision{Transition: transition}, time.Now().UTC())

		if err := signals.UpdateResolved(r.Context(), sig, prevUpdatedAt); err != nil {
			writeError(w, err)
			return
		}

		keeper.refresh(r.Context(), sig.ChannelName)

		logger.WithFields(map[string]interface{}{
			"handler":   "CloseSignal",
			"signal_id": sig.ID,
			"outcome":   sig.Outcome,
		}).Info("Signal closed manually")

		writeJSON(w, http.StatusOK, sig)
	}
}

func ensureChannel(ctx context.Context, channels channelEnsurer, name string) error {
	existing, err := channels.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return channels.Create(ctx, &model.Channel{Name: name, IsActive: true})
}
