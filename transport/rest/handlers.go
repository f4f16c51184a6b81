package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	RoomsHandler(w http.ResponseWriter, r *http.Request)
}

type roomLister interface {
	ListRooms(ctx context.Context) ([]entity.RoomSummary, error)
}

type handlers struct {
	logger *slog.Logger
	rooms  roomLister
}

func NewHandlers(logger *slog.Logger, rooms roomLister) Handlers {
	return &handlers{
		logger: logger,
		rooms:  rooms,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// RoomsHandler - returns a snapshot of every known room.
func (that *handlers) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "RoomsHandler")

	summaries, err := that.rooms.ListRooms(r.Context())
	if err != nil {
		log.Error("failed to list rooms", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(summaries); err != nil {
		log.Error("failed to encode room list", "error", err)
	}
}
