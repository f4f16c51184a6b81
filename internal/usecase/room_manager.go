package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

const (
	ActionRoomUpdate   = "room-update"
	ActionPlayerJoined = "player-joined"
	ActionPlayerLeft   = "player-left"
	ActionMoveMade     = "move-made"
	ActionChatMessage  = "chat-message"
	ActionGameReset    = "game-reset"
	ActionGameOver     = "game-over"
	ActionDrawRequest  = "draw-request"
	ActionDrawResponse = "draw-response"
)

// WinnerDraw is the game-over payload for an accepted draw.
const WinnerDraw = "DRAW"

const (
	senderPlayerX = "Player X"
	senderPlayerO = "Player O"
)

// Event is an outbound broadcast produced by the dispatcher.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// RoomUpdate is the room snapshot; Board and CurrentPlayer are omitted in the
// partial form sent on disconnect.
type RoomUpdate struct {
	Players       entity.Players `json:"players"`
	Board         *entity.Board  `json:"board,omitempty"`
	CurrentPlayer string         `json:"currentPlayer,omitempty"`
}

type MoveMade struct {
	Row           int    `json:"row"`
	Col           int    `json:"col"`
	Player        string `json:"player"`
	CurrentPlayer string `json:"currentPlayer"`
}

type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type GameReset struct {
	Board         entity.Board   `json:"board"`
	CurrentPlayer string         `json:"currentPlayer"`
	Players       entity.Players `json:"players"`
}

// JoinResult is acked to the joining connection only.
type JoinResult struct {
	Role          string
	Board         entity.Board
	CurrentPlayer string
}

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Room, error)
}

type resetLimiter interface {
	Allow(ctx context.Context, roomID string) error
	Forget(ctx context.Context, roomID string) error
}

// broadcaster is the pub/sub channel abstraction provided by the transport.
type broadcaster interface {
	Subscribe(roomID, connID string)
	Publish(roomID string, event Event)
	PublishExcept(roomID, exceptConnID string, event Event)
}

// RoomManager validates every client action against room state, mutates it and
// broadcasts the result. A single mutex serializes all read-validate-mutate
// sequences, so no two mutations of the same room ever interleave partway.
type RoomManager struct {
	logger *slog.Logger

	mu       sync.Mutex
	roomRepo roomRepo
	resets   resetLimiter
	hub      broadcaster
}

func NewRoomManager(logger *slog.Logger, repo roomRepo, resets resetLimiter, hub broadcaster) *RoomManager {
	return &RoomManager{
		logger:   logger,
		roomRepo: repo,
		resets:   resets,
		hub:      hub,
	}
}

// JoinRoom - seats the connection in the room, creating the room on first use.
//
// On success the connection is subscribed to the room, everyone else gets a
// player-joined notice and the whole room gets a full room-update snapshot.
func (that *RoomManager) JoinRoom(ctx context.Context, roomID, connID string) (*JoinResult, error) {
	log := that.logger.With("method", "JoinRoom", "roomID", roomID)

	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		room = entity.NewRoom(roomID)
		log.Info("room created")
	} else if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	role, err := room.AssignSlot(connID)
	if err != nil {
		return nil, err
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	that.hub.Subscribe(roomID, connID)

	that.hub.PublishExcept(roomID, connID, Event{Action: ActionPlayerJoined, Payload: connID})
	that.hub.Publish(roomID, Event{Action: ActionRoomUpdate, Payload: RoomUpdate{
		Players:       room.Players(),
		Board:         &room.Board,
		CurrentPlayer: room.CurrentPlayer,
	}})

	log.Info("player joined", "connID", connID, "role", role)

	return &JoinResult{Role: role, Board: room.Board, CurrentPlayer: room.CurrentPlayer}, nil
}

// MakeMove - applies a move and broadcasts it.
//
// A missing room, an out-of-turn request and an occupied or out-of-range cell
// are dropped without a notice; a missing opponent is reported back to the
// requester as ErrWaitingForPlayers. The board is never inspected for a win:
// game over is asserted by the players, not computed.
func (that *RoomManager) MakeMove(ctx context.Context, roomID, connID string, row, col int) error {
	log := that.logger.With("method", "MakeMove", "roomID", roomID)

	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		log.Debug("move for unknown room ignored")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	role := room.RoleOf(connID)

	err = room.ApplyMove(role, row, col)
	switch {
	case errors.Is(err, apperror.ErrWaitingForPlayers):
		return err
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrInvalidCell):
		log.Debug("move ignored", "connID", connID, "reason", err)
		return nil
	case err != nil:
		return fmt.Errorf("failed to apply move: %w", err)
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	that.hub.Publish(roomID, Event{Action: ActionMoveMade, Payload: MoveMade{
		Row:           row,
		Col:           col,
		Player:        role,
		CurrentPlayer: room.CurrentPlayer,
	}})

	return nil
}

// SendMessage - relays a chat message to the room; the sender is shown under
// the fixed display name of their role.
func (that *RoomManager) SendMessage(ctx context.Context, roomID, connID, text string) error {
	log := that.logger.With("method", "SendMessage", "roomID", roomID)

	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		log.Debug("chat for unknown room ignored")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	sender := senderPlayerX
	if room.RoleOf(connID) == entity.PlayerO {
		sender = senderPlayerO
	}

	that.hub.Publish(roomID, Event{Action: ActionChatMessage, Payload: ChatMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}})

	return nil
}

// ResetGame - reinitializes the board, subject to the per-room reset limit.
// Slot bindings survive a reset.
func (that *RoomManager) ResetGame(ctx context.Context, roomID, connID string) error {
	log := that.logger.With("method", "ResetGame", "roomID", roomID)

	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return apperror.ErrRoomNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	if room.RoleOf(connID) == "" {
		return apperror.ErrNotInRoom
	}

	if err = that.resets.Allow(ctx, roomID); err != nil {
		return err
	}

	room.ResetBoard()

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	that.hub.Publish(roomID, Event{Action: ActionGameReset, Payload: GameReset{
		Board:         room.Board,
		CurrentPlayer: room.CurrentPlayer,
		Players:       room.Players(),
	}})

	log.Info("game reset", "connID", connID)

	return nil
}

// Surrender - concedes the game; the winner is whoever the requester is not.
// There is no check that a game is even in progress, the operation trusts the
// asserting player.
func (that *RoomManager) Surrender(ctx context.Context, roomID, connID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	role := ""

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err == nil {
		role = room.RoleOf(connID)
	} else if !errors.Is(err, apperror.ErrRoomNotFound) {
		return fmt.Errorf("failed to get room: %w", err)
	}

	that.hub.Publish(roomID, Event{Action: ActionGameOver, Payload: entity.Opponent(role)})

	return nil
}

// RequestDraw - notifies every other subscriber in the room. The handshake
// keeps no negotiation state; overlapping requests simply overlap.
func (that *RoomManager) RequestDraw(roomID, connID string) {
	that.hub.PublishExcept(roomID, connID, Event{Action: ActionDrawRequest})
}

// RespondDraw - relays the response to the others; an acceptance additionally
// ends the game in a draw for the whole room. A response with no outstanding
// request is relayed all the same.
func (that *RoomManager) RespondDraw(roomID, connID string, accepted bool) {
	that.hub.PublishExcept(roomID, connID, Event{Action: ActionDrawResponse, Payload: accepted})

	if accepted {
		that.hub.Publish(roomID, Event{Action: ActionGameOver, Payload: WinnerDraw})
	}
}

// Disconnect - clears every slot held by the connection and notifies the rooms
// it actually occupied. A room left with both slots empty is destroyed together
// with its reset counter.
func (that *RoomManager) Disconnect(ctx context.Context, connID string) error {
	log := that.logger.With("method", "Disconnect", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	rooms, err := that.roomRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	for _, room := range rooms {
		if !room.ClearSlot(connID) {
			continue
		}

		if room.IsEmpty() {
			if err = that.roomRepo.DeleteByID(ctx, room.ID); err != nil {
				return fmt.Errorf("failed to delete room: %w", err)
			}

			if err = that.resets.Forget(ctx, room.ID); err != nil {
				log.Error("failed to drop reset counter", "roomID", room.ID, "error", err)
			}

			log.Info("empty room destroyed", "roomID", room.ID)
		} else if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
			return fmt.Errorf("failed to save room: %w", err)
		}

		that.hub.Publish(room.ID, Event{Action: ActionRoomUpdate, Payload: RoomUpdate{
			Players: room.Players(),
		}})
		that.hub.Publish(room.ID, Event{Action: ActionPlayerLeft, Payload: connID})
	}

	return nil
}

// ListRooms - returns a snapshot of every known room for the status query.
func (that *RoomManager) ListRooms(ctx context.Context) ([]entity.RoomSummary, error) {
	rooms, err := that.roomRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	summaries := make([]entity.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}

	return summaries, nil
}
