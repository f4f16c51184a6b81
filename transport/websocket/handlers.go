package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

const (
	actionMoveFailed  = "move-failed"
	actionResetFailed = "reset-failed"
)

type roomRequest struct {
	RoomID string `json:"roomId"`
}

type moveRequest struct {
	RoomID string `json:"roomId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type chatRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type respondDrawRequest struct {
	RoomID   string `json:"roomId"`
	Accepted bool   `json:"accepted"`
}

type joinAck struct {
	Success       bool          `json:"success"`
	Role          string        `json:"role,omitempty"`
	Board         *entity.Board `json:"board,omitempty"`
	CurrentPlayer string        `json:"currentPlayer,omitempty"`
	Message       string        `json:"message,omitempty"`
}

func (that *Server) handleJoinRoom(ctx context.Context, sess *session, message *Message) error {
	log := that.logger.With("method", "handleJoinRoom", "connID", sess.id)

	var req roomRequest
	if err := json.Unmarshal(message.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	result, err := that.dispatcher.JoinRoom(ctx, req.RoomID, sess.id)
	if errors.Is(err, apperror.ErrRoomFull) {
		that.hub.SendTo(sess.id, message.Action, joinAck{Success: false, Message: err.Error()})
		return nil
	}

	if err != nil {
		that.hub.SendTo(sess.id, message.Action, joinAck{Success: false, Message: "failed to join room"})
		return fmt.Errorf("failed to join room: %w", err)
	}

	if sess.roomID == "" {
		sess.roomID = req.RoomID
		sess.role = result.Role
	}

	that.hub.SendTo(sess.id, message.Action, joinAck{
		Success:       true,
		Role:          result.Role,
		Board:         &result.Board,
		CurrentPlayer: result.CurrentPlayer,
	})

	log.Info("joined room", "roomID", req.RoomID, "role", result.Role)

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, sess *session, message *Message) error {
	var req moveRequest
	if err := json.Unmarshal(message.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	err := that.dispatcher.MakeMove(ctx, req.RoomID, sess.id, req.Row, req.Col)
	if errors.Is(err, apperror.ErrWaitingForPlayers) {
		that.hub.SendTo(sess.id, actionMoveFailed, err.Error())
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

func (that *Server) handleSendMessage(ctx context.Context, sess *session, message *Message) error {
	var req chatRequest
	if err := json.Unmarshal(message.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.dispatcher.SendMessage(ctx, req.RoomID, sess.id, req.Message); err != nil {
		return fmt.Errorf("failed to relay chat message: %w", err)
	}

	return nil
}

func (that *Server) handleResetGame(ctx context.Context, sess *session, message *Message) error {
	var req roomRequest
	if err := json.Unmarshal(message.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	err := that.dispatcher.ResetGame(ctx, req.RoomID, sess.id)
	if errors.Is(err, apperror.ErrRoomNotFound) ||
		errors.Is(err, apperror.ErrNotInRoom) ||
		errors.Is(err, apperror.ErrResetRateLimited) {
		that.hub.SendTo(sess.id, actionResetFailed, err.Error())
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to reset game: %w", err)
	}

	return nil
}

func (that *Server) handleSurrender(ctx context.Context, sess *session, message *Message) error {
	var req roomRequest
	if err := json.Unmarshal(message.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.dispatcher.Surrender(ctx, req.RoomID, sess.id); err != nil {
		return fmt.Errorf("failed to surrender: %w", err)
	}

	return nil
}

func (that *Server) handleRequestDraw(_ context.Context, sess *session, message *Message) error {
	var req roomRequest
	if err := json.Unmarshal(message.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	that.dispatcher.RequestDraw(req.RoomID, sess.id)

	return nil
}

func (that *Server) handleRespondDraw(_ context.Context, sess *session, message *Message) error {
	var req respondDrawRequest
	if err := json.Unmarshal(message.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	that.dispatcher.RespondDraw(req.RoomID, sess.id, req.Accepted)

	return nil
}
