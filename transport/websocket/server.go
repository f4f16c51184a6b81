package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/caro-backend/internal/pkg"
	"github.com/rocketscienceinc/caro-backend/internal/usecase"
)

type dispatcher interface {
	JoinRoom(ctx context.Context, roomID, connID string) (*usecase.JoinResult, error)
	MakeMove(ctx context.Context, roomID, connID string, row, col int) error
	SendMessage(ctx context.Context, roomID, connID, text string) error
	ResetGame(ctx context.Context, roomID, connID string) error
	Surrender(ctx context.Context, roomID, connID string) error
	RequestDraw(roomID, connID string)
	RespondDraw(roomID, connID string, accepted bool)
	Disconnect(ctx context.Context, connID string) error
}

// session binds a connection to its room membership. roomID and role are set
// once on the first successful join and never reassigned.
type session struct {
	id     string
	roomID string
	role   string
}

type Server struct {
	logger     *slog.Logger
	dispatcher dispatcher
	hub        *Hub

	handlers map[string]func(ctx context.Context, sess *session, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, dispatcher dispatcher) *Server {
	server := &Server{
		logger:     logger,
		dispatcher: dispatcher,
		hub:        hub,

		handlers: make(map[string]func(context.Context, *session, *Message) error),
	}

	server.handlers["join-room"] = server.handleJoinRoom
	server.handlers["make-move"] = server.handleMakeMove
	server.handlers["send-message"] = server.handleSendMessage
	server.handlers["reset-game"] = server.handleResetGame
	server.handlers["surrender"] = server.handleSurrender
	server.handlers["request-draw"] = server.handleRequestDraw
	server.handlers["respond-draw"] = server.handleRespondDraw

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		return
	}

	conn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer conn.Close()

	sess := &session{id: pkg.GenerateConnectionID()}
	that.hub.Register(sess.id, bufrw)

	log.Info("WebSocket connection established", "connID", sess.id)

	if err = that.handleMessages(ctx, sess, bufrw); err != nil && !errors.Is(err, io.EOF) {
		log.Error("error handling messages", "connID", sess.id, "error", err)
	}

	that.hub.Remove(sess.id)

	if err = that.dispatcher.Disconnect(ctx, sess.id); err != nil {
		log.Error("failed to handle disconnect", "connID", sess.id, "error", err)
	}

	log.Info("connection closed", "connID", sess.id)
}

// handleMessages - processes messages from the client until the connection drops.
func (that *Server) handleMessages(ctx context.Context, sess *session, bufrw *bufio.ReadWriter) error {
	log := that.logger.With("method", "handleMessages", "connID", sess.id)

	for {
		reqBody, err := readRequest(bufrw)
		if err != nil {
			return err
		}

		if reqBody == nil {
			continue
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, sess, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}
