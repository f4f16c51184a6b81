package entity

import (
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

const (
	BoardSize = 20

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

// Board is a fixed-size square grid; a cell is EmptyCell, PlayerX or PlayerO.
type Board [BoardSize][BoardSize]string

type Room struct {
	ID            string `json:"id"`
	Board         Board  `json:"board"`
	CurrentPlayer string `json:"current_player"`
	PlayerX       string `json:"player_x,omitempty"`
	PlayerO       string `json:"player_o,omitempty"`
}

// Players is the slot view sent to clients; an empty string means the slot is vacant.
type Players struct {
	X string `json:"X"`
	O string `json:"O"`
}

type RoomSummary struct {
	RoomID        string `json:"roomId"`
	PlayerX       bool   `json:"playerX"`
	PlayerO       bool   `json:"playerO"`
	CurrentPlayer string `json:"currentPlayer"`
	Board         Board  `json:"board"`
}

func NewRoom(id string) *Room {
	return &Room{
		ID:            id,
		CurrentPlayer: PlayerX,
	}
}

// AssignSlot - binds the connection to the first free slot, X before O.
func (that *Room) AssignSlot(connID string) (string, error) {
	if that.PlayerX != "" && that.PlayerO != "" {
		return "", apperror.ErrRoomFull
	}

	if that.PlayerX == "" {
		that.PlayerX = connID
		return PlayerX, nil
	}

	that.PlayerO = connID

	return PlayerO, nil
}

// RoleOf - returns the role bound to the connection, or an empty string.
func (that *Room) RoleOf(connID string) string {
	switch connID {
	case "":
		return ""
	case that.PlayerX:
		return PlayerX
	case that.PlayerO:
		return PlayerO
	default:
		return ""
	}
}

// ClearSlot - vacates the slot held by the connection. Reports whether a slot was cleared.
func (that *Room) ClearSlot(connID string) bool {
	switch that.RoleOf(connID) {
	case PlayerX:
		that.PlayerX = ""
	case PlayerO:
		that.PlayerO = ""
	default:
		return false
	}

	return true
}

func (that *Room) HasBothPlayers() bool {
	return that.PlayerX != "" && that.PlayerO != ""
}

func (that *Room) IsEmpty() bool {
	return that.PlayerX == "" && that.PlayerO == ""
}

// ApplyMove - validates and applies a move for the given role.
//
// Validation order matters: turn ownership first, then room occupancy,
// then the target cell. A cell set once stays set until ResetBoard.
func (that *Room) ApplyMove(role string, row, col int) error {
	if role != that.CurrentPlayer {
		return apperror.ErrNotYourTurn
	}

	if !that.HasBothPlayers() {
		return apperror.ErrWaitingForPlayers
	}

	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return fmt.Errorf("%w: %d,%d", apperror.ErrInvalidCell, row, col)
	}

	if that.Board[row][col] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[row][col] = role
	that.CurrentPlayer = Opponent(role)

	return nil
}

// ResetBoard - reinitializes the board and turn, keeping both slot bindings.
func (that *Room) ResetBoard() {
	that.Board = Board{}
	that.CurrentPlayer = PlayerX
}

func (that *Room) Players() Players {
	return Players{X: that.PlayerX, O: that.PlayerO}
}

func (that *Room) Summary() RoomSummary {
	return RoomSummary{
		RoomID:        that.ID,
		PlayerX:       that.PlayerX != "",
		PlayerO:       that.PlayerO != "",
		CurrentPlayer: that.CurrentPlayer,
		Board:         that.Board,
	}
}

// Opponent - returns the other role. Anything that is not X maps to X,
// so an unseated requester surrenders in favor of X.
func Opponent(role string) string {
	if role == PlayerX {
		return PlayerO
	}

	return PlayerX
}
