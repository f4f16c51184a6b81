package apperror

import "errors"

var (
	ErrRoomFull          = errors.New("room is full")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotInRoom         = errors.New("you are not in this room")
	ErrResetRateLimited  = errors.New("you can only reset 3 times per minute")
	ErrWaitingForPlayers = errors.New("waiting for two players")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrInvalidCell       = errors.New("invalid cell index")
)
