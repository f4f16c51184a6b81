package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/rocketscienceinc/caro-backend/testing/suite"
)

func TestRoomRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage)

	// Given: a room with one seated player
	room := entity.NewRoom("r1")
	_, err := room.AssignSlot("conn-a")
	require.NoError(t, err)

	// When: CreateOrUpdate is called
	err = roomRepo.CreateOrUpdate(ctx, room)

	// Then: no error should be returned, and the room is stored
	require.NoError(t, err)
}

func TestRoomRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: a stored room with a move applied
		room := entity.NewRoom("r1")
		_, err := room.AssignSlot("conn-a")
		require.NoError(t, err)
		_, err = room.AssignSlot("conn-b")
		require.NoError(t, err)
		require.NoError(t, room.ApplyMove(entity.PlayerX, 0, 0))

		err = roomRepo.CreateOrUpdate(ctx, room)
		require.NoError(t, err)

		// When: GetByID is called with the existing ID
		retrievedRoom, err := roomRepo.GetByID(ctx, room.ID)

		// Then: the retrieved room should match the saved state
		require.NoError(t, err)
		assert.Equal(t, room.ID, retrievedRoom.ID)
		assert.Equal(t, entity.PlayerX, retrievedRoom.Board[0][0])
		assert.Equal(t, entity.PlayerO, retrievedRoom.CurrentPlayer)
		assert.Equal(t, "conn-a", retrievedRoom.PlayerX)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// When: GetByID is called with a non-existent ID
		retrievedRoom, err := roomRepo.GetByID(ctx, "nope")

		// Then: an ErrRoomNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Nil(t, retrievedRoom)
	})
}

func TestRoomRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage)

	// Given: a stored room
	room := entity.NewRoom("r1")
	err := roomRepo.CreateOrUpdate(ctx, room)
	require.NoError(t, err)

	// When: DeleteByID is called
	err = roomRepo.DeleteByID(ctx, room.ID)

	// Then: the room is gone
	require.NoError(t, err)

	_, err = roomRepo.GetByID(ctx, room.ID)
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
}

func TestRoomRepository_List(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage)

	// Given: two stored rooms, one of them empty
	occupied := entity.NewRoom("r1")
	_, err := occupied.AssignSlot("conn-a")
	require.NoError(t, err)
	require.NoError(t, roomRepo.CreateOrUpdate(ctx, occupied))

	abandoned := entity.NewRoom("r2")
	require.NoError(t, roomRepo.CreateOrUpdate(ctx, abandoned))

	// When: List is called
	rooms, err := roomRepo.List(ctx)

	// Then: both rooms are returned, no filtering of empty ones
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	ids := map[string]bool{}
	for _, room := range rooms {
		ids[room.ID] = true
	}
	assert.True(t, ids["r1"])
	assert.True(t, ids["r2"])
}
