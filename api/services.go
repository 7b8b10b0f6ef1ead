package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/util"
)

// CreateRoom hands out a fresh room id. The room itself is created when the
// first player connects to it.
func (s *Server) CreateRoom(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"game_id": util.NewRoomID(),
	})
}

type checkRoomRequest struct {
	RoomID string `uri:"id" binding:"required,max=64"`
}

func (s *Server) CheckRoom(c *gin.Context) {
	var data checkRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationErrorResponse(err))
		return
	}

	room, ok := s.registry.Snapshot(data.RoomID)

	if !ok {
		c.JSON(http.StatusNotFound, errorResponse("room not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("room data", room))
}
