package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/domain"
)

type createCallRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	CallType   string `json:"callType" binding:"required"`
}

func (api *API) createCall(c *gin.Context) {
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiverId and callType are required"})
		return
	}

	sess, err := api.Calls.Create(actorID(c), domain.UserID(req.ReceiverID), domain.CallType(req.CallType))
	if err != nil {
		abortCallError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (api *API) getCall(c *gin.Context) {
	sess, err := api.Calls.Get(domain.CallID(c.Param("id")), actorID(c))
	if err != nil {
		abortCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type updateCallRequest struct {
	Action string `json:"action" binding:"required"`
}

func (api *API) updateCall(c *gin.Context) {
	var req updateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	id := domain.CallID(c.Param("id"))
	actor := actorID(c)

	var (
		sess domain.CallSession
		err  error
	)
	switch req.Action {
	case "accept":
		sess, err = api.Calls.Accept(id, actor)
	case "reject":
		sess, err = api.Calls.Reject(id, actor)
	case "end":
		sess, err = api.Calls.End(id, actor)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}
	if err != nil {
		abortCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call": sess})
}

func abortCallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrCallNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a party to this call"})
	case errors.Is(err, domain.ErrReceiverOffline),
		errors.Is(err, domain.ErrCallerBusy),
		errors.Is(err, domain.ErrReceiverBusy),
		errors.Is(err, domain.ErrCallEnded),
		errors.Is(err, domain.ErrNotRinging):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCallType), errors.Is(err, domain.ErrSelfCall):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("call handler internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
