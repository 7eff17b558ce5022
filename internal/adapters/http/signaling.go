package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/beacon/internal/domain"
)

type writeSignalRequest struct {
	CallID string          `json:"callId" binding:"required"`
	Type   string          `json:"type" binding:"required"`
	Data   json.RawMessage `json:"data" binding:"required"`
}

// writeSignal is the polling-fallback write path. The SDP/candidate blobs
// are decoded only into their wire shape, never interpreted.
func (api *API) writeSignal(c *gin.Context) {
	var req writeSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "callId, type and data are required"})
		return
	}

	id := domain.CallID(req.CallID)
	switch req.Type {
	case "offer", "answer":
		var desc webrtc.SessionDescription
		if err := json.Unmarshal(req.Data, &desc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed session description"})
			return
		}
		if req.Type == "offer" {
			api.Signals.PutOffer(id, desc)
		} else {
			api.Signals.PutAnswer(id, desc)
		}
	case "ice-candidate":
		var cand webrtc.ICECandidateInit
		if err := json.Unmarshal(req.Data, &cand); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed ice candidate"})
			return
		}
		api.Signals.PushCandidate(id, cand)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signaling type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (api *API) readSignal(c *gin.Context) {
	id := domain.CallID(c.Query("callId"))
	sigType := c.Query("type")
	if id == "" || sigType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "callId and type are required"})
		return
	}

	var (
		data any
		err  error
	)
	switch sigType {
	case "offer":
		data, err = api.Signals.Offer(id)
	case "answer":
		data, err = api.Signals.Answer(id)
	case "ice-candidate", "ice-candidates":
		data, err = api.Signals.Candidates(id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signaling type"})
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrSignalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "call signaling not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// deleteSignal purges the record; deleting nothing is still a success.
func (api *API) deleteSignal(c *gin.Context) {
	id := c.Query("callId")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "callId is required"})
		return
	}
	api.Signals.Purge(domain.CallID(id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// iceConfig hands clients the STUN/TURN servers to build peer connections with.
func (api *API) iceConfig(c *gin.Context) {
	servers := make([]webrtc.ICEServer, 0, len(api.ICEUrls))
	for _, url := range api.ICEUrls {
		servers = append(servers, webrtc.ICEServer{URLs: []string{url}})
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}

func (api *API) presenceSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": api.Presence.Online()})
}
