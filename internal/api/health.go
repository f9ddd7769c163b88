package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/tradeportal/syncer"
)

type HealthHandler struct {
	Portal *syncer.Coordinator
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready fails while the initial load is still running. Offline mode is
// ready: the portal serves local data.
func (h *HealthHandler) ready(c *gin.Context) {
	if h.Portal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "portal_missing"})
		return
	}
	st := h.Portal.Status()
	if st.Loading {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	mode := "local"
	switch {
	case st.Online:
		mode = "online"
	case st.Remote:
		mode = "offline"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "mode": mode})
}
