package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptkeeper/promptkeeper/pkg/logger"
)

// Handler serves the admin configuration endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts GET and PUT /admin/config.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/admin/config", h.get)
	r.PUT("/admin/config", h.put)
}

func (h *Handler) get(c *gin.Context) {
	cfg, err := h.svc.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) put(c *gin.Context) {
	var cfg Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cfg.NumberOfFreePrompts < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number_of_free_prompts must not be negative"})
		return
	}
	out, err := h.svc.Put(c.Request.Context(), &cfg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) fail(c *gin.Context, err error) {
	logger.Errorf("admin config: %v", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
