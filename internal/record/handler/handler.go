package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/promptkeeper/promptkeeper/internal/record"
	"github.com/promptkeeper/promptkeeper/internal/record/service"
	"github.com/promptkeeper/promptkeeper/pkg/logger"
)

// RemovedHeader reports whether DELETE /prompts/:key actually removed a prompt.
const RemovedHeader = "X-Prompt-Removed"

type createRecordRequest struct {
	Key       string `json:"key" binding:"required"`
	Remaining *int   `json:"remaining"`
}

type appendPromptRequest struct {
	Key      string   `json:"key" binding:"required"`
	Tags     []string `json:"tags"`
	Heading  string   `json:"heading"`
	BodyText string   `json:"bodyText"`
}

type removePromptRequest struct {
	PromptID string `json:"promptId"`
}

// RegisterRecordRoutes registers the records and prompts endpoints.
func RegisterRecordRoutes(r *gin.Engine, svc service.Service) {
	r.POST("/records", func(c *gin.Context) {
		var req createRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := svc.Create(c.Request.Context(), req.Key, req.Remaining)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	})

	r.GET("/records", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/records/:key", func(c *gin.Context) {
		rec, err := svc.Get(c.Request.Context(), c.Param("key"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	// Only remaining and prompts are patchable; other fields are ignored.
	r.PATCH("/records/:key", func(c *gin.Context) {
		var patch record.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := svc.Update(c.Request.Context(), c.Param("key"), patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	r.DELETE("/records/:key", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("key")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.POST("/records/export", func(c *gin.Context) {
		snap, err := svc.ExportSnapshot(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, snap)
	})

	// Legacy append: the key travels in the body and industry is not accepted.
	r.POST("/prompts", func(c *gin.Context) {
		var req appendPromptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in := record.PromptInput{Tags: req.Tags, Heading: req.Heading, BodyText: req.BodyText}
		rec, err := svc.AppendPrompt(c.Request.Context(), req.Key, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	r.PUT("/prompts/:key", func(c *gin.Context) {
		var in record.PromptInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := svc.AppendPrompt(c.Request.Context(), c.Param("key"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	r.DELETE("/prompts/:key", func(c *gin.Context) {
		var req removePromptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := svc.RemovePrompt(c.Request.Context(), c.Param("key"), req.PromptID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header(RemovedHeader, strconv.FormatBool(res.Removed))
		c.JSON(http.StatusOK, res.Record)
	})

	r.GET("/prompts/industry", func(c *gin.Context) {
		top, err := svc.MostFrequentIndustry(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		out := []record.IndustryCount{}
		if top != nil {
			out = append(out, *top)
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/prompts/:key", func(c *gin.Context) {
		prompts, err := svc.Prompts(c.Request.Context(), c.Param("key"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"prompts": prompts})
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
