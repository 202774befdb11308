package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/trustfundbaby/trustfund/internal/trust"
	"github.com/trustfundbaby/trustfund/internal/trust/repository"
	"github.com/trustfundbaby/trustfund/internal/trust/service"
	"github.com/trustfundbaby/trustfund/pkg/logger"
)

const (
	msgTrustNotFound = "Trust not found"
	msgUserNotFound  = "User not found"
	msgMarkedReal    = "Trust marked as real."

	maxFormMemory = 32 << 20
)

type trustHandler struct {
	svc *service.Service
}

// RegisterTrustRoutes mounts the trust goal API on r.
func RegisterTrustRoutes(r gin.IRouter, svc *service.Service) {
	h := &trustHandler{svc: svc}
	r.POST("/register", h.register)

	t := r.Group("/trusts")
	t.POST("", h.createTrust)
	t.GET("", h.listTrusts)
	t.GET("/:trust_id", h.getTrust)
	t.POST("/:trust_id/deposit", h.addDeposit)
	t.POST("/:trust_id/note", h.addNote)
	t.PATCH("/:trust_id/make_real", h.markReal)
	t.GET("/:trust_id/statement", h.statement)
	t.POST("/:trust_id/statement/archive", h.archiveStatement)
}

// bindParams fills obj from a JSON body when one is sent, then from the
// query string and form body, which take precedence. Validation runs once
// over the merged result.
func bindParams(c *gin.Context, obj interface{}) error {
	if c.ContentType() == binding.MIMEJSON && c.Request.ContentLength != 0 {
		if err := json.NewDecoder(c.Request.Body).Decode(obj); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	if err := binding.MapFormWithTag(obj, c.Request.Form, "form"); err != nil {
		return err
	}
	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(obj)
}

func unprocessable(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
}

func (h *trustHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": msgTrustNotFound})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": msgUserNotFound})
	case errors.Is(err, service.ErrArchiveUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}

func (h *trustHandler) register(c *gin.Context) {
	var req struct {
		Email *string `form:"email" json:"email" binding:"required"`
	}
	if err := bindParams(c, &req); err != nil {
		unprocessable(c, err)
		return
	}
	u, err := h.svc.Register(c.Request.Context(), *req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type ownerQuery struct {
	UserID string `form:"user_id" binding:"required"`
}

func (h *trustHandler) createTrust(c *gin.Context) {
	var q ownerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		unprocessable(c, err)
		return
	}
	var body trust.CreateGoal
	if err := c.ShouldBindJSON(&body); err != nil {
		unprocessable(c, err)
		return
	}
	g, err := h.svc.CreateGoal(c.Request.Context(), q.UserID, body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *trustHandler) listTrusts(c *gin.Context) {
	var q ownerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		unprocessable(c, err)
		return
	}
	list, err := h.svc.ListGoals(c.Request.Context(), q.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *trustHandler) getTrust(c *gin.Context) {
	g, err := h.svc.GetGoal(c.Request.Context(), c.Param("trust_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *trustHandler) addDeposit(c *gin.Context) {
	var req struct {
		Amount *float64 `form:"amount" json:"amount" binding:"required"`
	}
	if err := bindParams(c, &req); err != nil {
		unprocessable(c, err)
		return
	}
	if math.IsNaN(*req.Amount) || math.IsInf(*req.Amount, 0) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "amount must be a finite number"})
		return
	}
	d, err := h.svc.AddDeposit(c.Request.Context(), c.Param("trust_id"), *req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *trustHandler) addNote(c *gin.Context) {
	var req struct {
		Content *string `form:"content" json:"content" binding:"required"`
	}
	if err := bindParams(c, &req); err != nil {
		unprocessable(c, err)
		return
	}
	n, err := h.svc.AddNote(c.Request.Context(), c.Param("trust_id"), *req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *trustHandler) markReal(c *gin.Context) {
	if err := h.svc.MarkReal(c.Request.Context(), c.Param("trust_id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgMarkedReal})
}

func (h *trustHandler) statement(c *gin.Context) {
	st, err := h.svc.Statement(c.Request.Context(), c.Param("trust_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *trustHandler) archiveStatement(c *gin.Context) {
	a, err := h.svc.ArchiveStatement(c.Request.Context(), c.Param("trust_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
