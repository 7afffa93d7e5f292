package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audio-archive/apperr"
	"audio-archive/constant"
	"audio-archive/dto"
	"audio-archive/service"
)

// HTTP exposes the recording lifecycle over gin. The upstream gateway has
// already authenticated the caller and passes the verified identity in
// X-User-ID / X-User-Role headers.
type HTTP struct {
	svc service.Service
}

func NewHTTP(svc service.Service) *HTTP {
	return &HTTP{svc: svc}
}

func (h *HTTP) Register(r *gin.Engine) {
	audios := r.Group("/audios")
	audios.POST("", h.upload)
	audios.GET("", h.list)
	audios.GET("/:id", h.get)
	audios.GET("/:id/play", h.play)
	audios.PATCH("/:id", h.relabel)
	audios.DELETE("/:id", h.deleteRecording)
	audios.GET("/user/:userId", h.listByUser)
	audios.DELETE("/user/:userId", h.deleteByUser)
}

func callerFrom(c *gin.Context) (dto.Caller, bool) {
	userID, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return dto.Caller{}, false
	}
	role := constant.Role(c.GetHeader("X-User-Role"))
	if role != constant.RoleAdmin {
		role = constant.RoleUser
	}
	return dto.Caller{UserID: uint(userID), Role: role}, true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func requireAdmin(c *gin.Context, caller dto.Caller) bool {
	if !caller.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return false
	}
	return true
}

// writeError maps the error taxonomy onto HTTP statuses. A cascade that
// partially applied is a degraded success, reported with the keys it left
// behind so the caller can tell it apart from a total failure.
func writeError(c *gin.Context, err error) {
	var cerr *apperr.ConsistencyError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusOK, dto.CascadeResponse{
			Message:   cerr.Error(),
			StaleKeys: cerr.StaleKeys,
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *HTTP) upload(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	vocalizationID, err := strconv.ParseUint(c.PostForm("vocalization_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vocalization_id"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing audio file"})
		return
	}
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "audio") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audio file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable audio file"})
		return
	}
	defer file.Close()

	rec, err := h.svc.Upload(c.Request.Context(), caller, uint(vocalizationID), file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *HTTP) list(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	if caller.IsAdmin() {
		recs, err := h.svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, recs)
		return
	}

	recs, err := h.svc.ListByUser(c.Request.Context(), caller, caller.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *HTTP) get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *HTTP) play(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	url, err := h.svc.PlaybackURL(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PlaybackResponse{URL: url})
}

func (h *HTTP) relabel(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok || !requireAdmin(c, caller) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RelabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.svc.Relabel(c.Request.Context(), id, req.VocalizationID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *HTTP) deleteRecording(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok || !requireAdmin(c, caller) {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRecording(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CascadeResponse{Message: "recording deleted"})
}

func (h *HTTP) listByUser(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	recs, err := h.svc.ListByUser(c.Request.Context(), caller, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *HTTP) deleteByUser(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok || !requireAdmin(c, caller) {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.svc.DeleteRecordingsByUser(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CascadeResponse{Message: "all recordings of user deleted"})
}
