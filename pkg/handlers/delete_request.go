package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"site-admin/pkg/apierr"
	"site-admin/pkg/content"
	"site-admin/pkg/list"
	"site-admin/pkg/logging"
	"site-admin/pkg/models"
	"site-admin/pkg/services"
	"site-admin/pkg/store"
)

func deleteRequestKey(ref blockRef) string {
	return "delete_request:" + ref.String()
}

func loadDeleteRequest(c *gin.Context, ref blockRef) *models.DeleteRequest {
	raw, ok := sessions.Default(c).Get(deleteRequestKey(ref)).(string)
	if !ok || raw == "" {
		return nil
	}
	var req models.DeleteRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil
	}
	return &req
}

func clearDeleteRequest(c *gin.Context, ref blockRef) error {
	session := sessions.Default(c)
	session.Delete(deleteRequestKey(ref))
	return session.Save()
}

// OpenDeleteRequest records a pending confirmation in the session. A second
// request replaces the first.
func (a *API) OpenDeleteRequest(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	var req models.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.AbortWithDetails(c, http.StatusBadRequest, apierr.ErrValidationFailed, "Invalid delete request", err)
		return
	}
	if req.Type == models.DeleteSingle && *req.TargetIndex < 0 {
		apierr.AbortWithField(c, http.StatusBadRequest, apierr.ErrValidationFailed, "target_index must not be negative", "target_index")
		return
	}
	if req.Type == models.DeleteAll {
		req.TargetIndex = nil
	}
	req.IsOpen = true

	data, err := json.Marshal(req)
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrInternal, "Failed to encode request", err)
		return
	}
	session := sessions.Default(c)
	session.Set(deleteRequestKey(ref), string(data))
	if err := session.Save(); err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrInternal, "Failed to save session", err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GetDeleteRequest returns the pending request, or a closed one.
func (a *API) GetDeleteRequest(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	if req := loadDeleteRequest(c, ref); req != nil {
		c.JSON(http.StatusOK, req)
		return
	}
	c.JSON(http.StatusOK, models.DeleteRequest{})
}

func (a *API) CancelDeleteRequest(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	if err := clearDeleteRequest(c, ref); err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrInternal, "Failed to save session", err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteRequest{})
}

// ConfirmDeleteRequest executes the pending request. "all" removes the
// record; "single" removes one list item through the list controller so the
// floor of one item and renumbering apply.
func (a *API) ConfirmDeleteRequest(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	req := loadDeleteRequest(c, ref)
	if req == nil || !req.IsOpen {
		apierr.Abort(c, http.StatusConflict, apierr.ErrConflict, "No pending delete request")
		return
	}

	switch req.Type {
	case models.DeleteAll:
		if !a.deleteBlock(c, ref, "") {
			return
		}
	case models.DeleteSingle:
		if !a.removeItem(c, ref, *req.TargetIndex) {
			return
		}
	}

	if err := clearDeleteRequest(c, ref); err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrInternal, "Failed to save session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "type": req.Type})
}

func (a *API) removeItem(c *gin.Context, ref blockRef, index int) bool {
	ctx := c.Request.Context()
	b, err := a.Store.Get(ctx, ref.Subtype, ref.Mode, ref.Key)
	if errors.Is(err, store.ErrNotFound) {
		apierr.Abort(c, http.StatusNotFound, apierr.ErrNotFound, "Record not found")
		return false
	}
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Failed to load record", err)
		return false
	}

	section := a.section(ref)
	opts := list.Options{Limit: list.LimitFor(a.planType())}
	if section != nil {
		opts = section.ListOptions(a.planType())
	}

	var (
		raw      []interface{}
		record   map[string]interface{}
		listPath string
	)
	if ref.Mode == models.ModeForm {
		raw, _ = b.Values.([]interface{})
	} else {
		record, _ = b.Values.(map[string]interface{})
		if section != nil && section.List != nil {
			listPath = section.List.Path
		}
		if listPath == "" {
			apierr.Abort(c, http.StatusUnprocessableEntity, apierr.ErrValidationFailed, "Section has no list")
			return false
		}
		v, _ := content.GetPath(record, listPath)
		raw, _ = v.([]interface{})
	}
	if index >= len(raw) {
		apierr.AbortWithField(c, http.StatusNotFound, apierr.ErrNotFound, "No item at target_index", "target_index")
		return false
	}

	ctrl := list.NewController(opts, list.FromValues(raw))
	ctrl.Remove(index)
	items := list.Values(ctrl.Items())

	var values interface{} = items
	if record != nil {
		values = content.SetPath(record, listPath, items)
	}
	if _, err := a.Store.Put(ctx, ref.Subtype, ref.Mode, ref.Key, values); err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Save failed", err)
		return false
	}
	services.InvalidateCache()
	logging.FromContext(c).Info("list item removed", zap.String("block", ref.String()), zap.Int("index", index))
	return true
}
