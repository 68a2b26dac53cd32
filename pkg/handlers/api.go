package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"site-admin/pkg/apierr"
	"site-admin/pkg/content"
	"site-admin/pkg/list"
	"site-admin/pkg/logging"
	"site-admin/pkg/models"
	"site-admin/pkg/services"
	"site-admin/pkg/store"
)

// BlockStore is the persistence the API needs.
type BlockStore interface {
	Get(ctx context.Context, subtype, mode, key string) (*models.Block, error)
	Put(ctx context.Context, subtype, mode, key string, values interface{}) (*models.Block, error)
	Delete(ctx context.Context, subtype, mode, key, id string) error
	List(ctx context.Context) ([]models.Block, error)
}

// API serves the content-block endpoints.
type API struct {
	Store    BlockStore
	Sections *models.SectionsConfig
	PlanType string
}

const maxUploadMemory = 32 << 20

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type blockRef struct {
	Subtype, Mode, Key string
}

func (r blockRef) String() string { return r.Subtype + "/" + r.Mode + "/" + r.Key }

// refFromContext reads and validates the :subtype/:mode/:key triple.
func refFromContext(c *gin.Context) (blockRef, bool) {
	ref := blockRef{Subtype: c.Param("subtype"), Mode: c.Param("mode"), Key: c.Param("key")}
	if ref.Mode != models.ModeJSON && ref.Mode != models.ModeForm {
		apierr.Abort(c, http.StatusNotFound, apierr.ErrNotFound, "unknown mode: "+ref.Mode)
		return ref, false
	}
	if !segmentPattern.MatchString(ref.Subtype) || !segmentPattern.MatchString(ref.Key) {
		apierr.Abort(c, http.StatusBadRequest, apierr.ErrInvalidRequest, "invalid subtype or key")
		return ref, false
	}
	return ref, true
}

func (a *API) planType() string {
	if a.PlanType != "" {
		return a.PlanType
	}
	if a.Sections != nil {
		return a.Sections.PlanType
	}
	return ""
}

// section returns the declared section for ref, if any.
func (a *API) section(ref blockRef) *models.Section {
	if a.Sections == nil {
		return nil
	}
	for i := range a.Sections.Sections {
		s := &a.Sections.Sections[i]
		if s.Subtype == ref.Subtype && s.Mode == ref.Mode && s.Key == ref.Key {
			return s
		}
	}
	return nil
}

func (a *API) ListBlocks(c *gin.Context) {
	blocks, err := services.GetBlocksCache(c.Request.Context(), a.Store)
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Failed to list blocks", err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

func (a *API) GetConfig(c *gin.Context) {
	if a.Sections == nil {
		apierr.Abort(c, http.StatusNotFound, apierr.ErrNotFound, "No sections configured")
		return
	}
	c.JSON(http.StatusOK, a.Sections)
}

func (a *API) GetBlock(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	b, err := a.Store.Get(c.Request.Context(), ref.Subtype, ref.Mode, ref.Key)
	if errors.Is(err, store.ErrNotFound) {
		apierr.Abort(c, http.StatusNotFound, apierr.ErrNotFound, "Record not found")
		return
	}
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Failed to load record", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// SaveBlock handles POST and PUT. The multipart body carries a JSON "values"
// field plus optional "file<index>" and "file:<path>" parts; uploaded files
// are stored and their URLs written into the values before saving.
func (a *API) SaveBlock(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	log := logging.FromContext(c)

	raw := c.PostForm("values")
	if strings.TrimSpace(raw) == "" {
		apierr.AbortWithField(c, http.StatusBadRequest, apierr.ErrInvalidBody, "values is required", "values")
		return
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		apierr.AbortWithField(c, http.StatusBadRequest, apierr.ErrInvalidBody, "values is not valid JSON", "values")
		return
	}
	values := services.SanitizeValues(decoded)

	switch ref.Mode {
	case models.ModeJSON:
		if _, ok := values.(map[string]interface{}); !ok {
			apierr.AbortWithField(c, http.StatusBadRequest, apierr.ErrInvalidBody, "values must be an object", "values")
			return
		}
	case models.ModeForm:
		items, ok := values.([]interface{})
		if !ok {
			apierr.AbortWithField(c, http.StatusBadRequest, apierr.ErrInvalidBody, "values must be an array", "values")
			return
		}
		if limit := list.LimitFor(a.planType()); len(items) > limit {
			apierr.AbortWithField(c, http.StatusUnprocessableEntity, apierr.ErrLimitReached,
				fmt.Sprintf("at most %d items allowed", limit), "values")
			return
		}
		assignItemIDs(items)
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		values, err = a.attachFiles(c, ref, values, form)
		if err != nil {
			apierr.AbortWithDetails(c, http.StatusBadRequest, apierr.ErrInvalidRequest, "Failed to store upload", err)
			return
		}
	}

	b, err := a.Store.Put(c.Request.Context(), ref.Subtype, ref.Mode, ref.Key, values)
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Save failed", err)
		return
	}
	services.InvalidateCache()
	log.Info("block saved", zap.String("block", ref.String()), zap.String("id", b.ID))
	c.JSON(http.StatusOK, b)
}

// attachFiles stores uploaded parts and writes their URLs into values.
func (a *API) attachFiles(c *gin.Context, ref blockRef, values interface{}, form *multipart.Form) (interface{}, error) {
	fileField := c.PostForm("fileField")
	if fileField == "" {
		fileField = "image"
		if s := a.section(ref); s != nil {
			fileField = s.FileFieldName()
		}
	}

	// deterministic order keeps indices and paths stable across retries
	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		headers := form.File[name]
		if len(headers) == 0 || !strings.HasPrefix(name, "file") {
			continue
		}
		suffix := strings.TrimPrefix(name, "file")

		if path, ok := strings.CutPrefix(suffix, ":"); ok {
			record, isObject := values.(map[string]interface{})
			if !isObject {
				return nil, fmt.Errorf("%s: path uploads need object values", name)
			}
			mf, err := services.SaveMediaFile(headers[0], ref.Subtype)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			values = content.SetPath(record, path, mf.URL)
			continue
		}

		index, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		items, err := a.uploadTarget(c, ref, values)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if index < 0 || index >= len(items) {
			return nil, fmt.Errorf("%s: no item at index %d", name, index)
		}
		item, isObject := items[index].(map[string]interface{})
		if !isObject {
			return nil, fmt.Errorf("%s: item %d is not an object", name, index)
		}
		mf, err := services.SaveMediaFile(headers[0], ref.Subtype)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		item[fileField] = mf.URL
	}
	return values, nil
}

// uploadTarget finds the item array that "file<index>" parts refer to. Form
// values are the array; object values name it through the listPath field or
// the section's list path.
func (a *API) uploadTarget(c *gin.Context, ref blockRef, values interface{}) ([]interface{}, error) {
	if items, ok := values.([]interface{}); ok {
		return items, nil
	}
	listPath := c.PostForm("listPath")
	if listPath == "" {
		if s := a.section(ref); s != nil && s.List != nil {
			listPath = s.List.Path
		}
	}
	if listPath == "" {
		return nil, errors.New("listPath is required for indexed uploads")
	}
	v, _ := content.GetPath(values.(map[string]interface{}), listPath)
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s is not a list", listPath)
	}
	return items, nil
}

func assignItemIDs(items []interface{}) {
	for _, v := range items {
		item, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		switch id := item["id"].(type) {
		case nil:
			item["id"] = uuid.NewString()
		case string:
			if strings.TrimSpace(id) == "" {
				item["id"] = uuid.NewString()
			}
		}
	}
}

type deleteBody struct {
	ID string `json:"id"`
}

// DeleteBlock clears a record. An optional JSON body {id} guards against
// deleting a record that was replaced in the meantime.
func (a *API) DeleteBlock(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	var body deleteBody
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			apierr.AbortWithDetails(c, http.StatusBadRequest, apierr.ErrInvalidBody, "Invalid JSON", err)
			return
		}
	}
	if a.deleteBlock(c, ref, body.ID) {
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

func (a *API) deleteBlock(c *gin.Context, ref blockRef, id string) bool {
	ctx := c.Request.Context()
	existing, err := a.Store.Get(ctx, ref.Subtype, ref.Mode, ref.Key)
	if errors.Is(err, store.ErrNotFound) {
		apierr.Abort(c, http.StatusNotFound, apierr.ErrNotFound, "Record not found")
		return false
	}
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Failed to load record", err)
		return false
	}
	if id != "" && existing.ID != id {
		apierr.Abort(c, http.StatusConflict, apierr.ErrConflict, "Record id does not match")
		return false
	}
	if err := a.Store.Delete(ctx, ref.Subtype, ref.Mode, ref.Key, existing.ID); err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Delete failed", err)
		return false
	}
	services.InvalidateCache()
	logging.FromContext(c).Info("block deleted", zap.String("block", ref.String()), zap.String("id", existing.ID))
	return true
}

// Preview renders the markdown string at ?path= to sanitized HTML.
func (a *API) Preview(c *gin.Context) {
	ref, ok := refFromContext(c)
	if !ok {
		return
	}
	path := c.Query("path")
	b, err := a.Store.Get(c.Request.Context(), ref.Subtype, ref.Mode, ref.Key)
	if errors.Is(err, store.ErrNotFound) {
		apierr.Abort(c, http.StatusNotFound, apierr.ErrNotFound, "Record not found")
		return
	}
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrDatabaseError, "Failed to load record", err)
		return
	}
	record, _ := b.Values.(map[string]interface{})
	v, found := content.GetPath(record, path)
	src, isString := v.(string)
	if !found || !isString {
		apierr.AbortWithField(c, http.StatusNotFound, apierr.ErrNotFound, "No text at path", "path")
		return
	}
	html, err := services.RenderMarkdown(src)
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrInternal, "Render failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "html": html})
}
