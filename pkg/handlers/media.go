package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"site-admin/pkg/apierr"
	"site-admin/pkg/logging"
	"site-admin/pkg/services"
)

func subtypeParam(c *gin.Context) (string, bool) {
	subtype := c.Param("subtype")
	if !segmentPattern.MatchString(subtype) {
		apierr.Abort(c, http.StatusBadRequest, apierr.ErrInvalidRequest, "invalid subtype")
		return "", false
	}
	return subtype, true
}

func ListMedia(c *gin.Context) {
	subtype, ok := subtypeParam(c)
	if !ok {
		return
	}
	files, err := services.ListMediaFiles(subtype)
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrInternal, "Failed to list media", err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func UploadMedia(c *gin.Context) {
	subtype, ok := subtypeParam(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		apierr.AbortWithField(c, http.StatusBadRequest, apierr.ErrInvalidBody, "No file uploaded", "file")
		return
	}

	info, err := services.SaveMediaFile(file, subtype)
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusBadRequest, apierr.ErrInvalidRequest, "Failed to save file", err)
		return
	}
	logging.FromContext(c).Info("media uploaded", zap.String("path", info.Path), zap.String("mime", info.MimeType))
	c.JSON(http.StatusOK, info)
}

func DeleteMedia(c *gin.Context) {
	subtype, ok := subtypeParam(c)
	if !ok {
		return
	}
	err := services.DeleteMediaFile(subtype, c.Param("name"))
	if errors.Is(err, os.ErrNotExist) {
		apierr.Abort(c, http.StatusNotFound, apierr.ErrNotFound, "File not found")
		return
	}
	if err != nil {
		apierr.AbortWithDetails(c, http.StatusInternalServerError, apierr.ErrInternal, "Failed to delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
