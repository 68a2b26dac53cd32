package apierr

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestAbortShapes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		abort func(*gin.Context)
		want  Response
	}{
		{
			name:  "plain",
			abort: func(c *gin.Context) { Abort(c, http.StatusNotFound, ErrNotFound, "record not found") },
			want:  Response{Code: ErrNotFound, Message: "record not found", Status: http.StatusNotFound},
		},
		{
			name: "field",
			abort: func(c *gin.Context) {
				AbortWithField(c, http.StatusBadRequest, ErrInvalidBody, "values is required", "values")
			},
			want: Response{Code: ErrInvalidBody, Message: "values is required", Status: http.StatusBadRequest, Field: "values"},
		},
		{
			name: "details",
			abort: func(c *gin.Context) {
				AbortWithDetails(c, http.StatusInternalServerError, ErrDatabaseError, "save failed", errors.New("disk full"))
			},
			want: Response{Code: ErrDatabaseError, Message: "save failed", Status: http.StatusInternalServerError, Details: "disk full"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.abort(c)

			require.True(t, c.IsAborted())
			require.Equal(t, tt.want.Status, w.Code)
			var got Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			require.Equal(t, tt.want, got)
		})
	}
}
