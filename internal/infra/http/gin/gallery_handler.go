package ginserver

import (
	"context"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhome/internal/infra/storage/s3"
)

type PhotoLister interface {
	List(ctx context.Context) ([]s3.Photo, error)
}

type GalleryHandler struct {
	Photos PhotoLister
	Logger *slog.Logger
}

func (h GalleryHandler) List(c *gin.Context) {
	photos, err := h.Photos.List(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if photos == nil {
		photos = []s3.Photo{}
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

var _ GalleryHTTP = GalleryHandler{}
