package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Dosada05/league-bracket/models"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}

// SnapshotKey - ключ объекта со снимком сетки:
// snapshots/championship_<id>/<sport>/<gender>/<unix-ts>.json
func SnapshotKey(key models.BracketKey, at time.Time) string {
	return fmt.Sprintf("snapshots/championship_%d/%s/%s/%d.json",
		key.ChampionshipID, url.PathEscape(key.SportType), key.Gender, at.Unix())
}

// PublicURL склеивает публичный адрес бакета и ключ объекта. Пустая строка,
// если базовый адрес не задан или не разбирается.
func PublicURL(baseURL, key string) string {
	if baseURL == "" || key == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
