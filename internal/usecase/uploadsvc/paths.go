package uploadsvc

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/sir_venger/upload_lite/internal/models"
)

// Публичная схема путей стабильна между ретраями:
//
//	{ownerID}/{fileID}/original/{finalName}
//	{ownerID}/{fileID}/thumbnail/{finalName}
//
// finalName включает id файла, как в исходной системе: base-<fileID><ext>.
type fileLayout struct {
	originalDir   string
	thumbnailDir  string
	finalPath     string
	thumbnailPath string
	finalURL      string
	thumbnailURL  string
}

func (s *Uploads) fileLayout(ownerID, fileID, fileName string) (fileLayout, error) {
	if !validToken(ownerID) || !validToken(fileID) {
		return fileLayout{}, fmt.Errorf("%w: bad owner or file id", models.ErrInvalidArgument)
	}

	finalName, err := assembledName(fileName, fileID)
	if err != nil {
		return fileLayout{}, err
	}

	base := filepath.Join(s.FilesDir, ownerID, fileID)
	return fileLayout{
		originalDir:   filepath.Join(base, "original"),
		thumbnailDir:  filepath.Join(base, "thumbnail"),
		finalPath:     filepath.Join(base, "original", finalName),
		thumbnailPath: filepath.Join(base, "thumbnail", finalName),
		finalURL:      path.Join("/files", ownerID, fileID, "original", finalName),
		thumbnailURL:  path.Join("/files", ownerID, fileID, "thumbnail", finalName),
	}, nil
}

// assembledName строит итоговое имя файла, отбрасывая любые пути в fileName:
// имя — непрозрачный токен, а не путь.
func assembledName(fileName, fileID string) (string, error) {
	name := filepath.Base(strings.TrimSpace(fileName))
	if !validToken(name) {
		return "", fmt.Errorf("%w: bad file name", models.ErrInvalidArgument)
	}

	ext := filepath.Ext(name)
	bare := strings.TrimSuffix(name, ext)
	return bare + "-" + fileID + ext, nil
}

// validToken отсекает пустые значения, разделители путей и точки-переходы.
func validToken(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\")
}
