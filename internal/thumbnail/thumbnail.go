// Package thumbnail делает best-effort превью для изображений. Любая ошибка
// обработки означает "превью нет" и не должна ломать сборку файла.
package thumbnail

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/sir_venger/upload_lite/internal/mimetype"
	"golang.org/x/image/draw"
)

const (
	// Превью вписывается в квадрат 200x200 с сохранением пропорций.
	DefaultMaxWidth  = 200
	DefaultMaxHeight = 200

	jpegQuality = 85
)

// Generator вписывает изображение в ограничивающий прямоугольник.
type Generator struct {
	MaxWidth  int
	MaxHeight int
}

// New создаёт генератор с дефолтным боксом.
func New() *Generator {
	return &Generator{MaxWidth: DefaultMaxWidth, MaxHeight: DefaultMaxHeight}
}

// Generate читает sourcePath и пишет превью в destPath. Для не-изображений
// возвращает (false, nil) и ничего не создаёт. Оригинал никогда не
// апскейлится: картинка меньше бокса пере-кодируется как есть.
func (g *Generator) Generate(sourcePath, destPath, mimeType string) (bool, error) {
	if !mimetype.IsImage(mimeType) {
		return false, nil
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return false, err
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return false, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := fit(bounds.Dx(), bounds.Dy(), g.MaxWidth, g.MaxHeight)

	scaled := img
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		scaled = dst
	}

	out, err := os.Create(destPath)
	if err != nil {
		return false, err
	}

	err = encode(out, scaled, format)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(destPath)
		return false, err
	}
	return true, nil
}

// fit вычисляет размеры, вписанные в (maxW, maxH) без увеличения оригинала.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	outW := int(float64(w) * scale)
	outH := int(float64(h) * scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

// encode сохраняет превью в формате оригинала, по умолчанию — JPEG.
func encode(out *os.File, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(out, img)
	case "gif":
		return gif.Encode(out, img, nil)
	default:
		return jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality})
	}
}
