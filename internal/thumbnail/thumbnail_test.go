package thumbnail

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func decodeBounds(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestGenerate_FitsBoundingBox(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.png")
	dst := filepath.Join(dir, "thumb.png")
	writePNG(t, src, 800, 600)

	ok, err := New().Generate(src, dst, "image/png")
	if err != nil || !ok {
		t.Fatalf("generate: ok=%v err=%v", ok, err)
	}

	w, h := decodeBounds(t, dst)
	if w != 200 || h != 150 {
		t.Fatalf("want 200x150 (aspect preserved), got %dx%d", w, h)
	}
}

func TestGenerate_NeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.png")
	dst := filepath.Join(dir, "thumb.png")
	writePNG(t, src, 50, 40)

	ok, err := New().Generate(src, dst, "image/png")
	if err != nil || !ok {
		t.Fatalf("generate: ok=%v err=%v", ok, err)
	}

	w, h := decodeBounds(t, dst)
	if w != 50 || h != 40 {
		t.Fatalf("small image upscaled to %dx%d", w, h)
	}
}

func TestGenerate_NonImageIsNoop(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	dst := filepath.Join(dir, "thumb.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := New().Generate(src, dst, "application/pdf")
	if err != nil || ok {
		t.Fatalf("non-image: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("no-op created a file")
	}
}

func TestGenerate_CorruptImageFailsWithoutArtifact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	dst := filepath.Join(dir, "thumb.png")
	if err := os.WriteFile(src, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := New().Generate(src, dst, "image/png")
	if ok || err == nil {
		t.Fatalf("corrupt image: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("failed generate left an artifact")
	}
}
