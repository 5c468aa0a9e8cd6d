package uploadsvc_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/registry"
	"github.com/sir_venger/upload_lite/internal/thumbnail"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
)

func newTestService(t *testing.T, chunkSize int64) (uploadsvc.Service, string) {
	t.Helper()

	staging, err := chunkstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	filesDir := t.TempDir()
	svc := uploadsvc.New(uploadsvc.Deps{
		Registry:    registry.NewMemoryRegistry(),
		Chunks:      staging,
		Thumbs:      thumbnail.New(),
		FilesDir:    filesDir,
		ChunkSize:   chunkSize,
		MaxFileSize: 1 << 20,
	})
	return svc, filesDir
}

// sendChunks нарезает payload по плану сессии и отправляет чанки в заданном порядке.
func sendChunks(t *testing.T, svc uploadsvc.Service, plan models.InitiateResult, payload []byte, order []int) {
	t.Helper()
	ctx := context.Background()
	for _, idx := range order {
		start := int64(idx) * plan.ChunkSize
		end := start + plan.ChunkSize
		if end > int64(len(payload)) {
			end = int64(len(payload))
		}
		if _, err := svc.ReceiveChunk(ctx, plan.SessionID, idx, plan.TotalChunks, bytes.NewReader(payload[start:end])); err != nil {
			t.Fatalf("chunk %d: %v", idx, err)
		}
	}
}

func TestUpload_OutOfOrderChunksAssembleInOrder(t *testing.T) {
	svc, filesDir := newTestService(t, 4)
	ctx := context.Background()

	payload := []byte("0123456789") // 3 чанка: 4+4+2
	plan, err := svc.Initiate(ctx, "dev-1", "a.txt", int64(len(payload)), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if plan.TotalChunks != 3 {
		t.Fatalf("want 3 chunks, got %d", plan.TotalChunks)
	}

	// Чанки приходят в обратном порядке; склейка обязана идти по индексам.
	sendChunks(t, svc, plan, payload, []int{2, 0, 1})

	file, err := svc.Finalize(ctx, plan.SessionID, "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if file.Size != int64(len(payload)) {
		t.Fatalf("want size %d, got %d", len(payload), file.Size)
	}
	if file.MimeType != "text/plain" {
		t.Fatalf("unexpected mime: %s", file.MimeType)
	}

	got, err := os.ReadFile(filepath.Join(filesDir, "dev-1", plan.SessionID, "original", "a-"+plan.SessionID+".txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("assembled bytes mismatch: %q", got)
	}

	// Терминальная сессия исчезает: status и повторный finalize — not found.
	if _, err := svc.Status(ctx, plan.SessionID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("status after finalize: want ErrNotFound, got %v", err)
	}
	if _, err := svc.Finalize(ctx, plan.SessionID, "a.txt"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("second finalize: want ErrNotFound, got %v", err)
	}
}

func TestFinalize_IncompleteLeavesSessionIntact(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	payload := []byte("0123456789")
	plan, err := svc.Initiate(ctx, "dev-1", "a.txt", int64(len(payload)), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	sendChunks(t, svc, plan, payload, []int{0, 2})

	_, err = svc.Finalize(ctx, plan.SessionID, "a.txt")
	var inc *models.IncompleteUploadError
	if !errors.As(err, &inc) {
		t.Fatalf("want IncompleteUploadError, got %v", err)
	}
	if inc.MissingIndex != 1 {
		t.Fatalf("want missing index 1, got %d", inc.MissingIndex)
	}
	if !errors.Is(err, models.ErrIncomplete) {
		t.Fatal("typed error does not unwrap to ErrIncomplete")
	}

	// Сессия всё ещё жива и докачивается.
	p, err := svc.Status(ctx, plan.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if p.CompletedCount != 2 {
		t.Fatalf("session lost progress: %d", p.CompletedCount)
	}
}

func TestFinalize_ConcurrentProducesSingleFile(t *testing.T) {
	svc, filesDir := newTestService(t, 4)
	ctx := context.Background()

	payload := []byte("0123456789")
	plan, err := svc.Initiate(ctx, "dev-1", "a.txt", int64(len(payload)), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	sendChunks(t, svc, plan, payload, []int{0, 1, 2})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		files    []models.AssembledFile
		failures []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := svc.Finalize(ctx, plan.SessionID, "a.txt")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			files = append(files, f)
		}()
	}
	wg.Wait()

	if len(files) != 1 {
		t.Fatalf("want exactly one assembled file, got %d (errors: %v)", len(files), failures)
	}
	for _, err := range failures {
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("loser must see ErrNotFound, got %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(filesDir, "dev-1", plan.SessionID, "original"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("want single output file, got %d", len(entries))
	}
}

func TestFinalize_CompleteBitmapOnPendingSession(t *testing.T) {
	reg := registry.NewMemoryRegistry()
	staging, err := chunkstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	filesDir := t.TempDir()
	svc := uploadsvc.New(uploadsvc.Deps{
		Registry:    reg,
		Chunks:      staging,
		Thumbs:      thumbnail.New(),
		FilesDir:    filesDir,
		ChunkSize:   4,
		MaxFileSize: 1 << 20,
	})
	ctx := context.Background()

	plan, err := svc.Initiate(ctx, "dev-1", "a.txt", 4, "text/plain")
	if err != nil {
		t.Fatal(err)
	}

	// Момент из середины приёма последнего чанка: байты на диске, бит
	// выставлен, а переход pending → uploading ещё не применён. Finalize в
	// этом окне обязан собрать файл, а не застрять на недопустимом переходе.
	if _, err := staging.Put(ctx, plan.SessionID, 0, strings.NewReader("0123")); err != nil {
		t.Fatal(err)
	}
	if err := reg.MarkChunkReceived(ctx, plan.SessionID, 0); err != nil {
		t.Fatal(err)
	}

	_, err = svc.Finalize(ctx, plan.SessionID, "a.txt")
	if err != nil {
		t.Fatalf("finalize over still-pending session: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(filesDir, "dev-1", plan.SessionID, "original", "a-"+plan.SessionID+".txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "0123" {
		t.Fatalf("assembled bytes mismatch: %q", got)
	}
	if _, err := svc.Status(ctx, plan.SessionID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("session must be gone after finalize, got %v", err)
	}
}

func TestCancel_RemovesSessionAndStaging(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	payload := []byte("0123456789")
	plan, err := svc.Initiate(ctx, "dev-1", "a.txt", int64(len(payload)), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	sendChunks(t, svc, plan, payload, []int{0})

	if err := svc.Cancel(ctx, plan.SessionID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ReceiveChunk(ctx, plan.SessionID, 1, plan.TotalChunks, strings.NewReader("late")); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("chunk after cancel: want ErrNotFound, got %v", err)
	}
	if _, err := svc.Finalize(ctx, plan.SessionID, "a.txt"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("finalize after cancel: want ErrNotFound, got %v", err)
	}
	// Повторная отмена — не ошибка.
	if err := svc.Cancel(ctx, plan.SessionID); err != nil {
		t.Fatal(err)
	}
}

func TestInitiate_Validation(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	if _, err := svc.Initiate(ctx, "dev-1", "big.bin", 2<<20, "application/octet-stream"); !errors.Is(err, models.ErrPayloadTooLarge) {
		t.Fatalf("oversized: want ErrPayloadTooLarge, got %v", err)
	}
	if _, err := svc.Initiate(ctx, "dev-1", "", 10, ""); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("empty name: want ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Initiate(ctx, "dev-1", "a.txt", 0, ""); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("zero size: want ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Initiate(ctx, "../evil", "a.txt", 10, ""); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("traversal owner: want ErrInvalidArgument, got %v", err)
	}
}

func TestReceiveChunk_DeclaredTotalMustMatch(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	plan, err := svc.Initiate(ctx, "dev-1", "a.txt", 10, "text/plain")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ReceiveChunk(ctx, plan.SessionID, 0, plan.TotalChunks+1, strings.NewReader("0123")); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("total mismatch: want ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.ReceiveChunk(ctx, plan.SessionID, plan.TotalChunks, plan.TotalChunks, strings.NewReader("0123")); !errors.Is(err, models.ErrOutOfRange) {
		t.Fatalf("index == total: want ErrOutOfRange, got %v", err)
	}
}

func TestFinalize_ImageGetsThumbnail(t *testing.T) {
	svc, filesDir := newTestService(t, 1<<18)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 400, 300))); err != nil {
		t.Fatal(err)
	}
	payload := buf.Bytes()

	plan, err := svc.Initiate(ctx, "dev-1", "pic.png", int64(len(payload)), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	order := make([]int, plan.TotalChunks)
	for i := range order {
		order[i] = i
	}
	sendChunks(t, svc, plan, payload, order)

	file, err := svc.Finalize(ctx, plan.SessionID, "pic.png")
	if err != nil {
		t.Fatal(err)
	}
	if file.ThumbnailURL == "" {
		t.Fatal("image upload produced no thumbnail url")
	}
	thumbPath := filepath.Join(filesDir, "dev-1", plan.SessionID, "thumbnail", "pic-"+plan.SessionID+".png")
	if _, err := os.Stat(thumbPath); err != nil {
		t.Fatalf("thumbnail file: %v", err)
	}
}

func TestListAndDeleteFiles(t *testing.T) {
	svc, _ := newTestService(t, 4)
	ctx := context.Background()

	payload := []byte("0123456789")
	plan, err := svc.Initiate(ctx, "dev-1", "a.txt", int64(len(payload)), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	sendChunks(t, svc, plan, payload, []int{0, 1, 2})
	if _, err := svc.Finalize(ctx, plan.SessionID, "a.txt"); err != nil {
		t.Fatal(err)
	}

	files, err := svc.ListFiles(ctx, "dev-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].ID != plan.SessionID {
		t.Fatalf("unexpected listing: %+v", files)
	}

	if err := svc.DeleteFile(ctx, "dev-1", plan.SessionID); err != nil {
		t.Fatal(err)
	}
	files, _ = svc.ListFiles(ctx, "dev-1")
	if len(files) != 0 {
		t.Fatalf("file survived delete: %+v", files)
	}
	if err := svc.DeleteFile(ctx, "dev-1", plan.SessionID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}
