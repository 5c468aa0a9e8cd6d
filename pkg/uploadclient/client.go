package uploadclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sir_venger/upload_lite/pkg/uploadproto"
	"golang.org/x/sync/errgroup"
)

// Число одновременных PUT'ов чанков.
const defaultConcurrency = 4

// Client загружает файл по частям: initiate, конкурентные PUT'ы чанков,
// finalize. Сервер не требует порядка прихода — склейка всегда по индексам.
type Client struct {
	c           *http.Client
	concurrency int

	// Quiet отключает прогресс-индикатор.
	Quiet bool
}

// New создаёт HTTP-клиент по умолчанию.
func New() *Client {
	return &Client{
		c:           &http.Client{},
		concurrency: defaultConcurrency,
	}
}

// Upload переливает r (size байт) в сервис и возвращает метаданные
// собранного файла.
func (cl *Client) Upload(ctx context.Context, baseURL, ownerID, fileName, mimeType string, r io.Reader, size int64) (uploadproto.AssembledFile, error) {
	plan, err := cl.initiate(ctx, baseURL, ownerID, fileName, mimeType, size)
	if err != nil {
		return uploadproto.AssembledFile{}, err
	}

	bar := newProgressBar("Uploading "+fileName, size, cl.Quiet)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cl.concurrency)

	// Читаем последовательно, шлём конкурентно: каждый чанк буферизуется
	// целиком (не больше chunk_size), дальше сеть работает параллельно.
	remaining := size
	for idx := 0; idx < plan.TotalChunks; idx++ {
		n := plan.ChunkSize
		if remaining < n {
			n = remaining
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			bar.Fail(err)
			return uploadproto.AssembledFile{}, fmt.Errorf("read chunk %d: %w", idx, err)
		}
		remaining -= n

		idx := idx
		eg.Go(func() error {
			if err := cl.putChunk(egCtx, baseURL, plan, idx, buf); err != nil {
				return err
			}
			bar.Add(int64(len(buf)))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		bar.Fail(err)
		return uploadproto.AssembledFile{}, err
	}

	file, err := cl.finalize(ctx, baseURL, plan.SessionID, fileName)
	if err != nil {
		bar.Fail(err)
		return uploadproto.AssembledFile{}, err
	}
	bar.Finish()
	return file, nil
}

func (cl *Client) initiate(ctx context.Context, baseURL, ownerID, fileName, mimeType string, size int64) (uploadproto.InitiateResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"file_name": fileName,
		"file_size": size,
		"mime_type": mimeType,
	})
	if err != nil {
		return uploadproto.InitiateResult{}, err
	}

	u := fmt.Sprintf(uploadproto.InitiatePathFormat, baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return uploadproto.InitiateResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(uploadproto.HeaderOwnerID, ownerID)

	var plan uploadproto.InitiateResult
	if err := cl.do(req, &plan); err != nil {
		return uploadproto.InitiateResult{}, err
	}
	if plan.SessionID == "" || plan.ChunkSize <= 0 || plan.TotalChunks <= 0 {
		return uploadproto.InitiateResult{}, fmt.Errorf("bad initiate response: %+v", plan)
	}
	return plan, nil
}

func (cl *Client) putChunk(ctx context.Context, baseURL string, plan uploadproto.InitiateResult, idx int, data []byte) error {
	sum := sha256.Sum256(data)

	u := fmt.Sprintf(uploadproto.ChunkPathFormat, baseURL, plan.SessionID, idx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(uploadproto.HeaderTotalChunks, strconv.Itoa(plan.TotalChunks))
	req.Header.Set(uploadproto.HeaderChecksum, hex.EncodeToString(sum[:]))

	if err := cl.do(req, nil); err != nil {
		return fmt.Errorf("put chunk %d: %w", idx, err)
	}
	return nil
}

func (cl *Client) finalize(ctx context.Context, baseURL, sessionID, fileName string) (uploadproto.AssembledFile, error) {
	payload, err := json.Marshal(map[string]string{"file_name": fileName})
	if err != nil {
		return uploadproto.AssembledFile{}, err
	}

	u := fmt.Sprintf(uploadproto.FinalizePathFormat, baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return uploadproto.AssembledFile{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var file uploadproto.AssembledFile
	if err := cl.do(req, &file); err != nil {
		return uploadproto.AssembledFile{}, err
	}
	return file, nil
}

// Status запрашивает прогресс сессии.
func (cl *Client) Status(ctx context.Context, baseURL, sessionID string) (uploadproto.Progress, error) {
	u := fmt.Sprintf(uploadproto.StatusPathFormat, baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return uploadproto.Progress{}, err
	}

	var progress uploadproto.Progress
	if err := cl.do(req, &progress); err != nil {
		return uploadproto.Progress{}, err
	}
	return progress, nil
}

// Cancel отменяет сессию на сервере.
func (cl *Client) Cancel(ctx context.Context, baseURL, sessionID string) error {
	u := fmt.Sprintf(uploadproto.CancelPathFormat, baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	return cl.do(req, nil)
}

// do выполняет запрос и декодирует JSON-ответ в out (если out != nil).
func (cl *Client) do(req *http.Request, out interface{}) error {
	resp, err := cl.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, resp.Status, bytes.TrimSpace(body))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
