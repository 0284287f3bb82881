// Package media 图片上传中间件
//
// 解析 multipart 字段 image，校验格式与大小后上传到对象存储，
// 把图片 URL 放入 context 供后续处理器读取。
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"cardshop/internal/apiserver/httpx"
	"cardshop/internal/shared/apperr"
)

// FieldName multipart 文件字段名
const FieldName = "image"

// MaxFileSize 单个文件上限
const MaxFileSize = 1 << 20

// formOverhead multipart 中非文件部分允许的大小
const formOverhead = 1 << 20

// allowedTypes 允许的 MIME 类型及对象扩展名
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Uploader 对象存储能力
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	URL(key string) string
	Delete(ctx context.Context, key string) error
}

type contextKey struct{}

// Images 返回本次请求上传的图片 URL，没有上传时为 nil
func Images(ctx context.Context) []string {
	urls, _ := ctx.Value(contextKey{}).([]string)
	return urls
}

// WithImages 把图片 URL 注入 context
func WithImages(ctx context.Context, urls []string) context.Context {
	return context.WithValue(ctx, contextKey{}, urls)
}

// Upload 上传中间件
//
// entity 为对象 key 前缀（products / articles），maxFiles 为允许的文件数。
// uploader 为 nil 时，不带文件的请求照常放行，带文件的请求返回内部错误。
func Upload(uploader Uploader, entity string, maxFiles int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMultipart(r) {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*MaxFileSize+formOverhead)
			if err := r.ParseMultipartForm(MaxFileSize); err != nil {
				httpx.Fail(w, r, parseError(err))
				return
			}
			defer r.MultipartForm.RemoveAll()

			files := r.MultipartForm.File[FieldName]
			if len(files) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if len(files) > maxFiles {
				httpx.Fail(w, r, apperr.Malformed(fmt.Sprintf("at most %d image(s) allowed", maxFiles)))
				return
			}
			if uploader == nil {
				httpx.Fail(w, r, apperr.Internalf("object storage not configured"))
				return
			}

			for _, fh := range files {
				if err := checkFile(fh); err != nil {
					httpx.Fail(w, r, err)
					return
				}
			}

			urls, err := store(r.Context(), uploader, entity, files)
			if err != nil {
				httpx.Fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithImages(r.Context(), urls)))
		})
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func parseError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.FileTooLarge()
	}
	return apperr.Malformed("invalid multipart form")
}

// checkFile 先校验格式再校验大小；声明的类型必须与内容一致
func checkFile(fh *multipart.FileHeader) error {
	declared := fh.Header.Get("Content-Type")
	if _, ok := allowedTypes[declared]; !ok {
		return apperr.UnsupportedFormat()
	}
	if fh.Size > MaxFileSize {
		return apperr.FileTooLarge()
	}

	f, err := fh.Open()
	if err != nil {
		return apperr.Internal(err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return apperr.Internal(err)
	}
	if http.DetectContentType(head[:n]) != declared {
		return apperr.UnsupportedFormat()
	}
	return nil
}

// store 逐个上传，任一失败时删除已上传的对象
func store(ctx context.Context, uploader Uploader, entity string, files []*multipart.FileHeader) ([]string, error) {
	var (
		keys []string
		urls []string
	)
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		key := entity + "/" + uuid.NewString() + allowedTypes[contentType]

		f, err := fh.Open()
		if err != nil {
			rollback(ctx, uploader, keys)
			return nil, apperr.Internal(err)
		}
		err = uploader.Upload(ctx, key, f, fh.Size, contentType)
		f.Close()
		if err != nil {
			rollback(ctx, uploader, keys)
			return nil, apperr.Internal(err)
		}
		keys = append(keys, key)
		urls = append(urls, uploader.URL(key))
	}
	return urls, nil
}

func rollback(ctx context.Context, uploader Uploader, keys []string) {
	for _, key := range keys {
		if err := uploader.Delete(context.WithoutCancel(ctx), key); err != nil {
			log.Printf("[media] rollback delete %s failed: %v", key, err)
		}
	}
}
