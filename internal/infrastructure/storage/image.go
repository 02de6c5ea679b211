package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedImage = errors.New("仅支持 jpeg/png 格式图片")
	ErrImageTooLarge    = errors.New("图片大小超出限制")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// LocalImageStore 将头像写入本地目录，通过 publicBaseURL 对外访问
type LocalImageStore struct {
	dir           string
	publicBaseURL string
	maxBytes      int64
}

func NewLocalImageStore(dir, publicBaseURL string, maxBytes int64) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalImageStore{
		dir:           dir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxBytes:      maxBytes,
	}, nil
}

// Dir 上传目录，供路由挂载静态文件
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Save 校验图片类型与大小后保存，返回公开访问地址
// 文件类型按内容识别，不信任客户端声明的 Content-Type
func (s *LocalImageStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("读取图片失败: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrImageTooLarge
	}

	ext, ok := allowedImageTypes[mimetype.Detect(data).String()]
	if !ok {
		return "", ErrUnsupportedImage
	}

	name := uuid.NewString() + ext
	if err := writeFile(filepath.Join(s.dir, name), data); err != nil {
		return "", err
	}
	return s.publicBaseURL + "/" + name, nil
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("创建图片文件失败: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("写入图片失败: %w", err)
	}
	return f.Close()
}
