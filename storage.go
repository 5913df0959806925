package marquee

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// BucketStore is the object-storage surface of the content store: named
// buckets of binary objects with publicly resolvable URLs. Uploads carry
// overwrite-allowed semantics.
type BucketStore interface {
	Upload(bucket, name string, r io.Reader) (string, error)
	PublicURL(bucket, path string) string
}

// DiskBucketStore keeps buckets as directories under the static dir so
// objects are served by the regular static file route.
type DiskBucketStore struct {
	root    string // e.g. "public/uploads"
	baseURL string // e.g. "/public/uploads"
}

// NewDiskBucketStore stores buckets under staticDir/uploads.
func NewDiskBucketStore(staticDir string) *DiskBucketStore {
	return &DiskBucketStore{
		root:    filepath.Join(staticDir, "uploads"),
		baseURL: "/public/uploads",
	}
}

// Upload writes the object, replacing any existing one with the same name.
func (d *DiskBucketStore) Upload(bucket, name string, r io.Reader) (string, error) {
	dir := filepath.Join(d.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return name, nil
}

// PublicURL resolves an object path to its public URL.
func (d *DiskBucketStore) PublicURL(bucket, path string) string {
	return d.baseURL + "/" + bucket + "/" + path
}

// UploadAsset validates the file's declared content type against allowed,
// stages image types through the resize/re-encode pipeline, stores the result
// under a collision-resistant name, and returns the public URL. Files outside
// the allowed set fail with ErrInvalidFileType before any storage call.
func UploadAsset(bs BucketStore, bucket string, fh *multipart.FileHeader, allowed []string) (string, error) {
	if fh.Size > maxUploadSize {
		return "", fmt.Errorf("file too large (max %d bytes)", maxUploadSize)
	}
	ctype := declaredType(fh)
	if !typeAllowed(ctype, allowed) {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileType, ctype)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := assetName(fh.Filename)
	var body io.Reader = src
	if strings.HasPrefix(ctype, "image/") {
		data, err := processImage(src)
		if err != nil {
			return "", fmt.Errorf("process image: %w", err)
		}
		body = bytes.NewReader(data)
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	}

	path, err := bs.Upload(bucket, name, body)
	if err != nil {
		return "", err
	}
	return bs.PublicURL(bucket, path), nil
}

// declaredType reads the part's Content-Type header, falling back to the
// filename extension.
func declaredType(fh *multipart.FileHeader) string {
	if t := fh.Header.Get("Content-Type"); t != "" && t != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(filepath.Ext(fh.Filename))); err == nil {
		return mt
	}
	return "application/octet-stream"
}

func typeAllowed(ctype string, allowed []string) bool {
	for _, a := range allowed {
		if ctype == a {
			return true
		}
	}
	return false
}

// assetName builds a collision-resistant object name from the upload time,
// a random token, and a slugified form of the original name.
func assetName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := Slugify(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = "asset"
	}
	token := uuid.NewString()[:8]
	return fmt.Sprintf("%d_%s_%s%s", time.Now().UnixMilli(), token, base, ext)
}

// processImage decodes an image, scales it down to maxImageWidth if wider,
// and re-encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
