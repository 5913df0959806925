package marquee

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"
)

type countingBucketStore struct {
	uploads []string
}

func (c *countingBucketStore) Upload(bucket, name string, r io.Reader) (string, error) {
	io.Copy(io.Discard, r)
	c.uploads = append(c.uploads, bucket+"/"+name)
	return name, nil
}

func (c *countingBucketStore) PublicURL(bucket, path string) string {
	return "/public/uploads/" + bucket + "/" + path
}

// uploadedFile builds a real multipart.FileHeader by round-tripping a
// request, so fh.Open works like it does in handlers.
func uploadedFile(t *testing.T, name, ctype string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+name+`"`)
	hdr.Set("Content-Type", ctype)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write(content)
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["image"][0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestUploadAssetRejectsDisallowedType(t *testing.T) {
	bs := &countingBucketStore{}
	fh := uploadedFile(t, "doc.pdf", "application/pdf", []byte("%PDF-1.4"))

	_, err := UploadAsset(bs, "blog-images", fh, []string{"image/jpeg", "image/png"})
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("err = %v, want ErrInvalidFileType", err)
	}
	if len(bs.uploads) != 0 {
		t.Errorf("rejected file reached storage: %v", bs.uploads)
	}
}

func TestUploadAssetImageReencodedAsJPEG(t *testing.T) {
	bs := &countingBucketStore{}
	fh := uploadedFile(t, "photo.png", "image/png", pngBytes(t, 10, 10))

	url, err := UploadAsset(bs, "blog-images", fh, []string{"image/jpeg", "image/png"})
	if err != nil {
		t.Fatalf("UploadAsset: %v", err)
	}
	if !strings.HasPrefix(url, "/public/uploads/blog-images/") {
		t.Errorf("url = %s", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Errorf("image not re-encoded as jpeg: %s", url)
	}
	if len(bs.uploads) != 1 {
		t.Errorf("uploads = %v", bs.uploads)
	}
	if !strings.Contains(bs.uploads[0], "photo") {
		t.Errorf("name lost original base: %s", bs.uploads[0])
	}
}

func TestUploadAssetNonImagePassthrough(t *testing.T) {
	bs := &countingBucketStore{}
	fh := uploadedFile(t, "clip.mp4", "video/mp4", []byte("mp4data"))

	url, err := UploadAsset(bs, "website-assets", fh, []string{"video/mp4"})
	if err != nil {
		t.Fatalf("UploadAsset: %v", err)
	}
	if !strings.HasSuffix(url, ".mp4") {
		t.Errorf("extension changed: %s", url)
	}
}

func TestDiskBucketStoreRoundTrip(t *testing.T) {
	d := NewDiskBucketStore(t.TempDir())

	path, err := d.Upload("blog-images", "a.jpg", strings.NewReader("jpegdata"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got := d.PublicURL("blog-images", path); got != "/public/uploads/blog-images/a.jpg" {
		t.Errorf("PublicURL = %s", got)
	}

	// Same name overwrites.
	if _, err := d.Upload("blog-images", "a.jpg", strings.NewReader("newer")); err != nil {
		t.Errorf("overwrite: %v", err)
	}
}

func TestDeclaredTypeFallsBackToExtension(t *testing.T) {
	fh := &multipart.FileHeader{Filename: "photo.png", Header: textproto.MIMEHeader{}}
	if got := declaredType(fh); got != "image/png" {
		t.Errorf("declaredType = %s", got)
	}
}
