package folio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kabuchi/folio/objectstore"
)

const (
	imagePrefix   = "blog-images"
	uploadsSubdir = "uploads"
	maxImageWidth = 1600
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB, admin library only
)

var errNotImage = errors.New("file must be an image")

// imageExts lists the raster formats accepted for upload, keyed by sniffed
// content type.
var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// detectImageType sniffs the upload's first bytes and accepts only the
// raster formats in imageExts. The client's declared type is ignored. The
// returned reader replays the sniffed bytes.
func detectImageType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	ct := http.DetectContentType(head)
	if _, ok := imageExts[ct]; !ok {
		return "", nil, errNotImage
	}
	return ct, io.MultiReader(bytes.NewReader(head), r), nil
}

// storedName gives name the extension of its sniffed type, so the file is
// served with the content type that was checked.
func storedName(name, ct string) string {
	ext := imageExts[ct]
	cur := strings.ToLower(filepath.Ext(name))
	if cur == ext || (ext == ".jpg" && cur == ".jpeg") {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// imageKey names an upload "blog-images/{unixMillis}-{sanitized name}" and
// returns the key with its file name part.
func imageKey(now time.Time, name string) (key, filename string) {
	filename = objectstore.Key("", now, name)
	return imagePrefix + "/" + filename, filename
}

// shrinkImage downscales images wider than maxImageWidth and re-encodes them
// as JPEG. It reports false when the image is already narrow enough.
func shrinkImage(data []byte) ([]byte, bool, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= maxImageWidth {
		return nil, false, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := h * maxImageWidth / w
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, false, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), true, nil
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// handleUploadImage stores a multipart "image" file as a public object.
func (a *App) handleUploadImage(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "No image file provided")
	}
	src, err := fh.Open()
	if err != nil {
		return jsonFailure(c, "Failed to upload image", err)
	}
	defer src.Close()

	ct, body, err := detectImageType(src)
	if errors.Is(err, errNotImage) {
		return jsonError(c, http.StatusBadRequest, "File must be an image")
	}
	if err != nil {
		return jsonFailure(c, "Failed to upload image", err)
	}

	key, filename := imageKey(time.Now(), storedName(fh.Filename, ct))
	obj, err := a.Bucket.Put(c.Request().Context(), key, body, ct)
	if err != nil {
		a.Log.Error().Err(err).Str("key", key).Msg("upload image")
		return jsonFailure(c, "Failed to upload image", err)
	}
	a.Log.Info().Str("key", key).Int64("size", obj.Size).Msg("image uploaded")
	return c.JSON(http.StatusCreated, uploadResponse{Success: true, URL: a.absoluteURL(obj.URL), Filename: filename})
}

// handleImageUpload is the admin library upload. Wide images are shrunk
// before storing.
func (a *App) handleImageUpload(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return a.renderImageList(c, "No image file provided.")
	}
	if fh.Size > maxUploadSize {
		return a.renderImageList(c, "File too large (max 10MB).")
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	ct, body, err := detectImageType(src)
	if errors.Is(err, errNotImage) {
		return a.renderImageList(c, "File must be an image.")
	}
	if err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(body, maxUploadSize+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return a.renderImageList(c, "File too large (max 10MB).")
	}

	name := storedName(fh.Filename, ct)
	if out, shrunk, err := shrinkImage(data); err != nil {
		a.Log.Debug().Err(err).Str("file", name).Msg("storing image without resize")
	} else if shrunk {
		data, ct = out, "image/jpeg"
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	}

	key, filename := imageKey(time.Now(), name)
	if _, err := a.Bucket.Put(c.Request().Context(), key, bytes.NewReader(data), ct); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	a.Log.Info().Str("key", key).Int("size", len(data)).Msg("image uploaded")
	return a.renderImageList(c, "Uploaded "+filename+".")
}

// absoluteURL resolves a site-relative URL against the configured site URL.
// Absolute URLs are returned unchanged.
func (a *App) absoluteURL(ref string) string {
	base, err := url.Parse(a.Config.URL + "/")
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func (a *App) handleImageDelete(c echo.Context) error {
	key := c.FormValue("key")
	if !strings.HasPrefix(key, imagePrefix+"/") {
		return a.renderImageList(c, "Unknown image.")
	}
	if err := a.Bucket.Delete(c.Request().Context(), key); err != nil {
		if errors.Is(err, objectstore.ErrInvalidKey) {
			return a.renderImageList(c, "Unknown image.")
		}
		return err
	}
	a.Log.Info().Str("key", key).Msg("image deleted")
	return a.renderImageList(c, "Deleted.")
}

func (a *App) handleImageList(c echo.Context) error {
	return a.renderImageList(c, "")
}

func (a *App) renderImageList(c echo.Context, msg string) error {
	images, err := a.Bucket.List(c.Request().Context(), imagePrefix+"/")
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminImages(a.site(), images, msg, CsrfToken(c)))
}
