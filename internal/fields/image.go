package fields

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"html"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"path"
	"strings"

	"golang.org/x/image/draw"

	"git.home.luguber.info/inful/mouseadmin/internal/schema"
	"git.home.luguber.info/inful/mouseadmin/internal/slug"
)

// ContentFetcher retrieves the bytes behind a URL. The publish wiring backs
// this with the remote content cache for URLs under the site's own domain and
// a plain HTTP fetch for everything else.
type ContentFetcher interface {
	FetchURL(ctx context.Context, rawURL string) ([]byte, error)
}

// ImageURL is a free-text URL to cover art. Publishing an image_url field
// derives a PNG thumbnail scaled to fit Box pixels square.
type ImageURL struct {
	Fetcher ContentFetcher
	Box     int
}

func (ImageURL) Kind() string { return "image_url" }

func (ImageURL) RenderInput(def schema.FieldDefinition, current any) string {
	v, _ := current.(string)
	control := fmt.Sprintf(`<input type="url" name="%s" value="%s">`,
		html.EscapeString(def.Name), html.EscapeString(v))
	return wrapInput("image_url", def.Name, control)
}

func (ImageURL) ParseFormValue(raw string) any { return strings.TrimSpace(raw) }

func (ImageURL) Serialize(v any) ([]byte, error) { return serializeString("image_url", v) }

func (ImageURL) Deserialize(data []byte) (any, error) { return deserializeString("image_url", data) }

// DeriveArtifacts fetches the image and produces its thumbnail at the
// deterministic derived path. An empty URL derives nothing. Fetch or decode
// failures are returned to the caller, which degrades to publishing without
// the thumbnail.
func (f ImageURL) DeriveArtifacts(ctx context.Context, v any) (map[string][]byte, error) {
	rawURL, _ := v.(string)
	if rawURL == "" || f.Fetcher == nil {
		return nil, nil
	}

	data, err := f.Fetcher.FetchURL(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", rawURL, err)
	}

	thumb, err := makeThumbnail(data, f.Box)
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", rawURL, err)
	}

	return map[string][]byte{ThumbnailPath(rawURL): thumb}, nil
}

// ThumbnailPath computes the derived remote path for an image URL, relative
// to the schema base path. The path is a pure function of the URL: a slug of
// the file's base name plus a short hash of the full URL, so distinct source
// URLs with the same base name cannot collide.
func ThumbnailPath(rawURL string) string {
	base := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}
	base = strings.TrimSuffix(base, path.Ext(base))

	sum := sha1.Sum([]byte(rawURL))
	return fmt.Sprintf("thumbnails/%s-%s.png", slug.Make(base), hex.EncodeToString(sum[:4]))
}

// makeThumbnail decodes src (png, jpeg or gif), scales it down to fit within
// box x box preserving aspect ratio, and re-encodes as PNG. Images already
// inside the box are re-encoded at original size.
func makeThumbnail(src []byte, box int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}

	tw, th := fitWithin(w, h, box)
	scaled := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales (w, h) down to fit a box-by-box square, preserving aspect
// ratio and never scaling up. Dimensions round down but never below 1.
func fitWithin(w, h, box int) (int, int) {
	if w <= box && h <= box {
		return w, h
	}
	if w >= h {
		scaled := h * box / w
		if scaled < 1 {
			scaled = 1
		}
		return box, scaled
	}
	scaled := w * box / h
	if scaled < 1 {
		scaled = 1
	}
	return scaled, box
}
