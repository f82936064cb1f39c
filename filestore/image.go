package filestore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/linkpress/blog"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	// MaxUploadSize caps uploaded image files.
	MaxUploadSize = 10 << 20
)

// Image describes a stored upload.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
}

// ProcessImage decodes src, shrinks it to maxImageWidth if wider, and
// re-encodes it as JPEG.
func ProcessImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	base := blog.Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	return Image{
		Filename:     base + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
	}, buf.Bytes(), nil
}

// Upload processes src and saves it in st under a name not already taken,
// appending -2, -3, ... to the slugged file name as needed.
func Upload(ctx context.Context, st Store, src io.Reader, originalName string) (Image, error) {
	img, data, err := ProcessImage(src, originalName)
	if err != nil {
		return Image{}, err
	}
	base := strings.TrimSuffix(img.Filename, ".jpg")
	for n := 2; ; n++ {
		taken, err := st.Exists(ctx, img.Filename)
		if err != nil {
			return Image{}, err
		}
		if !taken {
			break
		}
		img.Filename = fmt.Sprintf("%s-%d.jpg", base, n)
	}
	if img.URL, err = st.Put(ctx, img.Filename, data, "image/jpeg"); err != nil {
		return Image{}, err
	}
	return img, nil
}
