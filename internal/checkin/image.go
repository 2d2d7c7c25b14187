package checkin

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// DecodeQR reads the QR code text from an image.
func DecodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize image: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("decode qr: %w", err)
	}
	return result.GetText(), nil
}

// ImageSource yields the QR payloads of a list of PNG or JPEG files, one per frame.
// Files without a readable code are skipped.
type ImageSource struct {
	Paths []string
	next  int
}

// NewImageSource creates a source over paths.
func NewImageSource(paths ...string) *ImageSource {
	return &ImageSource{Paths: paths}
}

// Next decodes the next file that carries a QR code.
func (s *ImageSource) Next(ctx context.Context) (string, error) {
	var last error
	for s.next < len(s.Paths) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := s.Paths[s.next]
		s.next++
		text, err := decodeFile(p)
		if err != nil {
			last = err
			continue
		}
		return text, nil
	}
	if last != nil {
		return "", fmt.Errorf("%w: %v", io.EOF, last)
	}
	return "", io.EOF
}

func decodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	text, err := DecodeQR(img)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
