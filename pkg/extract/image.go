package extract

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// upscalePercent enlarges binarized images before OCR.
const upscalePercent = 150

// ImageExtractor binarizes an image and OCRs it with tesseract.
type ImageExtractor struct {
	ocr *ocrEngine
}

func (e *ImageExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	tmp, err := os.CreateTemp("", "docqa-img-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, Preprocess(img)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	return e.ocr.recognize(ctx, tmp.Name())
}

// Preprocess converts img to grayscale, binarizes it with Otsu's threshold,
// and scales it to upscalePercent of its size.
func Preprocess(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	t := OtsuThreshold(gray)
	for i, v := range gray.Pix {
		if v > t {
			gray.Pix[i] = 0xff
		} else {
			gray.Pix[i] = 0
		}
	}

	w := b.Dx() * upscalePercent / 100
	h := b.Dy() * upscalePercent / 100
	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(out, out.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	return out
}

// OtsuThreshold returns the gray level that maximizes between-class variance.
// Pixels above it are foreground.
func OtsuThreshold(img *image.Gray) uint8 {
	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}

	total := len(img.Pix)
	if total == 0 {
		return 0
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB    float64
		weightB int
		best    float64
		bestT   uint8
	)
	for t := range 256 {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}

		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)

		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			bestT = uint8(t)
		}
	}

	return bestT
}
