package openai

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// receiptToImages turns a receipt file into one JPEG per page. Image files
// pass through re-encoded; PDFs are rasterized with mupdf.
func receiptToImages(path string, logger *zap.Logger) ([][]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("receipt file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return pdfToImages(path, logger)
	case ".jpg", ".jpeg", ".png":
		data, err := readImageFile(path, ext)
		if err != nil {
			return nil, err
		}
		return [][]byte{data}, nil
	default:
		return nil, fmt.Errorf("unsupported receipt file type: %s", ext)
	}
}

func pdfToImages(path string, logger *zap.Logger) ([][]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var images [][]byte
	pageCount := doc.NumPage()

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		img, err := doc.Image(pageNum)
		if err != nil {
			logger.Warn("Failed to rasterize PDF page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		data, err := encodeJPEG(img)
		if err != nil {
			logger.Warn("Failed to encode PDF page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		images = append(images, data)
	}

	return images, nil
}

func readImageFile(path, ext string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	var img image.Image
	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	case ".png":
		img, err = png.Decode(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
