package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

// Positioned fragments closer than this on the Y axis belong to the
// same visual row; gaps wider than this on the X axis start a new
// table cell.
const (
	rowYTolerance = 2.0
	cellXGap      = 12.0
)

type PDFProcessor interface {
	ExtractText(pdfData []byte) (string, error)
	ExtractTables(pdfData []byte) ([]dto.TableGrid, error)
	ExtractImages(pdfData []byte, password string) ([]image.Image, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

func (p *pdfProcessor) ExtractText(pdfData []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", err
	}

	var textBuilder bytes.Buffer
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, _ := page.GetTextByRow()
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 {
					textBuilder.WriteString(" ")
				}
				textBuilder.WriteString(word.S)
			}
			textBuilder.WriteString("\n")
		}
	}
	return textBuilder.String(), nil
}

// ExtractTables rebuilds table grids from glyph positions: fragments
// are grouped into rows by Y coordinate, then split into cells at
// horizontal gaps. One grid per page.
func (p *pdfProcessor) ExtractTables(pdfData []byte) ([]dto.TableGrid, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, err
	}

	var grids []dto.TableGrid
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		texts := page.Content().Text
		if len(texts) == 0 {
			continue
		}
		if grid := gridFromTexts(texts); len(grid) > 0 {
			grids = append(grids, grid)
		}
	}
	return grids, nil
}

func gridFromTexts(texts []pdf.Text) dto.TableGrid {
	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			// PDF Y grows upward; read top to bottom.
			return texts[i].Y > texts[j].Y
		}
		return texts[i].X < texts[j].X
	})

	var grid dto.TableGrid
	var rowTexts []pdf.Text
	for _, t := range texts {
		if len(rowTexts) > 0 && rowTexts[0].Y-t.Y > rowYTolerance {
			grid = append(grid, cellsFromRow(rowTexts))
			rowTexts = rowTexts[:0]
		}
		rowTexts = append(rowTexts, t)
	}
	if len(rowTexts) > 0 {
		grid = append(grid, cellsFromRow(rowTexts))
	}
	return grid
}

func cellsFromRow(rowTexts []pdf.Text) []string {
	sort.SliceStable(rowTexts, func(i, j int) bool {
		return rowTexts[i].X < rowTexts[j].X
	})

	var cells []string
	var cell strings.Builder
	lastEnd := 0.0
	for i, t := range rowTexts {
		if i > 0 && t.X-lastEnd > cellXGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}
	return cells
}

func (p *pdfProcessor) ExtractImages(pdfData []byte, password string) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "pdf_images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempFile, err := os.CreateTemp("", "doc-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(pdfData); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}
	tempFile.Close()

	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
	}

	if err := api.ExtractImagesFile(tempFile.Name(), tempDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	var images []image.Image
	files, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		imgPath := filepath.Join(tempDir, file.Name())
		imgFile, err := os.Open(imgPath)
		if err != nil {
			continue
		}

		img, _, err := image.Decode(imgFile)
		imgFile.Close()
		if err != nil {
			continue
		}
		images = append(images, img)
	}

	return images, nil
}
