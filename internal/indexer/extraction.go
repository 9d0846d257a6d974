package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// ExtractionDocument mirrors the document.json produced by the PDF
// extraction pipeline
type ExtractionDocument struct {
	SourceFile     string          `json:"source_file"`
	ExtractionDate string          `json:"extraction_date"`
	Model          string          `json:"model"`
	Summary        string          `json:"summary"`
	Keywords       string          `json:"keywords"`
	License        string          `json:"license"`
	Pages          []ExtractionPage `json:"-"`
}

// ExtractionPage mirrors one pages/page_NNN.json file
type ExtractionPage struct {
	PageNumber     int                 `json:"page_number"`
	Text           string              `json:"text"`
	Image          string              `json:"image"`
	AnnotatedImage string              `json:"annotated_image"`
	Elements       []ExtractionElement `json:"elements"`
}

// ExtractionElement is one visual element detected on a page
type ExtractionElement struct {
	Type         string `json:"type"`
	Label        string `json:"label"`
	Description  string `json:"description"`
	SearchText   string `json:"search_text"`
	CropPath     string `json:"crop_path"`
	RenderedPath string `json:"rendered_path"`
	BBoxPixels   []int  `json:"bbox_pixels"`
}

// LoadExtraction reads a document extraction directory:
// document.json plus pages/page_*.json in page order
func LoadExtraction(docPath string) (*ExtractionDocument, error) {
	docFile := filepath.Join(docPath, "document.json")
	data, err := os.ReadFile(docFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read document.json: %w", err)
	}

	var doc ExtractionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document.json: %w", err)
	}

	pagesDir := filepath.Join(docPath, "pages")
	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &doc, nil
		}
		return nil, fmt.Errorf("failed to read pages directory: %w", err)
	}

	var pageFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "page_") && strings.HasSuffix(name, ".json") {
			pageFiles = append(pageFiles, name)
		}
	}
	sort.Strings(pageFiles)

	for _, name := range pageFiles {
		data, err := os.ReadFile(filepath.Join(pagesDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var page ExtractionPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		doc.Pages = append(doc.Pages, page)
	}

	return &doc, nil
}

// DiscoverDocuments lists extraction directories under dataDir that
// contain a document.json, by directory name
func DiscoverDocuments(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		docFile := filepath.Join(dataDir, entry.Name(), "document.json")
		if _, err := os.Stat(docFile); err == nil {
			docs = append(docs, entry.Name())
		}
	}
	sort.Strings(docs)

	return docs, nil
}

// TitleFromSlug converts a document slug into a display title:
// "smith-2024-attention_v2" becomes "Smith 2024 Attention V2"
func TitleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		runes := []rune(word)
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
