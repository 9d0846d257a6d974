package types

import "errors"

// ElementType classifies a visual element extracted from a document page
type ElementType string

const (
	ElementFigure   ElementType = "figure"
	ElementTable    ElementType = "table"
	ElementEquation ElementType = "equation"
	ElementChart    ElementType = "chart"
	ElementDiagram  ElementType = "diagram"
)

// AllElementTypes lists every recognized element type
var AllElementTypes = []ElementType{
	ElementFigure,
	ElementTable,
	ElementEquation,
	ElementChart,
	ElementDiagram,
}

// Valid reports whether the element type is one of the recognized kinds
func (t ElementType) Valid() bool {
	switch t {
	case ElementFigure, ElementTable, ElementEquation, ElementChart, ElementDiagram:
		return true
	default:
		return false
	}
}

// TagPrefix returns the citation tag prefix used when formatting results
// (e.g. "fig" for figures, "eq" for equations)
func (t ElementType) TagPrefix() string {
	switch t {
	case ElementFigure:
		return "fig"
	case ElementTable:
		return "tab"
	case ElementEquation:
		return "eq"
	case ElementChart:
		return "ch"
	case ElementDiagram:
		return "diag"
	default:
		return "el"
	}
}

// Element is a visual unit (figure, table, equation, chart, diagram)
// detected on a document page by the extraction pipeline.
type Element struct {
	ID         int64
	DocumentID int64
	PageID     int64

	Type        ElementType
	Label       string // e.g. "Figure 3", "Table 1"
	Description string // Vision-model description of the element
	SearchText  string // Text indexed for retrieval; falls back to Description

	// Artifact paths produced at extraction time
	CropPath     string
	RenderedPath string // For equations: LaTeX-rendered image

	// Bounding box on the page image, pixel coordinates
	BBox [4]int

	PageNumber int
}

// Validate checks element invariants
func (e *Element) Validate() error {
	if !e.Type.Valid() {
		return errors.New("invalid element type")
	}

	if e.SearchText == "" && e.Description == "" {
		return errors.New("element must have search text or a description")
	}

	return nil
}

// IndexText returns the text used for embedding and lexical indexing
func (e *Element) IndexText() string {
	if e.SearchText != "" {
		return e.SearchText
	}
	return e.Description
}
