package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// fixtureElement describes one visual element in a fixture page
type fixtureElement struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description"`
	SearchText  string `json:"search_text,omitempty"`
	CropPath    string `json:"crop_path,omitempty"`
}

// fixturePage describes one page of extracted content
type fixturePage struct {
	PageNumber int              `json:"page_number"`
	Text       string           `json:"text"`
	Elements   []fixtureElement `json:"elements,omitempty"`
}

// writeFixtureDoc lays out an extraction directory for one document
func writeFixtureDoc(dataDir, slug, summary string, pages []fixturePage) error {
	docDir := filepath.Join(dataDir, slug)
	if err := os.MkdirAll(filepath.Join(docDir, "pages"), 0o755); err != nil {
		return err
	}

	doc := map[string]string{
		"source_file": slug + ".pdf",
		"model":       "mock-extract",
		"summary":     summary,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(docDir, "document.json"), data, 0o644); err != nil {
		return err
	}

	for _, page := range pages {
		data, err := json.Marshal(page)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("page_%03d.json", page.PageNumber)
		if err := os.WriteFile(filepath.Join(docDir, "pages", name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// writeFixtureCorpus writes three documents with distinct vocabulary
// so search tests can tell them apart
func writeFixtureCorpus(dataDir string) error {
	docs := []struct {
		slug    string
		summary string
		pages   []fixturePage
	}{
		{
			slug:    "optimization-methods",
			summary: "Survey of first-order optimization methods for deep learning.",
			pages: []fixturePage{
				{
					PageNumber: 1,
					Text: "Gradient descent iteratively updates model weights in the direction " +
						"of steepest loss reduction. Stochastic variants sample minibatches to " +
						"estimate the gradient, trading noise for throughput. Momentum terms " +
						"accumulate past gradients to dampen oscillation in narrow valleys.",
					Elements: []fixtureElement{
						{
							Type:        "chart",
							Label:       "Chart 1",
							Description: "Training loss curves for gradient descent variants",
							SearchText:  "training loss curve gradient descent momentum",
						},
					},
				},
				{
					PageNumber: 2,
					Text: "Adaptive methods such as Adam rescale each parameter update by a " +
						"running estimate of gradient variance. Learning rate schedules with " +
						"warmup and cosine decay remain important even for adaptive optimizers.",
				},
			},
		},
		{
			slug:    "attention-paper",
			summary: "Transformer architectures built on scaled dot-product attention.",
			pages: []fixturePage{
				{
					PageNumber: 1,
					Text: "Attention mechanisms weigh token relevance across the sequence. " +
						"Multi-head attention projects queries, keys, and values into parallel " +
						"subspaces, letting each head specialize on different relations.",
					Elements: []fixtureElement{
						{
							Type:        "figure",
							Label:       "Figure 1",
							Description: "Attention heatmap across encoder layers",
							SearchText:  "attention heatmap encoder layers token weights",
							CropPath:    "crops/fig1.png",
						},
						{
							Type:        "table",
							Label:       "Table 2",
							Description: "BLEU scores on translation benchmarks",
							SearchText:  "BLEU score translation benchmark comparison",
						},
					},
				},
			},
		},
		{
			slug:    "storage-survey",
			summary: "Index structures and query processing in relational databases.",
			pages: []fixturePage{
				{
					PageNumber: 1,
					Text: "B-tree indexes keep rows sorted by key and support range scans in " +
						"logarithmic time. Query planners choose between index lookups and " +
						"sequential scans based on estimated selectivity.",
				},
			},
		},
	}

	for _, doc := range docs {
		if err := writeFixtureDoc(dataDir, doc.slug, doc.summary, doc.pages); err != nil {
			return err
		}
	}
	return nil
}
