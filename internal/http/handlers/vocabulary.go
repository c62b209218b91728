package handlers

import (
	"net/http"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/datasource"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

// VocabularyHandler lists the insight filter options.
type VocabularyHandler struct {
	vocab  datasource.Vocabulary
	logger *logging.Logger
}

func NewVocabularyHandler(vocab datasource.Vocabulary, logger *logging.Logger) *VocabularyHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &VocabularyHandler{vocab: vocab, logger: logger}
}

// CategoryOption is one category with its display label.
type CategoryOption struct {
	Category crm.Category `json:"category"`
	Label    string       `json:"label"`
	Count    int          `json:"count"`
}

// ListCategories returns insight categories, most frequent first.
// GET /api/insights/categories
func (h *VocabularyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.vocab.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", "error", err)
		writeFailed(w, err)
		return
	}
	options := make([]CategoryOption, 0, len(counts))
	for _, c := range counts {
		options = append(options, CategoryOption{Category: c.Category, Label: c.Category.Display(), Count: c.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": options})
}

// ListTopics returns insight topics, most frequent first.
// GET /api/insights/topics
func (h *VocabularyHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.vocab.ListTopics(r.Context())
	if err != nil {
		h.logger.Error("list topics failed", "error", err)
		writeFailed(w, err)
		return
	}
	if topics == nil {
		topics = []crm.TopicCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}
