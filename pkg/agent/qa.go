package agent

import (
	"log/slog"
	"strings"

	"github.com/aldergate-legal/core/pkg/verification"
)

// QAVerdict is the outcome of the QA review stage.
type QAVerdict struct {
	Approved bool
	Notes    []string
}

// QAReviewer runs a cheap heuristic pass over a generated response
// before it is finalised, grounded on
// original_source/agents/qa_agent.py::QAReviewAgent's rule-based
// checks (no second model call; a handful of structural heuristics).
// TestingMode (spec.md's QA_TESTING_MODE, see DESIGN.md's Open
// Question resolution) short-circuits to always-approve so integration
// tests are not at the mercy of heuristic thresholds.
type QAReviewer struct {
	testingMode bool
	logger      *slog.Logger
}

// NewQAReviewer constructs a QAReviewer.
func NewQAReviewer(testingMode bool) *QAReviewer {
	return &QAReviewer{testingMode: testingMode, logger: slog.With("component", "agent.qa")}
}

// Review checks content and its verification outcome against a small
// set of heuristics: the response must be non-trivial in length, must
// not consist entirely of removed citations, and must not echo an
// obvious refusal phrase a model sometimes emits instead of answering.
func (q *QAReviewer) Review(content string, v verification.Result) QAVerdict {
	if q.testingMode {
		return QAVerdict{Approved: true, Notes: []string{"qa testing mode: auto-approved"}}
	}

	var notes []string
	approved := true

	if len(strings.TrimSpace(content)) < 20 {
		approved = false
		notes = append(notes, "response is too short to be substantive")
	}

	if v.CitationsChecked > 0 && v.CitationsRemoved == v.CitationsChecked {
		approved = false
		notes = append(notes, "every cited authority failed verification")
	}

	lower := strings.ToLower(content)
	for _, phrase := range []string{"i cannot help with that", "i'm unable to assist"} {
		if strings.Contains(lower, phrase) {
			approved = false
			notes = append(notes, "response reads as a refusal")
			break
		}
	}

	if approved {
		notes = append(notes, "passed heuristic review")
	}
	return QAVerdict{Approved: approved, Notes: notes}
}
