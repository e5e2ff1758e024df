// Package report renders class-wide progress workbooks for teachers.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
	"github.com/shiksha-ai/shiksha-engine/internal/learner"
)

const (
	progressSheet = "Progress"
	mistakesSheet = "Mistakes"
)

// Exporter builds xlsx progress reports over the concept graph.
type Exporter struct {
	graph *curriculum.Graph
	title cases.Caser
}

// NewExporter creates a report exporter.
func NewExporter(graph *curriculum.Graph) *Exporter {
	return &Exporter{
		graph: graph,
		title: cases.Title(language.English),
	}
}

// Export renders one workbook: a Progress sheet with one row per learner
// and a Mistakes sheet listing every unresolved mistake across the class.
// The caller owns the returned file and must Close it.
func (e *Exporter) Export(ledgers []*learner.Ledger) (*excelize.File, error) {
	f := excelize.NewFile()

	categories := e.categories()
	if err := e.writeProgress(f, ledgers, categories); err != nil {
		f.Close()
		return nil, err
	}
	if err := e.writeMistakes(f, ledgers); err != nil {
		f.Close()
		return nil, err
	}

	// excelize seeds a default "Sheet1"; replace it with Progress.
	f.DeleteSheet("Sheet1")
	idx, err := f.GetSheetIndex(progressSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("locate progress sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func (e *Exporter) writeProgress(f *excelize.File, ledgers []*learner.Ledger, categories []curriculum.Category) error {
	if _, err := f.NewSheet(progressSheet); err != nil {
		return fmt.Errorf("create progress sheet: %w", err)
	}

	header := []any{"Learner", "XP", "Rank", "Streak", "Confusions"}
	for _, cat := range categories {
		header = append(header, e.title.String(string(cat))+" Mastery")
	}
	if err := f.SetSheetRow(progressSheet, "A1", &header); err != nil {
		return fmt.Errorf("write progress header: %w", err)
	}

	for i, l := range ledgers {
		name := l.Name
		if name == "" {
			name = l.LearnerID
		}
		row := []any{name, l.XP, l.Rank, l.Streak, len(l.ConfusionSet)}
		for _, cat := range categories {
			row = append(row, e.categoryMastery(l, cat))
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(progressSheet, cell, &row); err != nil {
			return fmt.Errorf("write progress row %d: %w", i+2, err)
		}
	}
	return nil
}

func (e *Exporter) writeMistakes(f *excelize.File, ledgers []*learner.Ledger) error {
	if _, err := f.NewSheet(mistakesSheet); err != nil {
		return fmt.Errorf("create mistakes sheet: %w", err)
	}

	header := []any{"Learner", "Concept", "Question", "Wrong Answer", "Correct Answer", "Retries"}
	if err := f.SetSheetRow(mistakesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write mistakes header: %w", err)
	}

	rowNum := 2
	for _, l := range ledgers {
		name := l.Name
		if name == "" {
			name = l.LearnerID
		}
		for _, m := range l.MistakeLog {
			if m.Resolved {
				continue
			}
			conceptTitle := m.ConceptID
			if c, ok := e.graph.Get(m.ConceptID); ok {
				conceptTitle = c.Title
			}
			row := []any{name, conceptTitle, m.QuestionText, m.WrongAnswer, m.CorrectAnswer, m.RetryCount}
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(mistakesSheet, cell, &row); err != nil {
				return fmt.Errorf("write mistakes row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}
	return nil
}

// categories returns the categories present in the graph, in authoring
// order of first appearance.
func (e *Exporter) categories() []curriculum.Category {
	var out []curriculum.Category
	seen := make(map[curriculum.Category]bool)
	for _, c := range e.graph.Concepts() {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	return out
}

// categoryMastery averages the learner's scores over the category's
// concepts. Concepts never attempted count as zero.
func (e *Exporter) categoryMastery(l *learner.Ledger, cat curriculum.Category) float64 {
	var sum float64
	var n int
	for _, c := range e.graph.Concepts() {
		if c.Category != cat {
			continue
		}
		sum += l.Score(c.ID)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
