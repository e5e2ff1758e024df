// Package curriculum loads the static concept catalog and exposes it as an
// immutable graph with prerequisite-gated traversal helpers.
package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load walks rootDir, reads every concept YAML file and returns the
// validated graph. The catalog is read once at process start; concepts are
// immutable afterwards.
func Load(rootDir string) (*Graph, error) {
	var concepts []Concept

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		c, err := loadConcept(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		if c == nil {
			return nil // Not a concept file
		}
		concepts = append(concepts, *c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	g, err := NewGraph(concepts)
	if err != nil {
		return nil, err
	}

	slog.Info("catalog loaded", "concepts", len(concepts))
	return g, nil
}

func loadConcept(path string) (*Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Concept
	if err := yaml.Unmarshal(data, &c); err != nil {
		slog.Warn("skipping invalid concept YAML", "path", path, "error", err)
		return nil, nil
	}
	if c.ID == "" {
		return nil, nil
	}

	if !c.Category.Valid() {
		return nil, fmt.Errorf("concept %s: unknown category %q", c.ID, c.Category)
	}
	if c.RewardXP <= 0 {
		return nil, fmt.Errorf("concept %s: reward_xp must be positive", c.ID)
	}
	for i := range c.Bank {
		c.Bank[i].Origin = OriginStatic
		if !c.Bank[i].ValidShape() {
			return nil, fmt.Errorf("concept %s: bank question %q has invalid shape", c.ID, c.Bank[i].ID)
		}
	}

	return &c, nil
}
