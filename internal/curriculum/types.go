package curriculum

// Category is one of the three fixed curriculum domains.
type Category string

const (
	Chemistry Category = "chemistry"
	Physics   Category = "physics"
	Biology   Category = "biology"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Chemistry, Physics, Biology:
		return true
	}
	return false
}

// Origin tells where a quiz question came from.
type Origin string

const (
	OriginStatic    Origin = "static"
	OriginGenerated Origin = "generated"
)

// Concept represents one node of the concept graph, loaded from YAML.
type Concept struct {
	ID            string     `yaml:"id" json:"id"`
	Title         string     `yaml:"title" json:"title"`
	Description   string     `yaml:"description" json:"description"`
	MicroNote     string     `yaml:"micro_note" json:"microNote"`
	Category      Category   `yaml:"category" json:"category"`
	Prerequisites []string   `yaml:"prerequisites" json:"prerequisites"`
	RewardXP      int        `yaml:"reward_xp" json:"rewardXp"`
	Position      int        `yaml:"position" json:"position"`
	Bank          []Question `yaml:"bank" json:"bank,omitempty"`
}

// Question is a single multiple-choice question. Static bank questions are
// authored in the catalog; generated ones come from the question generator
// at quiz-composition time.
type Question struct {
	ID           string   `yaml:"id" json:"id"`
	Text         string   `yaml:"text" json:"text"`
	Options      []string `yaml:"options" json:"options"`
	CorrectIndex int      `yaml:"correct_index" json:"correctIndex"`
	ConceptTag   string   `yaml:"concept_tag" json:"conceptTag"`
	Explanation  string   `yaml:"explanation" json:"explanation"`
	Origin       Origin   `yaml:"-" json:"origin"`
	IsRetry      bool     `yaml:"-" json:"isRetry,omitempty"`
}

const (
	MinOptions = 2
	MaxOptions = 4
)

// ValidShape reports whether the question has a usable option list and a
// correct index inside it.
func (q Question) ValidShape() bool {
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return false
	}
	return q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}
