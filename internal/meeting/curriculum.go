package meeting

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Moment is one prepared teaching moment: a concept explained in plain,
// kid-friendly language.
type Moment struct {
	Concept     string `yaml:"concept" json:"concept"`
	Headline    string `yaml:"headline" json:"headline"`
	Explanation string `yaml:"explanation" json:"explanation"`
	TellMeMore  string `yaml:"tell_me_more" json:"tell_me_more"`
}

/// Curriculum maps "concept:sub_concept" keys to prepared moments.
type Curriculum map[string]Moment

// Concept keys produced by the event-to-concept mapping.
const (
	ConceptTaskBreakdown = "decomposition:task_breakdown"
	ConceptFirstCommit   = "source_control:first_commit"
	ConceptMoreCommits   = "source_control:multiple_commits"
	ConceptTestPass      = "testing:test_pass"
	ConceptTestFail      = "testing:test_fail"
	ConceptFirstTestRun  = "testing:first_test_run"
	ConceptFirstReview   = "code_review:first_review"
	ConceptFlashing      = "hardware:flashing"
)

// DefaultCurriculum returns the built-in curriculum. It is the fast path
// for teaching moments; the model API is only consulted for situations
// the curriculum does not cover.
func DefaultCurriculum() Curriculum {
	return Curriculum{
		ConceptTaskBreakdown: {
			Concept:     ConceptTaskBreakdown,
			Headline:    "Big jobs become small jobs",
			Explanation: "We split your idea into small tasks so each helper can work on one piece at a time.",
			TellMeMore:  "Engineers call this decomposition. A plan with small steps is easier to check, and if one step goes wrong we only redo that step.",
		},
		ConceptFirstCommit: {
			Concept:     ConceptFirstCommit,
			Headline:    "We saved a snapshot!",
			Explanation: "The project just got its first save point. If anything breaks later, we can come back here.",
			TellMeMore:  "This is called a commit. Each commit remembers exactly what every file looked like at that moment.",
		},
		ConceptMoreCommits: {
			Concept:     ConceptMoreCommits,
			Headline:    "Another save point",
			Explanation: "Every finished task gets its own snapshot, so the project history tells the story of the build.",
			TellMeMore:  "Looking at commits one by one shows who changed what and why. That trail is how teams understand their own projects.",
		},
		ConceptTestPass: {
			Concept:     ConceptTestPass,
			Headline:    "The tests are green!",
			Explanation: "Little check-programs ran your project and everything they looked at worked.",
			TellMeMore:  "Tests try the code automatically so people do not have to click through everything by hand after each change.",
		},
		ConceptTestFail: {
			Concept:     ConceptTestFail,
			Headline:    "A test caught something",
			Explanation: "One of our check-programs found a piece that is not working yet. That is the test doing its job!",
			TellMeMore:  "A failing test is good news in disguise: it found the problem before you did, and it tells us exactly where to look.",
		},
		ConceptFirstTestRun: {
			Concept:     ConceptFirstTestRun,
			Headline:    "Meet the tester",
			Explanation: "One helper's whole job is trying to break what the others built, so we find problems early.",
			TellMeMore:  "Real teams do this too. The person who wrote the code is often the worst at spotting its bugs.",
		},
		ConceptFirstReview: {
			Concept:     ConceptFirstReview,
			Headline:    "A second pair of eyes",
			Explanation: "A reviewer just read through the work and suggested ways to make it clearer and safer.",
			TellMeMore:  "Code review is how engineers teach each other. Most companies require a review before changes are allowed in.",
		},
		ConceptFlashing: {
			Concept:     ConceptFlashing,
			Headline:    "The code moved onto the board",
			Explanation: "We copied your program into the chip's memory, so it now runs even without the computer.",
			TellMeMore:  "This is called flashing, named after flash memory, which keeps its contents when the power goes off.",
		},
	}
}

// LoadCurriculumFile reads extra moments from a YAML file and merges them
// over the built-in curriculum. File entries win on key collisions.
func LoadCurriculumFile(path string) (Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}

	var file struct {
		Moments map[string]Moment `yaml:"moments"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}

	merged := DefaultCurriculum()
	for key, moment := range file.Moments {
		if moment.Concept == "" {
			moment.Concept = key
		}
		merged[key] = moment
	}
	return merged, nil
}
