package engine

import (
	"fmt"
	"strings"
)

// SourceType is the discriminator over XP grant and task origins. Behavior
// (XP emission, dashboard visibility, generation context) is decided by
// matching on the tag, never by subtyping.
type SourceType string

const (
	SourceAITask           SourceType = "ai_task"
	SourceQuestTask        SourceType = "quest_task"
	SourceExperimentTask   SourceType = "experiment_task"
	SourceAdHocTask        SourceType = "ad_hoc_task"
	SourceSimpleTodo       SourceType = "simple_todo"
	SourceProjectSubtask   SourceType = "project_subtask"
	SourceAdventureSubtask SourceType = "adventure_subtask"

	// Grant-only sources; never appear on tasks.
	SourceJournalTag     SourceType = "journal_tag"
	SourceManualOverride SourceType = "manual_override"
)

func (s SourceType) IsValid() bool {
	switch s {
	case SourceAITask, SourceQuestTask, SourceExperimentTask, SourceAdHocTask,
		SourceSimpleTodo, SourceProjectSubtask, SourceAdventureSubtask,
		SourceJournalTag, SourceManualOverride:
		return true
	default:
		return false
	}
}

// IsTaskSource reports whether the type is a valid task origin.
func (s SourceType) IsTaskSource() bool {
	switch s {
	case SourceAITask, SourceQuestTask, SourceExperimentTask, SourceAdHocTask,
		SourceSimpleTodo, SourceProjectSubtask, SourceAdventureSubtask:
		return true
	default:
		return false
	}
}

// EmitsXP reports whether completing a task of this type writes XP grants.
// Subtasks and simple todos only flip completion state.
func (s SourceType) EmitsXP() bool {
	switch s {
	case SourceAITask, SourceQuestTask, SourceExperimentTask, SourceAdHocTask:
		return true
	default:
		return false
	}
}

// DashboardVisible reports whether tasks of this type appear in dashboard
// queries. Subtasks never do; they exist purely as generation context.
func (s SourceType) DashboardVisible() bool {
	switch s {
	case SourceAITask, SourceQuestTask, SourceExperimentTask, SourceAdHocTask, SourceSimpleTodo:
		return true
	default:
		return false
	}
}

// InGenerationContext reports whether tasks of this type feed the AI task
// generator. Experiments are deliberately invisible to generation, and
// simple todos are kept out entirely.
func (s SourceType) InGenerationContext() bool {
	switch s {
	case SourceAITask, SourceQuestTask, SourceAdHocTask, SourceProjectSubtask, SourceAdventureSubtask:
		return true
	default:
		return false
	}
}

// Priority orders dashboard listings; lower sorts first.
func (s SourceType) Priority() int {
	switch s {
	case SourceAITask:
		return 0
	case SourceQuestTask:
		return 1
	case SourceExperimentTask:
		return 2
	case SourceAdHocTask:
		return 3
	case SourceSimpleTodo:
		return 4
	default:
		return 5
	}
}

func ParseSourceType(input string) (SourceType, error) {
	s := SourceType(strings.TrimSpace(strings.ToLower(input)))
	if !s.IsValid() {
		return "", ValidationError{Msg: fmt.Sprintf("invalid source type: %q", input)}
	}
	return s, nil
}

func dashboardSourceTypes() []string {
	return []string{
		string(SourceAITask), string(SourceQuestTask), string(SourceExperimentTask),
		string(SourceAdHocTask), string(SourceSimpleTodo),
	}
}

func generationSourceTypes() []string {
	return []string{
		string(SourceAITask), string(SourceQuestTask), string(SourceAdHocTask),
		string(SourceProjectSubtask), string(SourceAdventureSubtask),
	}
}

// MaxToneTags caps how many tone tags a finalized journal entry may carry.
const MaxToneTags = 2

// ToneVocabulary is the closed set of tones the analyzer may assign.
var ToneVocabulary = []string{
	"happy", "calm", "energized", "content", "overwhelmed", "anxious", "sad", "angry",
}

func IsValidTone(tag string) bool {
	for _, t := range ToneVocabulary {
		if t == tag {
			return true
		}
	}
	return false
}
