package types

import "strings"

// CEFRLevel is the Common European Framework of Reference proficiency
// scale, A1 (beginner) through C2 (mastery).
type CEFRLevel string

const (
	LevelA1 CEFRLevel = "A1"
	LevelA2 CEFRLevel = "A2"
	LevelB1 CEFRLevel = "B1"
	LevelB2 CEFRLevel = "B2"
	LevelC1 CEFRLevel = "C1"
	LevelC2 CEFRLevel = "C2"
)

var levelOrdinals = map[CEFRLevel]int{
	LevelA1: 1,
	LevelA2: 2,
	LevelB1: 3,
	LevelB2: 4,
	LevelC1: 5,
	LevelC2: 6,
}

var ordinalLevels = []CEFRLevel{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Ordinal maps a level to 1..6; unknown levels map to 0.
func (l CEFRLevel) Ordinal() int {
	return levelOrdinals[l]
}

// LevelFromOrdinal clamps to [1,6] before mapping back.
func LevelFromOrdinal(ordinal int) CEFRLevel {
	if ordinal < 1 {
		ordinal = 1
	}
	if ordinal > 6 {
		ordinal = 6
	}
	return ordinalLevels[ordinal-1]
}

// ParseCEFRLevel accepts loose model output like "b1", " B1 " or
// "B1 (intermediate)" and returns the canonical level. The boolean is
// false when no level prefix could be recognized.
func ParseCEFRLevel(raw string) (CEFRLevel, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if len(trimmed) < 2 {
		return "", false
	}
	candidate := CEFRLevel(trimmed[:2])
	if _, ok := levelOrdinals[candidate]; !ok {
		return "", false
	}
	return candidate, true
}

type ModuleType string

const (
	ModuleReading   ModuleType = "reading"
	ModuleWriting   ModuleType = "writing"
	ModuleListening ModuleType = "listening"
	ModuleSpeaking  ModuleType = "speaking"
)

// AllModuleTypes is the fixed module set of a placement test, in
// presentation order.
var AllModuleTypes = []ModuleType{ModuleReading, ModuleWriting, ModuleListening, ModuleSpeaking}

func (m ModuleType) Valid() bool {
	switch m {
	case ModuleReading, ModuleWriting, ModuleListening, ModuleSpeaking:
		return true
	}
	return false
}

// DisplayName is the human label used in strengths/weaknesses tags.
func (m ModuleType) DisplayName() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(m.String()[:1]) + m.String()[1:]
}

func (m ModuleType) String() string { return string(m) }
