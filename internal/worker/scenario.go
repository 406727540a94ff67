// Package worker implements spec.md §5's concurrency & resource model:
// N workers running scenarios under process-level isolation (here,
// goroutine-level — every worker owns an independently constructed
// resolver, healing engine, executor and LearningStore, per the
// teacher's own preference for explicit capability objects over ambient
// singletons), bounded by a semaphore when workerCount exceeds the
// number of browser instances the caller is willing to run at once.
package worker

// GherkinStep is the minimal external-parser contract of spec.md §6: a
// keyword, its text (which may or may not carry the `AI "..."` marker),
// and the optional data table / doc-string conventional step
// definitions outside this core may need. The core only ever looks at
// Text.
type GherkinStep struct {
	Keyword   string // Given, When, Then, And, But
	Text      string
	Table     [][]string
	DocString string
}

// IsAI reports whether this step is owned by the Intent Parser, i.e.
// carries the `AI "..."` marker, per spec.md §6.
func (s GherkinStep) IsAI() bool {
	return looksLikeAI(s.Text)
}

// Scenario is one ordered run of steps plus the tag set the Selective
// Loader needs, per spec.md §4.5.
type Scenario struct {
	Name  string
	Tags  []string
	Steps []GherkinStep
}

func looksLikeAI(text string) bool {
	i := 0
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return len(text)-i >= 2 && (text[i] == 'A' || text[i] == 'a') && (text[i+1] == 'I' || text[i+1] == 'i')
}
