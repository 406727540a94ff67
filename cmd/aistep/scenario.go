package main

import (
	"encoding/json"
	"fmt"
	"os"

	"aistep/internal/worker"
)

// scenarioFile is the on-disk shape this binary accepts in place of a
// real Gherkin parser. spec.md §6 explicitly treats "the Gherkin file
// parser itself" as an external collaborator out of this core's scope;
// this JSON fixture format is this reference CLI's stand-in producer,
// not a reimplementation of Gherkin.
type scenarioFile struct {
	Scenarios []scenarioDef `json:"scenarios"`
}

type scenarioDef struct {
	Name  string    `json:"name"`
	Tags  []string  `json:"tags"`
	Steps []stepDef `json:"steps"`
}

type stepDef struct {
	Keyword string `json:"keyword"`
	Text    string `json:"text"`
}

func loadScenarios(path string) ([]worker.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios file: %w", err)
	}
	var file scenarioFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenarios file: %w", err)
	}
	scenarios := make([]worker.Scenario, 0, len(file.Scenarios))
	for _, sc := range file.Scenarios {
		steps := make([]worker.GherkinStep, 0, len(sc.Steps))
		for _, s := range sc.Steps {
			steps = append(steps, worker.GherkinStep{Keyword: s.Keyword, Text: s.Text})
		}
		scenarios = append(scenarios, worker.Scenario{Name: sc.Name, Tags: sc.Tags, Steps: steps})
	}
	return scenarios, nil
}
