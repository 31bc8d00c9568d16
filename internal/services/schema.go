package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"alfredoptarigan/career-reviewer/internal/models"
)

// reviewSchemas mirrors the response formats requested in prompt.go.
func reviewSchemas() map[models.ReviewKind]map[string]any {
	document := map[string]any{
		"type":     "object",
		"required": []string{"overall_score", "sections", "improvement_points", "reviewer_comment"},
		"properties": map[string]any{
			"overall_score": scoreProp(),
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name", "score", "feedback"},
					"properties": map[string]any{
						"name":     map[string]any{"type": "string"},
						"score":    scoreProp(),
						"feedback": map[string]any{"type": "string"},
					},
				},
			},
			"improvement_points": stringArrayProp(),
			"reviewer_comment":   map[string]any{"type": "string"},
		},
	}

	return map[models.ReviewKind]map[string]any{
		models.KindResume:      document,
		models.KindCoverLetter: document,
		models.KindStudentAnalysis: {
			"type": "object",
			"required": []string{
				"strengths", "weaknesses", "recommendations", "career_fit_score", "skill_scores", "suitable_jobs",
			},
			"properties": map[string]any{
				"strengths":        stringArrayProp(),
				"weaknesses":       stringArrayProp(),
				"recommendations":  stringArrayProp(),
				"career_fit_score": scoreProp(),
				"skill_scores": map[string]any{
					"type":                 "object",
					"additionalProperties": scoreProp(),
				},
				"suitable_jobs": stringArrayProp(),
			},
		},
		models.KindJobMatching: {
			"type":     "object",
			"required": []string{"matches", "overall_readiness", "top_recommendation", "growth_plan"},
			"properties": map[string]any{
				"matches": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []string{"title", "match_score"},
						"properties": map[string]any{
							"title":       map[string]any{"type": "string"},
							"company":     map[string]any{"type": "string"},
							"match_score": scoreProp(),
							"reasons":     stringArrayProp(),
							"gaps":        stringArrayProp(),
						},
					},
				},
				"overall_readiness":  scoreProp(),
				"top_recommendation": map[string]any{"type": "string"},
				"growth_plan":        stringArrayProp(),
			},
		},
		models.KindCounseling: {
			"type":     "object",
			"required": []string{"summary", "focus_areas", "discussion_questions", "next_steps"},
			"properties": map[string]any{
				"summary": map[string]any{"type": "string"},
				"focus_areas": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []string{"topic", "advice"},
						"properties": map[string]any{
							"topic":  map[string]any{"type": "string"},
							"advice": map[string]any{"type": "string"},
						},
					},
				},
				"discussion_questions": stringArrayProp(),
				"next_steps":           stringArrayProp(),
			},
		},
	}
}

func scoreProp() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
}

func stringArrayProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// compileSchemas compiles every review schema once.
func compileSchemas() (map[models.ReviewKind]*jsonschema.Schema, error) {
	compiled := make(map[models.ReviewKind]*jsonschema.Schema)
	for kind, schemaMap := range reviewSchemas() {
		b, err := json.Marshal(schemaMap)
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", kind, err)
		}

		name := string(kind) + ".json"
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", kind, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		compiled[kind] = schema
	}
	return compiled, nil
}
