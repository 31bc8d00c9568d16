package models

// Typed views of the JSON payloads requested by each prompt. The stored payload
// stays raw JSON; these are for callers that want to decode it.

type SectionFeedback struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type DocumentReview struct {
	OverallScore      int               `json:"overall_score"`
	Sections          []SectionFeedback `json:"sections"`
	ImprovementPoints []string          `json:"improvement_points"`
	ReviewerComment   string            `json:"reviewer_comment"`
}

type StudentAnalysis struct {
	Strengths       []string       `json:"strengths"`
	Weaknesses      []string       `json:"weaknesses"`
	Recommendations []string       `json:"recommendations"`
	CareerFitScore  int            `json:"career_fit_score"`
	SkillScores     map[string]int `json:"skill_scores"`
	SuitableJobs    []string       `json:"suitable_jobs"`
}

type JobMatch struct {
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	MatchScore int      `json:"match_score"`
	Reasons    []string `json:"reasons"`
	Gaps       []string `json:"gaps"`
}

type JobMatching struct {
	Matches           []JobMatch `json:"matches"`
	OverallReadiness  int        `json:"overall_readiness"`
	TopRecommendation string     `json:"top_recommendation"`
	GrowthPlan        []string   `json:"growth_plan"`
}

type FocusArea struct {
	Topic  string `json:"topic"`
	Advice string `json:"advice"`
}

type CounselingSuggestion struct {
	Summary             string      `json:"summary"`
	FocusAreas          []FocusArea `json:"focus_areas"`
	DiscussionQuestions []string    `json:"discussion_questions"`
	NextSteps           []string    `json:"next_steps"`
}
