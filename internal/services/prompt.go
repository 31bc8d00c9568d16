package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/career-reviewer/internal/models"
)

const notProvided = "Not provided"

type ResumeReviewInput struct {
	Text       string
	TargetRole string
	Guidelines string
}

type CoverLetterReviewInput struct {
	Text          string
	TargetCompany string
	TargetRole    string
	Guidelines    string
}

type StudentAnalysisInput struct {
	Profile models.ProfileBundle
}

type JobMatchingInput struct {
	Profile models.ProfileBundle
	Jobs    []models.JobPosting
}

type CounselingInput struct {
	Profile models.ProfileBundle
	Concern string
	Notes   []string
}

const documentReviewFormat = `{
  "overall_score": <integer 0-100>,
  "sections": [
    {"name": "<section name>", "score": <integer 0-100>, "feedback": "<specific feedback>"}
  ],
  "improvement_points": ["<point 1>", "<point 2>", "<point 3>"],
  "reviewer_comment": "<2-4 sentence overall comment>"
}`

const studentAnalysisFormat = `{
  "strengths": ["<strength>"],
  "weaknesses": ["<weakness>"],
  "recommendations": ["<actionable recommendation>"],
  "career_fit_score": <integer 0-100>,
  "skill_scores": {"<skill name>": <integer 0-100>},
  "suitable_jobs": ["<job title>"]
}`

const jobMatchingFormat = `{
  "matches": [
    {
      "title": "<job title>",
      "company": "<company>",
      "match_score": <integer 0-100>,
      "reasons": ["<why the student fits>"],
      "gaps": ["<missing requirement>"]
    }
  ],
  "overall_readiness": <integer 0-100>,
  "top_recommendation": "<the single best next move>",
  "growth_plan": ["<step>"]
}`

const counselingFormat = `{
  "summary": "<2-3 sentence summary of the student's situation>",
  "focus_areas": [{"topic": "<topic>", "advice": "<advice for the counselor to give>"}],
  "discussion_questions": ["<question to ask the student>"],
  "next_steps": ["<concrete next step>"]
}`

// jsonInstruction closes every prompt. The model client still tolerates code
// fences, but the prompt asks for none.
func jsonInstruction(format string) string {
	return fmt.Sprintf(`RESPONSE FORMAT:
Respond with ONLY a JSON object that matches this structure exactly:
%s

All scores are integers between 0 and 100. Array fields must be JSON arrays of strings unless shown otherwise.
Do not wrap the JSON in markdown code fences and do not add any text before or after it.`, format)
}

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeReviewPrompt creates prompt for resume review
func (pb *PromptBuilder) BuildResumeReviewPrompt(in ResumeReviewInput) string {
	return fmt.Sprintf(`You are an experienced career advisor and technical recruiter reviewing a university student's resume.

TARGET ROLE:
%s

REVIEWER GUIDELINES:
%s

RESUME:
%s

Evaluate the resume against these criteria, in order:
1. Structure & Readability - Logical section order, consistent formatting, scannable in under a minute
2. Content Relevance - Experience, projects and skills that support the target role
3. Impact & Evidence - Achievements stated with concrete results, numbers or scope
4. Skills Presentation - Technical and soft skills grouped and backed by experience
5. Language & Accuracy - Grammar, spelling, concise action-oriented wording

Give one entry in "sections" per criterion above, then exactly three improvement points ordered by impact.

%s`,
		orNotProvided(in.TargetRole), orNotProvided(in.Guidelines), in.Text, jsonInstruction(documentReviewFormat))
}

// BuildCoverLetterReviewPrompt creates prompt for cover letter review
func (pb *PromptBuilder) BuildCoverLetterReviewPrompt(in CoverLetterReviewInput) string {
	return fmt.Sprintf(`You are an experienced career advisor reviewing a university student's cover letter.

TARGET COMPANY:
%s

TARGET ROLE:
%s

REVIEWER GUIDELINES:
%s

COVER LETTER:
%s

Evaluate the cover letter against these criteria, in order:
1. Opening & Motivation - A specific, engaging reason for applying
2. Company & Role Fit - Evidence the student understands the company and the role
3. Supporting Experience - Concrete examples that back up the claimed fit
4. Structure & Tone - Clear paragraphs, professional yet personal voice, appropriate length
5. Closing & Call to Action - Confident close with a clear next step

Give one entry in "sections" per criterion above, then exactly three improvement points ordered by impact.

%s`,
		orNotProvided(in.TargetCompany), orNotProvided(in.TargetRole), orNotProvided(in.Guidelines), in.Text,
		jsonInstruction(documentReviewFormat))
}

// BuildStudentAnalysisPrompt creates prompt for a single student's career analysis
func (pb *PromptBuilder) BuildStudentAnalysisPrompt(in StudentAnalysisInput) string {
	return fmt.Sprintf(`You are a university career counselor analysing a student's readiness for their target career.

STUDENT PROFILE:
%s

Analyse the student against these criteria, in order:
1. Alignment between department, skills and target field
2. Depth and relevance of projects and certificates
3. Clarity and feasibility of stated goals
4. Gaps that would block an entry-level application in the target field

Score each listed skill in "skill_scores" by how well the profile evidences it. Suggest three to five suitable job titles.

%s`, formatProfile(in.Profile), jsonInstruction(studentAnalysisFormat))
}

// BuildJobMatchingPrompt creates prompt for matching a student against job postings
func (pb *PromptBuilder) BuildJobMatchingPrompt(in JobMatchingInput) string {
	return fmt.Sprintf(`You are a career matching specialist comparing a student's profile with open positions.

STUDENT PROFILE:
%s

JOB POSTINGS:
%s

Evaluate each posting against these criteria, in order:
1. Required skills the student already evidences
2. Experience and project relevance
3. Fit with the student's target field, company and goals
4. Requirements the student is missing

Return one entry in "matches" per posting, ordered by match_score descending.

%s`, formatProfile(in.Profile), formatJobs(in.Jobs), jsonInstruction(jobMatchingFormat))
}

// BuildCounselingPrompt creates prompt for counselor-facing suggestions
func (pb *PromptBuilder) BuildCounselingPrompt(in CounselingInput) string {
	return fmt.Sprintf(`You are assisting a university career counselor who is preparing for a one-on-one session with a student.

STUDENT PROFILE:
%s

STUDENT'S CURRENT CONCERN:
%s

PREVIOUS COUNSELING NOTES:
%s

Prepare suggestions against these criteria, in order:
1. The most pressing issue for the student's career progress
2. Advice the counselor can give for each focus area
3. Open questions that help the student reflect
4. Next steps achievable before the next session

%s`, formatProfile(in.Profile), orNotProvided(in.Concern), formatList(in.Notes), jsonInstruction(counselingFormat))
}

// BuildGuidelineQuery creates query for guideline retrieval
func (pb *PromptBuilder) BuildGuidelineQuery(kind models.ReviewKind, text string) string {
	switch kind {
	case models.KindResume:
		return fmt.Sprintf("Resume review criteria and good practice for: %s", truncateRunes(text, 2000))
	case models.KindCoverLetter:
		return fmt.Sprintf("Cover letter review criteria and good practice for: %s", truncateRunes(text, 2000))
	default:
		return truncateRunes(text, 2000)
	}
}

// FormatGuidelineContext renders retrieved guideline chunks for a prompt.
func FormatGuidelineContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Guideline %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}

func formatProfile(p models.ProfileBundle) string {
	return fmt.Sprintf(`- Name: %s
- School: %s
- Department: %s
- Grade: %s
- Target Field: %s
- Target Company: %s
- Bio: %s
- Goals:
%s
- Skills:
%s
- Projects:
%s
- Certificates:
%s`,
		orNotProvided(p.Name), orNotProvided(p.School), orNotProvided(p.Department), orNotProvided(p.Grade),
		orNotProvided(p.TargetField), orNotProvided(p.TargetCompany), orNotProvided(p.Bio),
		formatList(p.Goals), formatList(p.Skills), formatList(p.Projects), formatList(p.Certificates))
}

func formatJobs(jobs []models.JobPosting) string {
	if len(jobs) == 0 {
		return notProvided
	}

	var parts []string
	for i, job := range jobs {
		parts = append(parts, fmt.Sprintf("%d. %s at %s\n   Requirements: %s\n   Description: %s",
			i+1, orNotProvided(job.Title), orNotProvided(job.Company),
			orNotProvided(job.Requirements), orNotProvided(job.Description)))
	}
	return strings.Join(parts, "\n")
}

func formatList(items []string) string {
	var lines []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %d. %s", len(lines)+1, item))
	}
	if len(lines) == 0 {
		return "  " + notProvided
	}
	return strings.Join(lines, "\n")
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
