package llm

import "strings"

const matchingPromptHeader = "Analyze how well this CV matches the job requirements. Provide a detailed matching analysis."

const matchingPromptFooter = `Please provide a JSON response with:
1. overall_score: A number from 0-100 representing the overall match
2. strengths: Array of 3-5 key strengths/matches
3. gaps: Array of 2-4 areas where the candidate may not fully meet requirements
4. recommendations: Array of 2-3 recommendations for the application
5. story: A concise, 3-6 sentence narrative that addresses potential fit concerns.

IMPORTANT: Read the ENTIRE CV carefully before identifying gaps.

Format your response as valid JSON only, no additional text.`

// BuildMatchingPrompt renders the CV-vs-job scoring prompt. The CV is passed in full.
func BuildMatchingPrompt(jobDescription, cvText string) string {
	var b strings.Builder
	b.WriteString(matchingPromptHeader)
	b.WriteString("\n\nJob Details:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nCandidate CV (Full):\n")
	b.WriteString(cvText)
	b.WriteString("\n\n")
	b.WriteString(matchingPromptFooter)
	return b.String()
}
