package templates

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joseph-ayodele/jobapply/constants"
	"github.com/joseph-ayodele/jobapply/internal/common"
)

// DocumentSpec describes one generated document offered to users.
type DocumentSpec struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Outputs     []string `json:"outputs"`
	Description string   `json:"description"`
	Notes       string   `json:"notes"`
}

// Section groups document specs for display.
type Section struct {
	Key       string         `json:"key"`
	Documents []DocumentSpec `json:"documents"`
}

// Package is a named bundle of doc types.
type Package struct {
	Name        string   `json:"name"`
	CreditBand  string   `json:"credit_band"`
	Includes    []string `json:"includes"`
	Description string   `json:"description"`
}

// Prompt is a built-in prompt used when no active template row exists.
type Prompt struct {
	DocType     string `json:"doc_type"`
	DisplayName string `json:"display_name"`
	Template    string `json:"prompt_template"`
	CreditCost  int    `json:"credit_cost"`
}

// Catalog is the static document catalog plus built-in prompts. It is built
// once at startup and passed to whoever needs it.
type Catalog struct {
	sections []Section
	packages []Package
	prompts  map[string]Prompt
	titles   map[string]string
}

// NewCatalog builds a catalog from explicit parts.
func NewCatalog(sections []Section, packages []Package, prompts []Prompt) *Catalog {
	c := &Catalog{
		sections: sections,
		packages: packages,
		prompts:  make(map[string]Prompt, len(prompts)),
		titles:   make(map[string]string),
	}
	for _, s := range sections {
		for _, d := range s.Documents {
			c.titles[d.Key] = d.Title
		}
	}
	for _, p := range prompts {
		c.addPrompt(p)
	}
	return c
}

func (c *Catalog) addPrompt(p Prompt) {
	if p.DisplayName == "" {
		p.DisplayName = c.Title(p.DocType)
	}
	if p.CreditCost <= 0 {
		p.CreditCost = 1
	}
	c.prompts[p.DocType] = p
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultSections(), defaultPackages(), defaultPrompts())
}

// promptFileEntry mirrors one value of the prompts JSON file.
type promptFileEntry struct {
	PromptTemplate string `json:"prompt_template"`
	DisplayName    string `json:"display_name"`
	CreditCost     int    `json:"credit_cost"`
}

// LoadCatalog returns the default catalog extended with prompts read from
// path, a JSON object keyed by doc type. An empty path yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "read prompts file", err)
	}
	var entries map[string]promptFileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("decode prompts file %s", path), err)
	}
	for docType, e := range entries {
		if e.PromptTemplate == "" {
			continue
		}
		c.addPrompt(Prompt{
			DocType:     docType,
			DisplayName: e.DisplayName,
			Template:    e.PromptTemplate,
			CreditCost:  e.CreditCost,
		})
	}
	return c, nil
}

// Prompt returns the built-in prompt for docType.
func (c *Catalog) Prompt(docType string) (Prompt, bool) {
	p, ok := c.prompts[docType]
	return p, ok
}

// Title returns the catalog title of docType, or docType itself.
func (c *Catalog) Title(docType string) string {
	if t, ok := c.titles[docType]; ok {
		return t
	}
	return docType
}

// Known reports whether docType is listed in the catalog or has a built-in prompt.
func (c *Catalog) Known(docType string) bool {
	if _, ok := c.titles[docType]; ok {
		return true
	}
	_, ok := c.prompts[docType]
	return ok
}

func (c *Catalog) Sections() []Section { return c.sections }

func (c *Catalog) Packages() []Package { return c.packages }

// Documents flattens all sections in display order.
func (c *Catalog) Documents() []DocumentSpec {
	var out []DocumentSpec
	for _, s := range c.sections {
		out = append(out, s.Documents...)
	}
	return out
}

// PackageDocTypes returns the doc types of the named package.
func (c *Catalog) PackageDocTypes(name string) ([]string, bool) {
	for _, p := range c.packages {
		if p.Name == name {
			return append([]string(nil), p.Includes...), true
		}
	}
	return nil, false
}

func defaultPrompts() []Prompt {
	return []Prompt{
		{
			DocType:     constants.DocTypeCoverLetter,
			DisplayName: "Cover Letter",
			Template: `Write a professional cover letter for this job application.

Job Details:
{job_description}

Candidate CV:
{cv_text}

Write a compelling cover letter that highlights relevant experience and enthusiasm for the role.
Format the output as plain text, ready to be used in an application.`,
		},
		{
			DocType:     constants.DocTypeCompanyBriefing,
			DisplayName: "Company Briefing",
			Template: `Create a company briefing for job interview preparation.

Job Details:
{job_description}

Provide:
1. Company overview and culture
2. Key talking points for the interview
3. Questions to ask the interviewer
4. Industry context and recent news

Format as a structured briefing document.`,
		},
	}
}

func defaultSections() []Section {
	return []Section{
		{Key: "essential_pack", Documents: []DocumentSpec{
			{"tailored_cv_pdf", "Tailored CV (ATS-friendly PDF)", []string{"PDF"},
				"Structured for ATS parsing with clear headings and factual alignment to the job offer.",
				"Marks sections that were adapted for the specific role."},
			{"tailored_cv_editable", "Tailored CV (Editable)", []string{"DOCX"},
				"Editable version of the tailored CV for last-minute tweaks.",
				"Includes comments explaining each adaptation."},
			{"tailored_cv_one_page", "Tailored CV (1-page)", []string{"PDF"},
				"Concise CV variant for roles that insist on short submissions.",
				"Highlights only the most relevant experience and skills."},
			{"motivational_letter_pdf", "Motivational Letter (PDF)", []string{"PDF"},
				"Region-ready motivational letter (DE/CH/FR friendly) tailored to the posting.",
				"Uses facts from the candidate profile and 1–2 company-specific points."},
			{"motivational_letter_editable", "Motivational Letter (Editable)", []string{"DOCX"},
				"Editable version of the motivational letter for custom edits.",
				"Same content as PDF, ready for user adjustments."},
			{"email_formal", "Email / Accompanying Message (formal)", []string{"Text"},
				"Formal email template to submit the application via email.",
				"Contains greeting, concise pitch, and attachment references."},
			{"email_linkedin", "LinkedIn DM message", []string{"Text"},
				"Short recruiter outreach tailored to the posting.",
				"Optimized for brevity and clarity in LinkedIn messaging."},
			{"match_score_report", "Match Score Report", []string{"PDF"},
				"ATS-style scorecard with strengths, gaps, and suggested improvements.",
				"Builds trust by surfacing both strengths and gaps."},
		}},
		{Key: "high_impact_addons", Documents: []DocumentSpec{
			{"company_intelligence_briefing", "Company Intelligence Briefing", []string{"PDF"},
				"1–2 page brief covering company overview, culture signals, and strategic talking points.",
				"Includes lightweight SWOT and hiring patterns."},
			{"interview_preparation_pack", "Interview Preparation Pack", []string{"PDF"},
				"Interview questions, tailored answers, STAR examples, and a 30s pitch.",
				"Includes a quick-read cheat sheet for day-of prep."},
			{"role_specific_portfolio", "Role-Specific Portfolio Page", []string{"PDF"},
				"Single-page portfolio of achievements mapped to the job requirements.",
				"Great for tech, marketing, HR, or consulting roles."},
			{"linkedin_optimization", "LinkedIn Optimization Output", []string{"Text"},
				"Updated About section plus suggested job titles and keywords.",
				"Improves recruiter discovery."},
		}},
		{Key: "premium_documents", Documents: []DocumentSpec{
			{"executive_summary", "Executive Summary / Personal Profile", []string{"PDF"},
				"1-page career story with value proposition, achievements, and QR code slot.",
				"Perfect for seniors, managers, and consultants."},
			{"skill_gap_report", "Skill Gap & Upskilling Recommendation Report", []string{"PDF"},
				"Maps missing skills, flags what matters, and suggests courses.",
				"Helps plan the next career step."},
			{"reference_summary", "AI-Verified Reference Summary", []string{"PDF"},
				"Consolidated strengths extracted from reference letters with optional recommendation line.",
				"Differentiator that builds trust."},
		}},
	}
}

func defaultPackages() []Package {
	basic := []string{"tailored_cv_pdf", "motivational_letter_pdf", "email_formal"}
	professional := []string{
		"tailored_cv_pdf", "tailored_cv_editable", "motivational_letter_pdf", "email_formal",
		"match_score_report", "company_intelligence_briefing",
	}
	premium := []string{
		"tailored_cv_pdf", "tailored_cv_editable", "tailored_cv_one_page", "motivational_letter_pdf",
		"email_formal", "match_score_report", "company_intelligence_briefing",
		"interview_preparation_pack", "skill_gap_report", "executive_summary", "linkedin_optimization",
	}
	return []Package{
		{"Basic Pack", "Low", basic,
			"Foundation for any application: tailored CV, motivational letter, and email message."},
		{"Professional Pack", "Medium", professional,
			"Adds the editable CV, match score report, and company briefing for stronger submissions."},
		{"Premium Pack", "High", premium,
			"Full suite including interview prep, skill gap insights, executive summary, and LinkedIn tuning."},
	}
}
