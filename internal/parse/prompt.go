package parse

import "strings"

// maxPromptChars bounds how much resume text goes into a single prompt.
const maxPromptChars = 25000

const promptTemplate = `
You are an advanced Applicant Tracking System (ATS) expert designed to extract structured data from messy, unstructured PDF text.

Extract the following fields with absolute precision. Output ONLY a valid JSON object.

1. NAME:
   - Extract the candidate's full name. It is usually the first distinct linguistic entity in the text.
   - Format as Title Case (e.g., "First Last").

2. MAJOR:
   - Identify the candidate's primary field of study.
   - STRICT RULE: Strip all degree classifications (Bachelor of Science, B.S., Master's, Degree in).
   - Examples: If text says "B.S. in Computer Engineering", output "Computer Engineering".

3. GRADUATION YEAR:
   - Scan the Education section for the latest graduation or expected graduation year.
   - STRICT RULE: Must be a 4-digit number. If a range is present (2024-2028), extract the end year ("2028").

4. COMPANIES (Semantic Extraction):
   - Do not rely on line breaks. Scan the text for organizational entities paired with professional, leadership, or technical titles (e.g., Intern, Engineer, Developer, Founder, Lead, Assistant, Member).
   - Include corporate employers, student project teams, research labs, and startups.
   - NEGATIVE CONSTRAINTS:
     - Do NOT include locations (e.g., "Atlanta, GA", "Remote").
     - Do NOT include dates or date ranges.
     - Do NOT include the university name unless the role is explicitly an employee position (like "Undergraduate Research Assistant" or "Teaching Assistant").
   - Clean suffixes like ", Inc.", " LLC", or " Corp".

5. KEYWORDS (Skills & Technologies):
   - Extract all technical skills, programming languages, and hardware/software tools.
   - Exclude soft skills (e.g., "Leadership", "Communication").

FEW-SHOT EXAMPLES:
- Text: "NVIDIA May 2024 - Aug 2024 Santa Clara, CA Developer Tools Software Project Manager Intern"
  Extracted Company: "NVIDIA"
- Text: "PwC Incoming Cloud & Digital SAP Consulting Intern May 2025 - Aug 2025 Boston, MA"
  Extracted Company: "PwC"
- Text: "College of Computing at Georgia Institute of Technology Discrete Mathematics Teaching Assistant Aug 2023 - Current Atlanta, GA"
  Extracted Company: "Georgia Institute of Technology"
- Text: "180 Degrees Consulting Project Manager Jan 2023 - May 2024 Atlanta, GA"
  Extracted Company: "180 Degrees Consulting"
- Text: "Solar Racing Team Strategy Sub Team Member Aug 2022-Jan 2024 Atlanta, GA"
  Extracted Company: "Solar Racing Team"
- Text: "Google Software Engineering Intern Mountain View, CA Summer 2023"
  Extracted Company: "Google"

JSON SCHEMA TO RETURN:
{
  "name": "First Last",
  "major": "Cleaned Major Name",
  "graduationYear": "YYYY",
  "companies": ["Company 1", "Company 2"],
  "keywords": ["C++", "Java", "FPGA", "ASIC", "React"]
}

RAW RESUME TEXT:
`

// buildPrompt assembles the extraction prompt, truncating oversized input.
func buildPrompt(text string) string {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	var b strings.Builder
	b.Grow(len(promptTemplate) + len(text) + 1)
	b.WriteString(promptTemplate)
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}
