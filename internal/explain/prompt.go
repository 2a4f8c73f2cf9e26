// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// Sections lists the mandatory headings of every explanation, in order.
var Sections = []string{
	"Executive Summary",
	"Core Problem & Objective",
	"Key Concepts & Jargon Explained",
	"Methodology Simplified",
	"Main Findings & Results",
	"Significance & Contribution",
	"Limitations & Future Work",
}

// explanationPromptTmpl is sent once per document alongside the uploaded
// file reference.
var explanationPromptTmpl = template.Must(template.New("explanation").Parse(`Please act as a research assistant tasked with explaining the attached research paper ({{.DisplayName}}).
Your explanation should be targeted towards {{.Audience}}.

Analyze the entire document and provide a comprehensive explanation covering the following points:

1.  **{{index .Sections 0}}:** A brief overview of the paper's main goal and key finding.
2.  **{{index .Sections 1}}:** What specific problem does this research address? What was the primary objective or research question?
3.  **{{index .Sections 2}}:** Identify 5-10 of the most crucial technical terms, acronyms, or specialized concepts. For each, provide a clear and concise explanation suitable for the target audience.
4.  **{{index .Sections 3}}:** Describe the core methodology or experimental approach. Explain the logic behind *why* these methods were chosen and what they aimed to measure or analyze, without excessive technical detail. Focus on the workflow and purpose.
5.  **{{index .Sections 4}}:** Summarize the key results presented. What were the significant outcomes of the experiments or analyses? Use simple terms to explain what the findings mean.
6.  **{{index .Sections 5}}:** Explain the importance of this research. How does it advance the field? What are its potential applications or implications?
7.  **{{index .Sections 6}}:** Briefly mention any key limitations acknowledged by the authors and potential future research directions suggested.

Structure your response clearly using Markdown headings for each section. Your objective is knowledge distillation. Focus on *explanation* and *context*, and also explain the math behind the paper. At the end, suggest and link some resources to understand the concepts explored in the paper.
`))

// RenderPrompt builds the explanation prompt for a document shown to the
// model as displayName.
func RenderPrompt(audience types.Audience, displayName string) (string, error) {
	var buf bytes.Buffer
	err := explanationPromptTmpl.Execute(&buf, struct {
		Audience    string
		DisplayName string
		Sections    []string
	}{
		Audience:    audience.Description(),
		DisplayName: displayName,
		Sections:    Sections,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
