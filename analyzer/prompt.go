package analyzer

import (
	"encoding/json"

	"github.com/ariclear/backend/generator"
)

// DefaultTemperature keeps the report close to deterministic.
const DefaultTemperature = 0.2

const instructions = `You are AriClear, an auditor of website clarity and AI search comprehension.

Analyze the provided page content.

Return ONLY one valid JSON object with exactly this shape (no markdown, no commentary):

{
  "human": {
    "clarityScore": integer 0-100,
    "whatItSeemsLike": string,
    "oneSentenceValueProp": string,
    "bestGuessAudience": string,
    "confusions": string[] (3-6 items),
    "topIssues": [{"issue": string, "whyItHurts": string, "fix": string}] (3-5 items)
  },
  "ai": {
    "aiSeoScore": integer 0-100,
    "aiSummary": string,
    "indexerRead": string,
    "missingKeywords": string[] (5-10 items),
    "structuredDataSuggestions": string[]
  },
  "copy": {
    "suggestedHeadline": string,
    "suggestedSubheadline": string,
    "suggestedCTA": string
  },
  "plan": {
    "nextSteps": [{"title": string, "impact": "high"|"medium"|"low", "effort": "high"|"medium"|"low", "details": string}]
  },
  "prompts": {
    "aiSeoPrompt": string
  }
}

Guidelines:
- "human.clarityScore": whether a first-time visitor understands what the site does within about 10 seconds.
- "ai.aiSeoScore": whether a language model can classify the site and extract its keywords cleanly.
- "ai.indexerRead": the category an indexer would file the page under.
- "prompts.aiSeoPrompt": a question a user might ask an AI assistant that this site should answer.
- Keep suggestions specific and actionable, never generic.
- The suggested headline, subheadline and CTA must match what the site actually offers.`

type promptPayload struct {
	URL       string      `json:"url"`
	Extracted PageContent `json:"extracted"`
}

// BuildRequest assembles the generation request for one page.
func BuildRequest(url string, content PageContent, temperature float32) (generator.Request, error) {
	if content.H2s == nil {
		content.H2s = []string{}
	}
	payload, err := json.MarshalIndent(promptPayload{URL: url, Extracted: content}, "", "  ")
	if err != nil {
		return generator.Request{}, err
	}
	return generator.Request{
		System:      instructions,
		User:        string(payload),
		Temperature: temperature,
		JSON:        true,
	}, nil
}
