package memory

import (
	"fmt"
	"strings"

	"github.com/sandevgo/ragmemory/internal/core"
)

// NoNewInfo is what the extraction prompt asks the model to answer when the
// conversation carries nothing about the user.
const NoNewInfo = "NO_NEW_USER_INFO"

const (
	freshSummaryWords       = 300
	incrementalSummaryWords = 400

	noProfilePlaceholder = "(no profile yet)"
	noSummaryPlaceholder = "(no summary yet)"
)

const extractionSystem = `You extract personal information about the user from a conversation.
Organize the result as markdown: one "## Category" heading per category with "- item" lines below it.
Useful categories include name, occupation, skills, preferences, projects, goals and background.
Omit categories with nothing to report.
If the conversation contains no new information about the user, output only ` + NoNewInfo + `.`

const mergeSystem = `You maintain a user profile in markdown with "## Category" headings and "- item" lines.
Merge the new information into the existing profile.
When they conflict, the new information wins. Remove duplicate items.
Output the complete updated profile directly.`

const summarySystem = `You compress conversation history into a summary.
Keep the key information: user intent, decisions, progress and stated facts. Drop pleasantries.
Write in the third person, in paragraphs rather than lists, with natural transitions.
Aim for 20-30% of the original length. Output the summary directly with no preamble.`

const incrementalSystem = `You update a running summary of a conversation history.
The existing summary stays valid unless the new conversation overturns it.
Integrate the new information and keep the result more concise than the inputs combined.
Write in the third person, in paragraphs. Output the summary directly with no preamble.`

func extractionPrompt(profile, conversation string) []core.Message {
	if strings.TrimSpace(profile) == "" {
		profile = noProfilePlaceholder
	}
	user := fmt.Sprintf(`Existing profile:
%s

Conversation:
%s

List only new or updated information about the user, as markdown, with no preamble.`, profile, conversation)

	return []core.Message{
		{Role: core.RoleSystem, Content: extractionSystem},
		{Role: core.RoleUser, Content: user},
	}
}

func mergePrompt(profile, delta string) []core.Message {
	user := fmt.Sprintf(`Existing profile:
%s

New information:
%s`, profile, delta)

	return []core.Message{
		{Role: core.RoleSystem, Content: mergeSystem},
		{Role: core.RoleUser, Content: user},
	}
}

func summaryPrompt(conversation string) []core.Message {
	user := fmt.Sprintf(`Conversation:
%s

Target length: about %d words.`, conversation, freshSummaryWords)

	return []core.Message{
		{Role: core.RoleSystem, Content: summarySystem},
		{Role: core.RoleUser, Content: user},
	}
}

func incrementalPrompt(summary, conversation string) []core.Message {
	if strings.TrimSpace(summary) == "" {
		summary = noSummaryPlaceholder
	}
	user := fmt.Sprintf(`Existing summary:
%s

New conversation:
%s

Target length: about %d words.`, summary, conversation, incrementalSummaryWords)

	return []core.Message{
		{Role: core.RoleSystem, Content: incrementalSystem},
		{Role: core.RoleUser, Content: user},
	}
}
