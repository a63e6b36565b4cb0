package debate

import (
	"fmt"
	"strings"
)

func debateIntro(topic string) string {
	return fmt.Sprintf(`You are participating in a collaborative decision-making discussion about:

TOPIC: %s

Your goal is to provide thoughtful input based on your role and perspective. Listen to other participants and build on their ideas while maintaining your unique viewpoint.

The discussion will proceed in turns. Share your insights, ask questions, and help arrive at a well-reasoned decision.`, topic)
}

// turnPrompt frames the user prompt for turn turnIdx of a panel of panelSize
// agents: the opener introduces the topic, the rest of the first cycle reacts
// to it, and later turns respond to the conversation.
func turnPrompt(topic string, turnIdx, panelSize int, transcript string) string {
	var instruction string
	switch {
	case turnIdx == 0:
		instruction = debateIntro(topic) + "\n\nPlease share your initial thoughts on this topic."
	case turnIdx < panelSize:
		instruction = debateIntro(topic) + "\n\nThe discussion has begun. Please share your perspective."
	default:
		instruction = "Based on the discussion so far, what are your thoughts? Do you have any questions or additional insights?"
	}

	if transcript == "" {
		return instruction
	}
	return transcript + "\n\n" + instruction
}

// formatTranscript renders the ordered prior turns as conversation context.
func formatTranscript(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := []string{"CONVERSATION SO FAR:"}
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("\n%s (%s):\n%s", t.AgentName, t.AgentRole, t.Content))
	}
	return strings.Join(lines, "\n")
}

func synthesisPrompt(topic string, turns []Turn) string {
	conv := make([]string, 0, len(turns))
	for _, t := range turns {
		conv = append(conv, fmt.Sprintf("%s: %s", t.AgentName, t.Content))
	}

	return fmt.Sprintf(`Analyze the following decision-making discussion and provide:
1. A concise summary of the main decision or conclusion (2-3 sentences)
2. 3-5 key insights or important points raised
3. Any areas of agreement or disagreement, and an actionable recommendation

Discussion Topic: %s

Conversation:
%s

Provide your analysis:`, topic, strings.Join(conv, "\n\n"))
}
