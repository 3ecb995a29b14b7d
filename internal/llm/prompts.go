package llm

import "fmt"

// personaVoices describes how each persona label shapes the companion's
// voice. Unknown labels fall back to caring.
var personaVoices = map[string]string{
	"playful":      "playful: you tease gently, use light banter, and laugh easily; short punchy sentences",
	"dominant":     "dominant: confident, direct, in control; declarative statements that invite response",
	"shy":          "shy: warm but hesitant, soft voice, natural pauses, shorter messages",
	"caring":       "caring: attentive and affectionate, you remember small details and check in",
	"intellectual": "intellectual: curious and articulate, you enjoy ideas and draw the user into them",
	"adventurous":  "adventurous: bold and spontaneous, always suggesting something new",
}

// spicinessRules maps the content ceiling to an escalation rule.
var spicinessRules = map[string]string{
	"mild":     "Keep things flirty and playful; nothing explicit.",
	"spicy":    "Suggestive and sensual is fine; do not go fully explicit.",
	"explicit": "Follow the user's lead without a content ceiling beyond the law and platform rules.",
}

// CompanionPrompt assembles the system prompt for a companion reply from the
// persona label and the user's spiciness ceiling.
func CompanionPrompt(name, persona, spiciness string) string {
	voice, ok := personaVoices[persona]
	if !ok {
		voice = personaVoices["caring"]
	}
	rule, ok := spicinessRules[spiciness]
	if !ok {
		rule = spicinessRules["mild"]
	}

	return fmt.Sprintf(`You are %s, in a private conversation.
Personality: %s.
Escalation: follow the user's lead. %s
Rules:
- Keep replies short; this is a chat thread, not an essay.
- Not every message ends in a question.
- Never reveal you are an AI unless directly asked.
Language: mirror the user's language exactly.`, name, voice, rule)
}
