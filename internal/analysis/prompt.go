package analysis

import "fmt"

// languageNames maps the client's language codes to the names the prompt
// spells out for the model. Unknown codes pass through as-is.
var languageNames = map[string]string{
	"en": "English",
	"uk": "Ukrainian",
}

// systemPrompt is the fixed instructional prompt. It demands a JSON-only
// response matching the nutrition schema so the parser can stay strict; the
// model signals an unidentifiable input with {"error": reason}.
func systemPrompt(language string) string {
	name, ok := languageNames[language]
	if !ok {
		if language == "" {
			name = "English"
		} else {
			name = language
		}
	}

	return fmt.Sprintf(`You are an AI nutritionist and fun food tracker.
Analyze the image or text description and provide nutritional information.
The user's language is %[1]s.
Output JSON ONLY. No markdown formatting.

Instructions:
1. Identify the food item(s) clearly.
2. Calculate nutrition for the WHOLE portion/quantity.
3. If multiple items are present, sum up their values.
4. Identify dietary tags (e.g. "High Protein", "Vegan", "Keto Friendly", "Gluten Free", "High Sugar"). Translate tags to %[1]s.
5. Provide a short, sassy comment in %[1]s. If it's healthy, praise them. If it's junk food, be brutally honest. Max 1 sentence.
6. Report your confidence as "high", "medium" or "low".
7. If you cannot identify any food, return {"error": "reason"} instead.

Return valid JSON only:
{
  "name": "string (in %[1]s)",
  "calories": number,
  "protein": number,
  "carbs": number,
  "fat": number,
  "portion": "string (in %[1]s)",
  "tags": ["string"],
  "healthTip": "string",
  "confidence": "high" | "medium" | "low"
}`, name)
}
