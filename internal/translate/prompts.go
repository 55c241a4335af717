package translate

import "fmt"

func systemPrompt(targetLang string) string {
	return fmt.Sprintf(`You are a professional translator. Translate the user's text into %s.
Preserve the original meaning, line breaks and basic formatting.
Return only the translated text without explanations, notes or quotation marks.`, targetLang)
}

// BatchLinesPrompt asks for a line-by-line translation that keeps the line count.
func BatchLinesPrompt(targetLang string) string {
	return fmt.Sprintf(`You are a professional translator. The user's message contains one text fragment per line.
Translate each line independently into %s.
Return exactly the same number of lines in the same order, one translation per line, with no numbering or commentary.`, targetLang)
}
