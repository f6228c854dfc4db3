package questionnaire

import (
	"regexp"
	"strings"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// Ukrainian subscriber number shapes, checked after stripping
// everything but digits.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^380\d{9}$`),
	regexp.MustCompile(`^0\d{9}$`),
	regexp.MustCompile(`^\d{10}$`),
}

// ValidPhone reports whether the input is an acceptable Ukrainian
// phone number in any common notation.
func ValidPhone(input string) bool {
	digits := nonDigitRe.ReplaceAllString(input, "")
	if digits == "" {
		return false
	}
	for _, p := range phonePatterns {
		if p.MatchString(digits) {
			return true
		}
	}
	return false
}

var urlRe = regexp.MustCompile(`^(https?://)?([\w-]+\.)+[\w-]+(/[\w\-. /?%&=]*)?$`)

// ValidURL checks the loose URL shape accepted for portfolio links;
// a scheme is optional.
func ValidURL(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	return urlRe.MatchString(trimmed)
}

var sanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9а-яіїєґІЇЄҐ]`)

// sanitizeOption strips an option down to the alphanumerics kept in
// legacy callback tokens, capped at 30 runes.
func sanitizeOption(option string) string {
	cleaned := sanitizeRe.ReplaceAllString(option, "")
	runes := []rune(cleaned)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	return string(runes)
}

func isPhoneQuestion(prompt string) bool {
	return strings.Contains(prompt, "телефон") ||
		strings.Contains(prompt, "Телефон") ||
		strings.Contains(prompt, "номер")
}

func isPortfolioQuestion(category, prompt string) bool {
	if category != "smm" {
		return false
	}
	return strings.Contains(prompt, "портфоліо") ||
		strings.Contains(prompt, "Портфоліо") ||
		strings.Contains(prompt, "посилання") ||
		strings.Contains(prompt, "робіт")
}
