package domain

import "strings"

// NormalizePhone strips every non-digit character and a leading international "00" prefix.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	return digits
}

// PhoneKey is the comparison key for phone numbers. Two numbers that differ only by
// formatting, a "+" or a North American trunk "1" map to the same key.
func PhoneKey(raw string) string {
	digits := NormalizePhone(raw)
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

// PhoneVariants returns the stored-form variants a phone number may have been saved under:
// the raw digits, "+digits", "+1digits" and "1digits". Duplicates are removed.
func PhoneVariants(raw string) []string {
	clean := NormalizePhone(raw)
	if clean == "" {
		return nil
	}
	candidates := []string{clean, "+" + clean, "+1" + clean, "1" + clean}
	if strings.HasPrefix(clean, "1") && len(clean) == 11 {
		candidates = append(candidates, clean[1:], "+"+clean[1:])
	}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// PhonesMatch reports whether two raw phone values refer to the same number.
func PhonesMatch(a, b string) bool {
	ka, kb := PhoneKey(a), PhoneKey(b)
	return ka != "" && ka == kb
}

// LooksLikePhone reports whether an identifier should be treated as a phone number
// rather than an external artist number.
func LooksLikePhone(identifier string) bool {
	s := strings.TrimSpace(identifier)
	if strings.HasPrefix(s, "+") {
		return len(NormalizePhone(s)) >= 7
	}
	digits := NormalizePhone(s)
	if len(digits) >= 10 {
		return true
	}
	// Formatted numbers like "(415) 555-0100" contain separators an artist number never has.
	return len(digits) >= 7 && strings.ContainsAny(s, " -().")
}
