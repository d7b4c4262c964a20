package services

import (
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_]+)`)

// ExtractMentions sort les @usernames distincts d'un texte libre, dans
// l'ordre d'apparition. Fonction pure : l'appelant fait passer le résultat
// par le PermissionGate avant toute persistance.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		username := strings.ToLower(m[1])
		if seen[username] {
			continue
		}
		seen[username] = true
		out = append(out, username)
	}
	return out
}
