package selector

import "strings"

// greetingPhrases are matched on word boundaries against normalized words.
var greetingPhrases = [][]string{
	{"hello"}, {"hi"}, {"hey"},
	{"good", "morning"}, {"good", "afternoon"}, {"good", "evening"},
	{"how", "are", "you"},
	{"thanks"}, {"thank", "you"},
	{"bye"}, {"goodbye"},
	{"help"},
	{"what", "can", "you", "do"},
}

// matchGreeting returns the first greeting phrase found in words.
func matchGreeting(words []string) (string, bool) {
	for _, phrase := range greetingPhrases {
		if containsRun(words, phrase) {
			return strings.Join(phrase, " "), true
		}
	}
	return "", false
}

func containsRun(words, run []string) bool {
	for i := 0; i+len(run) <= len(words); i++ {
		match := true
		for j := range run {
			if words[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
