package chat

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLength is the longest message accepted, in characters.
const MaxLength = 200

var blockedTerms = []string{
	"damn", "hell", "shit", "fuck", "bitch", "asshole", "bastard", "crap",
	"stupid", "idiot", "retard", "loser", "ugly", "fat", "dumb", "worthless",
	"kill yourself", "kys", "noob", "trash", "garbage", "pathetic",
	"fag",
	"sex", "porn", "nude", "naked", "rape", "drug", "cocaine", "weed",
}

var leet = map[rune]string{
	'a': "[a@4]",
	'e': "[e3]",
	'i': "[i1!]",
	'o': "[o0]",
	's': `[s$5]`,
}

var (
	exactTerms = termPattern(func(w string) string {
		return strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	})
	leetTerms = termPattern(func(w string) string {
		var b strings.Builder
		for _, r := range w {
			switch {
			case r == ' ':
				b.WriteString(`\s+`)
			case leet[r] != "":
				b.WriteString(leet[r])
			default:
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
		return b.String()
	})
)

// termPattern matches any blocked term as a whole word. Group 2 is the term.
// Go regexps have no lookaround and \b is ASCII-only, so the boundaries are
// consumed as groups 1 and 3.
func termPattern(expand func(string) string) *regexp.Regexp {
	alts := make([]string, len(blockedTerms))
	for i, w := range blockedTerms {
		alts[i] = expand(w)
	}
	return regexp.MustCompile(`(?i)(^|[^\pL\pN])(` + strings.Join(alts, "|") + `)($|[^\pL\pN])`)
}

// IsAcceptable rejects overlong messages, shouting and character spam.
func IsAcceptable(text string) bool {
	n := utf8.RuneCountInString(text)
	if n > MaxLength {
		return false
	}

	caps := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			caps++
		}
	}
	if n > 10 && caps*2 > n {
		return false
	}

	return !hasRun(text, 5)
}

// hasRun reports whether text repeats one character n or more times in a row.
func hasRun(text string, n int) bool {
	var prev rune
	run := 0
	for i, r := range []rune(text) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

// FilterProfanity masks blocked terms with asterisks, one per character.
// Common letter substitutions such as @ for a or 0 for o are caught too.
func FilterProfanity(text string) string {
	return mask(leetTerms, mask(exactTerms, text))
}

func mask(re *regexp.Regexp, text string) string {
	// Adjacent terms share a boundary character, so repeat until stable.
	for {
		out := re.ReplaceAllStringFunc(text, func(m string) string {
			sub := re.FindStringSubmatch(m)
			return sub[1] + strings.Repeat("*", utf8.RuneCountInString(sub[2])) + sub[3]
		})
		if out == text {
			return out
		}
		text = out
	}
}
