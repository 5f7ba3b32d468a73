// Package classifier decides whether a handle looks like a real person's
// identifier using an ordered rule table. It is the terminal strategy of the
// verification chain: pure, deterministic, no I/O, so its precedence stays
// auditable independent of network conditions.
package classifier

import (
	"regexp"
	"strings"
)

// Rule identifiers, reported so callers and tests can see which rule decided.
const (
	RuleStructural  = "structural"
	RuleBlacklist   = "blacklist"
	RuleWhitelist   = "whitelist"
	RuleDictionary  = "dictionary"
	RuleStatistical = "statistical"
)

// Verdict is the classifier outcome plus the rule that produced it.
type Verdict struct {
	Accepted bool
	Rule     string
}

const (
	minLen = 1
	maxLen = 15
)

var (
	charsetRe = regexp.MustCompile(`^[a-z0-9_]+$`)

	// Low-entropy templates: throwaway account shapes.
	templateRe = regexp.MustCompile(`^(?:test|user|bot)\d+$`)
	digitRunRe = regexp.MustCompile(`\d{6,}`)

	// Plausible-identity shapes. Name+digits is bounded to short stems;
	// longer name-bearing handles are the dictionary rule's business.
	nameDigitsRe = regexp.MustCompile(`^[a-z]{3,6}\d{1,4}$`)
	nameNameRe   = regexp.MustCompile(`^[a-z]{2,}_[a-z]{2,}$`)
	prefixedRe   = regexp.MustCompile(`^(?:official|real|the|im|its)[a-z]{3,}$`)
	suffixedRe   = regexp.MustCompile(`^[a-z]{3,}(?:official|real|jr|sr)$`)
)

// keyboardRows feed the adjacent-run rejection. Reversed runs count too.
var keyboardRows = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"1234567890",
}

// cryptoAffixes accept Web3-flavoured handles when used as prefix or suffix.
var cryptoAffixes = []string{
	"btc", "eth", "sol", "nft", "defi", "dao", "web3", "crypto", "hodl", "degen",
}

// dictionary lists common given names and topical terms. A handle containing
// one of these reads as a deliberate identity rather than noise.
var dictionary = []string{
	// given names
	"john", "mike", "alex", "anna", "maria", "david", "sarah", "james",
	"emma", "lisa", "peter", "paul", "mark", "anton", "ivan", "olga",
	"elena", "andrew", "chris", "kate", "nick", "sam", "ben", "leo", "max",
	// crypto / finance / tech
	"bitcoin", "ether", "trader", "invest", "coin", "token", "chain",
	"block", "miner", "whale", "bull", "bear", "moon", "satoshi", "dev",
	"tech", "code", "geek",
}

// Classify runs the rule table in strict precedence order; the first matching
// tier wins. The input must already be normalized (lowercase, no leading @).
func Classify(handle string) Verdict {
	if !structurallyValid(handle) {
		return Verdict{Accepted: false, Rule: RuleStructural}
	}
	if blacklisted(handle) {
		return Verdict{Accepted: false, Rule: RuleBlacklist}
	}
	if whitelisted(handle) {
		return Verdict{Accepted: true, Rule: RuleWhitelist}
	}
	if dictionaryMatch(handle) {
		return Verdict{Accepted: true, Rule: RuleDictionary}
	}
	return Verdict{Accepted: statisticallyPlausible(handle), Rule: RuleStatistical}
}

// structurallyValid enforces length, charset and first-character rules. A
// leading digit is rejected except for the 0x hex-address shape, which the
// whitelist tier must still be able to see.
func structurallyValid(h string) bool {
	if len(h) < minLen || len(h) > maxLen {
		return false
	}
	if !charsetRe.MatchString(h) {
		return false
	}
	if h[0] == '_' {
		return false
	}
	if h[0] >= '0' && h[0] <= '9' && !strings.HasPrefix(h, "0x") {
		return false
	}
	return true
}

func blacklisted(h string) bool {
	if longestCharRun(h) >= 5 {
		return true
	}
	if hasKeyboardRun(h, 6) {
		return true
	}
	if templateRe.MatchString(h) {
		return true
	}
	if digitRunRe.MatchString(h) {
		return true
	}
	if longestConsonantRun(h) >= 6 || longestVowelRun(h) >= 5 {
		return true
	}
	if isPrefixRepetition(h) {
		return true
	}
	return false
}

func whitelisted(h string) bool {
	// 0x-prefixed handles read as crypto identities, hex-address-like or not.
	if strings.HasPrefix(h, "0x") && len(h) > 2 {
		return true
	}
	for _, affix := range cryptoAffixes {
		if strings.HasPrefix(h, affix) || strings.HasSuffix(h, affix) {
			return true
		}
	}
	return nameDigitsRe.MatchString(h) ||
		nameNameRe.MatchString(h) ||
		prefixedRe.MatchString(h) ||
		suffixedRe.MatchString(h)
}

func dictionaryMatch(h string) bool {
	for _, word := range dictionary {
		if strings.Contains(h, word) {
			return true
		}
	}
	return false
}

// statisticallyPlausible is the weakest heuristic: accept unless the vowel
// ratio over alphabetic characters suggests keyboard noise.
func statisticallyPlausible(h string) bool {
	letters, vowels := 0, 0
	for _, r := range h {
		if r >= 'a' && r <= 'z' {
			letters++
			if isVowel(byte(r)) {
				vowels++
			}
		}
	}
	if letters == 0 {
		return false
	}
	ratio := float64(vowels) / float64(letters)
	return ratio >= 0.1 && ratio <= 0.7
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func longestCharRun(h string) int {
	best, run := 0, 0
	var prev byte
	for i := 0; i < len(h); i++ {
		if i > 0 && h[i] == prev {
			run++
		} else {
			run = 1
			prev = h[i]
		}
		if run > best {
			best = run
		}
	}
	return best
}

func hasKeyboardRun(h string, minRun int) bool {
	for i := 0; i+minRun <= len(h); i++ {
		sub := h[i : i+minRun]
		for _, row := range keyboardRows {
			if strings.Contains(row, sub) || strings.Contains(reverse(row), sub) {
				return true
			}
		}
	}
	return false
}

func longestConsonantRun(h string) int {
	best, run := 0, 0
	for i := 0; i < len(h); i++ {
		c := h[i]
		if c >= 'a' && c <= 'z' && !isVowel(c) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func longestVowelRun(h string) int {
	best, run := 0, 0
	for i := 0; i < len(h); i++ {
		if isVowel(h[i]) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// isPrefixRepetition reports whether the handle is one of its own prefixes
// repeated, covering at least len-1 characters ("abcabcab"). Short handles
// are exempt so shapes like "lulu" survive.
func isPrefixRepetition(h string) bool {
	n := len(h)
	if n < 6 {
		return false
	}
	for p := 1; p <= n/2; p++ {
		prefix := h[:p]
		covered := 0
		for covered+p <= n && h[covered:covered+p] == prefix {
			covered += p
		}
		// allow a trailing partial repeat
		for covered < n && h[covered] == prefix[covered%p] {
			covered++
		}
		if covered >= n-1 {
			return true
		}
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
