package fiscal

import (
	"regexp"
	"strconv"
	"strings"
)

// WindowPattern compiles the pattern scoping the freight search: the first
// case-insensitive occurrence of keyword plus at most chars characters after
// it.
func WindowPattern(keyword string, chars int) *regexp.Regexp {
	if chars < 0 {
		chars = 0
	}
	if chars > 1000 {
		// regexp repetition limit
		chars = 1000
	}
	return regexp.MustCompile(`(?is)` + regexp.QuoteMeta(keyword) + `.{0,` + strconv.Itoa(chars) + `}`)
}

// FreightWindow returns the part of blob selected by window, or "" when the
// keyword is absent.
func FreightWindow(blob string, window *regexp.Regexp) string {
	if window == nil {
		return ""
	}
	return window.FindString(blob)
}

// InferFreightParty evaluates the sender-pays group and then the
// recipient-pays group. Each pattern is checked against the freight window
// first and then the whole document; the first hit decides. Text matching
// both groups therefore always resolves to the sender.
func InferFreightParty(blob string, rules FreightRules) Party {
	window := FreightWindow(blob, rules.Window)
	groups := []struct {
		party    Party
		patterns []*regexp.Regexp
	}{
		{PartySender, rules.SenderPays},
		{PartyRecipient, rules.RecipientPays},
	}
	for _, g := range groups {
		for _, re := range g.patterns {
			if (window != "" && re.MatchString(window)) || re.MatchString(blob) {
				return g.party
			}
		}
	}
	return PartyNone
}

// ResolveFreightText returns the tax ID of the party paying freight according
// to the text heuristic, or NotFound when no pattern matches.
func ResolveFreightText(blob string, rules FreightRules, sender, recipient string) string {
	return partyTaxID(InferFreightParty(blob, rules), sender, recipient, NotFound)
}

// ResolveFreightCode maps an NF-e modFrete code to the paying party's tax ID.
// Unmapped and missing codes resolve to Unspecified.
func ResolveFreightCode(code string, codes map[string]Party, sender, recipient string) string {
	party, ok := codes[strings.TrimSpace(code)]
	if !ok {
		party = PartyNone
	}
	return partyTaxID(party, sender, recipient, Unspecified)
}

func partyTaxID(p Party, sender, recipient, fallback string) string {
	switch p {
	case PartySender:
		return sender
	case PartyRecipient:
		return recipient
	default:
		return fallback
	}
}
