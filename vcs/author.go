package vcs

import (
	"strings"
)

/*
	SplitAuthor breaks a "Name <email>" string into its parts.

	The last '<' starts the email; a missing or unclosed bracket means
	the whole string is the name and the email comes back empty.  This
	is a convenience for engines that want structured identities; the
	gitcli engine passes author strings through verbatim instead and
	lets git be the judge of them.
*/
func SplitAuthor(author string) (name, email string) {
	open := strings.LastIndexByte(author, '<')
	if open < 0 {
		return strings.TrimSpace(author), ""
	}
	end := strings.IndexByte(author[open:], '>')
	if end < 0 {
		return strings.TrimSpace(author), ""
	}
	return strings.TrimSpace(author[:open]), strings.TrimSpace(author[open+1 : open+end])
}
