package entities

import "regexp"

var repoLinkRe = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:github\.com|gitlab\.com|bitbucket\.org|sourceforge\.net|gitee\.com|codeberg\.org)/[\p{L}\p{N}_\-./]+`)

// RepoLinks returns source repository URLs found in text in order of
// appearance. Repeated links are kept.
func RepoLinks(text string) []string {
	links := repoLinkRe.FindAllString(text, -1)
	if links == nil {
		return []string{}
	}
	return links
}
