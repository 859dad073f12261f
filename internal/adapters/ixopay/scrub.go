package ixopay

import "regexp"

const filtered = "[FILTERED]"

var scrubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(<password>)[^<]*(</password>)`),
	regexp.MustCompile(`(<pan>)[^<]*(</pan>)`),
	regexp.MustCompile(`(<cvv>)[^<]*(</cvv>)`),
	regexp.MustCompile(`(Authorization: Gateway [^:\s]+:)()\S+`),
}

// Scrub masks credentials and card data in a request/response transcript
func Scrub(transcript string) string {
	for _, re := range scrubPatterns {
		transcript = re.ReplaceAllString(transcript, "${1}"+filtered+"${2}")
	}
	return transcript
}
