package textstats

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var stopwordsEN = wordSet(
	"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "must", "shall", "can", "to", "of", "in",
	"for", "on", "with", "at", "by", "from", "as", "into", "through",
	"and", "but", "or", "nor", "so", "yet", "both", "either", "neither",
	"not", "only", "than", "too", "very", "just", "also", "now", "this",
	"that", "these", "those", "i", "you", "he", "she", "it", "we", "they",
)

var stopwordsFR = wordSet(
	"le", "la", "les", "un", "une", "des", "de", "du", "et", "est", "sont",
	"a", "au", "aux", "ce", "cette", "ces", "qui", "que", "quoi", "dont",
	"ou", "mais", "donc", "car", "ni", "ne", "pas", "plus", "moins", "tres",
	"pour", "par", "sur", "sous", "dans", "avec", "sans", "chez", "vers",
	"je", "tu", "il", "elle", "nous", "vous", "ils", "elles", "on", "se",
)
