// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package normalize

// englishStopWords returns the NLTK english stopword list.
func englishStopWords() map[string]struct{} {
	words := []string{
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
		"you", "you're", "you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves",
		"he", "him", "his", "himself", "she", "she's", "her", "hers", "herself",
		"it", "it's", "its", "itself", "they", "them", "their", "theirs", "themselves",
		"what", "which", "who", "whom", "this", "that", "that'll", "these", "those",
		"am", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having", "do", "does", "did", "doing",
		"a", "an", "the", "and", "but", "if", "or", "because", "as", "until", "while",
		"of", "at", "by", "for", "with", "about", "against", "between", "into", "through",
		"during", "before", "after", "above", "below", "to", "from", "up", "down",
		"in", "out", "on", "off", "over", "under", "again", "further", "then", "once",
		"here", "there", "when", "where", "why", "how", "all", "any", "both", "each",
		"few", "more", "most", "other", "some", "such", "no", "nor", "not", "only",
		"own", "same", "so", "than", "too", "very", "s", "t", "can", "will", "just",
		"don", "don't", "should", "should've", "now", "d", "ll", "m", "o", "re", "ve", "y",
		"ain", "aren", "aren't", "couldn", "couldn't", "didn", "didn't", "doesn", "doesn't",
		"hadn", "hadn't", "hasn", "hasn't", "haven", "haven't", "isn", "isn't", "ma",
		"mightn", "mightn't", "mustn", "mustn't", "needn", "needn't", "shan", "shan't",
		"shouldn", "shouldn't", "wasn", "wasn't", "weren", "weren't", "won", "won't",
		"wouldn", "wouldn't",
	}

	stopWords := make(map[string]struct{}, len(words))
	for _, word := range words {
		stopWords[word] = struct{}{}
	}
	return stopWords
}
