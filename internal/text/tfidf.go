package text

import (
	"math"
	"sort"
	"strings"
)

// DefaultMaxFeatures caps the vocabulary at the most frequent terms.
const DefaultMaxFeatures = 1000

// Vectorizer builds TF-IDF vectors over word unigrams and bigrams. Input is
// expected to be Preprocess-ed text.
type Vectorizer struct {
	MaxFeatures int
}

// NewVectorizer returns a vectorizer with DefaultMaxFeatures.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{MaxFeatures: DefaultMaxFeatures}
}

type vector map[string]float64

// Terms returns the unigrams and bigrams of doc after dropping stop words
// and single-character tokens.
func Terms(doc string) []string {
	var tokens []string
	for _, tok := range strings.Fields(doc) {
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// Similarities returns the cosine similarity between query and every corpus
// document, in corpus order. The vocabulary and IDF are fitted on the corpus
// and query together.
func (v *Vectorizer) Similarities(query string, corpus []string) []float64 {
	if len(corpus) == 0 {
		return nil
	}

	docs := make([]map[string]int, 0, len(corpus)+1)
	for _, d := range corpus {
		docs = append(docs, counts(d))
	}
	docs = append(docs, counts(query))

	vocab := v.vocabulary(docs)
	idf := inverseDocumentFrequency(docs, vocab)

	vectors := make([]vector, len(docs))
	for i, c := range docs {
		vectors[i] = weigh(c, vocab, idf)
	}

	q := vectors[len(vectors)-1]
	out := make([]float64, len(corpus))
	for i := range corpus {
		out[i] = dot(q, vectors[i])
	}
	return out
}

func counts(doc string) map[string]int {
	c := map[string]int{}
	for _, t := range Terms(doc) {
		c[t]++
	}
	return c
}

func (v *Vectorizer) vocabulary(docs []map[string]int) map[string]struct{} {
	total := map[string]int{}
	for _, d := range docs {
		for t, n := range d {
			total[t] += n
		}
	}

	limit := v.MaxFeatures
	if limit <= 0 || len(total) <= limit {
		vocab := make(map[string]struct{}, len(total))
		for t := range total {
			vocab[t] = struct{}{}
		}
		return vocab
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})

	vocab := make(map[string]struct{}, limit)
	for _, t := range terms[:limit] {
		vocab[t] = struct{}{}
	}
	return vocab
}

// inverseDocumentFrequency uses the smoothed form ln((1+n)/(1+df)) + 1.
func inverseDocumentFrequency(docs []map[string]int, vocab map[string]struct{}) map[string]float64 {
	df := make(map[string]int, len(vocab))
	for _, d := range docs {
		for t := range d {
			if _, ok := vocab[t]; ok {
				df[t]++
			}
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, f := range df {
		idf[t] = math.Log((1+n)/(1+float64(f))) + 1
	}
	return idf
}

func weigh(c map[string]int, vocab map[string]struct{}, idf map[string]float64) vector {
	vec := vector{}
	var norm float64
	for t, n := range c {
		if _, ok := vocab[t]; !ok {
			continue
		}
		w := float64(n) * idf[t]
		vec[t] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for t := range vec {
		vec[t] /= norm
	}
	return vec
}

func dot(a, b vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for t, w := range a {
		sum += w * b[t]
	}
	if sum > 1 {
		sum = 1
	}
	return sum
}
