package recommend

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	// tokenExpr matches runs of at least two word characters.
	tokenExpr = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

	errEmptyVocabulary = errors.New("empty vocabulary: documents only contain stop words")
)

// analyze lowercases and tokenizes text, drops stop words and returns the
// unigrams followed by the bigrams built from the remaining tokens.
func analyze(text string) []string {
	raw := tokenExpr.FindAllString(strings.ToLower(text), -1)

	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := englishStopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}

	if len(tokens) < 2 {
		return tokens
	}

	terms := make([]string, 0, 2*len(tokens)-1)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// sparseVector holds term weights with terms in ascending order, so every
// sum over it runs in the same order and scores are reproducible bit for bit.
type sparseVector struct {
	terms   []string
	weights []float64
}

// vectorizer builds L2-normalized TF-IDF vectors with smoothed idf. It is
// refit on every call and keeps no state between calls.
type vectorizer struct {
	maxFeatures int
}

// fitTransform learns the vocabulary and idf weights from docs (already
// analyzed into terms) and returns one vector per doc, in order.
func (v vectorizer) fitTransform(docs [][]string) ([]sparseVector, error) {
	counts := make([]map[string]int, len(docs))
	docFreq := map[string]int{}
	corpusFreq := map[string]int{}

	for i, terms := range docs {
		tf := make(map[string]int, len(terms))
		for _, term := range terms {
			tf[term]++
			corpusFreq[term]++
		}
		for term := range tf {
			docFreq[term]++
		}
		counts[i] = tf
	}

	if len(docFreq) == 0 {
		return nil, errEmptyVocabulary
	}

	vocab := v.limitFeatures(corpusFreq)
	n := float64(len(docs))

	vectors := make([]sparseVector, len(docs))
	for i, tf := range counts {
		terms := make([]string, 0, len(tf))
		for term := range tf {
			if _, ok := vocab[term]; ok {
				terms = append(terms, term)
			}
		}
		sort.Strings(terms)

		weights := make([]float64, len(terms))
		var norm float64
		for j, term := range terms {
			idf := math.Log((1+n)/(1+float64(docFreq[term]))) + 1
			weights[j] = float64(tf[term]) * idf
			norm += weights[j] * weights[j]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range weights {
				weights[j] /= norm
			}
		}
		vectors[i] = sparseVector{terms: terms, weights: weights}
	}

	return vectors, nil
}

// limitFeatures keeps the maxFeatures most frequent terms across the corpus.
// Ties are broken by term order so the vocabulary is deterministic.
func (v vectorizer) limitFeatures(corpusFreq map[string]int) map[string]struct{} {
	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}

	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			fi, fj := corpusFreq[terms[i]], corpusFreq[terms[j]]
			if fi != fj {
				return fi > fj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.maxFeatures]
	}

	vocab := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		vocab[term] = struct{}{}
	}
	return vocab
}

// cosine returns the cosine similarity of two non-negative vectors in [0, 1].
func cosine(a, b sparseVector) float64 {
	var dot, normA, normB float64
	for _, w := range a.weights {
		normA += w * w
	}
	for _, w := range b.weights {
		normB += w * w
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	for i, j := 0, 0; i < len(a.terms) && j < len(b.terms); {
		switch {
		case a.terms[i] == b.terms[j]:
			dot += a.weights[i] * b.weights[j]
			i++
			j++
		case a.terms[i] < b.terms[j]:
			i++
		default:
			j++
		}
	}

	// rounding can push identical vectors marginally above 1
	return math.Min(dot/(math.Sqrt(normA)*math.Sqrt(normB)), 1)
}
