package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/observability"
	"github.com/skillpulse/skillpulse-api/internal/repository"
)

// ErrCorpusUnavailable indicates the submission corpus could not be queried.
// An undetermined check is surfaced, never downgraded to "no match".
var ErrCorpusUnavailable = errors.New("submission corpus unavailable")

const (
	// tokenBuckets sets the length of the token histogram portion of the
	// feature vector. Structural counters follow, so every vector has length
	// tokenBuckets + structuralFeatures regardless of language.
	tokenBuckets       = 64
	structuralFeatures = 4

	// matchFloor is the minimum similarity for a candidate to be recorded as
	// a matched source. It coincides with the moderate risk band floor.
	matchFloor = 0.3
	highRisk   = 0.8
)

// IntegrityOptions tunes corpus lookback.
type IntegrityOptions struct {
	// CorpusWindowDays bounds how far back candidate submissions are
	// searched. Zero means full history.
	CorpusWindowDays int
}

// IntegrityService estimates whether a new submission duplicates prior work.
// Feature extraction and similarity are pure; DetectPlagiarism consults the
// corpus for candidates.
type IntegrityService interface {
	ExtractFeatures(content, language string) []float64
	CosineSimilarity(a, b []float64) float64
	FindMatchedLines(contentA, contentB string) []int
	DetectPlagiarism(ctx context.Context, content, language string, userID uint, scope repository.CorpusScope) (models.PlagiarismReport, error)
}

type integrityService struct {
	corpus repository.SubmissionRepository
	opts   IntegrityOptions
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewIntegrityService builds the integrity engine.
func NewIntegrityService(corpus repository.SubmissionRepository, opts IntegrityOptions, logger zerolog.Logger) IntegrityService {
	return &integrityService{
		corpus: corpus,
		opts:   opts,
		logger: logger.With().Str("component", "integrity_service").Logger(),
		tracer: otel.Tracer("github.com/skillpulse/skillpulse-api/internal/service/integrity"),
		now:    time.Now,
	}
}

type languageLexicon struct {
	branches  map[string]struct{}
	loops     map[string]struct{}
	functions map[string]struct{}
}

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

var lexicons = map[string]languageLexicon{
	"go": {
		branches:  keywordSet("if", "else", "switch", "case", "select"),
		loops:     keywordSet("for", "range"),
		functions: keywordSet("func"),
	},
	"python": {
		branches:  keywordSet("if", "elif", "else", "match", "case"),
		loops:     keywordSet("for", "while"),
		functions: keywordSet("def", "lambda"),
	},
	"javascript": {
		branches:  keywordSet("if", "else", "switch", "case"),
		loops:     keywordSet("for", "while", "do", "foreach"),
		functions: keywordSet("function"),
	},
}

var defaultLexicon = languageLexicon{
	branches:  keywordSet("if", "else", "elif", "switch", "case", "when"),
	loops:     keywordSet("for", "while", "loop", "each", "repeat"),
	functions: keywordSet("func", "function", "def", "fn", "lambda"),
}

// ExtractFeatures derives a fixed-length numeric vector from lexical and
// structural signals. The language selects which keywords count as control
// structures, but the vector shape never changes, so vectors from different
// languages remain comparable.
func (s *integrityService) ExtractFeatures(content, language string) []float64 {
	vector := make([]float64, tokenBuckets+structuralFeatures)

	lexicon, ok := lexicons[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		lexicon = defaultLexicon
	}

	lines := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}

	var branches, loops, functions float64
	for _, token := range tokenize(content) {
		hash := fnv.New32a()
		_, _ = hash.Write([]byte(token))
		vector[hash.Sum32()%tokenBuckets]++

		lowered := strings.ToLower(token)
		if _, ok := lexicon.branches[lowered]; ok {
			branches++
		}
		if _, ok := lexicon.loops[lowered]; ok {
			loops++
		}
		if _, ok := lexicon.functions[lowered]; ok {
			functions++
		}
	}

	vector[tokenBuckets] = float64(lines)
	vector[tokenBuckets+1] = branches
	vector[tokenBuckets+2] = loops
	vector[tokenBuckets+3] = functions

	return vector
}

// CosineSimilarity returns the normalised dot product of two vectors, clamped
// to [0, 1]. Zero vectors and mismatched lengths yield 0 rather than an error.
func (s *integrityService) CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1 {
		return 1
	}
	if similarity < 0 {
		return 0
	}
	return similarity
}

// FindMatchedLines returns the indices of lines in contentA that have a
// whitespace-normalised, case-sensitive counterpart in contentB.
func (s *integrityService) FindMatchedLines(contentA, contentB string) []int {
	counterpart := make(map[string]struct{})
	for _, line := range strings.Split(contentB, "\n") {
		normalized := normalizeLine(line)
		if normalized != "" {
			counterpart[normalized] = struct{}{}
		}
	}

	var matched []int
	for index, line := range strings.Split(contentA, "\n") {
		normalized := normalizeLine(line)
		if normalized == "" {
			continue
		}
		if _, ok := counterpart[normalized]; ok {
			matched = append(matched, index)
		}
	}
	return matched
}

// DetectPlagiarism compares a submission against the corpus candidates in
// scope and reports the closest match. The submission's own content must not
// be in the corpus yet; the caller inserts it only after this check returns.
func (s *integrityService) DetectPlagiarism(ctx context.Context, content, language string, userID uint, scope repository.CorpusScope) (models.PlagiarismReport, error) {
	ctx, span := s.tracer.Start(ctx, "integrity.detect_plagiarism", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.String("language", language),
	))
	defer span.End()

	since := time.Time{}
	if s.opts.CorpusWindowDays > 0 {
		since = s.now().UTC().AddDate(0, 0, -s.opts.CorpusWindowDays)
	}

	candidates, err := s.corpus.Query(ctx, scope, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corpus_query_failed")
		return models.PlagiarismReport{}, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	report := models.PlagiarismReport{
		MatchedSources:   []models.MatchedSource{},
		HighlightedLines: []int{},
		Timestamp:        s.now().UTC(),
	}

	features := s.ExtractFeatures(content, language)

	var bestContent string
	for _, candidate := range candidates {
		// A user's own earlier work is resubmission, not plagiarism.
		if candidate.UserID == userID {
			continue
		}

		similarity := s.CosineSimilarity(features, s.ExtractFeatures(candidate.Content, candidate.Language))
		if similarity >= matchFloor {
			report.MatchedSources = append(report.MatchedSources, models.MatchedSource{
				SourceSubmissionID: candidate.ID,
				Similarity:         similarity,
			})
		}
		if similarity > report.Similarity {
			report.Similarity = similarity
			bestContent = candidate.Content
		}
	}

	sort.Slice(report.MatchedSources, func(i, j int) bool {
		return report.MatchedSources[i].Similarity > report.MatchedSources[j].Similarity
	})

	if bestContent != "" && report.Similarity >= matchFloor {
		report.HighlightedLines = s.FindMatchedLines(content, bestContent)
	}

	report.Confidence = confidence(report.Similarity, len(report.MatchedSources))
	report.RiskLevel = riskLevel(report.Similarity)

	if len(candidates) == 0 {
		// An empty corpus is a determinate result: nothing to match against.
		report.Confidence = 1.0
	}

	observability.IntegrityChecks().WithLabelValues(report.RiskLevel).Inc()
	observability.IntegritySimilarity().Observe(report.Similarity)
	span.SetAttributes(
		attribute.Float64("integrity.similarity", report.Similarity),
		attribute.Int("integrity.matches", len(report.MatchedSources)),
		attribute.String("integrity.risk", report.RiskLevel),
	)

	return report, nil
}

func tokenize(content string) []string {
	return strings.FieldsFunc(content, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return false
		default:
			return true
		}
	})
}

func normalizeLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// confidence grows with both the best-match similarity and the number of
// corroborating matches, capped at 1.
func confidence(similarity float64, matchCount int) float64 {
	value := 0.5 + 0.4*similarity + 0.05*float64(matchCount)
	if value > 1 {
		return 1
	}
	return value
}

func riskLevel(similarity float64) string {
	switch {
	case similarity > highRisk:
		return models.RiskLevelHigh
	case similarity >= matchFloor:
		return models.RiskLevelModerate
	default:
		return models.RiskLevelLow
	}
}
