// Package pipeline ties the stages together behind a caller-owned Session.
// A session carries the artifacts of one integration run: two extracted API
// documents, the mapping result, the operator answers, and the synthesized
// plan. Every artifact is validated against its contract when it enters the
// session, so later stages can trust their inputs. Sessions share no state;
// independent runs are safe to execute concurrently.
package pipeline

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apibridge/apibridge/contract"
	"github.com/apibridge/apibridge/mapping"
	"github.com/apibridge/apibridge/openapi"
	"github.com/apibridge/apibridge/plan"
	"github.com/apibridge/apibridge/questionnaire"
)

// Side identifies which of the two APIs an artifact belongs to.
const (
	SideA = "api_a"
	SideB = "api_b"
)

// Session holds the artifacts of one integration run.
type Session struct {
	ID      string
	docs    map[string]map[string]any // side -> extracted_api artifact
	mapping map[string]any
	answers map[string]any
	plan    map[string]any
	logger  *zap.SugaredLogger
}

// NewSession creates an empty session with a fresh ID.
func NewSession(logger *zap.SugaredLogger) *Session {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Session{
		ID:     uuid.NewString(),
		docs:   map[string]map[string]any{},
		logger: logger,
	}
}

// BuildExtractedAPI assembles an extracted_api artifact from aggregated crawl
// data: the OpenAPI document plus a normalized entity and operation view
// derived from it. Entity, field, and operation order is sorted so the
// artifact is deterministic.
func BuildExtractedAPI(side, sourceURL string, crawlData map[string]any) map[string]any {
	doc := openapi.Build(crawlData)
	summary := mapping.NormalizeForMapping(doc)

	entityNames := make([]string, 0, len(summary.Schemas))
	for name := range summary.Schemas {
		entityNames = append(entityNames, name)
	}
	sort.Strings(entityNames)

	entities := make([]any, 0, len(entityNames))
	for _, name := range entityNames {
		fields := summary.Schemas[name]
		fieldNames := make([]string, 0, len(fields))
		for fieldName := range fields {
			fieldNames = append(fieldNames, fieldName)
		}
		sort.Strings(fieldNames)

		fieldList := make([]any, 0, len(fieldNames))
		for _, fieldName := range fieldNames {
			info := fields[fieldName]
			fieldList = append(fieldList, map[string]any{
				"name":     fieldName,
				"type":     info.Type,
				"required": info.Required,
			})
		}
		entities = append(entities, map[string]any{"name": name, "fields": fieldList})
	}

	return map[string]any{
		"api_id":     side,
		"source_url": sourceURL,
		"openapi":    doc,
		"normalized": map[string]any{
			"entities":   entities,
			"operations": normalizedOperations(doc),
		},
	}
}

// normalizedOperations flattens the document's paths into {method, path}
// entries, sorted by path then method. The builder guarantees every path item
// holds only HTTP method keys.
func normalizedOperations(doc map[string]any) []any {
	paths, _ := doc["paths"].(map[string]any)

	pathNames := make([]string, 0, len(paths))
	for path := range paths {
		pathNames = append(pathNames, path)
	}
	sort.Strings(pathNames)

	operations := make([]any, 0, len(paths))
	for _, path := range pathNames {
		item, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		methods := make([]string, 0, len(item))
		for method := range item {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			operations = append(operations, map[string]any{
				"method": strings.ToUpper(method),
				"path":   path,
			})
		}
	}
	return operations
}

// SetExtraction validates and stores an extracted_api artifact.
func (s *Session) SetExtraction(side string, artifact map[string]any) error {
	if side != SideA && side != SideB {
		return errors.Newf("unknown side %q", side)
	}
	if ok, errs := contract.Validate(contract.KindExtractedAPI, artifact); !ok {
		return errors.Newf("extracted API for %s failed validation: %s", side, strings.Join(errs, "; "))
	}
	s.docs[side] = artifact
	s.logger.Debugw("Extraction stored", "session", s.ID, "side", side)
	return nil
}

// Document returns the OpenAPI document stored for a side, or nil.
func (s *Session) Document(side string) map[string]any {
	artifact, ok := s.docs[side]
	if !ok {
		return nil
	}
	doc, _ := artifact["openapi"].(map[string]any)
	return doc
}

// Summaries returns the mapping-ready schema summaries for both sides.
// Both extractions must be present.
func (s *Session) Summaries() (mapping.Summary, mapping.Summary, error) {
	docA := s.Document(SideA)
	docB := s.Document(SideB)
	if docA == nil || docB == nil {
		return mapping.Summary{}, mapping.Summary{}, errors.New("both API extractions are required before mapping")
	}
	return mapping.NormalizeForMapping(docA), mapping.NormalizeForMapping(docB), nil
}

// AcceptMapping normalizes and validates a mapping proposal, storing the
// result. The stored artifact is always contract-valid, even when the
// proposal was rejected.
func (s *Session) AcceptMapping(raw any) mapping.ProposalResult {
	result := mapping.AcceptProposal(raw)
	s.mapping = result.Data
	if !result.Success {
		s.logger.Warnw("Mapping proposal rejected", "session", s.ID, "errors", result.Errors)
	}
	return result
}

// Mapping returns the stored mapping result, or nil.
func (s *Session) Mapping() map[string]any { return s.mapping }

// SetAnswers merges the given answers with defaults, validates them, and
// stores the merged record.
func (s *Session) SetAnswers(raw map[string]any) error {
	merged := questionnaire.MergeWithDefaults(raw)
	if ok, errs := questionnaire.ValidateAnswers(raw); !ok {
		return errors.Newf("integration answers failed validation: %s", strings.Join(errs, "; "))
	}
	s.answers = merged
	return nil
}

// Answers returns the stored answer record, or nil.
func (s *Session) Answers() map[string]any { return s.answers }

// SynthesizePlan derives the integration plan from the stored mapping and
// answers. Mapping and answers must be set first; missing extractions
// degrade to "Unknown API" titles rather than failing.
func (s *Session) SynthesizePlan() (plan.Result, error) {
	if s.mapping == nil {
		return plan.Result{}, errors.New("mapping result is required before plan synthesis")
	}
	if s.answers == nil {
		return plan.Result{}, errors.New("integration answers are required before plan synthesis")
	}

	titleA := mapping.NormalizeForMapping(s.Document(SideA)).Title
	titleB := mapping.NormalizeForMapping(s.Document(SideB)).Title

	result := plan.Synthesize(titleA, titleB, s.mapping, s.answers)
	s.plan = result.Data
	if !result.Success {
		s.logger.Warnw("Plan synthesis fell back", "session", s.ID, "errors", result.ValidationErrors)
	}
	return result, nil
}

// Plan returns the stored integration plan, or nil.
func (s *Session) Plan() map[string]any { return s.plan }
