// Package service turns a chat message into a memory operation and a reply.
//
// A request moves through Idle, Classified, Extracted, Resolved and Responded.
// Each request makes at most one vector search and at most one LLM call.
package service

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/internal/crypto"
	"Recall_1.0/backend/go/internal/llm"
	"Recall_1.0/backend/go/internal/memory/anomaly"
	"Recall_1.0/backend/go/internal/memory/export"
	"Recall_1.0/backend/go/internal/memory/intent"
	"Recall_1.0/backend/go/internal/memory/publisher"
	"Recall_1.0/backend/go/internal/memory/store"
	"Recall_1.0/backend/go/internal/memory/transcript"
	"Recall_1.0/backend/go/internal/models"
	"Recall_1.0/backend/go/internal/nlp"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OfferToStore is the reply when nothing is stored and the LLM has nothing to add.
const OfferToStore = "I don't have that information yet. You can save it with '@store <key> is <value>'."

// CategoryLookup resolves a relation phrase to its category, "unknown" when unmapped.
type CategoryLookup interface {
	Get(relationship string) string
}

// Reply is the answer to one chat message.
type Reply struct {
	Response string        `json:"response"`
	Score    *float32      `json:"score,omitempty"`
	Intent   intent.Intent `json:"-"`
}

// Deps are the collaborators of a MemoryService. Store is required; the rest
// fall back to inert implementations when nil.
type Deps struct {
	Store         *store.Store
	Graph         store.GraphStore
	Relationships CategoryLookup
	Detector      anomaly.Detector
	LLM           llm.LLM
	Sealer        *crypto.Sealer
	Publisher     publisher.Publisher
	Transcript    transcript.Store
	Exporter      *export.Exporter
	Logger        *logger.Logger

	SystemInstruction string
	Threshold         float32
	TopK              int
}

// MemoryService dispatches chat messages to the fact store.
type MemoryService struct {
	store         *store.Store
	graph         store.GraphStore
	relationships CategoryLookup
	detector      anomaly.Detector
	llm           llm.LLM
	sealer        *crypto.Sealer
	publisher     publisher.Publisher
	transcript    transcript.Store
	exporter      *export.Exporter
	logger        *logger.Logger

	systemInstruction string
	threshold         float32
	topK              int
	now               func() time.Time
}

// NewMemoryService creates a MemoryService.
func NewMemoryService(d Deps) *MemoryService {
	s := &MemoryService{
		store:             d.Store,
		graph:             d.Graph,
		relationships:     d.Relationships,
		detector:          d.Detector,
		llm:               d.LLM,
		sealer:            d.Sealer,
		publisher:         d.Publisher,
		transcript:        d.Transcript,
		exporter:          d.Exporter,
		logger:            d.Logger,
		systemInstruction: d.SystemInstruction,
		threshold:         d.Threshold,
		topK:              d.TopK,
		now:               time.Now,
	}
	if s.detector == nil {
		s.detector = anomaly.Disabled{}
	}
	if s.publisher == nil {
		s.publisher = publisher.Noop{}
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	if s.systemInstruction == "" {
		s.systemInstruction = config.DefaultSystemInstruction
	}
	if s.threshold <= 0 {
		s.threshold = config.DefaultThreshold
	}
	if s.topK <= 0 {
		s.topK = 1
	}
	return s
}

// Handle answers one chat message for owner.
func (s *MemoryService) Handle(ctx context.Context, owner, message string) (*Reply, error) {
	owner = strings.TrimSpace(owner)
	message = strings.TrimSpace(message)
	if owner == "" || message == "" {
		return nil, apperr.Validation("Missing message or user")
	}
	log := s.logger.WithUser(owner)

	verdict, err := s.detector.Inspect(ctx, owner)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("anomaly check failed, letting request through")
	}
	if verdict == anomaly.Flag {
		log.Warn("request flagged by anomaly detector")
		return nil, apperr.RateLimited(fmt.Sprintf("Possible data scraping attempt by user %s", owner))
	}

	in, rule := intent.Explain(message)
	log.WithPayload(map[string]interface{}{"state": "classified", "intent": string(in), "rule": rule}).Debug("message classified")

	var reply *Reply
	switch in {
	case intent.Store:
		reply, err = s.storeFacts(ctx, log, owner, message)
	case intent.Update:
		reply, err = s.updateFacts(ctx, log, owner, message)
	case intent.Delete:
		reply, err = s.deleteFacts(ctx, log, owner, message)
	default:
		reply, err = s.retrieve(ctx, log, owner, message)
	}
	if err != nil {
		return nil, err
	}
	reply.Intent = in
	log.WithField("state", "responded").Debug("reply ready")

	s.record(ctx, log, owner, message, reply)
	return reply, nil
}

func (s *MemoryService) storeFacts(ctx context.Context, log *logger.Logger, owner, message string) (*Reply, error) {
	extractions, err := nlp.ExtractForStore(message)
	if err != nil {
		return nil, apperr.Validation("No valid key-value pair found")
	}
	log.WithPayload(map[string]interface{}{"state": "extracted", "count": len(extractions)}).Debug("facts extracted")

	responses := make([]string, 0, len(extractions))
	for _, ex := range extractions {
		fact := s.newFact(owner, ex.BaseKey, ex.Relation)
		if err := s.put(ctx, fact, ex.Value); err != nil {
			return nil, err
		}
		s.linkRelation(ctx, log, fact)
		s.publish(ctx, log, models.EventFactStored, fact, "")
		responses = append(responses, fmt.Sprintf("I have stored your %s: %s.", fact.StorageKey, ex.Value))
	}
	return &Reply{Response: strings.Join(responses, " ")}, nil
}

func (s *MemoryService) updateFacts(ctx context.Context, log *logger.Logger, owner, message string) (*Reply, error) {
	extractions, err := nlp.ExtractForStore(message)
	if err != nil {
		return nil, apperr.Validation("No valid key-value pair found")
	}

	r := s.newKeyResolver(owner)
	var updated, missing []string
	for _, ex := range extractions {
		want := s.newFact(owner, ex.BaseKey, ex.Relation)
		existing, err := r.resolve(ctx, want.StorageKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			missing = append(missing, want.StorageKey)
			continue
		}
		log.WithPayload(map[string]interface{}{"state": "resolved", "wanted": want.StorageKey, "key": existing.StorageKey}).Debug("update target resolved")

		if err := s.put(ctx, existing, ex.Value); err != nil {
			return nil, err
		}
		s.publish(ctx, log, models.EventFactUpdated, existing, "")
		updated = append(updated, existing.StorageKey)
	}
	return &Reply{Response: outcomeSentence("updated", updated, missing)}, nil
}

func (s *MemoryService) deleteFacts(ctx context.Context, log *logger.Logger, owner, message string) (*Reply, error) {
	refs, err := nlp.ExtractForDelete(message)
	if err != nil {
		return nil, apperr.Validation("No valid key found to delete")
	}

	r := s.newKeyResolver(owner)
	var deleted, missing []string
	for _, ref := range refs {
		want := nlp.BuildStorageKey(nlp.Normalize(ref.BaseKey), ref.Relation)
		existing, err := r.resolve(ctx, want)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			missing = append(missing, want)
			continue
		}
		log.WithPayload(map[string]interface{}{"state": "resolved", "wanted": want, "key": existing.StorageKey}).Debug("delete target resolved")

		if err := s.store.Delete(ctx, owner, existing.StorageKey); err != nil {
			if errors.Is(err, store.ErrFactNotFound) {
				missing = append(missing, want)
				continue
			}
			return nil, apperr.Upstream("Failed to delete memory", err)
		}
		r.forget(existing.StorageKey)
		s.publish(ctx, log, models.EventFactDeleted, existing, "")
		deleted = append(deleted, existing.StorageKey)
	}
	return &Reply{Response: outcomeSentence("deleted", deleted, missing)}, nil
}

func (s *MemoryService) retrieve(ctx context.Context, log *logger.Logger, owner, message string) (*Reply, error) {
	ref := nlp.ExtractForRetrieve(message)
	base := nlp.Normalize(ref.BaseKey)
	key := nlp.BuildStorageKey(base, ref.Relation)
	log.WithPayload(map[string]interface{}{"state": "extracted", "key": key}).Debug("retrieval key extracted")
	if key == "" {
		return s.fallback(ctx, log, owner, message)
	}

	matches, err := s.store.Search(ctx, owner, key, s.topK)
	if err != nil {
		return nil, apperr.Upstream("Memory search failed", err)
	}
	if len(matches) > 0 {
		best := matches[0]
		if best.Score >= s.threshold && best.Metadata.User == owner {
			value, err := s.sealer.Open(owner, best.Metadata.Value)
			if err != nil {
				return nil, apperr.Wrap("Failed to read memory", err)
			}
			score := best.Score
			log.WithPayload(map[string]interface{}{"state": "resolved", "key": key, "score": score}).Debug("memory hit")
			return &Reply{
				Response: fmt.Sprintf("Your %s is %s.", models.ReadableKey(base, ref.Relation), value),
				Score:    &score,
			}, nil
		}
	}
	return s.fallback(ctx, log, owner, message)
}

func (s *MemoryService) fallback(ctx context.Context, log *logger.Logger, owner, message string) (*Reply, error) {
	topic := nlp.PreprocessQuery(message)
	s.publish(ctx, log, models.EventFallback, &models.Fact{Owner: owner}, topic)
	if s.llm == nil {
		return &Reply{Response: OfferToStore}, nil
	}

	instruction := models.NewTextContent(models.SpeakerSystem, s.systemInstruction)
	resp, err := s.llm.GenerateContent(ctx, &models.GenerateContentRequest{
		SystemInstruction: &instruction,
		Content:           []models.Content{models.NewTextContent(models.SpeakerUser, message)},
	})
	if err != nil {
		return nil, apperr.Upstream("LLM fallback failed", err)
	}
	text := resp.Text()
	if text == "" {
		return &Reply{Response: OfferToStore}, nil
	}
	return &Reply{Response: text}, nil
}

func (s *MemoryService) newFact(owner, baseKey, relation string) *models.Fact {
	base := nlp.Normalize(baseKey)
	relation = strings.ToLower(strings.TrimSpace(relation))
	f := &models.Fact{
		Owner:      owner,
		StorageKey: nlp.BuildStorageKey(base, relation),
		BaseKey:    base,
		Relation:   relation,
	}
	if relation != "" && s.relationships != nil {
		if cat := s.relationships.Get(relation); cat != "unknown" {
			f.Category = cat
		}
	}
	return f
}

// put seals value into fact and upserts it.
func (s *MemoryService) put(ctx context.Context, fact *models.Fact, value string) error {
	sealed, err := s.sealer.Seal(fact.Owner, value)
	if err != nil {
		return apperr.Wrap("Failed to encrypt value", err)
	}
	fact.Value = sealed
	if _, err := s.store.Upsert(ctx, fact); err != nil {
		return apperr.Upstream("Failed to store memory", err)
	}
	return nil
}

func (s *MemoryService) linkRelation(ctx context.Context, log *logger.Logger, fact *models.Fact) {
	if s.graph == nil || fact.Relation == "" {
		return
	}
	if err := s.graph.LinkRelation(ctx, fact.Owner, fact.Relation, fact.Category); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to link relation")
	}
}

func (s *MemoryService) publish(ctx context.Context, log *logger.Logger, kind models.MemoryEventKind, fact *models.Fact, topic string) {
	ev := models.MemoryEvent{
		Kind:       kind,
		Owner:      fact.Owner,
		StorageKey: fact.StorageKey,
		Relation:   fact.Relation,
		Topic:      topic,
		At:         s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to publish memory event")
	}
}

func (s *MemoryService) record(ctx context.Context, log *logger.Logger, owner, message string, reply *Reply) {
	if s.transcript == nil {
		return
	}
	turn := models.Turn{
		ID:       uuid.NewString(),
		Owner:    owner,
		Message:  message,
		Intent:   string(reply.Intent),
		Response: reply.Response,
		Topic:    nlp.PreprocessQuery(message),
		Score:    reply.Score,
		At:       s.now().UTC(),
	}
	if err := s.transcript.Append(ctx, turn); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to append transcript")
	}
}

// History returns the owner's most recent turns, newest first.
func (s *MemoryService) History(ctx context.Context, owner string, limit int) ([]models.Turn, error) {
	if s.transcript == nil {
		return []models.Turn{}, nil
	}
	turns, err := s.transcript.Recent(ctx, owner, transcript.ClampLimit(limit))
	if err != nil {
		return nil, apperr.Upstream("Failed to read history", err)
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	return turns, nil
}

// Facts lists the owner's facts with decrypted values, in insertion order.
func (s *MemoryService) Facts(ctx context.Context, owner string) ([]*models.Fact, error) {
	facts, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, apperr.Upstream("Failed to list memories", err)
	}
	for _, f := range facts {
		v, err := s.sealer.Open(owner, f.Value)
		if err != nil {
			return nil, apperr.Wrap("Failed to read memory", err)
		}
		f.Value = v
	}
	return facts, nil
}

// Export uploads the owner's facts when an exporter is configured.
func (s *MemoryService) Export(ctx context.Context, owner string) (*export.Result, error) {
	if s.exporter == nil {
		return nil, apperr.NotFound("Export is not configured")
	}
	facts, err := s.Facts(ctx, owner)
	if err != nil {
		return nil, err
	}
	res, err := s.exporter.Export(ctx, owner, facts)
	if err != nil {
		return nil, apperr.Upstream("Failed to export memories", err)
	}
	return res, nil
}

// ExportEnabled reports whether Export can succeed.
func (s *MemoryService) ExportEnabled() bool {
	return s.exporter != nil
}
