package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"content-optimizer-be/internal/dto"
	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/internal/repository/memory"
	"content-optimizer-be/pkg/events"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/corrector"
	"content-optimizer-be/pkg/seo/issue"
	"content-optimizer-be/pkg/seo/optimizer"
	"content-optimizer-be/pkg/seo/prompt"
	"content-optimizer-be/pkg/seo/validation"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("optimization session not found")
	ErrAsyncUnavailable = errors.New("asynchronous optimization is unavailable")
	ErrCorrectionOff    = errors.New("automatic correction is disabled in the active config")
)

type IOptimizerService interface {
	Optimize(ctx context.Context, req *dto.OptimizeRequest) (*optimizer.Result, error)
	Enqueue(ctx context.Context, req *dto.OptimizeRequest) (*dto.OptimizeAcceptedResponse, error)
	HandleRequested(ctx context.Context, event events.Event) error
	Validate(ctx context.Context, req *dto.ValidateRequest) (*dto.ValidateResponse, error)
	GetSession(ctx context.Context, sessionId string) (*optimizer.Result, error)
	Config() *dto.ConfigResponse
	UpdateConfig(ctx context.Context, patch seo.ConfigPatch) (*dto.ConfigResponse, error)
	CacheStats() *dto.CacheStatsResponse
	SetOverride(req *dto.OverrideRequest) *dto.OverridesResponse
	RemoveOverride(req *dto.DeleteOverrideRequest) *dto.OverridesResponse
	ListOverrides() *dto.OverridesResponse
	CorrectionHistory() *dto.CorrectionHistoryResponse
}

type optimizerService struct {
	optimizer *optimizer.Optimizer
	pipeline  *validation.Pipeline
	sessions  *memory.SessionRepository
	requests  events.Publisher
	logger    logger.ILogger
}

// NewOptimizerService wires the optimizer for the HTTP and bus surfaces.
// requests may be nil, in which case Enqueue reports ErrAsyncUnavailable.
func NewOptimizerService(
	opt *optimizer.Optimizer,
	pipeline *validation.Pipeline,
	sessions *memory.SessionRepository,
	requests events.Publisher,
	log logger.ILogger,
) IOptimizerService {
	return &optimizerService{
		optimizer: opt,
		pipeline:  pipeline,
		sessions:  sessions,
		requests:  requests,
		logger:    log,
	}
}

func (s *optimizerService) Optimize(ctx context.Context, req *dto.OptimizeRequest) (*optimizer.Result, error) {
	doc, err := toDocument(req.Document)
	if err != nil {
		return nil, err
	}
	res, err := s.optimizer.Optimize(ctx, doc, optimizer.Options{
		SessionID:      req.SessionId,
		ExistingTitles: req.ExistingTitles,
	})
	if err != nil {
		return nil, err
	}
	s.sessions.Save(res)
	return res, nil
}

func (s *optimizerService) Enqueue(ctx context.Context, req *dto.OptimizeRequest) (*dto.OptimizeAcceptedResponse, error) {
	if s.requests == nil {
		return nil, ErrAsyncUnavailable
	}
	sessionId := req.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	msg := dto.OptimizeRequestedMessage{
		SessionId:      sessionId,
		Document:       req.Document,
		ExistingTitles: req.ExistingTitles,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	if err := s.requests.Publish(ctx, events.New(events.OptimizationRequested, data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAsyncUnavailable, err)
	}
	s.logger.Info("SERVICE", "Optimization queued", map[string]interface{}{"session_id": sessionId})
	return &dto.OptimizeAcceptedResponse{SessionId: sessionId, Status: "queued"}, nil
}

// HandleRequested runs a queued optimization. Invalid documents are
// logged and acknowledged; they would fail on every redelivery.
func (s *optimizerService) HandleRequested(ctx context.Context, event events.Event) error {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	var msg dto.OptimizeRequestedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Error("SERVICE", "Dropping malformed optimization request", map[string]interface{}{"error": err.Error()})
		return nil
	}

	_, err = s.Optimize(ctx, &dto.OptimizeRequest{
		Document:       msg.Document,
		ExistingTitles: msg.ExistingTitles,
		SessionId:      msg.SessionId,
	})
	if errors.Is(err, optimizer.ErrInvalidDocument) {
		s.logger.Error("SERVICE", "Rejected queued optimization", map[string]interface{}{"session_id": msg.SessionId, "error": err.Error()})
		return nil
	}
	return err
}

func (s *optimizerService) Validate(ctx context.Context, req *dto.ValidateRequest) (*dto.ValidateResponse, error) {
	doc, err := toDocument(req.Document)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.FocusKeyword) == "" {
		return nil, fmt.Errorf("%w: focus keyword is required", optimizer.ErrInvalidDocument)
	}
	cfg := s.optimizer.Config()
	if req.AutoCorrect && !cfg.AutoCorrection {
		return nil, ErrCorrectionOff
	}
	opts := issue.DetectOptions{ExistingTitles: req.ExistingTitles}

	if !req.AutoCorrect {
		r, err := s.pipeline.Validate(ctx, doc, cfg, opts)
		if err != nil {
			return nil, err
		}
		return &dto.ValidateResponse{Validation: r}, nil
	}

	rep, err := s.pipeline.ValidateAndCorrect(ctx, doc, cfg, opts)
	if rep == nil {
		return nil, err
	}
	if err != nil {
		s.logger.Warn("SERVICE", "Correction round failed", map[string]interface{}{"error": err.Error()})
		rep.After.Errors = append(rep.After.Errors, err.Error())
	}
	return &dto.ValidateResponse{Validation: rep.After, Correction: rep}, nil
}

func toDocument(r dto.DocumentRequest) (seo.Document, error) {
	doc, err := r.ToDocument()
	if err != nil {
		return seo.Document{}, fmt.Errorf("%w: %v", optimizer.ErrInvalidDocument, err)
	}
	return doc, nil
}

func (s *optimizerService) GetSession(ctx context.Context, sessionId string) (*optimizer.Result, error) {
	res, found := s.sessions.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}
	return res, nil
}

func (s *optimizerService) Config() *dto.ConfigResponse {
	cfg := s.optimizer.Config()
	return &dto.ConfigResponse{Config: cfg, Hash: cfg.Hash()}
}

func (s *optimizerService) UpdateConfig(ctx context.Context, patch seo.ConfigPatch) (*dto.ConfigResponse, error) {
	cfg, err := s.optimizer.UpdateConfig(patch)
	if err != nil {
		return nil, err
	}
	return &dto.ConfigResponse{Config: cfg, Hash: cfg.Hash()}, nil
}

func (s *optimizerService) CacheStats() *dto.CacheStatsResponse {
	st := s.pipeline.Stats()
	return &dto.CacheStatsResponse{
		Cache:         st.Cache,
		DetectorRuns:  st.DetectorRuns,
		StoredReports: s.sessions.Count(),
	}
}

func (s *optimizerService) SetOverride(req *dto.OverrideRequest) *dto.OverridesResponse {
	s.pipeline.Generator().Overrides().Set(req.Field, req.Reason, prompt.Override{SkipValidation: req.SkipValidation})
	s.logger.Info("SERVICE", "Override set", map[string]interface{}{"field": req.Field, "reason": req.Reason, "skip": req.SkipValidation})
	return s.ListOverrides()
}

func (s *optimizerService) RemoveOverride(req *dto.DeleteOverrideRequest) *dto.OverridesResponse {
	s.pipeline.Generator().Overrides().Remove(req.Field, req.Reason)
	return s.ListOverrides()
}

func (s *optimizerService) ListOverrides() *dto.OverridesResponse {
	return &dto.OverridesResponse{Overrides: s.pipeline.Generator().Overrides().List()}
}

// CorrectionHistory lists the corrector's retained attempts, oldest
// first. It is empty when correction is not configured.
func (s *optimizerService) CorrectionHistory() *dto.CorrectionHistoryResponse {
	res := &dto.CorrectionHistoryResponse{Entries: []corrector.HistoryEntry{}}
	if corr := s.pipeline.Corrector(); corr != nil {
		res.Providers = corr.Names()
		res.Entries = append(res.Entries, corr.History()...)
	}
	return res
}
