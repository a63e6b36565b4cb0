package debate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/ai"
	"github.com/decisionlab/boardroom/internal/common"
	"github.com/decisionlab/boardroom/internal/persona"
)

const (
	minMaxTurns     = 1
	maxMaxTurns     = 20
	defaultMaxTurns = 10
)

// RunLocker is a cross-process mutual-exclusion marker for active runs.
// A nil locker falls back to the database status guard alone.
type RunLocker interface {
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string) error
}

// Service drives the debate turn-taking state machine.
type Service struct {
	repo       *Repo
	directory  *agents.Repo
	registry   *ai.Registry
	renderer   *persona.Renderer
	synth      *Synthesizer
	locks      RunLocker
	genTimeout time.Duration
}

func NewService(repo *Repo, directory *agents.Repo, registry *ai.Registry, synth *Synthesizer, locks RunLocker, genTimeout time.Duration) *Service {
	if genTimeout <= 0 {
		genTimeout = 90 * time.Second
	}
	return &Service{
		repo:       repo,
		directory:  directory,
		registry:   registry,
		renderer:   persona.NewRenderer(),
		synth:      synth,
		locks:      locks,
		genTimeout: genTimeout,
	}
}

type CreateParams struct {
	Title    string
	Topic    string
	AgentIDs []uint64
	Format   string
	MaxTurns int
}

// CreateSession validates the panel and persists a pending session. No
// generation happens here.
func (s *Service) CreateSession(ctx context.Context, profileID uint64, p CreateParams) (*Session, error) {
	if strings.TrimSpace(p.Topic) == "" {
		return nil, &ValidationError{Msg: "topic is required"}
	}

	format := p.Format
	if format == "" {
		format = FormatTurnBased
	}
	if format != FormatTurnBased {
		return nil, &ValidationError{Msg: fmt.Sprintf("unsupported format: %s", format)}
	}

	maxTurns := p.MaxTurns
	if maxTurns == 0 {
		maxTurns = defaultMaxTurns
	}
	if maxTurns < minMaxTurns || maxTurns > maxMaxTurns {
		return nil, &ValidationError{Msg: fmt.Sprintf("max_turns must be between %d and %d", minMaxTurns, maxMaxTurns)}
	}

	if len(p.AgentIDs) < 2 {
		return nil, &ValidationError{Msg: "at least 2 agents required for a debate"}
	}
	seen := make(map[uint64]bool, len(p.AgentIDs))
	for _, id := range p.AgentIDs {
		if seen[id] {
			return nil, &ValidationError{Msg: fmt.Sprintf("duplicate agent id: %d", id)}
		}
		seen[id] = true
	}

	if _, err := s.directory.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}

	active, err := s.directory.ListActiveByIDs(ctx, p.AgentIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range p.AgentIDs {
		a, ok := active[id]
		if !ok {
			return nil, &ValidationError{Msg: fmt.Sprintf("agent %d not found or inactive", id)}
		}
		if a.ProfileID != profileID {
			return nil, &ValidationError{Msg: fmt.Sprintf("agent %d does not belong to this profile", id)}
		}
	}

	sid, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		SessionID: sid,
		ProfileID: profileID,
		Title:     p.Title,
		Topic:     p.Topic,
		Format:    format,
		MaxTurns:  maxTurns,
		Status:    StatusPending,
	}
	if err := session.SetParticipantIDs(p.AgentIDs); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// StartRun claims the session and launches the turn loop. The returned
// stream is a pure observer: the loop runs on a detached context and keeps
// going even if every subscriber walks away. A session can be run once.
func (s *Service) StartRun(ctx context.Context, sessionID string) (*Stream, error) {
	sess, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch sess.Status {
	case StatusRunning:
		return nil, ErrRunConflict
	case StatusCompleted, StatusFailed:
		return nil, ErrSessionFinished
	}

	if s.locks != nil {
		got, err := s.locks.Acquire(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !got {
			return nil, ErrRunConflict
		}
	}

	claimed, err := s.repo.MarkSessionRunning(ctx, sessionID)
	if err != nil {
		s.releaseLock(ctx, sessionID)
		return nil, err
	}
	if !claimed {
		// lost the race between the status read and the claim
		s.releaseLock(ctx, sessionID)
		return nil, ErrRunConflict
	}

	stream := newStream(sessionID, sess.MaxTurns+4)
	go s.run(sess, stream)
	return stream, nil
}

func (s *Service) releaseLock(ctx context.Context, sessionID string) {
	if s.locks == nil {
		return
	}
	if err := s.locks.Release(ctx, sessionID); err != nil {
		log.Printf("[debate] session=%s release lock: %v", sessionID, err)
	}
}

// run is the turn loop. Strictly sequential: turn t+1 is not rendered until
// turn t is durably appended, because t+1's context contains t's output.
func (s *Service) run(sess *Session, stream *Stream) {
	// Deliberately not the request context: the subscriber's connection must
	// not cancel the run.
	ctx := context.Background()

	defer stream.close()
	defer s.releaseLock(ctx, sess.SessionID)

	roster, profile, err := s.resolvePanel(ctx, sess)
	if err != nil {
		s.finishFatal(ctx, sess, stream, err)
		return
	}

	transcript := make([]Turn, 0, sess.MaxTurns)
	var truncated *RunError

	for t := 0; t < sess.MaxTurns; t++ {
		ag := roster[t%len(roster)]

		turn, rerr := s.produceTurn(ctx, sess, profile, &ag, t, transcript)
		if rerr != nil {
			if rerr.Severity() == SeverityFatal {
				s.finishFatal(ctx, sess, stream, rerr)
				return
			}
			// recoverable: stop the loop, keep what we have
			truncated = rerr
			break
		}

		transcript = append(transcript, *turn)
		stream.publish(messageEvent(turn))
	}

	if truncated != nil {
		stream.publish(errorEvent(truncated.Error()))
	}

	if len(transcript) == 0 {
		s.finish(ctx, sess, stream, StatusFailed)
		return
	}

	s.synthesize(ctx, sess, stream, transcript)
	s.finish(ctx, sess, stream, StatusCompleted)
}

// produceTurn renders, generates, and durably appends one turn.
func (s *Service) produceTurn(ctx context.Context, sess *Session, profile *agents.Profile, ag *agents.Agent, turnIdx int, transcript []Turn) (*Turn, *RunError) {
	priorTurns := formatTranscript(transcript)

	system, err := s.renderer.Render(ag.PromptTemplate, map[string]string{
		persona.VarDecisionTopic:      sess.Topic,
		persona.VarUserProfileSummary: profileSummary(profile),
		persona.VarPriorTurns:         priorTurns,
		persona.VarExpertiseAreas:     profile.ExpertiseAreas,
		persona.VarRiskTolerance:      riskTolerance(profile),
	})
	if err != nil {
		return nil, runErr(stageRender, err)
	}

	provider, err := s.registry.Get(ctx, ag.ModelProvider, ag.ModelName)
	if err != nil {
		// unknown provider is session configuration, not a transient fault
		return nil, runErr(stageRender, err)
	}

	prompt := turnPrompt(sess.Topic, turnIdx, panelSize(sess), priorTurns)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	content, err := provider.Generate(genCtx, system, prompt, ai.Params{
		Temperature: ag.Temperature,
		MaxTokens:   ag.MaxTokens,
	})
	cancel()
	if err != nil {
		return nil, runErr(stageGenerate, err)
	}

	turn := &Turn{
		SessionID: sess.SessionID,
		TurnIndex: turnIdx,
		AgentID:   ag.ID,
		AgentName: ag.Name,
		AgentRole: ag.Role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AppendTurn(ctx, turn); err != nil {
		// turn not persisted; same outcome as a failed generation
		return nil, runErr(stageGenerate, err)
	}
	return turn, nil
}

func (s *Service) synthesize(ctx context.Context, sess *Session, stream *Stream, transcript []Turn) {
	synthCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	summary, err := s.synth.Synthesize(synthCtx, sess.Topic, transcript)
	if err != nil {
		// soft failure: the transcript is the primary value
		log.Printf("[debate] session=%s synthesis failed: %v", sess.SessionID, err)
		return
	}
	if err := s.repo.CreateSummary(ctx, summary); err != nil {
		log.Printf("[debate] session=%s store summary: %v", sess.SessionID, err)
		return
	}
	stream.publish(summaryEvent(summary))
}

func (s *Service) finishFatal(ctx context.Context, sess *Session, stream *Stream, err error) {
	stream.publish(errorEvent(err.Error()))
	s.finish(ctx, sess, stream, StatusFailed)
}

func (s *Service) finish(ctx context.Context, sess *Session, stream *Stream, status SessionStatus) {
	if err := s.repo.SetSessionStatus(ctx, sess.SessionID, status); err != nil {
		log.Printf("[debate] session=%s set status %s: %v", sess.SessionID, status, err)
	}
	stream.publish(Event{Type: EventComplete})
}

// resolvePanel loads the profile and the ordered roster. A panel member that
// went missing or inactive between create and run is a configuration defect.
func (s *Service) resolvePanel(ctx context.Context, sess *Session) ([]agents.Agent, *agents.Profile, error) {
	profile, err := s.directory.GetProfile(ctx, sess.ProfileID)
	if err != nil {
		return nil, nil, runErr(stageRender, fmt.Errorf("profile %d: %w", sess.ProfileID, err))
	}

	ids, err := sess.ParticipantIDs()
	if err != nil {
		return nil, nil, runErr(stageRender, err)
	}

	active, err := s.directory.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, nil, runErr(stageRender, err)
	}

	roster := make([]agents.Agent, 0, len(ids))
	for _, id := range ids {
		a, ok := active[id]
		if !ok {
			return nil, nil, runErr(stageRender, fmt.Errorf("agent %d not found or inactive", id))
		}
		roster = append(roster, a)
	}
	return roster, profile, nil
}

func panelSize(sess *Session) int {
	ids, err := sess.ParticipantIDs()
	if err != nil {
		return 1
	}
	return len(ids)
}

func profileSummary(p *agents.Profile) string {
	if strings.TrimSpace(p.Summary) == "" {
		return "No profile available"
	}
	return p.Summary
}

func riskTolerance(p *agents.Profile) string {
	if p.RiskTolerance == "" {
		return "moderate"
	}
	return p.RiskTolerance
}

// SessionDetail is the durable read path: session plus ordered transcript
// and summary, independent of any live stream.
type SessionDetail struct {
	Session *Session `json:"session"`
	Turns   []Turn   `json:"messages"`
	Summary *Summary `json:"summary,omitempty"`
}

func (s *Service) GetSessionDetail(ctx context.Context, sessionID string) (*SessionDetail, error) {
	sess, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := s.repo.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	detail := &SessionDetail{Session: sess, Turns: turns}
	sum, err := s.repo.GetSummary(ctx, sessionID)
	if err == nil {
		detail.Summary = sum
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return detail, nil
}

func (s *Service) ListSessions(ctx context.Context, profileID uint64) ([]Session, error) {
	return s.repo.ListSessionsByProfile(ctx, profileID)
}

func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.repo.DeleteSession(ctx, sessionID)
}

// EnqueueRun records a queued run job for the worker path. The session must
// still be pending.
func (s *Service) EnqueueRun(ctx context.Context, sessionID string) (*RunJob, error) {
	sess, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case StatusRunning:
		return nil, ErrRunConflict
	case StatusCompleted, StatusFailed:
		return nil, ErrSessionFinished
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	job := &RunJob{ID: id, SessionID: sessionID, Status: JobQueued}
	if err := s.repo.CreateRunJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Service) GetRunJob(ctx context.Context, jobID string) (*RunJob, error) {
	return s.repo.GetRunJobByID(ctx, jobID)
}

// ExecuteRunJob runs a queued job to completion with no subscriber attached;
// the worker drains the stream so the bounded buffer never matters. Returns
// nil when the job reached a terminal state, even if the debate failed.
func (s *Service) ExecuteRunJob(ctx context.Context, jobID string) error {
	job, err := s.repo.GetRunJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == JobSucceeded || job.Status == JobFailed {
		return nil
	}
	if err := s.repo.MarkRunJobRunning(ctx, job.ID); err != nil {
		return err
	}

	stream, err := s.StartRun(ctx, job.SessionID)
	if err != nil {
		msg := err.Error()
		if mErr := s.repo.MarkRunJobFailed(ctx, job.ID, msg); mErr != nil {
			return mErr
		}
		return nil
	}

	var lastError string
	for ev := range stream.Events() {
		if ev.Type == EventError {
			lastError = ev.Reason
		}
	}

	sess, err := s.repo.GetSessionBySessionID(ctx, job.SessionID)
	if err != nil {
		return err
	}
	if sess.Status == StatusFailed {
		if lastError == "" {
			lastError = "debate failed"
		}
		return s.repo.MarkRunJobFailed(ctx, job.ID, lastError)
	}
	return s.repo.MarkRunJobSucceeded(ctx, job.ID)
}
