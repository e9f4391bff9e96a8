package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/pitchtag/internal/adapters/http/feed"
	"github.com/okian/pitchtag/internal/adapters/mq/queue"
	"github.com/okian/pitchtag/internal/adapters/repository"
	"github.com/okian/pitchtag/internal/domain/aggregate"
	"github.com/okian/pitchtag/internal/domain/dedupe"
	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/internal/domain/tagging"
	"github.com/okian/pitchtag/pkg/logger"
	"github.com/okian/pitchtag/pkg/metrics"
)

const nsToMs = 1e6

// CreateSessionRequest opens a session.
type CreateSessionRequest struct {
	Sport  string          `json:"sport"`
	Canvas geometry.Canvas `json:"canvas"`

	// Actions replaces the sport's default vocabulary when non-empty.
	Actions []model.ActionDefinition `json:"actions,omitempty"`
}

// SessionView is the read shape of a session.
type SessionView struct {
	ID        string                   `json:"id"`
	Sport     string                   `json:"sport"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Template  pitch.Template           `json:"template"`
	State     tagging.Snapshot         `json:"state"`
	Actions   []model.ActionDefinition `json:"actions"`
}

// ClickRequest is one pointer click in canvas pixels. Canvas, when set,
// resizes the session before the click is mapped.
type ClickRequest struct {
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	Canvas *geometry.Canvas `json:"canvas,omitempty"`
}

// IngestResult reports what happened to one external batch.
type IngestResult struct {
	Accepted   []model.Tag        `json:"accepted"`
	Duplicates []string           `json:"duplicates,omitempty"`
	Rejected   []ingest.Rejection `json:"rejected,omitempty"`
	Clamped    int                `json:"clamped"`
	TagCount   int                `json:"tagCount"`
}

// SummaryView is the aggregated collection of a session.
type SummaryView struct {
	Summary aggregate.Summary `json:"summary"`
	Rows    []aggregate.Row   `json:"rows"`
	Total   int               `json:"total"`
}

// change is collected inside a session critical section and emitted after it.
type change struct {
	msg     feed.MessageType
	op      model.TagOp
	tags    []model.Tag
	summary aggregate.Summary
	count   int
}

// CreateSession opens a session for a registered sport.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (SessionView, error) {
	defer observe("create_session", time.Now())
	if err := s.running(); err != nil {
		return SessionView{}, err
	}

	tpl, err := s.registry.Get(ctx, req.Sport)
	if err != nil {
		return SessionView{}, err
	}
	opts := []tagging.EngineOption{tagging.WithClassifier(s.classifier)}
	if len(req.Actions) > 0 {
		opts = append(opts, tagging.WithActions(req.Actions...))
	}
	engine, err := tagging.NewEngine(tpl, req.Canvas, opts...)
	if err != nil {
		return SessionView{}, err
	}
	sess := repository.NewSession(s.newID(), engine, ingest.New(tpl), s.now())
	if err := s.sessions.Create(ctx, sess); err != nil {
		return SessionView{}, err
	}

	s.logger.Info(ctx, "session opened",
		logger.String("session", sess.ID),
		logger.String("sport", sess.Sport),
	)
	return s.view(sess), nil
}

// GetSession returns the session state.
func (s *Service) GetSession(ctx context.Context, id string) (SessionView, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(sess), nil
}

// ListSessions returns every open session.
func (s *Service) ListSessions(ctx context.Context) ([]SessionView, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	all := s.sessions.List(ctx)
	out := make([]SessionView, 0, len(all))
	for _, sess := range all {
		out = append(out, s.view(sess))
	}
	return out, nil
}

// DeleteSession closes a session and forgets its ingested IDs.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	forgotten := s.deduper.Forget(ctx, id)
	s.notifier.Broadcast(feed.Message{Type: feed.TypeSessionClosed, SessionID: id, Summary: aggregate.Summary{}})
	s.logger.Info(ctx, "session closed",
		logger.String("session", id),
		logger.Int("forgotten", forgotten),
	)
	return nil
}

// Arm selects an action by value.
func (s *Service) Arm(ctx context.Context, id, value string) (tagging.Outcome, error) {
	var out tagging.Outcome
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		var err error
		out, err = e.Arm(value)
		return nil, err
	})
	recordAdvisory(out)
	return out, err
}

// Disarm clears the armed action.
func (s *Service) Disarm(ctx context.Context, id string) (tagging.Outcome, error) {
	var out tagging.Outcome
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		out = e.Disarm()
		return nil, nil
	})
	return out, err
}

// Click feeds one pointer click.
func (s *Service) Click(ctx context.Context, id string, req ClickRequest) (tagging.Outcome, error) {
	defer observe("click", time.Now())
	var out tagging.Outcome
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		if req.Canvas != nil {
			if err := e.Resize(*req.Canvas); err != nil {
				return nil, err
			}
		}
		out = e.Click(model.Point{X: req.X, Y: req.Y})
		return nil, nil
	})
	if out.Clamped {
		metrics.RecordClamped("click")
	}
	recordAdvisory(out)
	return out, err
}

// Submit completes the pending capture. The stored tag is returned
// enriched and handed to the publish queue.
func (s *Service) Submit(ctx context.Context, id string, meta model.Metadata) (tagging.Outcome, error) {
	defer observe("submit", time.Now())
	var out tagging.Outcome
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		out = e.Submit(meta)
		if out.Tag == nil {
			return nil, nil
		}
		enriched := e.Enrich(*out.Tag)
		out.Tag = &enriched
		return &change{
			msg:     feed.TypeTagRecorded,
			op:      model.OpRecorded,
			tags:    []model.Tag{enriched},
			summary: e.Summary(),
			count:   e.Len(),
		}, nil
	})
	recordAdvisory(out)
	return out, err
}

// Cancel discards captured points.
func (s *Service) Cancel(ctx context.Context, id string) (tagging.Outcome, error) {
	var out tagging.Outcome
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		out = e.Cancel()
		return nil, nil
	})
	recordAdvisory(out)
	return out, err
}

// Tags returns the collection, enriched when asked.
func (s *Service) Tags(ctx context.Context, id string, enriched bool) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		if !enriched {
			tags = e.Tags()
			return nil, nil
		}
		var passthrough int
		tags, passthrough = e.EnrichedTags()
		metrics.RecordPassthrough(passthrough)
		return nil, nil
	})
	return tags, err
}

// EditTag overwrites metadata of the tag at index.
func (s *Service) EditTag(ctx context.Context, id string, index int, p tagging.Patch) (model.Tag, error) {
	if p.Empty() {
		return model.Tag{}, ErrEmptyPatch
	}
	var tag model.Tag
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		edited, err := e.Edit(index, p)
		if err != nil {
			return nil, err
		}
		tag = e.Enrich(edited)
		return &change{
			msg:     feed.TypeTagEdited,
			op:      model.OpEdited,
			tags:    []model.Tag{tag},
			summary: e.Summary(),
			count:   e.Len(),
		}, nil
	})
	return tag, err
}

// DeleteTag removes the tag at index.
func (s *Service) DeleteTag(ctx context.Context, id string, index int) (model.Tag, error) {
	var tag model.Tag
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		var err error
		if tag, err = e.Delete(index); err != nil {
			return nil, err
		}
		return &change{msg: feed.TypeTagDeleted, summary: e.Summary(), count: e.Len(), tags: []model.Tag{tag}}, nil
	})
	return tag, err
}

// Undo removes the most recent tag. The bool is false when there was none.
func (s *Service) Undo(ctx context.Context, id string) (model.Tag, bool, error) {
	var (
		tag model.Tag
		ok  bool
	)
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		if tag, ok = e.Undo(); !ok {
			return nil, nil
		}
		return &change{msg: feed.TypeTagDeleted, summary: e.Summary(), count: e.Len(), tags: []model.Tag{tag}}, nil
	})
	return tag, ok, err
}

// ClearTags removes every tag and returns how many there were.
func (s *Service) ClearTags(ctx context.Context, id string) (int, error) {
	var n int
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		if n = e.Clear(); n == 0 {
			return nil, nil
		}
		return &change{msg: feed.TypeTagsCleared, summary: e.Summary()}, nil
	})
	return n, err
}

// Ingest appends externally produced percent-space tags. Entries whose ID
// was already ingested into this session are skipped; malformed ones are
// rejected without stopping the batch.
func (s *Service) Ingest(ctx context.Context, id string, raws []ingest.RawTag) (IngestResult, error) {
	defer observe("ingest", time.Now())
	res := IngestResult{Accepted: []model.Tag{}}
	err := s.do(ctx, id, func(sess *repository.Session, e *tagging.Engine, in *ingest.Ingester) (*change, error) {
		for i := range raws {
			raw := raws[i]
			var key string
			if raw.ID != "" {
				key = dedupe.Key(sess.ID, raw.ID)
				if s.deduper.SeenAndRecord(ctx, key) {
					res.Duplicates = append(res.Duplicates, raw.ID)
					continue
				}
			}

			tag, clamped, err := in.Convert(raw)
			if err == nil {
				err = e.Append(tag)
			}
			if err != nil {
				if key != "" {
					s.deduper.Unrecord(ctx, key)
				}
				res.Rejected = append(res.Rejected, ingest.Rejection{Index: i, ID: raw.ID, Reason: err.Error()})
				continue
			}
			if clamped {
				res.Clamped++
				metrics.RecordClamped("ingest")
			}
			res.Accepted = append(res.Accepted, e.Enrich(tag))
		}
		res.TagCount = e.Len()
		if len(res.Accepted) == 0 {
			return nil, nil
		}
		return &change{
			msg:     feed.TypeTagsIngested,
			op:      model.OpIngested,
			tags:    res.Accepted,
			summary: e.Summary(),
			count:   res.TagCount,
		}, nil
	})
	metrics.RecordIngest("accepted", len(res.Accepted))
	metrics.RecordIngest("duplicate", len(res.Duplicates))
	metrics.RecordIngest("rejected", len(res.Rejected))
	return res, err
}

// Summary aggregates the collection per team and action.
func (s *Service) Summary(ctx context.Context, id string) (SummaryView, error) {
	var v SummaryView
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		sum := e.Summary()
		v = SummaryView{Summary: sum, Rows: sum.Rows(), Total: sum.Total()}
		return nil, nil
	})
	return v, err
}

// Actions lists the session vocabulary.
func (s *Service) Actions(ctx context.Context, id string) ([]model.ActionDefinition, error) {
	var defs []model.ActionDefinition
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		defs = e.Actions()
		return nil, nil
	})
	return defs, err
}

// AddAction extends the vocabulary. The bool is false when the value
// already existed.
func (s *Service) AddAction(ctx context.Context, id string, def model.ActionDefinition) (bool, error) {
	var added bool
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		var err error
		added, err = e.AddAction(def)
		return nil, err
	})
	return added, err
}

// RemoveAction drops value from the vocabulary.
func (s *Service) RemoveAction(ctx context.Context, id, value string) (bool, tagging.Outcome, error) {
	var (
		removed bool
		out     tagging.Outcome
	)
	err := s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		removed, out = e.RemoveAction(value)
		return nil, nil
	})
	return removed, out, err
}

// SubscribeFeed hands attach the first message a live subscriber receives.
// attach runs under the session lock, so no change is broadcast between the
// snapshot and the subscriber's registration.
func (s *Service) SubscribeFeed(ctx context.Context, id string, attach func(feed.Message) error) error {
	return s.do(ctx, id, func(_ *repository.Session, e *tagging.Engine, _ *ingest.Ingester) (*change, error) {
		return nil, attach(feed.Message{Type: feed.TypeSnapshot, SessionID: id, Summary: e.Summary(), TagCount: e.Len()})
	})
}

func (s *Service) session(ctx context.Context, id string) (*repository.Session, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.sessions.Get(ctx, id)
}

// do runs fn and publishes and broadcasts the change it reports, if any,
// all under the session lock. Feed messages of a session therefore leave in
// the order the changes were made; neither enqueue nor Broadcast blocks.
func (s *Service) do(ctx context.Context, id string, fn func(*repository.Session, *tagging.Engine, *ingest.Ingester) (*change, error)) error {
	sess, err := s.session(ctx, id)
	if err != nil {
		return err
	}
	return sess.Do(func(e *tagging.Engine, in *ingest.Ingester) error {
		ch, err := fn(sess, e, in)
		if err != nil {
			return err
		}
		if ch != nil {
			s.emit(ctx, sess, ch)
		}
		return nil
	})
}

func (s *Service) emit(ctx context.Context, sess *repository.Session, ch *change) {
	if ch.op != "" {
		for i := range ch.tags {
			s.enqueue(ctx, sess, ch.op, ch.tags[i])
		}
	}
	msg := feed.Message{
		Type:      ch.msg,
		SessionID: sess.ID,
		Summary:   ch.summary,
		TagCount:  ch.count,
	}
	if len(ch.tags) == 1 {
		t := ch.tags[0]
		msg.Tag = &t
	}
	s.notifier.Broadcast(msg)
}

// enqueue hands a tag to the publish pipeline. A full queue drops the
// record; the tag itself is already stored in the session.
func (s *Service) enqueue(ctx context.Context, sess *repository.Session, op model.TagOp, tag model.Tag) { //nolint:gocritic // hugeParam: tag is copied into the record
	interaction, _ := tag.Interaction()
	metrics.RecordTag(sess.Sport, string(interaction), string(op))

	rec := model.TagRecord{
		SessionID:  sess.ID,
		Sport:      sess.Sport,
		Op:         op,
		Tag:        tag,
		RecordedAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, rec); err != nil {
		level := s.logger.Warn
		if errors.Is(err, queue.ErrClosed) {
			level = s.logger.Error
		}
		level(ctx, "tag record not queued",
			logger.String("session", sess.ID),
			logger.String("tag", tag.ID),
			logger.Error(err),
		)
	}
}

func (s *Service) view(sess *repository.Session) SessionView {
	v := SessionView{ID: sess.ID, Sport: sess.Sport, CreatedAt: sess.CreatedAt}
	_ = sess.Do(func(e *tagging.Engine, _ *ingest.Ingester) error {
		v.Template = e.Template()
		v.State = e.Snapshot()
		v.Actions = e.Actions()
		return nil
	})
	v.UpdatedAt = sess.UpdatedAt()
	return v
}

func recordAdvisory(out tagging.Outcome) { //nolint:gocritic // hugeParam
	if out.Advisory != tagging.AdvisoryNone {
		metrics.RecordAdvisory(string(out.Advisory))
	}
}

func observe(op string, start time.Time) {
	metrics.RecordOperationLatency(op, float64(time.Since(start).Nanoseconds())/nsToMs)
}
