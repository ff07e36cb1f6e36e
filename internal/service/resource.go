package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resourcehub/internal/auth"
	"resourcehub/internal/codec"
	"resourcehub/internal/config"
	"resourcehub/internal/kv"
	"resourcehub/internal/model"
)

// DefaultMaxUploadSize is used when no WithMaxUploadSize option is given.
const DefaultMaxUploadSize int64 = 5 << 20

// UploadInput carries one multipart upload. Size is the declared size, or a
// negative value when unknown; the stored size is always the bytes read.
type UploadInput struct {
	Reader   io.Reader
	Name     string
	MimeType string
	Size     int64
	Tags     string
}

// ListQuery filters and pages a listing. A zero Limit returns every match.
type ListQuery struct {
	Q        string
	Category model.Category
	Tag      string
	Limit    int
	Offset   int
}

// ListResult is a page of metadata plus the filtered total.
type ListResult struct {
	Items []model.ResourceMetadata
	Total int
}

// Download is a decoded payload with the metadata needed to serve it.
type Download struct {
	Metadata model.ResourceMetadata
	Content  []byte
}

// ResourceService defines the resource use cases.
type ResourceService interface {
	// Upload encodes the payload and stores it with its metadata in a single write.
	Upload(ctx context.Context, in UploadInput) (*model.ResourceMetadata, error)

	// List returns resource metadata, newest first. Payloads are never loaded into the result.
	List(ctx context.Context, q ListQuery) (*ListResult, error)

	// Download returns the decoded payload after checking it against the recorded size.
	Download(ctx context.Context, id string) (*Download, error)

	// Delete removes a resource. Deleting a missing resource returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Tags returns the sorted distinct tags across visible resources.
	Tags(ctx context.Context) ([]string, error)
}

type resourceService struct {
	store   kv.Store
	log     *zap.Logger
	metrics *Metrics
	maxSize int64
	scope   string
	now     func() time.Time
	newID   func() string
}

// Option configures the resource service.
type Option func(*resourceService)

func WithLogger(l *zap.Logger) Option {
	return func(s *resourceService) { s.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *resourceService) { s.metrics = m }
}

func WithMaxUploadSize(n int64) Option {
	return func(s *resourceService) { s.maxSize = n }
}

// WithScope selects config.ScopeShared or config.ScopeOwner visibility.
func WithScope(scope string) Option {
	return func(s *resourceService) { s.scope = scope }
}

func WithClock(now func() time.Time) Option {
	return func(s *resourceService) { s.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(s *resourceService) { s.newID = f }
}

// NewResourceService constructs a ResourceService over store.
func NewResourceService(store kv.Store, opts ...Option) ResourceService {
	s := &resourceService{
		store:   store,
		log:     zap.NewNop(),
		maxSize: DefaultMaxUploadSize,
		scope:   config.ScopeShared,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *resourceService) Upload(ctx context.Context, in UploadInput) (*model.ResourceMetadata, error) {
	if in.Reader == nil {
		return nil, ErrMissingPayload
	}
	if in.Size > s.maxSize {
		return nil, ErrPayloadTooLarge
	}

	payload, err := io.ReadAll(io.LimitReader(in.Reader, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if int64(len(payload)) > s.maxSize {
		return nil, ErrPayloadTooLarge
	}

	tags, err := ParseTags(in.Tags)
	if err != nil {
		s.log.Warn("tags parse failed, storing without tags",
			zap.String("component", "resource_service"),
			zap.String("name", in.Name),
			zap.Error(err),
		)
	}

	meta := model.ResourceMetadata{
		ID:         s.newID(),
		Name:       in.Name,
		Type:       in.MimeType,
		Size:       int64(len(payload)),
		UploadDate: s.now().UTC(),
		Tags:       tags,
	}
	if id, ok := auth.FromContext(ctx); ok {
		meta.Owner = id.ID
	}

	value, err := json.Marshal(model.Resource{ResourceMetadata: meta, Data: codec.Encode(payload)})
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	key := model.ResourceKey(meta.ID)
	if err := s.store.Set(ctx, key, value); err != nil {
		return nil, &StorageError{Op: "set", Key: key, Err: err}
	}

	s.metrics.upload(meta.Size)
	s.log.Info("resource stored",
		zap.String("component", "resource_service"),
		zap.String("event", "upload"),
		zap.String("id", meta.ID),
		zap.Int64("size", meta.Size),
	)
	return &meta, nil
}

func (s *resourceService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	all, err := s.visible(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Q))
	tag := strings.ToLower(strings.TrimSpace(q.Tag))
	items := make([]model.ResourceMetadata, 0, len(all))
	for _, m := range all {
		if needle != "" && !strings.Contains(strings.ToLower(m.Name), needle) {
			continue
		}
		if q.Category != "" && m.Category() != q.Category {
			continue
		}
		if tag != "" && !m.HasTag(tag) {
			continue
		}
		items = append(items, m)
	}

	total := len(items)
	offset := max(q.Offset, 0)
	if offset >= len(items) {
		items = items[:0]
	} else {
		items = items[offset:]
	}
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}

	return &ListResult{Items: items, Total: total}, nil
}

func (s *resourceService) Tags(ctx context.Context) ([]string, error) {
	all, err := s.visible(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, m := range all {
		for _, t := range m.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return tags, nil
}

// storedRecord reads a resource record while leaving the payload raw, so an
// absent, null or non-string payload can be told apart.
type storedRecord struct {
	model.ResourceMetadata
	Data json.RawMessage `json:"data"`
}

func (s *resourceService) Download(ctx context.Context, id string) (*Download, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Size < 0 {
		return nil, s.integrityError(id, InvalidFormat, fmt.Errorf("negative size %d", rec.Size))
	}

	raw := bytes.TrimSpace(rec.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, s.integrityError(id, DataMissing, nil)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, s.integrityError(id, InvalidFormat, errors.New("payload is not a string"))
	}
	// An empty file encodes to the empty string.
	if text == "" && rec.Size > 0 {
		return nil, s.integrityError(id, DataMissing, nil)
	}

	content, err := codec.Decode(text, rec.Size)
	if err != nil {
		return nil, s.integrityError(id, DecodeFailure, err)
	}

	s.metrics.download()
	return &Download{Metadata: rec.ResourceMetadata, Content: content}, nil
}

func (s *resourceService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		// A record too corrupt to read is still deletable.
		var ie *DataIntegrityError
		if !errors.As(err, &ie) || s.scope == config.ScopeOwner {
			return err
		}
	}

	key := model.ResourceKey(id)
	if err := s.store.Delete(ctx, key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}

	s.metrics.delete()
	s.log.Info("resource deleted",
		zap.String("component", "resource_service"),
		zap.String("event", "delete"),
		zap.String("id", id),
	)
	return nil
}

// load fetches one record and applies the visibility scope. Records owned by
// someone else are reported as not found.
func (s *resourceService) load(ctx context.Context, id string) (*storedRecord, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	key := model.ResourceKey(id)
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}

	var rec storedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, s.integrityError(id, InvalidFormat, err)
	}
	if !s.canSee(ctx, rec.ResourceMetadata) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// visible returns the metadata of every readable record the caller may see,
// newest first with id as the tie-break.
func (s *resourceService) visible(ctx context.Context) ([]model.ResourceMetadata, error) {
	entries, err := s.store.GetByPrefix(ctx, model.ResourceKeyPrefix)
	if err != nil {
		return nil, &StorageError{Op: "scan", Key: model.ResourceKeyPrefix, Err: err}
	}

	out := make([]model.ResourceMetadata, 0, len(entries))
	for _, e := range entries {
		var m model.ResourceMetadata
		if err := json.Unmarshal(e.Value, &m); err != nil {
			s.log.Error("skipping unreadable resource record",
				zap.String("component", "resource_service"),
				zap.String("key", e.Key),
				zap.Error(err),
			)
			continue
		}
		if !s.canSee(ctx, m) {
			continue
		}
		if m.Tags == nil {
			m.Tags = []string{}
		}
		out = append(out, m)
	}

	slices.SortFunc(out, func(a, b model.ResourceMetadata) int {
		if c := b.UploadDate.Compare(a.UploadDate); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *resourceService) canSee(ctx context.Context, m model.ResourceMetadata) bool {
	if s.scope != config.ScopeOwner {
		return true
	}
	id, ok := auth.FromContext(ctx)
	return ok && id.ID != "" && id.ID == m.Owner
}

func (s *resourceService) integrityError(id string, kind IntegrityKind, err error) error {
	s.metrics.integrityFailure(kind)
	s.log.Error("resource payload integrity check failed",
		zap.String("component", "resource_service"),
		zap.String("id", id),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	return &DataIntegrityError{ID: id, Kind: kind, Err: err}
}
