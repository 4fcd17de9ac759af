// Package service contains the publish workflow
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"noterelay/internal/adapters/images"
	"noterelay/internal/adapters/sign"
	"noterelay/internal/adapters/xhs"
	"noterelay/internal/core/classify"
	"noterelay/internal/core/cookie"
	"noterelay/internal/core/notefmt"
	"noterelay/internal/platform/logger"
	"noterelay/internal/platform/retry"
	"noterelay/internal/services/api/publish/domain"
	"noterelay/internal/services/api/publish/repo"
)

const noteBaseURL = "https://www.xiaohongshu.com/explore/"

// Service defines the service contract for publishing
type Service interface{ domain.ServicePort }

// Config controls the publish workflow
type Config struct {
	// SignBaseURL is the external signing service address, required
	SignBaseURL string

	// CookiePolicy decides which cookie fields a caller must present
	CookiePolicy cookie.Policy

	// MaxImages caps how many image urls one note may carry
	MaxImages int

	// Timeouts for the two outbound surfaces
	SignTimeout  time.Duration
	ImageTimeout time.Duration

	// ImageDir is where downloaded images land, empty means OS temp
	ImageDir string

	// Outer publish retry
	MaxAttempts int
	BackoffBase time.Duration
}

// NoteCreator is the platform surface the workflow drives
type NoteCreator interface {
	CreateImageNote(ctx context.Context, title, desc string, files []string, isPrivate bool) (map[string]any, error)
}

// ImageSource owns downloaded files for one publish call
type ImageSource interface {
	Acquire(ctx context.Context, urls []string) []images.Asset
	Release()
}

// Svc implements the Service interface
type Svc struct {
	cfg   Config
	log   logger.Logger
	audit repo.Repo // nil when auditing is disabled

	newSigner   func(cookie.Credential) xhs.Signer
	newCreator  func(xhs.Signer) NoteCreator
	newAcquirer func() ImageSource
	sleep       func(time.Duration)
}

// New creates a publish service; audit may be nil
func New(cfg Config, audit repo.Repo) *Svc {
	if cfg.CookiePolicy.Required == nil {
		cfg.CookiePolicy = cookie.PolicyAll()
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = images.DefaultLimit
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	s := &Svc{
		cfg:   cfg,
		log:   *logger.Named("publish"),
		audit: audit,
		sleep: time.Sleep,
	}
	s.newSigner = func(cred cookie.Credential) xhs.Signer {
		return sign.NewClient(sign.Options{BaseURL: cfg.SignBaseURL, Timeout: cfg.SignTimeout}, cred)
	}
	s.newCreator = func(signer xhs.Signer) NoteCreator {
		return xhs.NewClient(xhs.Options{}, signer)
	}
	s.newAcquirer = func() ImageSource {
		return images.New(images.Options{Timeout: cfg.ImageTimeout, Limit: cfg.MaxImages, Dir: cfg.ImageDir})
	}
	return s
}

// PublishNote runs the whole flow: credential check, image download,
// platform publish with retry, and cleanup of every downloaded file
func (s *Svc) PublishNote(ctx context.Context, rawCookie string, in domain.PublishInput) (domain.PublishResult, error) {
	if s.cfg.SignBaseURL == "" {
		return domain.PublishResult{}, domain.ErrConfiguration(
			"signing service address is not configured",
			"set PUBLISH_SIGN_SERVER_URL to an external signature service",
		)
	}

	cred, missing := s.cfg.CookiePolicy.Validate(rawCookie)
	if len(missing) > 0 {
		s.log.Warn().
			Str("cookie", cookie.Mask(rawCookie)).
			Strs("missing", missing).
			Msg("cookie rejected")
		return domain.PublishResult{}, domain.ErrCredential(
			"invalid cookie: missing required fields",
			"cookie must contain: "+strings.Join(s.cfg.CookiePolicy.Required, ", "),
			"get a complete cookie from xiaohongshu.com while logged in",
		)
	}

	title := notefmt.Clean(in.Title)
	content := notefmt.Clean(in.Content)
	if !notefmt.ContentOK(content) {
		return domain.PublishResult{}, s.audited(in, domain.ErrValidation(
			fmt.Sprintf("content must be at least %d characters", notefmt.MinContentRunes),
		))
	}

	acq := s.newAcquirer()
	defer acq.Release()

	assets := acq.Acquire(ctx, in.URLs())
	if len(assets) == 0 {
		return domain.PublishResult{}, s.audited(in, domain.ErrValidation(
			"at least one image is required for a note",
		))
	}
	files := make([]string, len(assets))
	for i, a := range assets {
		files[i] = a.Path
	}

	title, truncated := notefmt.TruncateTitle(title)
	if truncated {
		s.log.Warn().Str("title", title).Msg("title truncated")
	}

	creator := s.newCreator(s.newSigner(cred))

	var data map[string]any
	policy := retry.Policy{
		MaxAttempts: s.cfg.MaxAttempts,
		Backoff:     retry.Exponential(s.cfg.BackoffBase, 0),
		Retryable:   func(error) bool { return true },
		Sleep:       s.sleep,
	}
	err := policy.Do(ctx, func(attempt int) error {
		s.log.Info().
			Int("attempt", attempt).
			Int("images", len(files)).
			Bool("private", in.IsPrivate).
			Msg("publishing note")
		var cerr error
		data, cerr = creator.CreateImageNote(ctx, title, content, files, in.IsPrivate)
		return cerr
	})
	if err != nil {
		return domain.PublishResult{}, s.audited(in, s.failureFrom(err))
	}

	id := noteIDFrom(data)
	if id == "" {
		s.log.Error().Any("data", data).Msg("publish response carried no note id")
		return domain.PublishResult{}, s.audited(in, domain.ErrResultShape(
			"publish succeeded but the response carried no note id",
		))
	}

	res := domain.PublishResult{Success: true, NoteID: id, NoteURL: noteBaseURL + id}
	s.log.Info().Str("note_id", res.NoteID).Str("note_url", res.NoteURL).Msg("note published")
	s.auditRecord(repo.Row{NoteID: id, Title: title, Success: true, ImageCount: len(files)})
	return res, nil
}

// AuditSummary reads the publish audit trail back for operators
func (s *Svc) AuditSummary(ctx context.Context, limit int) (domain.AuditSummary, error) {
	if s.audit == nil {
		return domain.AuditSummary{}, domain.ErrConfiguration(
			"publish auditing is not enabled",
			"set PUBLISH_AUDIT=true and configure postgres to keep an audit trail",
		)
	}
	total, failures, err := s.audit.Counts(ctx)
	if err != nil {
		return domain.AuditSummary{}, domain.ErrUpstream(err)
	}
	rows, err := s.audit.Recent(ctx, limit)
	if err != nil {
		return domain.AuditSummary{}, domain.ErrUpstream(err)
	}
	out := domain.AuditSummary{
		Total:    total,
		Failures: failures,
		Recent:   make([]domain.AuditEntry, len(rows)),
	}
	for i, e := range rows {
		out.Recent[i] = domain.AuditEntry{
			NoteID:     e.NoteID,
			Title:      e.Title,
			Success:    e.Success,
			ErrorType:  e.ErrorType,
			XHSCode:    e.XHSCode,
			ImageCount: e.ImageCount,
			CreatedAt:  e.CreatedAt,
		}
	}
	return out, nil
}

// failureFrom turns an adapter error into the matching publish error
func (s *Svc) failureFrom(err error) *domain.PublishError {
	if cls, ok := classify.Classify(err); ok {
		s.log.Error().
			Int("xhs_code", cls.Code).
			Str("xhs_msg", cls.Msg).
			Msg("platform rejected the note")
		return domain.ErrPlatform(err, cls.Code, cls.Msg, cls.Suggestions)
	}
	s.log.Error().Err(err).Msg("publish failed after retries")
	return domain.ErrUpstream(err)
}

// audited records a failed outcome before handing the error back
func (s *Svc) audited(in domain.PublishInput, perr *domain.PublishError) *domain.PublishError {
	row := repo.Row{Title: in.Title, ErrorType: perr.Kind, XHSCode: perr.XHSCode, ImageCount: len(in.URLs())}
	s.auditRecord(row)
	return perr
}

// auditRecord writes one audit row; failures are logged, never surfaced
func (s *Svc) auditRecord(row repo.Row) {
	if s.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.audit.Record(ctx, row); err != nil {
		s.log.Warn().Err(err).Msg("publish audit write failed")
	}
}

// noteIDFrom digs the identifier out of the platform response, which
// uses note_id or id depending on upstream version. The id is usually
// a string but some responses carry it as a bare number
func noteIDFrom(data map[string]any) string {
	for _, key := range []string{"note_id", "id"} {
		switch v := data[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
