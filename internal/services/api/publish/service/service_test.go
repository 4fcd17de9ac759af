package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"noterelay/internal/adapters/images"
	"noterelay/internal/adapters/xhs"
	"noterelay/internal/services/api/publish/domain"
	"noterelay/internal/services/api/publish/repo"
)

const validCookie = "a1=X;web_session=Y;webId=Z"

type fakeAcquirer struct {
	assets   []images.Asset
	released int
}

func (f *fakeAcquirer) Acquire(_ context.Context, urls []string) []images.Asset {
	if len(f.assets) > len(urls) {
		return f.assets[:len(urls)]
	}
	return f.assets
}

func (f *fakeAcquirer) Release() { f.released++ }

type fakeCreator struct {
	calls      int
	data       map[string]any
	err        error
	gotTitle   string
	gotDesc    string
	gotFiles   []string
	gotPrivate bool
}

func (f *fakeCreator) CreateImageNote(
	_ context.Context, title, desc string, files []string, isPrivate bool,
) (map[string]any, error) {
	f.calls++
	f.gotTitle, f.gotDesc, f.gotFiles, f.gotPrivate = title, desc, files, isPrivate
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeAudit struct {
	rows []repo.Row

	entries  []repo.Entry
	total    int64
	failures int64
	readErr  error
	gotLimit int
}

func (f *fakeAudit) Record(_ context.Context, rec repo.Row) error {
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeAudit) Recent(_ context.Context, limit int) ([]repo.Entry, error) {
	f.gotLimit = limit
	return f.entries, f.readErr
}

func (f *fakeAudit) Counts(context.Context) (int64, int64, error) {
	return f.total, f.failures, f.readErr
}

func newTestSvc(t *testing.T, creator *fakeCreator, acq *fakeAcquirer, audit repo.Repo) *Svc {
	t.Helper()
	s := New(Config{SignBaseURL: "http://sign.local", BackoffBase: time.Millisecond}, audit)
	s.sleep = func(time.Duration) {}
	s.newCreator = func(xhs.Signer) NoteCreator { return creator }
	s.newAcquirer = func() ImageSource { return acq }
	return s
}

func asPublishError(err error, target **domain.PublishError) bool { return errors.As(err, target) }

func oneAsset() *fakeAcquirer {
	return &fakeAcquirer{assets: []images.Asset{{URL: "https://img/a.jpg", Path: "/tmp/a.jpg", Ext: ".jpg"}}}
}

func TestPublishNoteHappyPath(t *testing.T) {
	creator := &fakeCreator{data: map[string]any{"note_id": "abc123"}}
	acq := oneAsset()
	audit := &fakeAudit{}
	s := newTestSvc(t, creator, acq, audit)

	in := domain.PublishInput{Title: "Hello World", Content: "Testing the pipeline", ImageURL: "https://img/a.jpg"}
	res, err := s.PublishNote(context.Background(), validCookie, in)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !res.Success || res.NoteID != "abc123" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.NoteURL != "https://www.xiaohongshu.com/explore/abc123" {
		t.Fatalf("unexpected note url %q", res.NoteURL)
	}
	if creator.calls != 1 {
		t.Fatalf("creator called %d times, want 1", creator.calls)
	}
	if creator.gotTitle != "Hello World" || creator.gotDesc != "Testing the pipeline" || creator.gotPrivate {
		t.Fatalf("creator saw %q %q private=%v", creator.gotTitle, creator.gotDesc, creator.gotPrivate)
	}
	if len(creator.gotFiles) != 1 || creator.gotFiles[0] != "/tmp/a.jpg" {
		t.Fatalf("creator saw files %v", creator.gotFiles)
	}
	if acq.released != 1 {
		t.Fatalf("acquirer released %d times, want 1", acq.released)
	}
	if len(audit.rows) != 1 || !audit.rows[0].Success || audit.rows[0].NoteID != "abc123" {
		t.Fatalf("audit rows %+v", audit.rows)
	}
}

func TestPublishNoteTruncatesLongTitle(t *testing.T) {
	creator := &fakeCreator{data: map[string]any{"id": "n1"}}
	s := newTestSvc(t, creator, oneAsset(), nil)

	in := domain.PublishInput{
		Title:    "this title is definitely too long",
		Content:  "long enough",
		ImageURL: "https://img/a.jpg",
	}
	res, err := s.PublishNote(context.Background(), validCookie, in)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if res.NoteID != "n1" {
		t.Fatalf("id fallback key not honored: %+v", res)
	}
	if got := len([]rune(creator.gotTitle)); got != 20 {
		t.Fatalf("creator saw %d rune title %q, want 20", got, creator.gotTitle)
	}
}

func TestPublishNoteUnconfiguredSignService(t *testing.T) {
	s := New(Config{}, nil)
	_, err := s.PublishNote(context.Background(), validCookie, domain.PublishInput{Title: "t", Content: "abcd"})
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Kind != domain.KindConfiguration || pe.Status != 500 {
		t.Fatalf("want configuration failure, got %v", err)
	}
}

func TestPublishNoteRejectsIncompleteCookie(t *testing.T) {
	creator := &fakeCreator{}
	acq := oneAsset()
	s := newTestSvc(t, creator, acq, nil)

	_, err := s.PublishNote(context.Background(), "a1=only", domain.PublishInput{Title: "t", Content: "abcd"})
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Status != 401 {
		t.Fatalf("want 401 credential failure, got %v", err)
	}
	if creator.calls != 0 || acq.released != 0 {
		t.Fatalf("credential failure must not reach the network")
	}
}

func TestPublishNoteRejectsShortContent(t *testing.T) {
	creator := &fakeCreator{}
	acq := oneAsset()
	s := newTestSvc(t, creator, acq, nil)

	_, err := s.PublishNote(context.Background(), validCookie, domain.PublishInput{Title: "t", Content: "abc"})
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Kind != domain.KindValidation || pe.Status != 400 {
		t.Fatalf("want validation failure, got %v", err)
	}
	if creator.calls != 0 {
		t.Fatalf("short content must not reach the network")
	}
}

func TestPublishNoteRequiresAnImage(t *testing.T) {
	creator := &fakeCreator{}
	acq := &fakeAcquirer{}
	s := newTestSvc(t, creator, acq, nil)

	in := domain.PublishInput{Title: "t", Content: "abcd", ImageURL: "https://img/broken.jpg"}
	_, err := s.PublishNote(context.Background(), validCookie, in)
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Status != 400 {
		t.Fatalf("want 400 without images, got %v", err)
	}
	if creator.calls != 0 {
		t.Fatalf("no creator call without images")
	}
	if acq.released != 1 {
		t.Fatalf("acquirer must still be released")
	}
}

func TestPublishNoteRetriesThenClassifiesRejection(t *testing.T) {
	creator := &fakeCreator{err: &xhs.PlatformError{Code: -100, Msg: "no login"}}
	acq := oneAsset()
	audit := &fakeAudit{}
	s := newTestSvc(t, creator, acq, audit)

	in := domain.PublishInput{Title: "t", Content: "abcd", ImageURL: "https://img/a.jpg"}
	_, err := s.PublishNote(context.Background(), validCookie, in)
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Kind != domain.KindPlatform {
		t.Fatalf("want platform rejection, got %v", err)
	}
	if pe.XHSCode == nil || *pe.XHSCode != -100 || len(pe.Suggestions) == 0 {
		t.Fatalf("rejection not enriched: %+v", pe)
	}
	if creator.calls != 3 {
		t.Fatalf("creator called %d times, want 3", creator.calls)
	}
	if acq.released != 1 {
		t.Fatalf("files must be released after a failed publish")
	}
	if len(audit.rows) != 1 || audit.rows[0].Success || audit.rows[0].ErrorType != domain.KindPlatform {
		t.Fatalf("audit rows %+v", audit.rows)
	}
}

func TestPublishNoteMissingIdentifierIsNotRetried(t *testing.T) {
	creator := &fakeCreator{data: map[string]any{"something_else": "x"}}
	s := newTestSvc(t, creator, oneAsset(), nil)

	in := domain.PublishInput{Title: "t", Content: "abcd", ImageURL: "https://img/a.jpg"}
	_, err := s.PublishNote(context.Background(), validCookie, in)
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Kind != domain.KindResultShape {
		t.Fatalf("want result shape failure, got %v", err)
	}
	if creator.calls != 1 {
		t.Fatalf("a successful adapter call is never retried, got %d calls", creator.calls)
	}
}

func TestPublishNoteAcceptsNumericIdentifier(t *testing.T) {
	creator := &fakeCreator{data: map[string]any{"note_id": float64(7100)}}
	s := newTestSvc(t, creator, oneAsset(), nil)

	in := domain.PublishInput{Title: "t", Content: "abcd", ImageURL: "https://img/a.jpg"}
	res, err := s.PublishNote(context.Background(), validCookie, in)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if res.NoteID != "7100" || res.NoteURL != "https://www.xiaohongshu.com/explore/7100" {
		t.Fatalf("numeric id not honored: %+v", res)
	}
}

func TestAuditSummaryRequiresAuditing(t *testing.T) {
	s := newTestSvc(t, &fakeCreator{}, oneAsset(), nil)
	_, err := s.AuditSummary(context.Background(), 20)
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Kind != domain.KindConfiguration {
		t.Fatalf("want configuration failure without audit repo, got %v", err)
	}
}

func TestAuditSummaryMapsEntries(t *testing.T) {
	when := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	audit := &fakeAudit{
		total:    5,
		failures: 2,
		entries: []repo.Entry{
			{NoteID: "n1", Title: "ok note", Success: true, ImageCount: 2, CreatedAt: when},
			{Title: "bad note", ErrorType: domain.KindPlatform, XHSCode: -100, ImageCount: 1, CreatedAt: when},
		},
	}
	s := newTestSvc(t, &fakeCreator{}, oneAsset(), audit)

	sum, err := s.AuditSummary(context.Background(), 20)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 5 || sum.Failures != 2 || len(sum.Recent) != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if audit.gotLimit != 20 {
		t.Fatalf("limit not forwarded, got %d", audit.gotLimit)
	}
	if sum.Recent[0].NoteID != "n1" || !sum.Recent[0].Success {
		t.Fatalf("success entry mismatch: %+v", sum.Recent[0])
	}
	if sum.Recent[1].ErrorType != domain.KindPlatform || sum.Recent[1].XHSCode != -100 {
		t.Fatalf("failure entry mismatch: %+v", sum.Recent[1])
	}
}

func TestAuditSummaryWrapsStoreFailure(t *testing.T) {
	audit := &fakeAudit{readErr: errors.New("pg down")}
	s := newTestSvc(t, &fakeCreator{}, oneAsset(), audit)

	_, err := s.AuditSummary(context.Background(), 20)
	var pe *domain.PublishError
	if !asPublishError(err, &pe) || pe.Kind != domain.KindTransient {
		t.Fatalf("want transient failure, got %v", err)
	}
}

func TestNoteIDFrom(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want string
	}{
		{"primary key", map[string]any{"note_id": "a"}, "a"},
		{"fallback key", map[string]any{"id": "b"}, "b"},
		{"primary wins", map[string]any{"note_id": "a", "id": "b"}, "a"},
		{"empty string ignored", map[string]any{"note_id": "", "id": "b"}, "b"},
		{"numeric id accepted", map[string]any{"note_id": float64(7)}, "7"},
		{"large numeric id keeps digits", map[string]any{"id": float64(1234567890123)}, "1234567890123"},
		{"wrong type ignored", map[string]any{"note_id": true}, ""},
		{"absent", map[string]any{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := noteIDFrom(tc.data); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
