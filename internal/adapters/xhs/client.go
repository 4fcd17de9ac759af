// Package xhs implements the content platform's image note creation flow
//
// every signed call goes through the attempt's Signer so the platform
// sees a consistent x-s/x-t pair per request
package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"noterelay/internal/adapters/sign"
	"noterelay/internal/core/cookie"
	perr "noterelay/internal/platform/errors"
	"noterelay/internal/platform/logger"
)

const (
	defaultBaseURL    = "https://edith.xiaohongshu.com"
	defaultUploadURL  = "https://ros-upload.xiaohongshu.com"
	defaultTimeout    = 60 * time.Second
	defaultUserAgent  = "noterelay"
	creatorUploadPath = "/api/sns/web/v1/upload/permit"
	noteCreatePath    = "/api/sns/web/v1/note"
)

// Signer is the signing surface the client needs per outbound call
type Signer interface {
	Sign(ctx context.Context, uri string, payload any) (sign.Signature, error)
	Credential() cookie.Credential
}

// Options configures the Client
type Options struct {
	BaseURL   string
	UploadURL string
	UserAgent string
	Timeout   time.Duration
}

// Client drives the platform's multi step image note protocol
type Client struct {
	http   *http.Client
	opts   Options
	signer Signer
	log    logger.Logger
}

// NewClient builds a Client bound to one attempt's signer
func NewClient(o Options, signer Signer) *Client {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.UploadURL == "" {
		o.UploadURL = defaultUploadURL
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http:   &http.Client{Timeout: o.Timeout},
		opts:   o,
		signer: signer,
		log:    *logger.Named("xhs"),
	}
}

// CreateImageNote uploads each local file and creates the note
// it returns the platform's raw data payload, which carries the new
// note's identifier under note_id or id depending on upstream version
func (c *Client) CreateImageNote(
	ctx context.Context, title, desc string, files []string, isPrivate bool,
) (map[string]any, error) {
	infos := make([]imageInfo, 0, len(files))
	for i, f := range files {
		info, err := c.uploadImage(ctx, f)
		if err != nil {
			return nil, perr.Wrapf(err, perr.CodeOf(err), "image %d upload failed", i+1)
		}
		infos = append(infos, info)
	}

	body := createNoteRequest{
		Common: noteCommon{
			Type:   "normal",
			NoteID: "",
			Source: noteSource(),
			Title:  title,
			Desc:   desc,
			PrivacyInfo: privacyInfo{
				OpType: 1,
				Type:   boolToInt(isPrivate),
			},
		},
		ImageInfo: noteImageInfo{Images: infos},
	}

	data, err := c.signedJSON(ctx, noteCreatePath, body)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// uploadImage obtains a one file upload permit then pushes the bytes
func (c *Client) uploadImage(ctx context.Context, path string) (imageInfo, error) {
	permitBody := permitRequest{Biz: "spectrum", FileCount: 1, Scene: "image", Version: "1"}
	data, err := c.signedJSON(ctx, creatorUploadPath, permitBody)
	if err != nil {
		return imageInfo{}, err
	}
	permit, err := permitFrom(data)
	if err != nil {
		return imageInfo{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return imageInfo{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "read local image")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.opts.UploadURL+"/"+permit.FileID, bytes.NewReader(raw))
	if err != nil {
		return imageInfo{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "upload new request failed")
	}
	req.Header.Set("X-Cos-Security-Token", permit.Token)
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return imageInfo{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "image upload failed")
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return imageInfo{}, perr.Newf(perr.ErrorCodeUnavailable, "image upload status %d", resp.StatusCode)
	}

	c.log.Debug().Str("file_id", permit.FileID).Msg("image uploaded")
	return imageInfo{FileID: permit.FileID, Width: 0, Height: 0, Metadata: map[string]any{"source": -1}}, nil
}

// signedJSON signs and POSTs a JSON body to the platform API and
// unwraps the standard {code,msg,data} envelope
func (c *Client) signedJSON(ctx context.Context, uri string, payload any) (map[string]any, error) {
	sig, err := c.signer.Sign(ctx, uri, payload)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "platform payload marshal failed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+uri, bytes.NewReader(raw))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "platform new request failed")
	}

	cred := c.signer.Credential()
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("X-S", sig.XS)
	req.Header.Set("X-T", sig.XT)
	req.Header.Set("Cookie", fmt.Sprintf("a1=%s; web_session=%s; webId=%s", cred.A1, cred.WebSession, cred.WebID))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "platform call failed")
	}
	defer drainAndClose(resp.Body)

	var envelope struct {
		Code    *int           `json:"code"`
		Success bool           `json:"success"`
		Msg     string         `json:"msg"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "platform response not JSON (status %d)", resp.StatusCode)
	}
	if envelope.Code != nil && *envelope.Code != 0 {
		return nil, &PlatformError{Code: *envelope.Code, Msg: envelope.Msg}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "platform status %d", resp.StatusCode)
	}
	return envelope.Data, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func noteSource() string {
	return `{"type":"web","ids":"","extraInfo":"{\"subType\":\"official\"}"}`
}

func drainAndClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 4096))
	_ = rc.Close()
}
