package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"resume-studio/internal/resume"
)

// GuestHeader carries an anonymous identity to the API.
const GuestHeader = "X-Guest-Id"

// HTTPClient talks to the resume API. Exactly one of Tokens or GuestID should
// be set; Tokens is asked for a fresh bearer token on every request.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  oauth2.TokenSource
	GuestID string
}

// NewHTTPClient builds a client for baseURL, e.g. http://localhost:8080/api/v1.
func NewHTTPClient(baseURL string, tokens oauth2.TokenSource, guestID string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Tokens:  tokens,
		GuestID: guestID,
	}
}

var _ Gateway = (*HTTPClient)(nil)

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type contentPayload struct {
	Content resume.Content `json:"content"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type historyPayload struct {
	Messages []Turn `json:"messages"`
}

type uploadPayload struct {
	resume.Attachment
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *HTTPClient) CreateDocument(ctx context.Context, ownerID, title string) (resume.Document, error) {
	var out resume.DocumentResponse
	if err := c.doJSON(ctx, ownerID, http.MethodPost, "/resumes", map[string]string{"title": title}, &out); err != nil {
		return resume.Document{}, err
	}
	return resume.FromResponse(out), nil
}

func (c *HTTPClient) LoadDocument(ctx context.Context, ownerID, docID string) (resume.Document, error) {
	var out resume.DocumentResponse
	if err := c.doJSON(ctx, ownerID, http.MethodGet, "/resumes/"+url.PathEscape(docID), nil, &out); err != nil {
		return resume.Document{}, err
	}
	return resume.FromResponse(out), nil
}

func (c *HTTPClient) SaveContent(ctx context.Context, ownerID, docID string, content resume.Content) (SaveResult, error) {
	var out SaveResult
	path := "/resumes/" + url.PathEscape(docID) + "/content"
	if err := c.doJSON(ctx, ownerID, http.MethodPut, path, contentPayload{Content: content}, &out); err != nil {
		return SaveResult{}, err
	}
	return out, nil
}

func (c *HTTPClient) ListChatTurns(ctx context.Context, ownerID, docID string, limit int) ([]Turn, error) {
	path := "/resumes/" + url.PathEscape(docID) + "/chat"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out historyPayload
	if err := c.doJSON(ctx, ownerID, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Messages == nil {
		out.Messages = []Turn{}
	}
	if limit > 0 && len(out.Messages) > limit {
		out.Messages = out.Messages[len(out.Messages)-limit:]
	}
	return out.Messages, nil
}

func (c *HTTPClient) SendChatTurn(ctx context.Context, ownerID, docID, text string) (Exchange, error) {
	var out Exchange
	path := "/resumes/" + url.PathEscape(docID) + "/chat"
	if err := c.doJSON(ctx, ownerID, http.MethodPost, path, messagePayload{Message: text}, &out); err != nil {
		return Exchange{}, err
	}
	return out, nil
}

func (c *HTTPClient) UploadAttachment(ctx context.Context, ownerID, docID string, file File) (resume.Attachment, error) {
	if file.Body == nil {
		return resume.Attachment{}, newError(KindValidation, "file is required", nil)
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return resume.Attachment{}, newError(KindValidation, "unable to encode file", err)
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return resume.Attachment{}, newError(KindValidation, "unable to read file", err)
	}
	if err := w.Close(); err != nil {
		return resume.Attachment{}, newError(KindValidation, "unable to encode file", err)
	}

	var out uploadPayload
	path := "/resumes/" + url.PathEscape(docID) + "/upload"
	if err := c.do(ctx, ownerID, http.MethodPost, path, w.FormDataContentType(), &body, &out); err != nil {
		return resume.Attachment{}, err
	}
	return out.Attachment, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, ownerID, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return newError(KindValidation, "unable to encode request", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, ownerID, method, path, contentType, body, out)
}

func (c *HTTPClient) do(ctx context.Context, ownerID, method, path, contentType string, body io.Reader, out any) error {
	if ownerID == "" {
		return newError(KindUnauthorized, "Sign in to continue.", nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return newError(KindValidation, "invalid request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(req); err != nil {
		return err
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return newError(KindUnavailable, "The service is unreachable. Please try again.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(KindUnavailable, "The service returned an unreadable response.", err)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) error {
	if c.Tokens != nil {
		tok, err := c.Tokens.Token()
		if err != nil {
			return newError(KindUnauthorized, "Unable to obtain a sign-in token.", err)
		}
		tok.SetAuthHeader(req)
		return nil
	}
	if c.GuestID != "" {
		req.Header.Set(GuestHeader, c.GuestID)
		return nil
	}
	return newError(KindUnauthorized, "Sign in to continue.", nil)
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body apiError
	message := ""
	if json.Unmarshal(raw, &body) == nil {
		message = body.Error.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	cause := errors.New(resp.Status)
	return newError(kindForStatus(resp.StatusCode), message, cause)
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindUnavailable
	}
}
