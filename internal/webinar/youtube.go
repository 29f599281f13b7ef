package webinar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "go-gin-event-ticketing/pkg/app_errors"
)

// Provider 外部直播平台。每個呼叫只做一次，失敗直接往上回報，不自動重試
type Provider interface {
	CreateLiveStream(ctx context.Context, accessToken string, in StreamInput) (*LiveStream, error)
	CreateLiveBroadcast(ctx context.Context, accessToken string, in BroadcastInput) (*LiveBroadcast, error)
	ListChatMessages(ctx context.Context, accessToken string, chatID string) (json.RawMessage, error)
	InsertChatMessage(ctx context.Context, accessToken string, chatID string, text string) (json.RawMessage, error)
}

type StreamInput struct {
	Title       string
	Description string
}

type BroadcastInput struct {
	Title       string
	Description string
	StreamID    string
	StartTime   time.Time
	EndTime     time.Time
}

type LiveStream struct {
	ID  string          `json:"id"`
	Raw json.RawMessage `json:"-"`
}

type LiveBroadcast struct {
	ID      string `json:"id"`
	Snippet struct {
		LiveChatID string `json:"liveChatId"`
	} `json:"snippet"`
	Raw json.RawMessage `json:"-"`
}

// ProviderError 保留平台回傳的狀態碼與 body，對外一律歸類為 UPSTREAM_ERROR
type ProviderError struct {
	Status int
	Body   json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("video provider returned status %d", e.Status)
}

func (e *ProviderError) Unwrap() error {
	return apperrors.ErrUpstream
}

const chatPageSize = 50

type YouTubeClient struct {
	client  *http.Client
	baseURL string
}

func NewYouTubeClient(baseURL string, timeout time.Duration) *YouTubeClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YouTubeClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *YouTubeClient) CreateLiveStream(ctx context.Context, accessToken string, in StreamInput) (*LiveStream, error) {
	body := map[string]interface{}{
		"snippet": map[string]string{
			"title":       in.Title,
			"description": in.Description,
		},
		"cdn": map[string]string{
			"frameRate":     "variable",
			"resolution":    "variable",
			"ingestionType": "rtmp",
		},
		"contentDetails": map[string]bool{
			"isReusable": true,
		},
	}
	params := url.Values{"part": {"snippet,cdn,contentDetails"}}

	raw, err := c.do(ctx, http.MethodPost, "/liveStreams", params, accessToken, body)
	if err != nil {
		return nil, err
	}
	var stream LiveStream
	if err := json.Unmarshal(raw, &stream); err != nil {
		return nil, fmt.Errorf("decode live stream: %w", apperrors.ErrUpstream)
	}
	stream.Raw = raw
	return &stream, nil
}

func (c *YouTubeClient) CreateLiveBroadcast(ctx context.Context, accessToken string, in BroadcastInput) (*LiveBroadcast, error) {
	body := map[string]interface{}{
		"snippet": map[string]string{
			"title":              in.Title,
			"description":        in.Description,
			"scheduledStartTime": in.StartTime.UTC().Format(time.RFC3339),
			"scheduledEndTime":   in.EndTime.UTC().Format(time.RFC3339),
		},
		"contentDetails": map[string]interface{}{
			"boundStreamId":   in.StreamID,
			"enableAutoStart": true,
			"enableAutoStop":  true,
		},
		"status": map[string]string{
			"privacyStatus": "private",
		},
	}
	params := url.Values{"part": {"snippet,contentDetails,status"}}

	raw, err := c.do(ctx, http.MethodPost, "/liveBroadcasts", params, accessToken, body)
	if err != nil {
		return nil, err
	}
	var broadcast LiveBroadcast
	if err := json.Unmarshal(raw, &broadcast); err != nil {
		return nil, fmt.Errorf("decode live broadcast: %w", apperrors.ErrUpstream)
	}
	broadcast.Raw = raw
	return &broadcast, nil
}

func (c *YouTubeClient) ListChatMessages(ctx context.Context, accessToken string, chatID string) (json.RawMessage, error) {
	params := url.Values{
		"part":       {"snippet,authorDetails"},
		"liveChatId": {chatID},
		"maxResults": {fmt.Sprint(chatPageSize)},
	}
	return c.do(ctx, http.MethodGet, "/liveChat/messages", params, accessToken, nil)
}

func (c *YouTubeClient) InsertChatMessage(ctx context.Context, accessToken string, chatID string, text string) (json.RawMessage, error) {
	body := map[string]interface{}{
		"snippet": map[string]interface{}{
			"liveChatId": chatID,
			"type":       "textMessageEvent",
			"textMessageDetails": map[string]string{
				"messageText": text,
			},
		},
	}
	params := url.Values{"part": {"snippet"}}
	return c.do(ctx, http.MethodPost, "/liveChat/messages", params, accessToken, body)
}

func (c *YouTubeClient) do(ctx context.Context, method, path string, params url.Values, accessToken string, payload interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, apperrors.ErrUpstream)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %v: %w", err, apperrors.ErrUpstream)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{Status: resp.StatusCode, Body: asJSON(body)}
	}
	return asJSON(body), nil
}

// asJSON 非 JSON 的內容包成字串，確保可以原樣回傳給前端
func asJSON(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

// IsProviderError 取出平台錯誤細節
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
