package sendgrid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yungbote/missions-backend/internal/platform/httpx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

const mailSendEndpoint = "/v3/mail/send"

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int

	// HTTPClient defaults to a client with no overall timeout; each send is
	// bounded by Timeout through its context instead.
	HTTPClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing sendgrid api key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &client{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: hc,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type EmailAddress struct {
	Email string
	Name  string
}

type Attachment struct {
	Filename    string
	MIMEType    string
	Content     []byte
	Disposition string
}

type SendEmailRequest struct {
	From        EmailAddress
	To          []EmailAddress
	Subject     string
	Text        string
	HTML        string
	Categories  []string
	Attachments []Attachment
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

type errorItem struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
}

type errorResponse struct {
	Errors []errorItem `json:"errors"`
}

// HTTPError is a non-2xx reply from the mail send endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []errorItem
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "sendgrid: <nil error>"
	}
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	m, err := c.buildMail(req)
	if err != nil {
		return nil, err
	}
	body := sgmail.GetRequestBody(m)

	backoff := 1 * time.Second
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := c.doOnce(ctx, body)
		if err == nil {
			return &SendEmailResult{
				StatusCode: resp.StatusCode,
				MessageID:  strings.TrimSpace(http.Header(resp.Headers).Get("X-Message-Id")),
			}, nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		var headers map[string][]string
		if resp != nil {
			headers = resp.Headers
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfter(headers, backoff, 10*time.Second))
		c.log.Warn("Sendgrid request retrying",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, errors.New("unreachable retry loop")
}

func (c *client) buildMail(req SendEmailRequest) (*sgmail.SGMailV3, error) {
	from := req.From
	if strings.TrimSpace(from.Email) == "" {
		from = EmailAddress{Email: c.cfg.DefaultFromEmail, Name: c.cfg.DefaultFromName}
	}
	from.Email = strings.TrimSpace(from.Email)
	if from.Email == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set a default from address)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: To required")
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, fmt.Errorf("sendgrid: Subject required")
	}
	text := strings.TrimSpace(req.Text)
	html := strings.TrimSpace(req.HTML)
	if text == "" && html == "" {
		return nil, fmt.Errorf("sendgrid: Text or HTML content required")
	}

	p := sgmail.NewPersonalization()
	p.Subject = subject
	for _, to := range req.To {
		p.AddTos(sgmail.NewEmail(strings.TrimSpace(to.Name), strings.TrimSpace(to.Email)))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(strings.TrimSpace(from.Name), from.Email))
	m.Subject = subject
	m.AddPersonalizations(p)
	if text != "" {
		m.AddContent(sgmail.NewContent("text/plain", text))
	}
	if html != "" {
		m.AddContent(sgmail.NewContent("text/html", html))
	}
	if len(req.Categories) > 0 {
		m.AddCategories(req.Categories...)
	}
	for _, a := range req.Attachments {
		att, err := buildAttachment(a)
		if err != nil {
			return nil, err
		}
		m.AddAttachment(att)
	}
	return m, nil
}

func buildAttachment(a Attachment) (*sgmail.Attachment, error) {
	fn := strings.TrimSpace(a.Filename)
	if fn == "" {
		return nil, fmt.Errorf("sendgrid: attachment filename required")
	}
	if len(a.Content) == 0 {
		return nil, fmt.Errorf("sendgrid: attachment %q missing content", fn)
	}
	disposition := strings.TrimSpace(a.Disposition)
	if disposition == "" {
		disposition = "attachment"
	}
	return &sgmail.Attachment{
		Content:     base64.StdEncoding.EncodeToString(a.Content),
		Type:        strings.TrimSpace(a.MIMEType),
		Filename:    fn,
		Disposition: disposition,
	}, nil
}

func (c *client) doOnce(ctx context.Context, body []byte) (*rest.Response, error) {
	request := sg.GetRequest(c.cfg.APIKey, mailSendEndpoint, c.cfg.BaseURL)
	request.Method = rest.Post
	request.Body = body

	req, err := rest.BuildRequestObject(request)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: build request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	res, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, err := rest.BuildResponse(res)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
		var er errorResponse
		if json.Unmarshal([]byte(resp.Body), &er) == nil && len(er.Errors) > 0 {
			he.Errors = er.Errors
		}
		return resp, he
	}
	return resp, nil
}
