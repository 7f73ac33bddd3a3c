package translator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	translate "cloud.google.com/go/translate"
	"golang.org/x/oauth2/google"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/valpere/lingobot/internal/lang"
)

// Google calls the Cloud Translation v2 API. The client is dialled on first
// use and kept until Close.
type Google struct {
	credentials string
	project     string
	findDefault func(ctx context.Context, scopes ...string) (*google.Credentials, error)

	mu     sync.Mutex
	client *translate.Client
}

// NewGoogle takes a service-account file and a quota project, both optional;
// empty values fall back to application default credentials.
func NewGoogle(credentials, project string) *Google {
	return &Google{
		credentials: credentials,
		project:     project,
		findDefault: google.FindDefaultCredentials,
	}
}

func (s *Google) Name() string { return "google" }

func (s *Google) Languages() []lang.Tag { return nil }

const translateScope = "https://www.googleapis.com/auth/cloud-translation"

// Ready reports whether credentials can be found the way the client looks
// for them: the configured file, then application default credentials
// (GOOGLE_APPLICATION_CREDENTIALS, gcloud, the metadata server). It does
// not call the API.
func (s *Google) Ready(ctx context.Context) error {
	if s.credentials != "" {
		if _, err := os.Stat(s.credentials); err != nil {
			return fmt.Errorf("google credentials: %w", err)
		}
		return nil
	}
	if _, err := s.findDefault(ctx, translateScope); err != nil {
		return fmt.Errorf("google credentials not found: %w", err)
	}
	return nil
}

func (s *Google) dial(ctx context.Context) (*translate.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	var opts []option.ClientOption
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	if s.project != "" {
		opts = append(opts, option.WithQuotaProject(s.project))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *Google) Translate(ctx context.Context, req Request) (*Result, error) {
	res, began := start(s.Name())

	target, err := language.Parse(string(req.Target))
	if err != nil {
		return res.fail(began, fmt.Errorf("invalid target language: %w", err))
	}
	client, err := s.dial(ctx)
	if err != nil {
		return res.fail(began, err)
	}

	opts := &translate.Options{Format: translate.Text}
	if source, err := language.Parse(string(req.Source)); err == nil {
		opts.Source = source
	}

	out, err := client.Translate(ctx, []string{req.Text}, target, opts)
	if err != nil {
		return res.fail(began, fmt.Errorf("translation failed: %w", err))
	}
	if len(out) == 0 {
		return res.fail(began, errors.New("no translation returned"))
	}
	return res.done(began, out[0].Text)
}

func (s *Google) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
