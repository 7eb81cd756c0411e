// internal/inline/inliner.go
package inline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/h2non/filetype"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/domsvg/internal/config"
)

var (
	// ErrUnexpectedContentType is returned for resources whose media type
	// does not match what the referencing element expects.
	ErrUnexpectedContentType = errors.New("unexpected content type")
	// ErrTooLarge is returned for resources larger than the configured limit.
	ErrTooLarge = errors.New("resource exceeds size limit")
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// Report summarizes one inlining pass. Failures never abort the pass; the
// affected references are left pointing at their original URL.
type Report struct {
	Inlined int
	Failed  int
	// Err combines every failure with multierr.
	Err error
}

// Errors returns the individual failures.
func (r Report) Errors() []error {
	return multierr.Errors(r.Err)
}

func (r *Report) merge(other Report) {
	r.Inlined += other.Inlined
	r.Failed += other.Failed
	r.Err = multierr.Append(r.Err, other.Err)
}

// Inliner replaces remote resource references with data URIs.
type Inliner struct {
	cfg     config.InlineConfig
	client  *http.Client
	limiter *rate.Limiter
	base    *url.URL
	logger  *zap.Logger
}

// Option configures an Inliner.
type Option func(*Inliner)

// WithHTTPClient sets the client used for fetching. Its transport is wrapped
// to handle compressed responses.
func WithHTTPClient(c *http.Client) Option {
	return func(in *Inliner) {
		in.client = c
	}
}

// WithBaseURL sets the URL relative references resolve against.
func WithBaseURL(u *url.URL) Option {
	return func(in *Inliner) {
		in.base = u
	}
}

// New creates an Inliner for cfg.
func New(cfg config.InlineConfig, logger *zap.Logger, opts ...Option) *Inliner {
	if logger == nil {
		logger = zap.NewNop()
	}
	in := &Inliner{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger.Named("inliner"),
	}
	for _, opt := range opts {
		opt(in)
	}

	client := *in.client
	client.Transport = newDecompressingTransport(in.client.Transport)
	in.client = &client

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	in.limiter = rate.NewLimiter(limit, max(cfg.Concurrency, 1))
	return in
}

// Close releases idle connections.
func (in *Inliner) Close() {
	in.client.CloseIdleConnections()
}

// InlineResources embeds the target of every <image> href below root.
func (in *Inliner) InlineResources(ctx context.Context, root *etree.Element) Report {
	type ref struct {
		el  *etree.Element
		key string
	}
	refs := make(map[string][]ref)
	var order []string
	for _, img := range root.FindElements(".//image") {
		for _, a := range img.Attr {
			if a.Key != "href" || (a.Space != "" && a.Space != "xlink") {
				continue
			}
			if !isRemote(a.Value) {
				continue
			}
			if _, seen := refs[a.Value]; !seen {
				order = append(order, a.Value)
			}
			refs[a.Value] = append(refs[a.Value], ref{el: img, key: a.FullKey()})
		}
	}
	if len(order) == 0 {
		return Report{}
	}

	in.logger.Debug("Inlining images.", zap.Int("resources", len(order)))
	data, report := in.fetchAll(ctx, order, imageResource)
	for raw, uri := range data {
		for _, r := range refs[raw] {
			r.el.CreateAttr(r.key, uri)
		}
	}
	return report
}

// fetchAll downloads urls concurrently. The returned map holds a data URI
// for every URL that succeeded.
func (in *Inliner) fetchAll(ctx context.Context, urls []string, kind resourceKind) (map[string]string, Report) {
	var (
		mu      sync.Mutex
		results = make(map[string]string, len(urls))
		report  Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(in.cfg.Concurrency, 1))
	for _, raw := range urls {
		raw := raw
		g.Go(func() error {
			uri, err := in.fetch(gctx, raw, kind)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				in.logger.Warn("Failed to inline resource.", zap.String("url", raw), zap.String("kind", kind.name), zap.Error(err))
				report.Failed++
				report.Err = multierr.Append(report.Err, fmt.Errorf("%s: %w", raw, err))
				return nil
			}
			results[raw] = uri
			report.Inlined++
			return nil
		})
	}
	_ = g.Wait()
	return results, report
}

func (in *Inliner) fetch(ctx context.Context, raw string, kind resourceKind) (string, error) {
	u, err := in.resolve(raw)
	if err != nil {
		return "", err
	}
	if err := in.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if in.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", kind.accept)
	if in.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", in.cfg.UserAgent)
	}

	resp, err := in.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if in.cfg.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, in.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	if in.cfg.MaxBytes > 0 && int64(len(data)) > in.cfg.MaxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, in.cfg.MaxBytes)
	}

	mediaType, err := kind.mediaType(resp.Header.Get("Content-Type"), data)
	if err != nil {
		return "", err
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (in *Inliner) resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if in.base != nil {
		u = in.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return u, nil
}

// isRemote reports whether a reference still points outside the document.
func isRemote(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref != "" && !strings.HasPrefix(ref, "#") && !strings.HasPrefix(strings.ToLower(ref), "data:")
}

// resourceKind describes the media types acceptable for one kind of
// reference.
type resourceKind struct {
	name     string
	accept   string
	prefixes []string
	sniff    func([]byte) bool
}

var (
	imageResource = resourceKind{
		name:     "image",
		accept:   "image/*",
		prefixes: []string{"image/"},
		sniff:    filetype.IsImage,
	}
	fontResource = resourceKind{
		name:     "font",
		accept:   "font/*, application/font-woff;q=0.9, */*;q=0.1",
		prefixes: []string{"font/", "application/font-", "application/x-font-", "application/vnd.ms-fontobject"},
		sniff:    filetype.IsFont,
	}
)

// mediaType validates the declared Content-Type against the kind. Missing
// or generic binary types fall back to sniffing the content.
func (k resourceKind) mediaType(header string, data []byte) (string, error) {
	declared := ""
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil {
			declared = strings.ToLower(mt)
		}
	}

	switch declared {
	case "", "application/octet-stream", "binary/octet-stream":
		if k.sniff(data) {
			if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
				return t.MIME.Value, nil
			}
		}
		return "", fmt.Errorf("%w: could not identify %s content", ErrUnexpectedContentType, k.name)
	}

	for _, prefix := range k.prefixes {
		if strings.HasPrefix(declared, prefix) {
			return declared, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not a %s type", ErrUnexpectedContentType, declared, k.name)
}
