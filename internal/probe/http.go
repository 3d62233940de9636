package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/PaesslerAG/jsonpath"

	"github.com/readygate/readygate/internal/target"
)

// maxProbeBodyBytes caps how much of a readiness response body is read when
// a body assertion is configured. Health endpoints return small documents;
// anything larger is truncated before decoding.
const maxProbeBodyBytes = 1 << 20

// httpProber considers its target ready when a GET returns an acceptable
// status and, optionally, a JSON body whose BodyPath yields BodyValue.
type httpProber struct {
	tgt          target.Target
	client       *http.Client
	expectStatus int
	bodyPath     string
	bodyValue    string
}

func newHTTPProber(t target.Target, opts Options) (*httpProber, error) {
	if opts.BodyPath != "" {
		if err := validateBodyPath(opts.BodyPath); err != nil {
			return nil, fmt.Errorf("probe %s: %w", t, err)
		}
	}
	if opts.ExpectStatus != 0 && (opts.ExpectStatus < 100 || opts.ExpectStatus > 599) {
		return nil, fmt.Errorf("probe %s: expected status must be a valid HTTP status, got %d", t, opts.ExpectStatus)
	}

	// Keep-alives are disabled so repeated attempts against a server that is
	// still wiring itself up do not pin a half-ready connection.
	transport := &http.Transport{
		DisableKeepAlives: true,
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &httpProber{
		tgt: t,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		expectStatus: opts.ExpectStatus,
		bodyPath:     opts.BodyPath,
		bodyValue:    opts.BodyValue,
	}, nil
}

func (p *httpProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tgt.URL(), nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", p.tgt, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", p.tgt, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if err := p.checkStatus(resp.StatusCode); err != nil {
		return err
	}
	if p.bodyPath == "" {
		return nil
	}
	return p.checkBody(resp.Body)
}

func (p *httpProber) checkStatus(code int) error {
	if p.expectStatus != 0 {
		if code != p.expectStatus {
			return fmt.Errorf("get %s: status %d, want %d", p.tgt, code, p.expectStatus)
		}
		return nil
	}
	if code < 200 || code > 399 {
		return fmt.Errorf("get %s: status %d", p.tgt, code)
	}
	return nil
}

func (p *httpProber) checkBody(body io.Reader) error {
	raw, err := io.ReadAll(io.LimitReader(body, maxProbeBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s body: %w", p.tgt, err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode %s body: %w", p.tgt, err)
	}

	got, err := jsonpath.Get(p.bodyPath, doc)
	if err != nil {
		// The path was validated at construction, so a failure here means
		// the document does not (yet) contain it.
		return fmt.Errorf("evaluate %q against %s body: %w", p.bodyPath, p.tgt, err)
	}
	if rendered := fmt.Sprint(got); rendered != p.bodyValue {
		return fmt.Errorf("body path %q yields %q, want %q", p.bodyPath, rendered, p.bodyValue)
	}
	return nil
}

func (p *httpProber) Target() target.Target { return p.tgt }
