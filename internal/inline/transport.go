// internal/inline/transport.go
package inline

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"go.uber.org/multierr"
)

// Pooled readers for the two encodings servers use for almost everything.
var (
	gzipReaderPool = sync.Pool{
		New: func() interface{} { return new(gzip.Reader) },
	}
	brotliReaderPool = sync.Pool{
		New: func() interface{} { return brotli.NewReader(nil) },
	}
)

// decompressingTransport advertises br, gzip and deflate and decodes the
// response body according to Content-Encoding.
type decompressingTransport struct {
	next http.RoundTripper
}

func newDecompressingTransport(next http.RoundTripper) *decompressingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &decompressingTransport{next: next}
}

func (t *decompressingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "br, gzip, deflate")
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := decodeBody(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return resp, nil
}

// CloseIdleConnections forwards to the wrapped transport.
func (t *decompressingTransport) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// layeredBody closes the decoder, hands pooled readers back and closes the
// wrapped body.
type layeredBody struct {
	io.Reader
	decoder io.Closer
	inner   io.ReadCloser
	release func()
}

func (b *layeredBody) Close() error {
	var err error
	if b.decoder != nil {
		err = b.decoder.Close()
	}
	if b.release != nil {
		b.release()
		b.release = nil
	}
	return multierr.Append(err, b.inner.Close())
}

// decodeBody unwraps every Content-Encoding layer, last applied first. On
// error the body may be partially consumed.
func decodeBody(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}
	encodings := resp.Header.Values("Content-Encoding")
	if len(encodings) == 0 {
		return nil
	}

	var layers []string
	for _, v := range encodings {
		for _, part := range strings.Split(v, ",") {
			layers = append(layers, strings.ToLower(strings.TrimSpace(part)))
		}
	}

	for i := len(layers) - 1; i >= 0; i-- {
		body := &layeredBody{inner: resp.Body}
		switch layers[i] {
		case "gzip", "x-gzip":
			zr := gzipReaderPool.Get().(*gzip.Reader)
			if err := zr.Reset(resp.Body); err != nil {
				gzipReaderPool.Put(zr)
				return fmt.Errorf("gzip: %w", err)
			}
			body.Reader, body.decoder = zr, zr
			body.release = func() { gzipReaderPool.Put(zr) }
		case "br":
			br := brotliReaderPool.Get().(*brotli.Reader)
			if err := br.Reset(resp.Body); err != nil {
				brotliReaderPool.Put(br)
				return fmt.Errorf("brotli: %w", err)
			}
			body.Reader = br
			body.release = func() { brotliReaderPool.Put(br) }
		case "deflate":
			rc, err := newDeflateReader(resp.Body)
			if err != nil {
				return fmt.Errorf("deflate: %w", err)
			}
			body.Reader, body.decoder = rc, rc
		case "identity", "":
			continue
		default:
			return fmt.Errorf("unsupported Content-Encoding %q", layers[i])
		}
		resp.Body = body
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// newDeflateReader accepts both zlib wrapped (RFC 1950) and raw (RFC 1951)
// deflate streams, which servers label identically.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if isZlibHeader(header) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(h []byte) bool {
	if len(h) < 2 {
		return false
	}
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}
