// Package rtsphttp implements the syntactic rewriter that sits between the
// raw RTSP/1.0 TCP stream spoken by AirPlay clients and the HTTP/1.1-shaped
// request/response pipeline the router operates on.
package rtsphttp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/blackbird-av/airplay2/pkg/base"
)

const (
	rtspVersionCRLF = "RTSP/1.0\r\n"
	httpVersionCRLF = "HTTP/1.1\r\n"
)

// Rewrite performs the inbound RTSP/1.0 -> HTTP/1.1 request-line rewrite on
// a complete, already-buffered request. Only the request line is touched;
// headers and body pass through byte-for-byte, satisfying the round-trip
// invariant for method, path and header/body content.
func Rewrite(src []byte) ([]byte, error) {
	idx := bytes.Index(src, []byte(rtspVersionCRLF))
	if idx < 0 {
		return nil, fmt.Errorf("rtsphttp: missing %q in request", rtspVersionCRLF)
	}

	line := strings.TrimRight(string(src[:idx]), " ")
	fields := strings.SplitN(line, " ", 2)
	if len(fields) != 2 {
		return nil, fmt.Errorf("rtsphttp: malformed request line %q", line)
	}
	method, rawPath := fields[0], fields[1]
	path := RewritePath(rawPath)

	var out bytes.Buffer
	out.WriteString(method)
	out.WriteByte(' ')
	out.WriteString(path)
	out.WriteByte(' ')
	out.WriteString(httpVersionCRLF)
	out.Write(src[idx+len(rtspVersionCRLF):])
	return out.Bytes(), nil
}

// RewritePath strips the scheme and authority from a full rtsp:// request
// target, leaving only the absolute path. "*" (a bare-method request target)
// rewrites to the empty string. Paths that are already absolute pass
// through unchanged.
func RewritePath(raw string) string {
	if raw == "*" {
		return ""
	}

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Path != "" {
		if u.Path == "*" {
			return ""
		}
		return u.Path
	}

	if stripped, ok := strings.CutPrefix(raw, "rtsp://"); ok {
		if pos := strings.IndexByte(stripped, '/'); pos >= 0 {
			return stripped[pos:]
		}
		return raw
	}

	return raw
}

// DecodeRequest reads one complete RTSP/1.0 request from br and returns it
// already rewritten into router form (HTTP/1.1 framing, absolute path).
func DecodeRequest(br *bufio.Reader) (*base.Request, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(line, rtspVersionCRLF) && !strings.HasSuffix(line, httpVersionCRLF) {
		return nil, fmt.Errorf("rtsphttp: missing RTSP/1.0 or HTTP/1.1 request line")
	}
	rewritten := strings.Replace(line, rtspVersionCRLF, httpVersionCRLF, 1)

	combined := bufio.NewReader(io.MultiReader(strings.NewReader(rewritten), br))

	req := &base.Request{Header: make(base.Header)}
	if err := req.Read(combined); err != nil {
		return nil, err
	}
	req.Path = RewritePath(req.Path)
	return req, nil
}

// EncodeResponse writes a response using RTSP/1.0 framing, the outbound
// half of the codec. base.Response always frames as RTSP/1.0, so no
// further translation is needed here.
func EncodeResponse(bw *bufio.Writer, res *base.Response) error {
	return res.Write(bw)
}
