package base

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Request is a request as seen by the router: method, path, headers, body.
// The request-line protocol token is RTSP/1.0 on the wire but HTTP/1.1 once
// the rtsphttp codec has rewritten it; Read accepts either so the router can
// be exercised directly against RTSP/1.0 fixtures in tests.
type Request struct {
	Method  Method
	Path    string
	Header  Header
	Content []byte
}

// Read reads a request line, headers and body from rb.
func (req *Request) Read(rb *bufio.Reader) error {
	byts, err := readBytesLimited(rb, ' ', maxMethodLength)
	if err != nil {
		return err
	}
	req.Method = Method(byts[:len(byts)-1])
	if req.Method == "" {
		return fmt.Errorf("empty method")
	}

	byts, err = readBytesLimited(rb, ' ', maxPathLength)
	if err != nil {
		return err
	}
	req.Path = string(byts[:len(byts)-1])
	if req.Path == "*" {
		req.Path = ""
	}

	byts, err = readBytesLimited(rb, '\r', maxProtocolLength)
	if err != nil {
		return err
	}
	proto := string(byts[:len(byts)-1])
	if proto != protoRTSP10 && proto != protoHTTP11 {
		return fmt.Errorf("expected '%s' or '%s', got '%s'", protoRTSP10, protoHTTP11, proto)
	}

	if err := expectLF(rb); err != nil {
		return err
	}

	if err := req.Header.read(rb); err != nil {
		return err
	}

	req.Content, err = readBody(rb, req.Header)
	return err
}

// Write writes a request using RTSP/1.0 framing.
func (req Request) Write(bw *bufio.Writer) error {
	path := req.Path
	if path == "" {
		path = "*"
	}

	if _, err := bw.Write([]byte(string(req.Method) + " " + path + " " + protoRTSP10 + "\r\n")); err != nil {
		return err
	}

	if len(req.Content) != 0 {
		req.Header.Set("Content-Length", strconv.Itoa(len(req.Content)))
	}

	if err := req.Header.write(bw); err != nil {
		return err
	}

	if err := writeBody(bw, req.Content); err != nil {
		return err
	}

	return bw.Flush()
}

// readBody reads a Request or Response body per header's Content-Length
// (spec.md §6 names application/x-apple-binary-plist, application/
// pairing+tlv8, application/octet-stream and text/parameters as the bodies
// carried this way; none of them is framed without a Content-Length, so a
// missing or repeated header means "no body" rather than "read until
// EOF" — the RTSP connection stays open for the next pipelined request).
// An unparsable value is an error.
func readBody(rb *bufio.Reader, header Header) ([]byte, error) {
	cls, ok := header["Content-Length"]
	if !ok || len(cls) != 1 {
		return nil, nil
	}

	cl, err := strconv.ParseInt(cls[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid Content-Length")
	}
	if cl > maxContentLength {
		return nil, fmt.Errorf("Content-Length exceeds %d (it's %d)", maxContentLength, cl)
	}

	body := make([]byte, cl)
	if _, err := io.ReadFull(rb, body); err != nil {
		return nil, err
	}
	return body, nil
}

// writeBody writes body verbatim, or nothing at all if it's empty; the
// caller is responsible for setting Content-Length beforehand.
func writeBody(bw *bufio.Writer, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	_, err := bw.Write(body)
	return err
}
