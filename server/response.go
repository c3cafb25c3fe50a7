package server

import (
	"github.com/blackbird-av/airplay2/internal/airerrors"
	"github.com/blackbird-av/airplay2/pkg/base"
)

func okEmpty() *base.Response {
	return &base.Response{StatusCode: base.StatusOK}
}

func octetResponse(body []byte) *base.Response {
	return &base.Response{
		StatusCode: base.StatusOK,
		Header:     base.Header{"Content-Type": base.HeaderValue{"application/octet-stream"}},
		Body:       body,
	}
}

func plistResponse(body []byte) *base.Response {
	return &base.Response{
		StatusCode: base.StatusOK,
		Header:     base.Header{"Content-Type": base.HeaderValue{"application/x-apple-binary-plist"}},
		Body:       body,
	}
}

func tlv8Response(body []byte) *base.Response {
	return &base.Response{
		StatusCode: base.StatusOK,
		Header:     base.Header{"Content-Type": base.HeaderValue{"application/pairing+tlv8"}},
		Body:       body,
	}
}

// errorResponse maps err to the status code spec.md §7's error taxonomy
// assigns it, with the error text as the body.
func errorResponse(err error) *base.Response {
	return &base.Response{
		StatusCode: base.StatusCode(airerrors.StatusCode(err)),
		Body:       []byte(err.Error()),
	}
}
