package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blackbird-av/airplay2/pkg/base"
	"github.com/blackbird-av/airplay2/pkg/sink"
)

// handleGetParameter answers GET_PARAMETER's text/parameters "volume"
// query (spec.md §4.2), reading the currently-set-up audio stream's
// volume if one exists, falling back to the configured initial volume.
func (c *connState) handleGetParameter(_ *base.Request) *base.Response {
	vol := c.server.cfg.InitialVolume
	if ad, ok := c.currentAudioStream().(sink.AudioDevice); ok {
		vol = ad.GetVolume()
	}

	body := []byte(fmt.Sprintf("volume: %.6f\r\n", vol))
	return &base.Response{
		StatusCode: base.StatusOK,
		Header:     base.Header{"Content-Type": base.HeaderValue{"text/parameters"}},
		Body:       body,
	}
}

// handleSetParameter applies a text/parameters "volume: N" body to the
// currently-set-up audio stream, if any (spec.md §4.2). Lines naming any
// other parameter are accepted and ignored.
func (c *connState) handleSetParameter(req *base.Request) *base.Response {
	ad, ok := c.currentAudioStream().(sink.AudioDevice)

	for _, line := range strings.Split(string(req.Content), "\n") {
		key, val, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(key) != "volume" {
			continue
		}
		vol, err := strconv.ParseFloat(strings.TrimSpace(val), 32)
		if err != nil {
			continue
		}
		if ok {
			ad.SetVolume(float32(vol))
		}
	}
	return okEmpty()
}
