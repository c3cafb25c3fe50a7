package server

import (
	"github.com/blackbird-av/airplay2/pkg/base"
	"github.com/blackbird-av/airplay2/pkg/plist"
)

// handleInfo answers GET /info with the device descriptor spec.md §4.2
// describes: the same identity and feature bitmask advertised over mDNS.
func (c *connState) handleInfo(_ *base.Request) *base.Response {
	cfg := c.server.cfg
	info := plist.InfoResponse{
		DeviceID:        cfg.DeviceID(),
		MACAddress:      cfg.DeviceID(),
		Features:        uint64(cfg.Features),
		Manufacturer:    cfg.Manufacturer,
		Model:           cfg.Model,
		Name:            cfg.Name,
		ProtocolVersion: "1.1",
		SourceVersion:   cfg.FirmwareVer,
	}

	body, err := plist.Encode(info)
	if err != nil {
		return errorResponse(err)
	}
	return plistResponse(body)
}
