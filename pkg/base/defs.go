// Package base contains the wire-level request/response types shared by the
// RTSP router: RTSP/1.0 framing on the way in (after the HTTP rewrite),
// RTSP/1.0 framing on the way out.
package base

const (
	protoRTSP10 = "RTSP/1.0"
	protoHTTP11 = "HTTP/1.1"

	maxMethodLength   = 128
	maxPathLength     = 1024
	maxProtocolLength = 128
	maxContentLength  = 12 * 1024 * 1024
)

// Method is the method of a request.
type Method string

// methods understood by the router (standard RTSP plus AirPlay's custom verbs).
const (
	MethodOptions            Method = "OPTIONS"
	MethodDescribe           Method = "DESCRIBE"
	MethodAnnounce           Method = "ANNOUNCE"
	MethodSetup              Method = "SETUP"
	MethodPlay               Method = "PLAY"
	MethodPause              Method = "PAUSE"
	MethodRecord             Method = "RECORD"
	MethodTeardown           Method = "TEARDOWN"
	MethodGetParameter       Method = "GET_PARAMETER"
	MethodSetParameter       Method = "SET_PARAMETER"
	MethodFlush              Method = "FLUSH"
	MethodFlushBuffered      Method = "FLUSHBUFFERED"
	MethodSetRateAnchorTime  Method = "SETRATEANCHORTIME"
	MethodSetPeers           Method = "SETPEERS"
	MethodGet                Method = "GET"
	MethodPost               Method = "POST"
)
