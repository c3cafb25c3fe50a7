package rtsphttp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewriteSetupIPv4AndIPv6(t *testing.T) {
	srcIPv4 := "SETUP rtsp://192.168.1.32/10491381106460282020 RTSP/1.0\r\n" +
		"Content-Length: 0\r\n" +
		"Content-Type: application/x-apple-binary-plist\r\n" +
		"CSeq: 6\r\n" +
		"DACP-ID: A3F9647052546E53\r\n" +
		"Active-Remote: 3633173181\r\n" +
		"User-Agent: AirPlay/675.4.1\r\n" +
		"\r\n"
	expectedIPv4 := "SETUP /10491381106460282020 HTTP/1.1\r\n" +
		"Content-Length: 0\r\n" +
		"Content-Type: application/x-apple-binary-plist\r\n" +
		"CSeq: 6\r\n" +
		"DACP-ID: A3F9647052546E53\r\n" +
		"Active-Remote: 3633173181\r\n" +
		"User-Agent: AirPlay/675.4.1\r\n" +
		"\r\n"

	out, err := Rewrite([]byte(srcIPv4))
	require.NoError(t, err)
	require.Equal(t, expectedIPv4, string(out))

	srcIPv6 := "SETUP rtsp://fe80::3032:2ff:fe42:7267/4308029329791076611 RTSP/1.0\r\n" +
		"Content-Length: 0\r\n" +
		"Content-Type: application/x-apple-binary-plist\r\n" +
		"CSeq: 6\r\n" +
		"DACP-ID: 974F76DCFEAD7ECC\r\n" +
		"Active-Remote: 418710485\r\n" +
		"User-Agent: AirPlay/695.5.1\r\n" +
		"\r\n"
	expectedIPv6 := "SETUP /4308029329791076611 HTTP/1.1\r\n" +
		"Content-Length: 0\r\n" +
		"Content-Type: application/x-apple-binary-plist\r\n" +
		"CSeq: 6\r\n" +
		"DACP-ID: 974F76DCFEAD7ECC\r\n" +
		"Active-Remote: 418710485\r\n" +
		"User-Agent: AirPlay/695.5.1\r\n" +
		"\r\n"

	out, err = Rewrite([]byte(srcIPv6))
	require.NoError(t, err)
	require.Equal(t, expectedIPv6, string(out))
}

func TestRewritePathBareMethod(t *testing.T) {
	require.Equal(t, "", RewritePath("*"))
}

func TestRewritePathAbsolute(t *testing.T) {
	require.Equal(t, "/feedback", RewritePath("/feedback"))
}

func TestRewriteMissingVersion(t *testing.T) {
	_, err := Rewrite([]byte("GET /info HTTP/1.1\r\n\r\n"))
	require.Error(t, err)
}
