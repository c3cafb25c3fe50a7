package server

import "net"

// localIP returns the address the client reached us on, so ephemeral
// per-stream listeners bind the same interface as the control connection
// rather than a wildcard address.
func (c *connState) localIP() string {
	if tcpAddr, ok := c.conn.LocalAddr().(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	return ""
}

func (c *connState) listenTCP() (net.Listener, uint16, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(c.localIP(), "0"))
	if err != nil {
		return nil, 0, err
	}
	return ln, uint16(ln.Addr().(*net.TCPAddr).Port), nil
}

func (c *connState) listenUDP() (net.PacketConn, uint16, error) {
	pc, err := net.ListenPacket("udp", net.JoinHostPort(c.localIP(), "0"))
	if err != nil {
		return nil, 0, err
	}
	return pc, uint16(pc.LocalAddr().(*net.UDPAddr).Port), nil
}
