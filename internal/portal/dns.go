package portal

import (
	"errors"
	"net"
	"net/netip"

	"golang.org/x/net/dns/dnsmessage"
)

// captiveTTL is the TTL of every synthesized answer, in seconds.
const captiveTTL = 60

// BuildAnswer answers a raw DNS query so that every A question resolves to ip.
// Other question types get an empty NOERROR response.
func BuildAnswer(query []byte, ip netip.Addr) ([]byte, error) {
	if !ip.Is4() {
		return nil, errors.New("captive dns needs an IPv4 address")
	}
	var p dnsmessage.Parser
	hdr, err := p.Start(query)
	if err != nil {
		return nil, err
	}
	questions, err := p.AllQuestions()
	if err != nil {
		return nil, err
	}

	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{
		ID:                 hdr.ID,
		Response:           true,
		OpCode:             hdr.OpCode,
		Authoritative:      true,
		RecursionDesired:   hdr.RecursionDesired,
		RecursionAvailable: false,
		RCode:              dnsmessage.RCodeSuccess,
	})
	b.EnableCompression()
	if err := b.StartQuestions(); err != nil {
		return nil, err
	}
	for _, q := range questions {
		if err := b.Question(q); err != nil {
			return nil, err
		}
	}
	if err := b.StartAnswers(); err != nil {
		return nil, err
	}
	for _, q := range questions {
		if q.Type != dnsmessage.TypeA || q.Class != dnsmessage.ClassINET {
			continue
		}
		err := b.AResource(dnsmessage.ResourceHeader{
			Name:  q.Name,
			Type:  dnsmessage.TypeA,
			Class: dnsmessage.ClassINET,
			TTL:   captiveTTL,
		}, dnsmessage.AResource{A: ip.As4()})
		if err != nil {
			return nil, err
		}
	}
	return b.Finish()
}

// dnsListener reads queries and hands each to the loop.
type dnsListener struct {
	conn net.PacketConn
}

func listenDNS(addr string) (*dnsListener, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	return &dnsListener{conn: conn}, nil
}

func (l *dnsListener) Addr() net.Addr { return l.conn.LocalAddr() }

func (l *dnsListener) Close() error { return l.conn.Close() }

// serve reads until the connection closes; answer runs each packet on the loop.
func (l *dnsListener) serve(answer func(query []byte) ([]byte, bool)) {
	buf := make([]byte, 512)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		query := append([]byte(nil), buf[:n]...)
		resp, ok := answer(query)
		if !ok {
			continue
		}
		_, _ = l.conn.WriteTo(resp, from)
	}
}
