package portal

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/dns/dnsmessage"
)

func buildQuery(t *testing.T, name string, qtype dnsmessage.Type) []byte {
	t.Helper()
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{ID: 0x1234, RecursionDesired: true})
	require.NoError(t, b.StartQuestions())
	require.NoError(t, b.Question(dnsmessage.Question{
		Name:  dnsmessage.MustNewName(name),
		Type:  qtype,
		Class: dnsmessage.ClassINET,
	}))
	msg, err := b.Finish()
	require.NoError(t, err)
	return msg
}

func parseAnswers(t *testing.T, msg []byte) [][4]byte {
	t.Helper()
	var m dnsmessage.Message
	require.NoError(t, m.Unpack(msg))
	assert.True(t, m.Header.Response)
	assert.Equal(t, uint16(0x1234), m.Header.ID)
	var out [][4]byte
	for _, a := range m.Answers {
		if r, ok := a.Body.(*dnsmessage.AResource); ok {
			out = append(out, r.A)
		}
	}
	return out
}

func TestBuildAnswer_AQuery(t *testing.T) {
	resp, err := BuildAnswer(buildQuery(t, "captive.apple.com.", dnsmessage.TypeA), netip.MustParseAddr("192.168.4.1"))
	require.NoError(t, err)
	assert.Equal(t, [][4]byte{{192, 168, 4, 1}}, parseAnswers(t, resp))
}

func TestBuildAnswer_NonAQueryHasNoAnswers(t *testing.T) {
	resp, err := BuildAnswer(buildQuery(t, "example.com.", dnsmessage.TypeAAAA), netip.MustParseAddr("192.168.4.1"))
	require.NoError(t, err)
	assert.Empty(t, parseAnswers(t, resp))
}

func TestBuildAnswer_Garbage(t *testing.T) {
	_, err := BuildAnswer([]byte{0x01}, netip.MustParseAddr("192.168.4.1"))
	require.Error(t, err)
}
