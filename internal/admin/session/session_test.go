package session_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/backoffice/internal/admin/session"
	"github.com/stretchr/testify/require"
)

const admin = "admin@example.com"

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newCodec(t *testing.T, c *clock) *session.Codec {
	t.Helper()
	codec, err := session.New(session.Config{
		Secret:  []byte("server-secret-server-secret-1234"),
		Subject: admin,
		Leeway:  30 * time.Second,
		Now:     c.Now,
	})
	require.NoError(t, err)
	return codec
}

func TestIssueVerify_RoundTripAndExpiry(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec := newCodec(t, c)

	tok, err := codec.Issue(admin, time.Hour, session.MethodPasskey)
	require.NoError(t, err)
	require.Equal(t, c.t, tok.IssuedAt)
	require.Equal(t, c.t.Add(time.Hour), tok.ExpiresAt)

	for _, offset := range []time.Duration{0, 30 * time.Minute, time.Hour, time.Hour + 29*time.Second} {
		c.t = tok.IssuedAt.Add(offset)
		p, err := codec.Verify(tok.Value)
		require.NoError(t, err, "offset %s", offset)
		require.Equal(t, admin, p.Subject)
		require.Equal(t, admin, p.PrincipalID())
		require.Equal(t, []string{session.MethodPasskey}, p.Methods)
		require.Equal(t, tok.ExpiresAt, p.ExpiresAt)
		require.Equal(t, tok.IssuedAt, p.IssuedAt)
		require.NotEmpty(t, p.TokenID)
	}

	for _, offset := range []time.Duration{time.Hour + 31*time.Second, 48 * time.Hour} {
		c.t = tok.IssuedAt.Add(offset)
		_, err := codec.Verify(tok.Value)
		require.ErrorIs(t, err, session.ErrInvalid, "offset %s", offset)
	}
}

func TestVerify_RejectsEveryBitFlip(t *testing.T) {
	c := &clock{t: time.Now()}
	codec := newCodec(t, c)

	tok, err := codec.Issue(admin, time.Hour, session.MethodPassword)
	require.NoError(t, err)

	raw := []byte(tok.Value)
	for i := range raw {
		for bit := range 8 {
			mutated := append([]byte(nil), raw...)
			mutated[i] ^= 1 << bit

			_, err := codec.Verify(string(mutated))
			require.Error(t, err, "byte %d bit %d accepted", i, bit)
		}
	}
}

func TestVerify_Rejections(t *testing.T) {
	c := &clock{t: time.Now()}
	codec := newCodec(t, c)

	other, err := session.New(session.Config{Secret: []byte("a-completely-different-secret-xx"), Now: c.Now})
	require.NoError(t, err)
	foreign, err := other.Issue(admin, time.Hour)
	require.NoError(t, err)

	intruder, err := codec.Issue("intruder@example.com", time.Hour)
	require.NoError(t, err)

	good, err := codec.Issue(admin, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(good.Value, ".")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "definitely.not.ajwt"},
		{"other secret", foreign.Value},
		{"other subject", intruder.Value},
		{"signature stripped", parts[0] + "." + parts[1] + "."},
		{"swapped payload", parts[0] + "." + strings.Split(intruder.Value, ".")[1] + "." + parts[2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			require.ErrorIs(t, err, session.ErrInvalid)
		})
	}
}

func TestCodec_Misconfigured(t *testing.T) {
	codec, err := session.New(session.Config{})
	require.NoError(t, err)

	_, err = codec.Issue(admin, time.Hour)
	require.ErrorIs(t, err, session.ErrMisconfigured)

	_, err = codec.Verify("anything")
	require.ErrorIs(t, err, session.ErrMisconfigured)
}

func TestIssue_InvalidInput(t *testing.T) {
	codec := newCodec(t, &clock{t: time.Now()})

	_, err := codec.Issue("", time.Hour)
	require.Error(t, err)
	_, err = codec.Issue(admin, 0)
	require.Error(t, err)
}
