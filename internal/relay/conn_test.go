package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// tokenIdentity treats the token query parameter as the user ID.
func tokenIdentity(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return "", errors.New("missing token")
	}
	return token, nil
}

type relayServer struct {
	hub *Hub
	srv *httptest.Server
}

func newRelayServer(t *testing.T, members *staticMembers, opts ServerOptions) *relayServer {
	t.Helper()
	hub := startHub(t)
	relay := NewRelay(hub, members, discardLogger())
	srv := httptest.NewServer(NewServer(relay, hub, tokenIdentity, opts, discardLogger()))
	t.Cleanup(srv.Close)
	return &relayServer{hub: hub, srv: srv}
}

func (rs *relayServer) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(rs.srv.URL, "http") + "?token=" + user
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial as %s failed: %v", user, err)
	}
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func (rs *relayServer) waitObservers(t *testing.T, groupID string, want int) {
	t.Helper()
	waitFor(t, "observer count", func() bool {
		n, err := rs.hub.Observers(context.Background(), groupID)
		return err == nil && n == want
	})
}

func send(t *testing.T, c *websocket.Conn, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatalf("write %s failed: %v", frame, err)
	}
}

func readFrame(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(data)
}

func TestServer_RejectsMissingToken(t *testing.T) {
	rs := newRelayServer(t, newStaticMembers(), ServerOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(rs.srv.URL, "http")
	_, resp, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %+v, want 401", resp)
	}
}

func TestServer_BroadcastsToOtherMembers(t *testing.T) {
	members := newStaticMembers()
	members.add("G1", "u1", "u2", "u3")
	rs := newRelayServer(t, members, ServerOptions{})

	c1, c2, c3 := rs.dial(t, "u1"), rs.dial(t, "u2"), rs.dial(t, "u3")
	send(t, c1, `{"type":"join","groupId":"G1","userId":"u1"}`)
	send(t, c2, `{"type":"join","groupId":"G1","userId":"u2"}`)
	send(t, c3, `{"type":"join","groupId":"G1","userId":"u3"}`)
	rs.waitObservers(t, "G1", 3)

	frame := `{"type":"idea","title":"Spa day"}`
	send(t, c2, frame)

	if got := readFrame(t, c1); got != frame {
		t.Errorf("c1 received %s, want %s", got, frame)
	}
	if got := readFrame(t, c3); got != frame {
		t.Errorf("c3 received %s, want %s", got, frame)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, data, err := c2.Read(ctx); err == nil {
		t.Errorf("sender received its own frame: %s", data)
	}
}

func TestServer_MalformedFrameThenJoin(t *testing.T) {
	members := newStaticMembers()
	members.add("G", "alice", "bob")
	rs := newRelayServer(t, members, ServerOptions{})

	alice, bob := rs.dial(t, "alice"), rs.dial(t, "bob")
	send(t, bob, `{"type":"join","groupId":"G","userId":"bob"}`)

	send(t, alice, "{{{ not json")
	send(t, alice, `{"type":"join","groupId":"G","userId":"alice"}`)
	rs.waitObservers(t, "G", 2)

	send(t, alice, `{"type":"vote","ideaId":"i1"}`)
	if got := readFrame(t, bob); got != `{"type":"vote","ideaId":"i1"}` {
		t.Errorf("bob received %s", got)
	}
}

func TestServer_UnauthorizedJoinKeepsConnectionOpen(t *testing.T) {
	members := newStaticMembers()
	members.add("G", "alice", "bob")
	rs := newRelayServer(t, members, ServerOptions{})

	mallory, bob := rs.dial(t, "mallory"), rs.dial(t, "bob")
	send(t, bob, `{"type":"join","groupId":"G","userId":"bob"}`)
	send(t, mallory, `{"type":"join","groupId":"G","userId":"alice"}`)
	send(t, mallory, `{"type":"join","groupId":"G","userId":"mallory"}`)

	waitFor(t, "both refusals", func() bool {
		return testutil.ToFloat64(rs.hub.Metrics().Dropped.WithLabelValues(dropUnauthorized)) == 2
	})
	rs.waitObservers(t, "G", 1)

	// The channel stays usable after a refused join.
	members.add("G", "mallory")
	send(t, mallory, `{"type":"join","groupId":"G","userId":"mallory"}`)
	rs.waitObservers(t, "G", 2)
}

func TestServer_DisconnectUnregisters(t *testing.T) {
	members := newStaticMembers()
	members.add("G", "alice", "bob")
	rs := newRelayServer(t, members, ServerOptions{})

	alice, bob := rs.dial(t, "alice"), rs.dial(t, "bob")
	send(t, alice, `{"type":"join","groupId":"G","userId":"alice"}`)
	send(t, bob, `{"type":"join","groupId":"G","userId":"bob"}`)
	rs.waitObservers(t, "G", 2)

	alice.Close(websocket.StatusNormalClosure, "bye")
	rs.waitObservers(t, "G", 1)
	waitFor(t, "connection gauge", func() bool {
		return testutil.ToFloat64(rs.hub.Metrics().Connections) == 1
	})

	send(t, bob, `{"type":"idea","title":"Cake"}`)
	rs.waitObservers(t, "G", 1)
}

func TestServer_JoinTimeoutClosesIdleConnection(t *testing.T) {
	rs := newRelayServer(t, newStaticMembers(), ServerOptions{JoinTimeout: 50 * time.Millisecond})
	c := rs.dial(t, "lurker")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Errorf("close status = %v (err %v), want policy violation", status, err)
	}
}
