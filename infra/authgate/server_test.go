package authgate

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easycab-sim/central/core/model"
	"github.com/easycab-sim/central/infra/logger"
)

type staticLoader struct {
	taxis map[int]model.Taxi
}

func (l staticLoader) LoadTaxis() (map[int]model.Taxi, error) {
	return l.taxis, nil
}

func startServer(t *testing.T, loader Loader) (net.Addr, context.CancelFunc) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(Config{Port: 1, TimeoutSeconds: 2}, loader, logger.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, ln)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("server did not drain")
		}
	})
	return ln.Addr(), cancel
}

func authenticate(t *testing.T, addr net.Addr, id string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	_, err = conn.Write([]byte(id))
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestServe_KnownTaxiGetsOK(t *testing.T) {
	addr, _ := startServer(t, staticLoader{taxis: map[int]model.Taxi{
		7: {ID: 7, Status: model.StatusFree, Color: model.ColorRed},
	}})
	assert.Equal(t, "OK", authenticate(t, addr, "7"))
}

func TestServe_UnknownTaxiGetsKO(t *testing.T) {
	addr, _ := startServer(t, staticLoader{taxis: map[int]model.Taxi{
		7: {ID: 7, Status: model.StatusFree, Color: model.ColorRed},
	}})
	assert.Equal(t, "KO", authenticate(t, addr, "99"))
}

func TestServe_MalformedIDGetsKO(t *testing.T) {
	addr, _ := startServer(t, staticLoader{taxis: map[int]model.Taxi{}})
	assert.Equal(t, "KO", authenticate(t, addr, "not-a-number"))
}

func TestServe_ConcurrentConnections(t *testing.T) {
	addr, _ := startServer(t, staticLoader{taxis: map[int]model.Taxi{
		1: {ID: 1}, 2: {ID: 2},
	}})

	results := make(chan string, 4)
	for _, id := range []string{"1", "2", "3", "4"} {
		go func(id string) {
			results <- authenticate(t, addr, id)
		}(id)
	}
	ok, ko := 0, 0
	for i := 0; i < 4; i++ {
		switch <-results {
		case "OK":
			ok++
		case "KO":
			ko++
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, ko)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, Config{Port: 4242}.Validate())
}
