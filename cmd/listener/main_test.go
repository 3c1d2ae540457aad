package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalURL(t *testing.T) {
	u, err := url.Parse("https://glass.example.org/app/")
	require.NoError(t, err)
	assert.Equal(t, "wss://glass.example.org/app/api/ws/signal", signalURL(u))

	u, err = url.Parse("http://localhost:8080")
	require.NoError(t, err)
	*token = "abc"
	t.Cleanup(func() { *token = "" })
	assert.Equal(t, "ws://localhost:8080/api/ws/signal?token=abc", signalURL(u))
}

func TestSplitCatalog(t *testing.T) {
	assert.Equal(t, []string{"t0", "t1", "t2"}, splitCatalog(" t0, t1,,t2 "))
	assert.Nil(t, splitCatalog(""))
}

func TestFetchICEServers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rtc/config", r.URL.Path)
		_, _ = w.Write([]byte(`{"iceServers":[{"urls":["stun:a:3478"]},{"urls":["turn:b:3478"]}]}`))
	}))
	defer srv.Close()

	servers, err := fetchICEServers(context.Background(), srv.URL+"/api/rtc/config")
	require.NoError(t, err)
	assert.Equal(t, []string{"stun:a:3478", "turn:b:3478"}, servers)

	down := httptest.NewServer(http.NotFoundHandler())
	defer down.Close()
	_, err = fetchICEServers(context.Background(), down.URL+"/api/rtc/config")
	assert.Error(t, err)
}

func TestClockPlayer(t *testing.T) {
	p := newClockPlayer()
	loaded := make(chan int, 1)
	p.onLoaded = func(track int) { loaded <- track }

	p.Load(2)
	select {
	case got := <-loaded:
		assert.Equal(t, 2, got)
	case <-time.After(time.Second):
		t.Fatal("load was never reported")
	}

	p.Seek(40)
	assert.Equal(t, 40.0, p.Position(), "paused player stays put")

	p.Play()
	time.Sleep(20 * time.Millisecond)
	p.Pause()
	pos := p.Position()
	assert.Greater(t, pos, 40.0)
	assert.Less(t, pos, 41.0)
}
