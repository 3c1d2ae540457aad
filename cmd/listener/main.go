// Command listener joins a room without a browser: it mirrors playback
// on a simulated player, logs chat, and with -video joins the video mesh
// and counts the media it receives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ayush94-1708/music-glass/internal/adapters/rtc"
	"github.com/Ayush94-1708/music-glass/internal/client"
	"github.com/Ayush94-1708/music-glass/internal/protocol"
)

var (
	server  = flag.String("server", "http://localhost:8080", "server base URL")
	room    = flag.String("room", "", "room code to join")
	name    = flag.String("name", "Listener", "display name")
	token   = flag.String("token", "", "bearer token, when the server requires one")
	catalog = flag.String("catalog", "", "comma separated track ids, in playlist order")
	video   = flag.Bool("video", false, "join the video mesh")
	verbose = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *room == "" {
		fmt.Fprintln(os.Stderr, "usage: listener -room CODE [-server URL] [-name NAME] [-video]")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cancel); err != nil {
		log.Fatal().Err(err).Msg("listener failed")
	}
	log.Info().Msg("listener exited")
}

func run(ctx context.Context, stop context.CancelFunc) error {
	base, err := url.Parse(strings.TrimRight(*server, "/"))
	if err != nil {
		return fmt.Errorf("parse server url: %w", err)
	}

	iceServers, err := fetchICEServers(ctx, base.String()+"/api/rtc/config")
	if err != nil {
		log.Warn().Err(err).Str("module", "listener").Msg("using default ICE servers")
	}

	disp := client.NewDispatcher()
	conn, err := client.Dial(ctx, signalURL(base), disp, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	player := newClockPlayer()
	mesh := client.NewMesh(rtc.NewPeerFactory(rtc.Configuration(iceServers), drainTrack), nil)
	sess := client.NewSession(conn, player, splitCatalog(*catalog), mesh)
	player.onLoaded = sess.OnMediaLoaded
	sess.Register(disp)

	watch(ctx, disp, sess, stop)

	runErr := make(chan error, 1)
	go func() { runErr <- conn.Run(ctx) }()

	if err := sess.JoinRoom(ctx, *room, *name); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	select {
	case <-ctx.Done():
		if sess.RoomCode() != "" {
			leaveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = sess.LeaveRoom(leaveCtx)
		}
		mesh.Disable()
		return nil
	case err := <-runErr:
		mesh.Disable()
		return err
	}
}

// watch adds the listener's own handlers on top of the session's.
func watch(ctx context.Context, disp *client.Dispatcher, sess *client.Session, stop context.CancelFunc) {
	var videoOnce sync.Once

	disp.On(protocol.TypeRoomJoined, func([]byte) {
		log.Info().Str("module", "listener").Str("room", string(sess.RoomCode())).Str("self", sess.Self()).Msg("joined")
	})
	disp.On(protocol.TypeMembersUpdate, func([]byte) {
		members := sess.Members()
		log.Info().Str("module", "listener").Int("members", len(members)).Msg("members")
		if *video && sess.RoomCode() != "" {
			// members are known now, so the mesh can pick whom to dial
			videoOnce.Do(func() {
				go func() {
					if err := sess.JoinVideo(ctx); err != nil {
						log.Warn().Err(err).Str("module", "listener").Msg("join video")
					}
				}()
			})
		}
	})
	disp.On(protocol.TypeChatHistory, func(raw []byte) {
		var msg protocol.ChatHistory
		if json.Unmarshal(raw, &msg) == nil {
			for _, m := range msg.Messages {
				log.Info().Str("module", "listener.chat").Str("from", m.Sender).Msg(m.Content)
			}
		}
	})
	disp.On(protocol.TypeMessageReceived, func(raw []byte) {
		var msg protocol.MessageReceived
		if json.Unmarshal(raw, &msg) == nil {
			log.Info().Str("module", "listener.chat").Str("from", msg.Message.Sender).Msg(msg.Message.Content)
		}
	})
	disp.On(protocol.TypeLikesUpdate, func([]byte) {
		log.Debug().Str("module", "listener").Int("tracks", len(sess.Likes())).Msg("likes")
	})
	disp.On(protocol.TypeError, func([]byte) {
		if e := sess.LastError(); e != nil {
			log.Warn().Str("module", "listener").Str("code", e.Code).Msg(e.Error)
			if e.Code == protocol.CodeRoomNotFound {
				stop()
			}
		}
	})
	disp.On(protocol.TypeRoomClosed, func(raw []byte) {
		var msg protocol.RoomClosed
		_ = json.Unmarshal(raw, &msg)
		log.Info().Str("module", "listener").Str("reason", msg.Reason).Msg("room closed")
		stop()
	})
}

// drainTrack reads a remote track to the end so its buffers never fill.
func drainTrack(remote string, track *webrtc.TrackRemote) {
	go func() {
		buf := make([]byte, 1500)
		var packets int
		for {
			if _, _, err := track.Read(buf); err != nil {
				if err != io.EOF {
					log.Debug().Err(err).Str("module", "listener.video").Str("remote", remote).Msg("track read")
				}
				break
			}
			packets++
		}
		log.Info().Str("module", "listener.video").Str("remote", remote).Str("kind", track.Kind().String()).Int("packets", packets).Msg("track ended")
	}()
}

func signalURL(base *url.URL) string {
	u := *base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws/signal"
	if *token != "" {
		u.RawQuery = url.Values{"token": {*token}}.Encode()
	}
	return u.String()
}

func fetchICEServers(ctx context.Context, endpoint string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rtc config: %s", resp.Status)
	}

	var body struct {
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"iceServers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rtc config: %w", err)
	}
	var out []string
	for _, s := range body.ICEServers {
		out = append(out, s.URLs...)
	}
	return out, nil
}

func splitCatalog(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
